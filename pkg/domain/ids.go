// Package domain holds the typed identifiers and value types shared across modules.
//
// Parse functions are used at trust boundaries (HTTP handlers, stored documents) and
// reject malformed input with dErrors.CodeInvalidInput.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "punsj/pkg/domain-errors"
)

// PersonID is the stable internal identifier of a person.
type PersonID uuid.UUID

// FolderID identifies a folder. A person's folder shares the person's identifier.
type FolderID uuid.UUID

// BucketID identifies a bucket within a folder.
type BucketID uuid.UUID

// ApplicationID identifies an application. Minted once, never reused.
type ApplicationID uuid.UUID

// JournalpostID is the identifier of an inbound document in the archive.
type JournalpostID string

// ActorID is the stable actor identifier returned by the identity resolver.
type ActorID string

// bucketNamespace scopes deterministic bucket identifiers.
var bucketNamespace = uuid.MustParse("5d3f2c1e-8a4b-4f6e-9c0d-7b1a2e3f4d5c")

func NewPersonID() PersonID { return PersonID(uuid.New()) }

func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// FolderFor returns the folder identifier owned by a person.
func FolderFor(p PersonID) FolderID { return FolderID(p) }

// BucketFor derives the bucket identifier for a (folder, benefit type) pair.
// The same pair always yields the same identifier.
func BucketFor(f FolderID, t BenefitType) BucketID {
	return BucketID(uuid.NewSHA1(bucketNamespace, []byte(f.String()+"/"+string(t))))
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s, "person id")
	return PersonID(u), err
}

func ParseBucketID(s string) (BucketID, error) {
	u, err := parseUUID(s, "bucket id")
	return BucketID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "soeknadId")
	return ApplicationID(u), err
}

// ParseJournalpostID accepts any non-blank identifier; the archive owns the format.
func ParseJournalpostID(s string) (JournalpostID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "journalpostId is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid journalpostId")
	}
	return JournalpostID(s), nil
}

func (id PersonID) String() string      { return uuid.UUID(id).String() }
func (id FolderID) String() string      { return uuid.UUID(id).String() }
func (id BucketID) String() string      { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id JournalpostID) String() string { return string(id) }
func (id ActorID) String() string       { return string(id) }

func (id PersonID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id PersonID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id FolderID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id BucketID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *PersonID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *FolderID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BucketID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApplicationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// JournalpostStrings converts typed journalpost ids for storage queries.
func JournalpostStrings(ids []JournalpostID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
