// Package k9format holds the canonical benefits schema submissions are mapped into.
//
// Go names are English; JSON names follow the downstream schema.
package k9format

import (
	"time"

	"cloud.google.com/go/civil"
)

// Version of the schema produced by the mappers.
const Version = "1.0.0"

// Søknad is a complete or partially mapped application.
type Søknad struct {
	ID           Optional[string]    `json:"søknadId"`
	Version      string              `json:"versjon"`
	ReceivedAt   Optional[time.Time] `json:"mottattDato"`
	Applicant    Optional[Applicant] `json:"søker"`
	Journalposts []Journalpost       `json:"journalposter"`
	Benefit      Ytelse              `json:"ytelse"`
}

// Applicant is the person applying.
type Applicant struct {
	NationalID string `json:"norskIdentitetsnummer"`
}

// Journalpost references an archived inbound document.
type Journalpost struct {
	ID                  string `json:"journalpostId"`
	UnpunchableInfo     bool   `json:"informasjonSomIkkeKanPunsjes"`
	ContainsMedicalInfo bool   `json:"inneholderMedisinskeOpplysninger"`
}

// Person identifies a child or other party by national id or, failing that, birth date.
type Person struct {
	NationalID Optional[string]     `json:"norskIdentitetsnummer"`
	BirthDate  Optional[civil.Date] `json:"fødselsdato"`
}

// Identified reports whether either identifier is present.
func (p Person) Identified() bool {
	return p.NationalID.IsSet() || p.BirthDate.IsSet()
}

// Ytelse is the benefit-specific part of a Søknad.
type Ytelse interface {
	Type() string
	Validate(existing []Periode) []Violation
}
