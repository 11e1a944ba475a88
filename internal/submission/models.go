package submission

import (
	"encoding/json"
	"fmt"

	"punsj/internal/folder"
	"punsj/internal/journalpost"
	"punsj/internal/k9format"
	"punsj/internal/mapper"
	"punsj/pkg/domain"
)

// OpenRequest opens a new application for a journalpost.
type OpenRequest struct {
	NationalID    string `json:"norskIdent"`
	JournalpostID string `json:"journalpostId"`
	CareRecipient string `json:"pleietrengendeIdent,omitempty"`
	Child         string `json:"barnIdent,omitempty"`
	OtherParty    string `json:"annenPart,omitempty"`
}

// related returns the party the case is about, if any.
func (r OpenRequest) related() string {
	if r.CareRecipient != "" {
		return r.CareRecipient
	}
	return r.Child
}

// SendRequest submits a stored application.
type SendRequest struct {
	NationalID    string `json:"norskIdent"`
	ApplicationID string `json:"soeknadId"`
}

// PeriodsRequest asks for periods already registered in the case system.
type PeriodsRequest struct {
	Applicant     string `json:"brukerIdent"`
	Child         string `json:"barnIdent,omitempty"`
	CareRecipient string `json:"pleietrengendeIdent,omitempty"`
}

// View is a stored draft with the server-held fields overlaid.
type View map[string]json.RawMessage

func newView(app *folder.Application, nationalID domain.NationalID) (View, error) {
	v := View{}
	if len(app.Payload) > 0 {
		if err := json.Unmarshal(app.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode stored payload: %w", err)
		}
	}
	set := func(key string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		v[key] = raw
		return nil
	}
	if err := set("soeknadId", app.ID); err != nil {
		return nil, err
	}
	if err := set("soekerId", nationalID); err != nil {
		return nil, err
	}
	if err := set("journalposter", domain.JournalpostStrings(app.Journalposts)); err != nil {
		return nil, err
	}
	return v, nil
}

// FolderView lists a person's applications for one benefit type.
type FolderView struct {
	NationalID   string `json:"søker"`
	BenefitCode  string `json:"fagsakTypeKode"`
	Applications []View `json:"søknader"`
}

// ValidationError carries the field errors found while mapping an application.
type ValidationError struct {
	ApplicationID string              `json:"soeknadId"`
	Errors        []mapper.FieldError `json:"feil"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("søknad %s has %d field errors", e.ApplicationID, len(e.Errors))
}

// envelope is the record published for a submitted application.
type envelope struct {
	Søknad       *k9format.Søknad `json:"søknad"`
	Journalposts []string         `json:"journalpostIder"`
	Benefit      string           `json:"ytelse"`
}

// JournalpostView is the case worker's view of one inbound document.
type JournalpostView struct {
	JournalpostID   string `json:"journalpostId"`
	BenefitCode     string `json:"ytelse,omitempty"`
	Source          string `json:"kilde,omitempty"`
	FerdigBehandlet bool   `json:"ferdigBehandlet"`
}

func newJournalpostView(jp *journalpost.Journalpost) JournalpostView {
	return JournalpostView{
		JournalpostID:   jp.ID.String(),
		BenefitCode:     jp.BenefitType.Code(),
		Source:          string(jp.Source),
		FerdigBehandlet: jp.FerdigBehandlet,
	}
}

// PersonJournalposts lists the journalposts registered for a person.
type PersonJournalposts struct {
	NationalID   string            `json:"søker"`
	Journalposts []JournalpostView `json:"journalposter"`
}
