package journalpost

import (
	"time"

	"punsj/pkg/domain"
)

// Source records which system first registered a journalpost.
type Source string

const (
	SourcePunsj Source = "PUNSJ"
)

// Journalpost is the local bookkeeping for an inbound archive document. Applications
// reference journalposts by id; a journalpost can be referenced by several applications.
type Journalpost struct {
	ID              domain.JournalpostID `json:"journalpost_id"`
	ActorID         domain.ActorID       `json:"actor_id,omitempty"`
	Source          Source               `json:"source,omitempty"`
	BenefitType     domain.BenefitType   `json:"benefit_type,omitempty"`
	FerdigBehandlet bool                 `json:"ferdig_behandlet"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Sendable reports whether the journalpost may still be part of a submission.
func (j *Journalpost) Sendable() bool {
	return j == nil || !j.FerdigBehandlet
}
