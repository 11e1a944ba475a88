package mapper

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"punsj/internal/k9format"
)

// SharedCareDto is a message about sharing care days with another parent.
type SharedCareDto struct {
	DedupKey     uuid.UUID   `json:"dedupKey"`
	Journalposts []string    `json:"journalpostIder"`
	ReceivedDate *civil.Date `json:"mottaksdato,omitempty"`
	From         PartyDto    `json:"fra"`
	To           PartyDto    `json:"til"`
	Days         int         `json:"antallDager"`
}

// PartyDto is one side of a care-day transfer.
type PartyDto struct {
	NationalID string `json:"identitetsnummer"`
}

// SharedCareMessage is the event published for a care-day transfer.
type SharedCareMessage struct {
	DedupKey     string                        `json:"dedupKey"`
	Version      string                        `json:"versjon"`
	ReceivedDate k9format.Optional[civil.Date] `json:"mottaksdato"`
	Journalposts []string                      `json:"journalpostIder"`
	From         PartyDto                      `json:"fra"`
	To           PartyDto                      `json:"til"`
	Days         int                           `json:"antallDager"`
}

// MapSharedCare validates dto and builds the message.
func MapSharedCare(dto SharedCareDto) (*SharedCareMessage, []FieldError) {
	b := &builder{}
	msg := &SharedCareMessage{
		DedupKey:     dto.DedupKey.String(),
		Version:      k9format.Version,
		Journalposts: dto.Journalposts,
		Days:         dto.Days,
	}
	if dto.DedupKey == uuid.Nil {
		b.fail("dedupKey", k9format.CodeRequired, "dedupKey må være satt")
	}
	if len(dto.Journalposts) == 0 {
		b.fail("journalpostIder", k9format.CodeRequired, "minst én journalpost må være satt")
	}
	if dto.ReceivedDate != nil {
		msg.ReceivedDate = k9format.Some(*dto.ReceivedDate)
	}
	if nid, ok := b.ident("fra.identitetsnummer", dto.From.NationalID); ok {
		msg.From.NationalID = nid
	}
	if nid, ok := b.ident("til.identitetsnummer", dto.To.NationalID); ok {
		msg.To.NationalID = nid
	}
	if msg.From.NationalID != "" && msg.From.NationalID == msg.To.NationalID {
		b.fail("til.identitetsnummer", k9format.CodeInvalidIdent, "kan ikke dele dager med seg selv")
	}
	if dto.Days <= 0 {
		b.fail("antallDager", k9format.CodeRequired, "antallDager må være større enn 0")
	}
	return msg, b.errs
}
