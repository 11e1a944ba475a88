package mapper

import (
	"encoding/json"

	"punsj/internal/k9format"
	"punsj/pkg/domain"
)

type sickChild struct{}

func (sickChild) Map(id domain.ApplicationID, journalposts []domain.JournalpostID, payload json.RawMessage, existing []k9format.Periode) (*k9format.Søknad, []FieldError) {
	return run(id, journalposts, payload, existing, func(b *builder, d *SickChildDraft) k9format.Ytelse {
		y := k9format.PleiepengerSyktBarn{
			Child:            b.person("ytelse.barn", d.Child),
			Periods:          periods(d.Periods),
			WithdrawnPeriods: periods(d.WithdrawnPeriods),
			Beredskap:        describedPeriods(d.Beredskap),
			Nattevaak:        describedPeriods(d.Nattevaak),
		}
		if d.Care != nil {
			y.Care = k9format.Some(k9format.Omsorg{
				Relation:    optionalString(d.Care.Relation),
				Description: optionalString(d.Care.Description),
			})
		}
		return y
	})
}

func (sickChild) Parties(payload json.RawMessage) (string, string) {
	return parties(payload, func(d *SickChildDraft) *PersonDto { return d.Child })
}

func describedPeriods(in []PeriodeInfoDto) []k9format.PeriodeBeskrivelse {
	out := make([]k9format.PeriodeBeskrivelse, 0, len(in))
	for _, p := range in {
		if p.Period.IsSet() {
			out = append(out, k9format.PeriodeBeskrivelse{Period: p.Period.Periode(), Description: p.Description})
		}
	}
	return out
}

type aloneCare struct{}

func (aloneCare) Map(id domain.ApplicationID, journalposts []domain.JournalpostID, payload json.RawMessage, existing []k9format.Periode) (*k9format.Søknad, []FieldError) {
	return run(id, journalposts, payload, existing, func(b *builder, d *AloneCareDraft) k9format.Ytelse {
		y := k9format.OmsorgspengerAleneOmsorg{
			Child:  b.person("ytelse.barn", d.Child),
			Reason: optionalString(d.Reason),
		}
		if d.Period.IsSet() {
			y.Period = k9format.Some(d.Period.Periode())
		}
		return y
	})
}

func (aloneCare) Parties(payload json.RawMessage) (string, string) {
	return parties(payload, func(d *AloneCareDraft) *PersonDto { return d.Child })
}

type endOfLifeCare struct{}

func (endOfLifeCare) Map(id domain.ApplicationID, journalposts []domain.JournalpostID, payload json.RawMessage, existing []k9format.Periode) (*k9format.Søknad, []FieldError) {
	return run(id, journalposts, payload, existing, func(b *builder, d *EndOfLifeCareDraft) k9format.Ytelse {
		return k9format.PleiepengerLivetsSluttfase{
			CareRecipient: b.person("ytelse.pleietrengende", d.CareRecipient),
			Periods:       periods(d.Periods),
			AbroadStays:   periods(d.AbroadStays),
		}
	})
}

func (endOfLifeCare) Parties(payload json.RawMessage) (string, string) {
	return parties(payload, func(d *EndOfLifeCareDraft) *PersonDto { return d.CareRecipient })
}
