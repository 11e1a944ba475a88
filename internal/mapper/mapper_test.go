package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punsj/internal/k9format"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
)

const completeSickChild = `{
	"soeknadId": "7c1d6a04-5b7e-4e0c-9a8e-3f1f0f0c2a11",
	"soekerId": "01010050053",
	"journalposter": ["999"],
	"mottattDato": "2026-01-10",
	"klokkeslett": "08:30",
	"harInfoSomIkkeKanPunsjes": true,
	"harMedisinskeOpplysninger": false,
	"barn": {"norskIdent": "01011850053"},
	"soeknadsperiode": [{"fom": "2018-12-30", "tom": "2019-10-20"}],
	"omsorg": {"relasjonTilBarnet": "MOR"}
}`

func codes(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestFor(t *testing.T) {
	for _, b := range domain.ApplicationBenefits {
		m, err := For(b)
		require.NoError(t, err)
		assert.NotNil(t, m)
	}
	_, err := For(domain.BenefitSharedCareDays)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSickChildComplete(t *testing.T) {
	id := domain.NewApplicationID()
	s, errs := sickChild{}.Map(id, []domain.JournalpostID{"999", "1000"}, json.RawMessage(completeSickChild), nil)
	require.Empty(t, errs)

	gotID, _ := s.ID.Get()
	assert.Equal(t, id.String(), gotID)
	assert.Equal(t, "1.0.0", s.Version)

	received, ok := s.ReceivedAt.Get()
	require.True(t, ok)
	assert.Equal(t, "Europe/Oslo", received.Location().String())
	assert.Equal(t, 8, received.Hour())
	assert.Equal(t, time.Date(2026, 1, 10, 7, 30, 0, 0, time.UTC), received.UTC())

	applicant, ok := s.Applicant.Get()
	require.True(t, ok)
	assert.Equal(t, "01010050053", applicant.NationalID)

	require.Len(t, s.Journalposts, 2)
	assert.Equal(t, "1000", s.Journalposts[1].ID)
	assert.True(t, s.Journalposts[0].UnpunchableInfo)
	assert.False(t, s.Journalposts[0].ContainsMedicalInfo)

	y, ok := s.Benefit.(k9format.PleiepengerSyktBarn)
	require.True(t, ok)
	require.Len(t, y.Periods, 1)
	assert.Equal(t, "2018-12-30/2019-10-20", y.Periods[0].String())
	care, ok := y.Care.Get()
	require.True(t, ok)
	assert.Equal(t, "MOR", care.Relation.OrElse(""))
	assert.False(t, care.Description.IsSet())
}

func TestSickChildInvalidPeriod(t *testing.T) {
	payload := `{"soekerId":"01010050053","barn":{"norskIdent":"01011850053"},
		"soeknadsperiode":[{"fom":"2019-12-30","tom":"2018-10-20"}]}`
	s, errs := sickChild{}.Map(domain.NewApplicationID(), []domain.JournalpostID{"1"}, json.RawMessage(payload), nil)
	require.NotEmpty(t, errs)
	assert.Equal(t, k9format.CodeInvalidPeriod, errs[0].Code)
	assert.NotNil(t, s, "partial søknad is returned with errors")
}

func TestSickChildOverlappingPeriods(t *testing.T) {
	payload := `{"soekerId":"01010050053","barn":{"norskIdent":"01011850053"},
		"soeknadsperiode":[{"fom":"2026-01-01","tom":"2026-01-31"},{"fom":"2026-01-20","tom":"2026-02-10"}]}`
	_, errs := sickChild{}.Map(domain.NewApplicationID(), nil, json.RawMessage(payload), nil)
	require.Len(t, errs, 1)
	assert.Equal(t, k9format.CodeOverlappingPeriods, errs[0].Code)
}

func TestErrorsAccumulate(t *testing.T) {
	payload := `{"soekerId":"123","barn":{"norskIdent":"abc"},
		"soeknadsperiode":[{"fom":"2026-01-01","tom":"2026-01-31"}]}`
	s, errs := sickChild{}.Map(domain.NewApplicationID(), nil, json.RawMessage(payload), nil)

	assert.Equal(t, []string{
		k9format.CodeInvalidIdent,
		k9format.CodeInvalidIdent,
		k9format.CodeRequired,
		k9format.CodeRequired,
	}, codes(errs))
	assert.Equal(t, "søker.norskIdentitetsnummer", errs[0].Field)
	assert.Equal(t, "ytelse.barn.norskIdentitetsnummer", errs[1].Field)

	y := s.Benefit.(k9format.PleiepengerSyktBarn)
	assert.Len(t, y.Periods, 1, "later fields are still mapped")
}

func TestMalformedPayload(t *testing.T) {
	_, errs := aloneCare{}.Map(domain.NewApplicationID(), nil, json.RawMessage(`{"barn": 5}`), nil)
	require.Len(t, errs, 1)
	assert.Equal(t, k9format.CodeInvalidFormat, errs[0].Code)
}

func TestPanicBecomesOneError(t *testing.T) {
	s, errs := run(domain.NewApplicationID(), nil, json.RawMessage(`{"soekerId":"01010050053"}`), nil,
		func(*builder, *AloneCareDraft) k9format.Ytelse {
			panic("boom")
		})
	require.Len(t, errs, 1)
	assert.Equal(t, FieldError{Field: "søknad", Code: k9format.CodeUnexpected, Message: "boom"}, errs[0])
	assert.True(t, s.Applicant.IsSet())
}

func TestAloneCare(t *testing.T) {
	payload := `{"soekerId":"01010050053","barn":{"foedselsdato":"2018-10-30"},
		"periode":{"fom":"2026-01-01"},"begrunnelseForInnsending":"JEG VET IKKE"}`
	s, errs := aloneCare{}.Map(domain.NewApplicationID(), []domain.JournalpostID{"1"}, json.RawMessage(payload), nil)
	require.Empty(t, errs)

	y := s.Benefit.(k9format.OmsorgspengerAleneOmsorg)
	born, ok := y.Child.BirthDate.Get()
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2018, Month: 10, Day: 30}, born)
	p, ok := y.Period.Get()
	require.True(t, ok)
	assert.Equal(t, "2026-01-01/..", p.String())
	assert.Equal(t, "JEG VET IKKE", y.Reason.OrElse(""))
	assert.False(t, s.ReceivedAt.IsSet(), "date without time is not mapped")
}

func TestAloneCareEmptyPeriodIsAbsent(t *testing.T) {
	payload := `{"soekerId":"01010050053","barn":{"norskIdent":"01011850053"},"periode":{"fom":null,"tom":null}}`
	s, errs := aloneCare{}.Map(domain.NewApplicationID(), nil, json.RawMessage(payload), nil)
	require.Empty(t, errs)
	assert.False(t, s.Benefit.(k9format.OmsorgspengerAleneOmsorg).Period.IsSet())
}

func TestEndOfLifeCare(t *testing.T) {
	payload := `{"soekerId":"01010050053","pleietrengende":{"norskIdent":"02020050053"}}`

	_, errs := endOfLifeCare{}.Map(domain.NewApplicationID(), nil, json.RawMessage(payload), nil)
	assert.Equal(t, []string{k9format.CodeRequired}, codes(errs))

	existing := []k9format.Periode{k9format.NewPeriode(civil.Date{Year: 2025, Month: 1, Day: 1}, civil.Date{Year: 2025, Month: 3, Day: 1})}
	_, errs = endOfLifeCare{}.Map(domain.NewApplicationID(), nil, json.RawMessage(payload), existing)
	assert.Empty(t, errs, "periods already in the case system")

	applicant, related := endOfLifeCare{}.Parties(json.RawMessage(payload))
	assert.Equal(t, "01010050053", applicant)
	assert.Equal(t, "02020050053", related)
}

func TestParties(t *testing.T) {
	applicant, related := sickChild{}.Parties(json.RawMessage(completeSickChild))
	assert.Equal(t, "01010050053", applicant)
	assert.Equal(t, "01011850053", related)

	applicant, related = aloneCare{}.Parties(json.RawMessage(`not json`))
	assert.Empty(t, applicant)
	assert.Empty(t, related)
}

func TestParseDraft(t *testing.T) {
	d, err := ParseDraft(json.RawMessage(completeSickChild))
	require.NoError(t, err)
	assert.Equal(t, "7c1d6a04-5b7e-4e0c-9a8e-3f1f0f0c2a11", d.ApplicationID)
	assert.Equal(t, []string{"999"}, d.Journalposts)

	_, err = ParseDraft(json.RawMessage(`[`))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestClock(t *testing.T) {
	var c Clock
	require.NoError(t, c.UnmarshalText([]byte("08:30")))
	assert.Equal(t, 8, c.Hour)
	assert.Equal(t, 30, c.Minute)

	require.NoError(t, c.UnmarshalText([]byte("23:59:15")))
	assert.Equal(t, 15, c.Second)

	out, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "23:59", string(out))

	assert.Error(t, c.UnmarshalText([]byte("25:00")))
}

func TestMapSharedCare(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		key := uuid.New()
		msg, errs := MapSharedCare(SharedCareDto{
			DedupKey:     key,
			Journalposts: []string{"1"},
			From:         PartyDto{NationalID: "01010050053"},
			To:           PartyDto{NationalID: "02020050053"},
			Days:         5,
		})
		require.Empty(t, errs)
		assert.Equal(t, key.String(), msg.DedupKey)
		assert.False(t, msg.ReceivedDate.IsSet())
	})

	t.Run("invalid", func(t *testing.T) {
		_, errs := MapSharedCare(SharedCareDto{
			From: PartyDto{NationalID: "01010050053"},
			To:   PartyDto{NationalID: "01010050053"},
		})
		assert.Equal(t, []string{
			k9format.CodeRequired,
			k9format.CodeRequired,
			k9format.CodeInvalidIdent,
			k9format.CodeRequired,
		}, codes(errs))
	})
}
