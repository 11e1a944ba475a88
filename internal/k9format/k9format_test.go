package k9format

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func TestPeriodeText(t *testing.T) {
	t.Run("closed", func(t *testing.T) {
		p := NewPeriode(date(2018, 12, 30), date(2019, 10, 20))
		assert.Equal(t, "2018-12-30/2019-10-20", p.String())

		var back Periode
		require.NoError(t, back.UnmarshalText([]byte(p.String())))
		assert.Equal(t, p, back)
	})

	t.Run("open bounds", func(t *testing.T) {
		p := Periode{Fom: date(2026, 1, 1)}
		assert.Equal(t, "2026-01-01/..", p.String())

		var back Periode
		require.NoError(t, back.UnmarshalText([]byte("../2026-02-01")))
		assert.True(t, back.Fom.IsZero())
		assert.Equal(t, date(2026, 2, 1), back.Tom)
	})

	t.Run("malformed", func(t *testing.T) {
		var p Periode
		assert.Error(t, p.UnmarshalText([]byte("2026-01-01")))
		assert.Error(t, p.UnmarshalText([]byte("2026-13-01/..")))
	})
}

func TestPeriodeRules(t *testing.T) {
	jan := NewPeriode(date(2026, 1, 1), date(2026, 1, 31))
	feb := NewPeriode(date(2026, 2, 1), date(2026, 2, 28))
	lateJan := NewPeriode(date(2026, 1, 31), date(2026, 2, 5))
	fromMarch := Periode{Fom: date(2026, 3, 1)}

	assert.True(t, jan.IsValid())
	assert.False(t, NewPeriode(date(2019, 12, 30), date(2018, 10, 20)).IsValid())
	assert.True(t, fromMarch.IsValid())

	assert.False(t, jan.Overlaps(feb))
	assert.True(t, jan.Overlaps(lateJan), "shared last day overlaps")
	assert.True(t, fromMarch.Overlaps(NewPeriode(date(2030, 1, 1), date(2030, 1, 2))))
	assert.False(t, fromMarch.Overlaps(feb))
}

func TestOptionalJSON(t *testing.T) {
	type wrapper struct {
		A Optional[string] `json:"a"`
		B Optional[int]    `json:"b"`
	}

	out, err := json.Marshal(wrapper{A: Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null}`, string(out))

	var back wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":0}`), &back))
	assert.False(t, back.A.IsSet())
	v, ok := back.B.Get()
	assert.True(t, ok, "explicit zero is present")
	assert.Equal(t, 0, v)
	assert.Equal(t, "fallback", back.A.OrElse("fallback"))
}

func TestSøknadJSON(t *testing.T) {
	s := Søknad{
		ID:        Some("abc"),
		Version:   Version,
		Applicant: Some(Applicant{NationalID: "01010050053"}),
		Journalposts: []Journalpost{
			{ID: "999", ContainsMedicalInfo: true},
		},
		Benefit: OmsorgspengerAleneOmsorg{
			Child:  Person{BirthDate: Some(date(2018, 10, 30))},
			Period: Some(Periode{Fom: date(2026, 1, 1)}),
		},
	}

	out, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "abc", got["søknadId"])
	assert.Nil(t, got["mottattDato"])
	ytelse := got["ytelse"].(map[string]any)
	assert.Equal(t, TypeAloneCare, ytelse["type"])
	assert.Equal(t, "2026-01-01/..", ytelse["periode"])
	assert.Nil(t, ytelse["begrunnelseForInnsending"])
	barn := ytelse["barn"].(map[string]any)
	assert.Equal(t, "2018-10-30", barn["fødselsdato"])
	assert.Nil(t, barn["norskIdentitetsnummer"])
}

func TestValidateSickChild(t *testing.T) {
	child := Person{NationalID: Some("01011850053")}

	t.Run("invalid period comes first", func(t *testing.T) {
		y := PleiepengerSyktBarn{
			Child:   child,
			Periods: []Periode{NewPeriode(date(2019, 12, 30), date(2018, 10, 20))},
		}
		v := y.Validate(nil)
		require.NotEmpty(t, v)
		assert.Equal(t, CodeInvalidPeriod, v[0].Code)
		assert.Equal(t, "ytelse.søknadsperiode[0]", v[0].Field)
	})

	t.Run("overlapping periods", func(t *testing.T) {
		y := PleiepengerSyktBarn{
			Child: child,
			Periods: []Periode{
				NewPeriode(date(2026, 1, 1), date(2026, 1, 31)),
				NewPeriode(date(2026, 1, 15), date(2026, 2, 15)),
			},
		}
		v := y.Validate(nil)
		require.Len(t, v, 1)
		assert.Equal(t, CodeOverlappingPeriods, v[0].Code)
	})

	t.Run("periods may be omitted when the case system has some", func(t *testing.T) {
		y := PleiepengerSyktBarn{Child: child}
		assert.Len(t, y.Validate(nil), 1)
		assert.Empty(t, y.Validate([]Periode{NewPeriode(date(2025, 1, 1), date(2025, 6, 1))}))
	})

	t.Run("child required", func(t *testing.T) {
		y := PleiepengerSyktBarn{Periods: []Periode{NewPeriode(date(2026, 1, 1), date(2026, 1, 31))}}
		v := y.Validate(nil)
		require.Len(t, v, 1)
		assert.Equal(t, CodeRequired, v[0].Code)
		assert.Equal(t, "ytelse.barn", v[0].Field)
	})
}

func TestValidateSøknad(t *testing.T) {
	s := Søknad{Version: Version}
	v := s.Validate(nil)
	require.Len(t, v, 2)
	assert.Equal(t, "søker", v[0].Field)
	assert.Equal(t, "ytelse", v[1].Field)
}
