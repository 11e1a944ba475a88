package k9format

import (
	"encoding/json"
	"fmt"
)

// Ytelse type names.
const (
	TypeSickChild     = "PLEIEPENGER_SYKT_BARN"
	TypeAloneCare     = "OMP_UTV_AO"
	TypeEndOfLifeCare = "PLEIEPENGER_LIVETS_SLUTTFASE"
)

// PleiepengerSyktBarn is care benefit for a sick child.
type PleiepengerSyktBarn struct {
	Child            Person               `json:"barn"`
	Periods          []Periode            `json:"søknadsperiode"`
	WithdrawnPeriods []Periode            `json:"trekkKravPerioder"`
	Care             Optional[Omsorg]     `json:"omsorg"`
	Beredskap        []PeriodeBeskrivelse `json:"beredskap"`
	Nattevaak        []PeriodeBeskrivelse `json:"nattevåk"`
}

// Omsorg describes the applicant's relation to the child.
type Omsorg struct {
	Relation    Optional[string] `json:"relasjonTilBarnet"`
	Description Optional[string] `json:"beskrivelseAvOmsorgsrollen"`
}

// PeriodeBeskrivelse is a period with a free text note.
type PeriodeBeskrivelse struct {
	Period      Periode `json:"periode"`
	Description string  `json:"tilleggsinformasjon"`
}

func (PleiepengerSyktBarn) Type() string { return TypeSickChild }

func (y PleiepengerSyktBarn) Validate(existing []Periode) []Violation {
	out := validatePeriods("ytelse.søknadsperiode", y.Periods)
	out = append(out, validatePeriods("ytelse.trekkKravPerioder", y.WithdrawnPeriods)...)
	for i, b := range y.Beredskap {
		out = appendIfInvalid(out, fmt.Sprintf("ytelse.beredskap[%d].periode", i), b.Period)
	}
	for i, n := range y.Nattevaak {
		out = appendIfInvalid(out, fmt.Sprintf("ytelse.nattevåk[%d].periode", i), n.Period)
	}
	if len(y.Periods) == 0 && len(existing) == 0 {
		out = append(out, Violation{Field: "ytelse.søknadsperiode", Code: CodeRequired, Message: "søknadsperiode må være satt"})
	}
	if !y.Child.Identified() {
		out = append(out, Violation{Field: "ytelse.barn", Code: CodeRequired, Message: "barn må ha norsk identitetsnummer eller fødselsdato"})
	}
	return out
}

func (y PleiepengerSyktBarn) MarshalJSON() ([]byte, error) {
	type plain PleiepengerSyktBarn
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{y.Type(), plain(y)})
}

// OmsorgspengerAleneOmsorg is the extended care-days right for a parent caring alone.
type OmsorgspengerAleneOmsorg struct {
	Child  Person            `json:"barn"`
	Period Optional[Periode] `json:"periode"`
	Reason Optional[string]  `json:"begrunnelseForInnsending"`
}

func (OmsorgspengerAleneOmsorg) Type() string { return TypeAloneCare }

func (y OmsorgspengerAleneOmsorg) Validate([]Periode) []Violation {
	var out []Violation
	if p, ok := y.Period.Get(); ok {
		out = appendIfInvalid(out, "ytelse.periode", p)
	}
	if !y.Child.Identified() {
		out = append(out, Violation{Field: "ytelse.barn", Code: CodeRequired, Message: "barn må ha norsk identitetsnummer eller fødselsdato"})
	}
	return out
}

func (y OmsorgspengerAleneOmsorg) MarshalJSON() ([]byte, error) {
	type plain OmsorgspengerAleneOmsorg
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{y.Type(), plain(y)})
}

// PleiepengerLivetsSluttfase is care benefit for a close relative at end of life.
type PleiepengerLivetsSluttfase struct {
	CareRecipient Person    `json:"pleietrengende"`
	Periods       []Periode `json:"søknadsperiode"`
	AbroadStays   []Periode `json:"utenlandsopphold"`
}

func (PleiepengerLivetsSluttfase) Type() string { return TypeEndOfLifeCare }

func (y PleiepengerLivetsSluttfase) Validate(existing []Periode) []Violation {
	out := validatePeriods("ytelse.søknadsperiode", y.Periods)
	out = append(out, validatePeriods("ytelse.utenlandsopphold", y.AbroadStays)...)
	if len(y.Periods) == 0 && len(existing) == 0 {
		out = append(out, Violation{Field: "ytelse.søknadsperiode", Code: CodeRequired, Message: "søknadsperiode må være satt"})
	}
	if !y.CareRecipient.NationalID.IsSet() {
		out = append(out, Violation{Field: "ytelse.pleietrengende.norskIdentitetsnummer", Code: CodeRequired, Message: "pleietrengende må ha norsk identitetsnummer"})
	}
	return out
}

func (y PleiepengerLivetsSluttfase) MarshalJSON() ([]byte, error) {
	type plain PleiepengerLivetsSluttfase
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{y.Type(), plain(y)})
}
