package mapper

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"punsj/internal/k9format"
)

// Draft holds the fields every benefit draft carries.
type Draft struct {
	ApplicationID   string      `json:"soeknadId"`
	ApplicantID     string      `json:"soekerId,omitempty"`
	Journalposts    []string    `json:"journalposter,omitempty"`
	ReceivedDate    *civil.Date `json:"mottattDato,omitempty"`
	ReceivedTime    *Clock      `json:"klokkeslett,omitempty"`
	UnpunchableInfo bool        `json:"harInfoSomIkkeKanPunsjes"`
	MedicalInfo     bool        `json:"harMedisinskeOpplysninger"`
}

func (d *Draft) header() *Draft { return d }

type headed interface {
	header() *Draft
}

// Clock is a wall clock time accepting "15:04" and "15:04:05".
type Clock struct {
	civil.Time
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	t, err := civil.ParseTime(s)
	if err != nil {
		return fmt.Errorf("klokkeslett %q: %w", text, err)
	}
	c.Time = t
	return nil
}

// PeriodeDto is a period as entered by the case worker. Either bound may be missing.
type PeriodeDto struct {
	Fom *civil.Date `json:"fom"`
	Tom *civil.Date `json:"tom"`
}

// IsSet reports whether at least one bound is present.
func (p *PeriodeDto) IsSet() bool {
	return p != nil && (p.Fom != nil || p.Tom != nil)
}

func (p PeriodeDto) Periode() k9format.Periode {
	var out k9format.Periode
	if p.Fom != nil {
		out.Fom = *p.Fom
	}
	if p.Tom != nil {
		out.Tom = *p.Tom
	}
	return out
}

// FromPeriode converts a schema period back to the draft representation.
func FromPeriode(p k9format.Periode) PeriodeDto {
	var out PeriodeDto
	if !p.Fom.IsZero() {
		fom := p.Fom
		out.Fom = &fom
	}
	if !p.Tom.IsZero() {
		tom := p.Tom
		out.Tom = &tom
	}
	return out
}

// PersonDto identifies a child or care recipient.
type PersonDto struct {
	NationalID string      `json:"norskIdent,omitempty"`
	BirthDate  *civil.Date `json:"foedselsdato,omitempty"`
}

// PeriodeInfoDto is a period with a free text note.
type PeriodeInfoDto struct {
	Period      PeriodeDto `json:"periode"`
	Description string     `json:"tilleggsinformasjon,omitempty"`
}

// CareDto describes the applicant's relation to the child.
type CareDto struct {
	Relation    string `json:"relasjonTilBarnet,omitempty"`
	Description string `json:"beskrivelseAvOmsorgsrollen,omitempty"`
}

// SickChildDraft is the draft for pleiepenger sykt barn.
type SickChildDraft struct {
	Draft
	Child            *PersonDto       `json:"barn,omitempty"`
	Periods          []PeriodeDto     `json:"soeknadsperiode,omitempty"`
	WithdrawnPeriods []PeriodeDto     `json:"trekkKravPerioder,omitempty"`
	Care             *CareDto         `json:"omsorg,omitempty"`
	Beredskap        []PeriodeInfoDto `json:"beredskap,omitempty"`
	Nattevaak        []PeriodeInfoDto `json:"nattevaak,omitempty"`
}

// AloneCareDraft is the draft for omsorgspenger alene om omsorgen.
type AloneCareDraft struct {
	Draft
	Child  *PersonDto  `json:"barn,omitempty"`
	Period *PeriodeDto `json:"periode,omitempty"`
	Reason string      `json:"begrunnelseForInnsending,omitempty"`
}

// EndOfLifeCareDraft is the draft for pleiepenger i livets sluttfase.
type EndOfLifeCareDraft struct {
	Draft
	CareRecipient *PersonDto   `json:"pleietrengende,omitempty"`
	Periods       []PeriodeDto `json:"soeknadsperiode,omitempty"`
	AbroadStays   []PeriodeDto `json:"utenlandsopphold,omitempty"`
}
