// Package mapper turns benefit drafts into the k9 schema.
//
// Mapping never stops at the first problem: every field is attempted and each failure
// is recorded as a FieldError. The rule validator runs on the result and its violations
// are appended to the same list.
package mapper

import (
	"encoding/json"
	"fmt"
	"time"
	_ "time/tzdata"

	"punsj/internal/k9format"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
)

// FieldError is one field-level mapping or validation failure.
type FieldError = k9format.Violation

// Mapper maps the stored draft of one benefit type.
type Mapper interface {
	// Map builds the schema instance. existing are periods already registered in the
	// case system for the same parties.
	Map(id domain.ApplicationID, journalposts []domain.JournalpostID, payload json.RawMessage, existing []k9format.Periode) (*k9format.Søknad, []FieldError)
	// Parties returns the applicant and the related party (child or care recipient)
	// as written in the draft. Either may be empty.
	Parties(payload json.RawMessage) (applicant, related string)
}

var oslo = mustLoadLocation("Europe/Oslo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// For returns the mapper for benefit.
func For(benefit domain.BenefitType) (Mapper, error) {
	switch benefit {
	case domain.BenefitSickChild:
		return sickChild{}, nil
	case domain.BenefitAloneCare:
		return aloneCare{}, nil
	case domain.BenefitEndOfLifeCare:
		return endOfLifeCare{}, nil
	default:
		return nil, dErrors.New(dErrors.CodeNotFound, "no mapper for "+benefit.String())
	}
}

// ParseDraft decodes the common header of any benefit draft.
func ParseDraft(payload json.RawMessage) (Draft, error) {
	var d Draft
	if len(payload) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(payload, &d); err != nil {
		return d, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid draft")
	}
	return d, nil
}

// builder accumulates the søknad and its errors.
type builder struct {
	søknad *k9format.Søknad
	errs   []FieldError
}

func (b *builder) fail(field, code, msg string) {
	b.errs = append(b.errs, FieldError{Field: field, Code: code, Message: msg})
}

// run decodes payload into D, maps the common header, calls build for the benefit
// part and validates. A panic anywhere becomes one uventetMappingfeil entry.
func run[D any, PD interface {
	*D
	headed
}](id domain.ApplicationID, journalposts []domain.JournalpostID, payload json.RawMessage, existing []k9format.Periode, build func(*builder, PD) k9format.Ytelse) (s *k9format.Søknad, errs []FieldError) {
	b := &builder{søknad: &k9format.Søknad{Version: k9format.Version, Journalposts: []k9format.Journalpost{}}}
	defer func() {
		if r := recover(); r != nil {
			s = b.søknad
			errs = append(b.errs, FieldError{Field: "søknad", Code: k9format.CodeUnexpected, Message: fmt.Sprint(r)})
		}
	}()

	dto := PD(new(D))
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, dto); err != nil {
			b.fail("søknad", k9format.CodeInvalidFormat, err.Error())
			return b.søknad, b.errs
		}
	}
	h := dto.header()

	if !id.IsNil() {
		b.søknad.ID = k9format.Some(id.String())
	}
	if h.ReceivedDate != nil && h.ReceivedTime != nil {
		d, c := *h.ReceivedDate, h.ReceivedTime.Time
		b.søknad.ReceivedAt = k9format.Some(time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, c.Second, 0, oslo))
	}
	if h.ApplicantID != "" {
		if nid, ok := b.ident("søker.norskIdentitetsnummer", h.ApplicantID); ok {
			b.søknad.Applicant = k9format.Some(k9format.Applicant{NationalID: nid})
		}
	}
	for _, jp := range journalposts {
		b.søknad.Journalposts = append(b.søknad.Journalposts, k9format.Journalpost{
			ID:                  jp.String(),
			UnpunchableInfo:     h.UnpunchableInfo,
			ContainsMedicalInfo: h.MedicalInfo,
		})
	}

	b.søknad.Benefit = build(b, dto)
	b.errs = append(b.errs, b.søknad.Validate(existing)...)
	return b.søknad, b.errs
}

func (b *builder) ident(field, raw string) (string, bool) {
	nid, err := domain.ParseNationalID(raw)
	if err != nil {
		b.fail(field, k9format.CodeInvalidIdent, "ugyldig norsk identitetsnummer")
		return "", false
	}
	return nid.String(), true
}

func (b *builder) person(field string, p *PersonDto) k9format.Person {
	var out k9format.Person
	switch {
	case p == nil:
	case p.NationalID != "":
		if nid, ok := b.ident(field+".norskIdentitetsnummer", p.NationalID); ok {
			out.NationalID = k9format.Some(nid)
		}
	case p.BirthDate != nil:
		out.BirthDate = k9format.Some(*p.BirthDate)
	}
	return out
}

// periods keeps the periods that have at least one bound.
func periods(in []PeriodeDto) []k9format.Periode {
	out := make([]k9format.Periode, 0, len(in))
	for i := range in {
		if in[i].IsSet() {
			out = append(out, in[i].Periode())
		}
	}
	return out
}

func optionalString(s string) k9format.Optional[string] {
	if s == "" {
		return k9format.None[string]()
	}
	return k9format.Some(s)
}

// parties decodes the applicant and a related person from payload.
func parties[D any, PD interface {
	*D
	headed
}](payload json.RawMessage, related func(PD) *PersonDto) (string, string) {
	dto := PD(new(D))
	if len(payload) == 0 || json.Unmarshal(payload, dto) != nil {
		return "", ""
	}
	rel := ""
	if p := related(dto); p != nil {
		rel = p.NationalID
	}
	return dto.header().ApplicantID, rel
}
