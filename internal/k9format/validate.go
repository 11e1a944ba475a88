package k9format

import "fmt"

// Violation codes.
const (
	CodeInvalidPeriod      = "ugyldigPeriode"
	CodeOverlappingPeriods = "overlappendePerioder"
	CodeRequired           = "påkrevd"
	CodeInvalidIdent       = "ugyldigIdent"
	CodeInvalidFormat      = "ugyldigFormat"
	CodeUnexpected         = "uventetMappingfeil"
)

// Violation is one field-level problem with a Søknad.
type Violation struct {
	Field   string `json:"felt"`
	Code    string `json:"feilkode"`
	Message string `json:"feilmelding"`
}

func (v Violation) Error() string {
	return v.Field + ": " + v.Code + ": " + v.Message
}

// Validate runs the benefit rules. existing holds periods already registered in the case
// system; when present, a søknad may omit new periods.
func (s *Søknad) Validate(existing []Periode) []Violation {
	var out []Violation
	if !s.Applicant.IsSet() {
		out = append(out, Violation{Field: "søker", Code: CodeRequired, Message: "søker må være satt"})
	}
	if s.Benefit == nil {
		return append(out, Violation{Field: "ytelse", Code: CodeRequired, Message: "ytelse må være satt"})
	}
	return append(out, s.Benefit.Validate(existing)...)
}

// validatePeriods reports invalid periods and overlaps between the valid ones.
func validatePeriods(field string, periods []Periode) []Violation {
	var out []Violation
	for i, p := range periods {
		out = appendIfInvalid(out, fmt.Sprintf("%s[%d]", field, i), p)
	}
	for i := 0; i < len(periods); i++ {
		for j := i + 1; j < len(periods); j++ {
			a, b := periods[i], periods[j]
			if a.IsValid() && b.IsValid() && a.Overlaps(b) {
				out = append(out, Violation{
					Field:   fmt.Sprintf("%s[%d, %d]", field, i, j),
					Code:    CodeOverlappingPeriods,
					Message: fmt.Sprintf("%s overlapper med %s", a, b),
				})
			}
		}
	}
	return out
}

func appendIfInvalid(out []Violation, field string, p Periode) []Violation {
	if p.IsValid() {
		return out
	}
	return append(out, Violation{
		Field:   field,
		Code:    CodeInvalidPeriod,
		Message: fmt.Sprintf("fom (%s) må være før eller lik tom (%s)", p.Fom, p.Tom),
	})
}
