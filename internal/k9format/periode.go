package k9format

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

const openBound = ".."

// Periode is a closed date interval. A zero bound is open. It is encoded as an ISO 8601
// interval, "2026-01-01/2026-01-31", with ".." for an open bound.
type Periode struct {
	Fom civil.Date
	Tom civil.Date
}

func NewPeriode(fom, tom civil.Date) Periode {
	return Periode{Fom: fom, Tom: tom}
}

// IsValid reports whether the bounds are ordered. Open bounds are always valid.
func (p Periode) IsValid() bool {
	if p.Fom.IsZero() || p.Tom.IsZero() {
		return true
	}
	return !p.Tom.Before(p.Fom)
}

// Overlaps reports whether p and q share at least one day.
func (p Periode) Overlaps(q Periode) bool {
	return startsBeforeEnd(p.Fom, q.Tom) && startsBeforeEnd(q.Fom, p.Tom)
}

func startsBeforeEnd(start, end civil.Date) bool {
	if start.IsZero() || end.IsZero() {
		return true
	}
	return !end.Before(start)
}

func (p Periode) String() string {
	return bound(p.Fom) + "/" + bound(p.Tom)
}

func bound(d civil.Date) string {
	if d.IsZero() {
		return openBound
	}
	return d.String()
}

func (p Periode) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Periode) UnmarshalText(text []byte) error {
	fom, tom, ok := strings.Cut(string(text), "/")
	if !ok {
		return fmt.Errorf("periode %q: missing '/'", text)
	}
	var err error
	if p.Fom, err = parseBound(fom); err != nil {
		return err
	}
	if p.Tom, err = parseBound(tom); err != nil {
		return err
	}
	return nil
}

func parseBound(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == openBound {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("periode bound %q: %w", s, err)
	}
	return d, nil
}
