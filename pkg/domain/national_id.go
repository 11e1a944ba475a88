package domain

import (
	"strings"

	dErrors "punsj/pkg/domain-errors"
)

// NationalID is an 11 digit national identity number (fødselsnummer or D-number).
type NationalID string

const nationalIDLength = 11

// ParseNationalID validates the format of a national identity number.
// Check digits are owned by the population register and are not verified here.
func ParseNationalID(s string) (NationalID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "norskIdent is required")
	}
	if len(s) != nationalIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "norskIdent must have 11 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "norskIdent must have 11 digits")
		}
	}
	return NationalID(s), nil
}

func (n NationalID) String() string { return string(n) }

// Masked hides the personal part of the number for log output.
func (n NationalID) Masked() string {
	if len(n) != nationalIDLength {
		return "***"
	}
	return string(n[:6]) + "*****"
}
