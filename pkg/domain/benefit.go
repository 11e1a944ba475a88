package domain

import (
	dErrors "punsj/pkg/domain-errors"
)

// BenefitType is the benefit scheme a bucket and its applications belong to.
type BenefitType string

const (
	BenefitSickChild      BenefitType = "PLEIEPENGER_SYKT_BARN"
	BenefitAloneCare      BenefitType = "OMSORGSPENGER_ALENE_OM_OMSORGEN"
	BenefitEndOfLifeCare  BenefitType = "PLEIEPENGER_LIVETS_SLUTTFASE"
	BenefitSharedCareDays BenefitType = "OMSORGSPENGER_DELING_AV_DAGER"
)

type benefitInfo struct {
	code string
	uri  string
}

var benefits = map[BenefitType]benefitInfo{
	BenefitSickChild:      {code: "PSB", uri: "pleiepenger-sykt-barn"},
	BenefitAloneCare:      {code: "OMP_AO", uri: "omsorgspenger-alene-om-omsorgen"},
	BenefitEndOfLifeCare:  {code: "PPN", uri: "pleiepenger-livets-sluttfase"},
	BenefitSharedCareDays: {code: "OMP_DELING", uri: "omsorgspenger-deling-av-omsorgsdager-melding"},
}

// ApplicationBenefits lists the benefit types that are transcribed through folders.
// Shared care-days messages are published directly and never stored.
var ApplicationBenefits = []BenefitType{BenefitSickChild, BenefitAloneCare, BenefitEndOfLifeCare}

// Code returns the short benefit code used by the case system.
func (t BenefitType) Code() string { return benefits[t].code }

// URI returns the path segment used for the benefit in the HTTP API.
func (t BenefitType) URI() string { return benefits[t].uri }

func (t BenefitType) String() string { return string(t) }

func (t BenefitType) IsValid() bool {
	_, ok := benefits[t]
	return ok
}

// ParseBenefitURI resolves an HTTP path segment to an application benefit type.
func ParseBenefitURI(segment string) (BenefitType, error) {
	for _, t := range ApplicationBenefits {
		if benefits[t].uri == segment {
			return t, nil
		}
	}
	return "", dErrors.New(dErrors.CodeNotFound, "unknown benefit type: "+segment)
}
