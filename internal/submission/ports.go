package submission

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"punsj/internal/integrations/k9sak"
	"punsj/internal/k9format"
	"punsj/internal/platform/kafka"
	"punsj/pkg/domain"
)

// CaseSystem allocates case numbers and reports periods already registered downstream.
type CaseSystem interface {
	Saksnummer(ctx context.Context, req k9sak.SaksnummerRequest) (string, error)
	ExistingPeriods(ctx context.Context, benefit domain.BenefitType, applicant, careRecipient domain.NationalID) ([]k9format.Periode, error)
}

// Publisher sends a message to the broker and waits for the acknowledgement.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}
