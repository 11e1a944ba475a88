// Package k9sak talks to the case system that owns saksnummer and registered periods.
package k9sak

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-resty/resty/v2"

	"punsj/internal/k9format"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/requestcontext"
)

const (
	saksnummerPath = "/api/fordel/fagsak/opprett"
	periodsPath    = "/api/behandling/soknad/perioder"
)

// SaksnummerRequest identifies the case to find or create.
type SaksnummerRequest struct {
	Benefit       domain.BenefitType
	Applicant     domain.NationalID
	CareRecipient domain.NationalID
	OtherParty    domain.NationalID
	JournalpostID domain.JournalpostID
}

type saksnummerBody struct {
	YtelseType     string `json:"ytelseType"`
	Soker          string `json:"søker"`
	Pleietrengende string `json:"pleietrengende,omitempty"`
	AnnenPart      string `json:"annenPart,omitempty"`
	JournalpostID  string `json:"journalpostId,omitempty"`
}

type periodsBody struct {
	YtelseType     string `json:"ytelseType"`
	Soker          string `json:"søker"`
	Pleietrengende string `json:"pleietrengende,omitempty"`
}

type periodDto struct {
	Fom *civil.Date `json:"fom"`
	Tom *civil.Date `json:"tom"`
}

// Client calls k9-sak over HTTP.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if id := requestcontext.CorrelationID(ctx); id != "" {
		req.SetHeader("Nav-Callid", id)
	} else if id := requestcontext.RequestID(ctx); id != "" {
		req.SetHeader("Nav-Callid", id)
	}
	if token := requestcontext.BearerToken(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// Saksnummer finds or creates the case for the request and returns its number.
func (c *Client) Saksnummer(ctx context.Context, r SaksnummerRequest) (string, error) {
	var out struct {
		Saksnummer string `json:"saksnummer"`
	}
	resp, err := c.request(ctx).
		SetBody(saksnummerBody{
			YtelseType:     r.Benefit.Code(),
			Soker:          r.Applicant.String(),
			Pleietrengende: r.CareRecipient.String(),
			AnnenPart:      r.OtherParty.String(),
			JournalpostID:  r.JournalpostID.String(),
		}).
		SetResult(&out).
		Post(saksnummerPath)
	if err := c.check(ctx, "saksnummer", resp, err); err != nil {
		return "", err
	}
	if out.Saksnummer == "" {
		return "", dErrors.New(dErrors.CodeUnavailable, "k9-sak returned no saksnummer")
	}
	return out.Saksnummer, nil
}

// ExistingPeriods returns the periods k9-sak already holds for applicant and careRecipient.
func (c *Client) ExistingPeriods(ctx context.Context, benefit domain.BenefitType, applicant, careRecipient domain.NationalID) ([]k9format.Periode, error) {
	var out []periodDto
	resp, err := c.request(ctx).
		SetBody(periodsBody{
			YtelseType:     benefit.Code(),
			Soker:          applicant.String(),
			Pleietrengende: careRecipient.String(),
		}).
		SetResult(&out).
		Post(periodsPath)
	if err := c.check(ctx, "periods", resp, err); err != nil {
		return nil, err
	}

	periods := make([]k9format.Periode, 0, len(out))
	for _, p := range out {
		var fom, tom civil.Date
		if p.Fom != nil {
			fom = *p.Fom
		}
		if p.Tom != nil {
			tom = *p.Tom
		}
		periods = append(periods, k9format.NewPeriode(fom, tom))
	}
	return periods, nil
}

func (c *Client) check(ctx context.Context, op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.ErrorContext(ctx, "k9-sak request failed", "operation", op, "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to reach k9-sak")
	}
	if !resp.IsError() {
		return nil
	}
	c.logger.ErrorContext(ctx, "k9-sak returned error status",
		"operation", op,
		"status", resp.StatusCode(),
	)
	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return dErrors.New(dErrors.CodeBadRequest, "k9-sak rejected request: "+resp.String())
	case http.StatusUnauthorized, http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, "access to k9-sak denied")
	default:
		return dErrors.New(dErrors.CodeUnavailable, "k9-sak returned "+resp.Status())
	}
}
