// Package pdl resolves actor ids from the population register (PDL) GraphQL API.
package pdl

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/requestcontext"
)

const (
	consumerIDHeader    = "Nav-Consumer-Id"
	consumerID          = "k9-punsj"
	correlationIDHeader = "Nav-Callid"
	themeHeader         = "Tema"
	theme               = "OMS"

	groupActorID = "AKTORID"
)

const hentIdentQuery = `query($ident: ID!, $historikk: Boolean, $grupper: [IdentGruppe!]) {
  hentIdenter(ident: $ident, historikk: $historikk, grupper: $grupper) {
    identer {
      ident
      historisk
      gruppe
    }
  }
}`

type queryRequest struct {
	Query     string         `json:"query"`
	Variables queryVariables `json:"variables"`
}

type queryVariables struct {
	Ident     string   `json:"ident"`
	Historikk bool     `json:"historikk"`
	Grupper   []string `json:"grupper"`
}

type queryResponse struct {
	Data struct {
		HentIdenter *struct {
			Identer []struct {
				Ident     string `json:"ident"`
				Historisk bool   `json:"historisk"`
				Gruppe    string `json:"gruppe"`
			} `json:"identer"`
		} `json:"hentIdenter"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client calls PDL over HTTP.
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

// WithRetry retries transport failures and 5xx responses up to count times.
func WithRetry(count int) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count)
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		logger: slog.Default(),
	}
	configure(c.http)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func configure(r *resty.Client) {
	r.SetHeader("Accept", "application/json").
		SetHeader(consumerIDHeader, consumerID).
		SetHeader(themeHeader, theme).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
}

// ActorID returns the current actor id registered for nationalID.
func (c *Client) ActorID(ctx context.Context, nationalID domain.NationalID) (domain.ActorID, error) {
	req := c.http.R().
		SetContext(ctx).
		SetBody(queryRequest{
			Query: hentIdentQuery,
			Variables: queryVariables{
				Ident:   nationalID.String(),
				Grupper: []string{groupActorID},
			},
		})
	if id := correlationID(ctx); id != "" {
		req.SetHeader(correlationIDHeader, id)
	}
	if token := requestcontext.BearerToken(ctx); token != "" {
		req.SetAuthToken(token)
	}

	var out queryResponse
	resp, err := req.SetResult(&out).Post("/graphql")
	if err != nil {
		c.logger.ErrorContext(ctx, "pdl request failed", "error", err)
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to reach PDL")
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return "", dErrors.New(dErrors.CodeForbidden, "Saksbehandler har ikke tilgang til å slå opp personen.")
	case resp.IsError():
		c.logger.ErrorContext(ctx, "pdl returned error status", "status", resp.StatusCode())
		return "", dErrors.New(dErrors.CodeUnavailable, "PDL returned "+resp.Status())
	}

	for _, e := range out.Errors {
		c.logger.WarnContext(ctx, "pdl query error", "message", e.Message, "national_id", nationalID.Masked())
	}
	if out.Data.HentIdenter != nil {
		for _, ident := range out.Data.HentIdenter.Identer {
			if !ident.Historisk && ident.Ident != "" {
				return domain.ActorID(ident.Ident), nil
			}
		}
	}
	return "", dErrors.New(dErrors.CodeNotFound, "Fant ikke aktørId i PDL")
}

func correlationID(ctx context.Context) string {
	if id := requestcontext.CorrelationID(ctx); id != "" {
		return id
	}
	return requestcontext.RequestID(ctx)
}
