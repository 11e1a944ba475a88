// Package handler exposes the case-worker API. Every application benefit type gets
// the same set of routes under /api/{benefit-uri}.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"punsj/internal/k9format"
	"punsj/internal/mapper"
	"punsj/internal/submission"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/platform/httputil"
	"punsj/pkg/requestcontext"
)

// NationalIDHeader carries the national id for folder lookups.
const NationalIDHeader = "X-Nav-NorskIdent"

// SharedCarePath receives care-day sharing messages.
const SharedCarePath = "/api/omsorgspenger-deling-av-omsorgsdager-melding"

// Service is the submission orchestrator.
type Service interface {
	Folder(ctx context.Context, benefit domain.BenefitType, nationalID string) (*submission.FolderView, error)
	Application(ctx context.Context, id string) (submission.View, error)
	Open(ctx context.Context, benefit domain.BenefitType, req submission.OpenRequest) (submission.View, error)
	Update(ctx context.Context, benefit domain.BenefitType, payload json.RawMessage, editor string) (submission.View, error)
	Validate(ctx context.Context, benefit domain.BenefitType, payload json.RawMessage, editor string) (*k9format.Søknad, error)
	Send(ctx context.Context, benefit domain.BenefitType, req submission.SendRequest) (*k9format.Søknad, error)
	Periods(ctx context.Context, benefit domain.BenefitType, req submission.PeriodsRequest) []mapper.PeriodeDto
	SharedCare(ctx context.Context, dto mapper.SharedCareDto) error
	Journalpost(ctx context.Context, id string) (*submission.JournalpostView, error)
	PersonJournalposts(ctx context.Context, nationalID string) (*submission.PersonJournalposts, error)
}

// Handler wires the API routes to the submission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the API on r.
func (h *Handler) Register(r chi.Router) {
	for _, benefit := range domain.ApplicationBenefits {
		r.Route("/api/"+benefit.URI(), func(r chi.Router) {
			r.Get("/mappe", h.handleFolder(benefit))
			r.Get("/mappe/{id}", h.handleApplication)
			r.Post("/", h.handleOpen(benefit))
			r.Put("/oppdater", h.handleUpdate(benefit))
			r.Post("/valider", h.handleValidate(benefit))
			r.Post("/send", h.handleSend(benefit))
		})
	}
	r.Post("/api/k9-sak/{type}", h.handlePeriods)
	r.Post(SharedCarePath, h.handleSharedCare)
	r.Get("/api/journalpost/{id}", h.handleJournalpost)
	r.Get("/api/journalposter", h.handlePersonJournalposts)
}

func (h *Handler) handleFolder(benefit domain.BenefitType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		nationalID := r.Header.Get(NationalIDHeader)
		if nationalID == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, NationalIDHeader+" header is required"))
			return
		}
		view, err := h.service.Folder(ctx, benefit, nationalID)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

func (h *Handler) handleApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Application(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleOpen(benefit domain.BenefitType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req submission.OpenRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		view, err := h.service.Open(ctx, benefit, req)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		var id string
		_ = json.Unmarshal(view["soeknadId"], &id)
		w.Header().Set("Location", "/api/"+benefit.URI()+"/mappe/"+id)
		httputil.WriteJSON(w, http.StatusCreated, view)
	}
}

func (h *Handler) handleUpdate(benefit domain.BenefitType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		payload, err := httputil.ReadRawJSON(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		view, err := h.service.Update(ctx, benefit, payload, requestcontext.Editor(ctx))
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

func (h *Handler) handleValidate(benefit domain.BenefitType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		payload, err := httputil.ReadRawJSON(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		søknad, err := h.service.Validate(ctx, benefit, payload, requestcontext.Editor(ctx))
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusAccepted, søknad)
	}
}

// conflictBody is the 409 body the case-worker frontend expects.
type conflictBody struct {
	Feil string `json:"feil"`
}

func (h *Handler) handleSend(benefit domain.BenefitType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req submission.SendRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		søknad, err := h.service.Send(ctx, benefit, req)
		var verr *submission.ValidationError
		switch {
		case err == nil:
			httputil.WriteJSON(w, http.StatusAccepted, søknad)
		case errors.As(err, &verr):
			httputil.WriteJSON(w, http.StatusBadRequest, verr)
		case dErrors.HasCode(err, dErrors.CodeConflict):
			httputil.WriteJSON(w, http.StatusConflict, conflictBody{Feil: dErrors.MessageOf(err)})
		case dErrors.CodeOf(err) == dErrors.CodeInternal:
			h.logger.ErrorContext(ctx, "send failed",
				"request_id", requestcontext.RequestID(ctx),
				"application_id", req.ApplicationID,
				"error", err,
			)
			httputil.WriteErrorWithMessage(w, err)
		default:
			httputil.WriteError(w, err)
		}
	}
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	benefit, err := domain.ParseBenefitURI(chi.URLParam(r, "type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req submission.PeriodsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Periods(ctx, benefit, req))
}

func (h *Handler) handleSharedCare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var dto mapper.SharedCareDto
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SharedCare(ctx, dto); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleJournalpost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Journalpost(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handlePersonJournalposts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nationalID := r.Header.Get(NationalIDHeader)
	if nationalID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, NationalIDHeader+" header is required"))
		return
	}
	view, err := h.service.PersonJournalposts(ctx, nationalID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *submission.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteJSON(w, http.StatusBadRequest, verr)
		return
	}
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeIntegrity {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
