// Package submission orchestrates the case-worker flows on top of the folder aggregate:
// opening applications, saving drafts, validating them and sending them downstream.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"punsj/internal/folder"
	"punsj/internal/integrations/k9sak"
	"punsj/internal/journalpost"
	"punsj/internal/k9format"
	"punsj/internal/mapper"
	"punsj/internal/person"
	"punsj/internal/platform/kafka"
	"punsj/internal/platform/metrics"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	pstrings "punsj/pkg/platform/strings"
	"punsj/pkg/requestcontext"
)

// MsgNoSendableJournalpost is returned when every journalpost on an application is
// already processed.
const MsgNoSendableJournalpost = "Innsendingen må inneholde minst en journalpost som kan sendes inn."

// Folders is the application aggregate.
type Folders interface {
	StartFirstSubmission(ctx context.Context, nationalID domain.NationalID, benefit domain.BenefitType, journalpostID domain.JournalpostID) (*folder.Application, error)
	UpdateExistingSubmission(ctx context.Context, id domain.ApplicationID, payload json.RawMessage, journalposts []domain.JournalpostID, editor string) (*folder.Application, error)
	MarkSent(ctx context.Context, id domain.ApplicationID) (*folder.Application, error)
	GetApplication(ctx context.Context, id domain.ApplicationID) (*folder.Application, error)
	LoadFullFolder(ctx context.Context, personID domain.PersonID, expect ...domain.ApplicationID) (*folder.Folder, error)
}

// Persons reads person records.
type Persons interface {
	FindByNationalID(ctx context.Context, nationalID domain.NationalID) (*person.Person, error)
	FindByID(ctx context.Context, id domain.PersonID) (*person.Person, error)
}

// Journalposts tracks inbound documents.
type Journalposts interface {
	Get(ctx context.Context, id domain.JournalpostID) (*journalpost.Journalpost, error)
	FindByActor(ctx context.Context, actor domain.ActorID) ([]*journalpost.Journalpost, error)
	SetBenefitType(ctx context.Context, id domain.JournalpostID, benefit domain.BenefitType, actor domain.ActorID) error
	EnsureSource(ctx context.Context, ids []domain.JournalpostID, actor domain.ActorID) error
	Sendable(ctx context.Context, ids []domain.JournalpostID) (sendable, processed []domain.JournalpostID, err error)
	MarkProcessed(ctx context.Context, ids []domain.JournalpostID) error
}

// Topics names the broker topics the service publishes to.
type Topics struct {
	Submission string
	SharedCare string
}

type Service struct {
	folders      Folders
	persons      Persons
	journalposts Journalposts
	caseSystem   CaseSystem
	publisher    Publisher
	topics       Topics
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithCaseSystem enables case-number allocation and period lookups.
func WithCaseSystem(c CaseSystem) Option {
	return func(s *Service) {
		s.caseSystem = c
	}
}

func New(folders Folders, persons Persons, journalposts Journalposts, publisher Publisher, topics Topics, opts ...Option) *Service {
	s := &Service{
		folders:      folders,
		persons:      persons,
		journalposts: journalposts,
		publisher:    publisher,
		topics:       topics,
		logger:       slog.Default(),
		tracer:       otel.Tracer("punsj/submission"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Folder returns the person's applications for benefit. A person without a folder
// gets an empty list.
func (s *Service) Folder(ctx context.Context, benefit domain.BenefitType, rawNationalID string) (*FolderView, error) {
	nationalID, err := domain.ParseNationalID(rawNationalID)
	if err != nil {
		return nil, err
	}
	view := &FolderView{NationalID: nationalID.String(), BenefitCode: benefit.Code(), Applications: []View{}}

	p, err := s.persons.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return view, nil
	}
	f, err := s.folders.LoadFullFolder(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return view, nil
	}
	b := f.Bucket(benefit)
	if b == nil {
		return view, nil
	}
	for _, app := range b.Applications {
		v, err := newView(app, nationalID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render application")
		}
		view.Applications = append(view.Applications, v)
	}
	return view, nil
}

// Application returns one stored application.
func (s *Service) Application(ctx context.Context, rawID string) (View, error) {
	id, err := domain.ParseApplicationID(rawID)
	if err != nil {
		return nil, err
	}
	app, err := s.folders.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, app)
}

// Journalpost returns the bookkeeping for one journalpost.
func (s *Service) Journalpost(ctx context.Context, rawID string) (*JournalpostView, error) {
	id, err := domain.ParseJournalpostID(rawID)
	if err != nil {
		return nil, err
	}
	jp, err := s.journalposts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := newJournalpostView(jp)
	return &v, nil
}

// PersonJournalposts lists the journalposts owned by the person. Unknown persons
// have none.
func (s *Service) PersonJournalposts(ctx context.Context, rawNationalID string) (*PersonJournalposts, error) {
	nationalID, err := domain.ParseNationalID(rawNationalID)
	if err != nil {
		return nil, err
	}
	out := &PersonJournalposts{NationalID: nationalID.String(), Journalposts: []JournalpostView{}}
	p, err := s.persons.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ActorID == "" {
		return out, nil
	}
	found, err := s.journalposts.FindByActor(ctx, p.ActorID)
	if err != nil {
		return nil, err
	}
	for _, jp := range found {
		out.Journalposts = append(out.Journalposts, newJournalpostView(jp))
	}
	return out, nil
}

// Open creates an application for a journalpost. When the request names a related
// party the case system is asked to find or create the case first.
func (s *Service) Open(ctx context.Context, benefit domain.BenefitType, req OpenRequest) (view View, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.Open",
		trace.WithAttributes(attribute.String("benefit", benefit.Code())))
	defer func() { endSpan(span, err) }()

	nationalID, err := domain.ParseNationalID(req.NationalID)
	if err != nil {
		return nil, err
	}
	journalpostID, err := domain.ParseJournalpostID(req.JournalpostID)
	if err != nil {
		return nil, err
	}

	if related := req.related(); related != "" && s.caseSystem != nil {
		_, err := s.caseSystem.Saksnummer(ctx, k9sak.SaksnummerRequest{
			Benefit:       benefit,
			Applicant:     nationalID,
			CareRecipient: domain.NationalID(related),
			OtherParty:    domain.NationalID(req.OtherParty),
			JournalpostID: journalpostID,
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, dErrors.MessageOf(err))
		}
	}

	app, err := s.folders.StartFirstSubmission(ctx, nationalID, benefit, journalpostID)
	if err != nil {
		return nil, err
	}
	p, err := s.persons.FindByID(ctx, app.PersonID)
	if err != nil {
		return nil, err
	}
	if err := s.journalposts.SetBenefitType(ctx, journalpostID, benefit, p.ActorID); err != nil {
		return nil, err
	}
	if _, err := s.folders.LoadFullFolder(ctx, app.PersonID, app.ID); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "application opened",
		"application_id", app.ID.String(),
		"journalpost_id", journalpostID.String(),
		"benefit", benefit.Code(),
	)
	span.SetAttributes(attribute.String("application_id", app.ID.String()))
	v, err := newView(app, nationalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render application")
	}
	return v, nil
}

// Update stores a draft. Journalposts listed on the draft are recorded with the
// applicant's actor id when not already known.
func (s *Service) Update(ctx context.Context, benefit domain.BenefitType, payload json.RawMessage, editor string) (View, error) {
	id, draft, err := parseDraft(payload)
	if err != nil {
		return nil, err
	}
	if _, err := s.application(ctx, id, benefit); err != nil {
		return nil, err
	}
	app, err := s.folders.UpdateExistingSubmission(ctx, id, payload, journalpostIDs(draft.Journalposts), editor)
	if err != nil {
		return nil, absentAsBadRequest(err)
	}

	p, err := s.persons.FindByID(ctx, app.PersonID)
	if err != nil {
		return nil, err
	}
	if err := s.journalposts.EnsureSource(ctx, app.Journalposts, p.ActorID); err != nil {
		return nil, err
	}
	return newViewOrInternal(app, p.NationalID)
}

// Validate maps a draft against the stored application and saves it when it maps
// without errors. Field errors are returned as *ValidationError.
func (s *Service) Validate(ctx context.Context, benefit domain.BenefitType, payload json.RawMessage, editor string) (søknad *k9format.Søknad, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.Validate",
		trace.WithAttributes(attribute.String("benefit", benefit.Code())))
	defer func() { endSpan(span, err) }()

	id, draft, err := parseDraft(payload)
	if err != nil {
		return nil, err
	}
	app, err := s.application(ctx, id, benefit)
	if err != nil {
		return nil, err
	}
	m, err := mapper.For(benefit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "benefit type cannot be validated")
	}

	søknad, errs := m.Map(id, app.Journalposts, payload, s.existingPeriods(ctx, benefit, m, payload))
	if len(errs) > 0 {
		return nil, &ValidationError{ApplicationID: id.String(), Errors: errs}
	}
	if _, err := s.folders.UpdateExistingSubmission(ctx, id, payload, journalpostIDs(draft.Journalposts), editor); err != nil {
		return nil, err
	}
	return søknad, nil
}

// Send maps the stored application and publishes it. Journalposts already processed
// are left out; when none remain nothing is published.
func (s *Service) Send(ctx context.Context, benefit domain.BenefitType, req SendRequest) (søknad *k9format.Søknad, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.Send",
		trace.WithAttributes(attribute.String("benefit", benefit.Code())))
	outcome := "failed"
	defer func() {
		s.metrics.RecordSubmission(benefit.Code(), outcome)
		endSpan(span, err)
	}()

	id, err := domain.ParseApplicationID(req.ApplicationID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("application_id", id.String()))
	app, err := s.application(ctx, id, benefit)
	if err != nil {
		return nil, err
	}

	sendable, processed, err := s.journalposts.Sendable(ctx, app.Journalposts)
	if err != nil {
		return nil, err
	}
	for _, jp := range processed {
		s.logger.WarnContext(ctx, "journalpost already processed, left out of submission",
			"journalpost_id", jp.String(),
			"application_id", id.String(),
		)
	}
	if len(sendable) == 0 {
		outcome = "no_journalpost"
		s.logger.ErrorContext(ctx, "no sendable journalpost", "application_id", id.String())
		return nil, dErrors.New(dErrors.CodeConflict, MsgNoSendableJournalpost)
	}

	m, err := mapper.For(benefit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "benefit type cannot be sent")
	}
	søknad, errs := m.Map(id, sendable, app.Payload, s.existingPeriods(ctx, benefit, m, app.Payload))
	if len(errs) > 0 {
		outcome = "invalid"
		return nil, &ValidationError{ApplicationID: id.String(), Errors: errs}
	}

	value, err := json.Marshal(envelope{
		Søknad:       søknad,
		Journalposts: domain.JournalpostStrings(sendable),
		Benefit:      benefit.Code(),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode søknad")
	}
	err = s.publisher.Publish(ctx, kafka.Message{
		Topic:   s.topics.Submission,
		Key:     []byte(id.String()),
		Value:   value,
		Headers: callHeaders(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish søknad", "application_id", id.String(), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send søknad")
	}

	if _, err := s.folders.MarkSent(ctx, id); err != nil {
		return nil, err
	}
	if err := s.journalposts.MarkProcessed(ctx, sendable); err != nil {
		return nil, err
	}
	outcome = "sent"
	s.logger.InfoContext(ctx, "søknad sent",
		"application_id", id.String(),
		"journalposts", len(sendable),
	)
	return søknad, nil
}

// Periods returns the periods the case system already holds for the parties.
// Lookup failures yield an empty list.
func (s *Service) Periods(ctx context.Context, benefit domain.BenefitType, req PeriodsRequest) []mapper.PeriodeDto {
	related := req.CareRecipient
	if related == "" {
		related = req.Child
	}
	out := []mapper.PeriodeDto{}
	if s.caseSystem == nil || req.Applicant == "" {
		return out
	}
	periods, err := s.caseSystem.ExistingPeriods(ctx, benefit, domain.NationalID(req.Applicant), domain.NationalID(related))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read periods from case system", "error", err)
		return out
	}
	for _, p := range periods {
		out = append(out, mapper.FromPeriode(p))
	}
	return out
}

// SharedCare publishes a care-day sharing message keyed by its dedup key.
func (s *Service) SharedCare(ctx context.Context, dto mapper.SharedCareDto) (err error) {
	ctx, span := s.tracer.Start(ctx, "submission.SharedCare")
	defer func() { endSpan(span, err) }()

	msg, errs := mapper.MapSharedCare(dto)
	if len(errs) > 0 {
		return &ValidationError{ApplicationID: msg.DedupKey, Errors: errs}
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode melding")
	}
	err = s.publisher.Publish(ctx, kafka.Message{
		Topic:   s.topics.SharedCare,
		Key:     []byte(msg.DedupKey),
		Value:   value,
		Headers: callHeaders(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish melding", "dedup_key", msg.DedupKey, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send melding")
	}
	s.logger.InfoContext(ctx, "sent care-day sharing melding", "dedup_key", msg.DedupKey)
	return nil
}

func (s *Service) existingPeriods(ctx context.Context, benefit domain.BenefitType, m mapper.Mapper, payload json.RawMessage) []k9format.Periode {
	if s.caseSystem == nil {
		return nil
	}
	applicant, related := m.Parties(payload)
	if applicant == "" {
		return nil
	}
	periods, err := s.caseSystem.ExistingPeriods(ctx, benefit, domain.NationalID(applicant), domain.NationalID(related))
	if err != nil {
		s.logger.WarnContext(ctx, "case system periods unavailable, validating without", "error", err)
		return nil
	}
	return periods
}

func (s *Service) render(ctx context.Context, app *folder.Application) (View, error) {
	p, err := s.persons.FindByID(ctx, app.PersonID)
	if err != nil {
		return nil, err
	}
	return newViewOrInternal(app, p.NationalID)
}

func newViewOrInternal(app *folder.Application, nationalID domain.NationalID) (View, error) {
	v, err := newView(app, nationalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render application")
	}
	return v, nil
}

func parseDraft(payload json.RawMessage) (domain.ApplicationID, mapper.Draft, error) {
	draft, err := mapper.ParseDraft(payload)
	if err != nil {
		return domain.ApplicationID{}, draft, err
	}
	id, err := domain.ParseApplicationID(draft.ApplicationID)
	if err != nil {
		return domain.ApplicationID{}, draft, err
	}
	return id, draft, nil
}

func journalpostIDs(raw []string) []domain.JournalpostID {
	raw = pstrings.DedupeAndTrim(raw)
	out := make([]domain.JournalpostID, 0, len(raw))
	for _, r := range raw {
		if id, err := domain.ParseJournalpostID(r); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// application loads an application that is to be changed or sent as benefit. A
// missing application or one filed under another benefit is a client error.
func (s *Service) application(ctx context.Context, id domain.ApplicationID, benefit domain.BenefitType) (*folder.Application, error) {
	app, err := s.folders.GetApplication(ctx, id)
	if err != nil {
		return nil, absentAsBadRequest(err)
	}
	if app.BucketID != domain.BucketFor(domain.FolderFor(app.PersonID), benefit) {
		s.logger.WarnContext(ctx, "application used with another benefit",
			"application_id", id.String(),
			"benefit", benefit.Code(),
		)
		return nil, dErrors.New(dErrors.CodeBadRequest, "søknaden tilhører ikke ytelsen "+benefit.Code())
	}
	return app, nil
}

// absentAsBadRequest reports a missing application as a client error.
func absentAsBadRequest(err error) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "søknaden finnes ikke")
	}
	return err
}

func callHeaders(ctx context.Context) map[string]string {
	id := requestcontext.CorrelationID(ctx)
	if id == "" {
		id = requestcontext.RequestID(ctx)
	}
	if id == "" {
		return nil
	}
	return map[string]string{"Nav-Callid": id}
}

func endSpan(span trace.Span, err error) {
	var verr *ValidationError
	if err != nil && !errors.As(err, &verr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
