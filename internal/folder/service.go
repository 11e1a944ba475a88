// Package folder owns the folder, bucket and application aggregate.
//
// Every write is a single-key upsert through the document store. Creating an
// application touches three keys (folder, bucket, application) without a surrounding
// transaction; a folder or bucket left empty by a failure in between is valid state and
// is reused on retry.
package folder

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"punsj/internal/docstore"
	"punsj/internal/person"
	"punsj/internal/platform/metrics"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/platform/sentinel"
	"punsj/pkg/requestcontext"
)

// Persons resolves national ids to person records.
type Persons interface {
	FindOrCreateByNationalID(ctx context.Context, nationalID domain.NationalID) (*person.Person, error)
}

// Stores bundles the document stores backing the aggregate.
type Stores struct {
	Folders      docstore.Store[Folder]
	Buckets      docstore.Store[Bucket]
	Applications docstore.Store[Application]
}

// bucketFanOut bounds concurrent application reads in LoadFullFolder.
const bucketFanOut = 4

type Service struct {
	folders      docstore.Store[Folder]
	buckets      docstore.Store[Bucket]
	applications docstore.Store[Application]
	persons      Persons
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

func New(stores Stores, persons Persons, opts ...Option) *Service {
	s := &Service{
		folders:      stores.Folders,
		buckets:      stores.Buckets,
		applications: stores.Applications,
		persons:      persons,
		logger:       slog.Default(),
		tracer:       otel.Tracer("punsj/folder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOrCreateFolder returns the person's folder, creating it on first use.
func (s *Service) FindOrCreateFolder(ctx context.Context, personID domain.PersonID) (*Folder, error) {
	id := domain.FolderFor(personID)
	f, err := s.folders.Upsert(ctx, id.String(), func(prev *Folder) (*Folder, error) {
		if prev != nil {
			return prev, nil
		}
		return &Folder{ID: id, PersonID: personID, CreatedAt: now(ctx)}, nil
	})
	if err != nil {
		return nil, storageError(err, "failed to find or create folder")
	}
	return f, nil
}

// FindOrCreateBucket returns the folder's bucket for benefit, creating it on first use.
// The bucket key is derived from the pair, so concurrent callers converge on one bucket.
func (s *Service) FindOrCreateBucket(ctx context.Context, folderID domain.FolderID, benefit domain.BenefitType) (*Bucket, error) {
	if !benefit.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown benefit type")
	}
	id := domain.BucketFor(folderID, benefit)
	b, err := s.buckets.Upsert(ctx, id.String(), func(prev *Bucket) (*Bucket, error) {
		if prev == nil {
			return &Bucket{ID: id, FolderID: folderID, BenefitType: benefit, CreatedAt: now(ctx)}, nil
		}
		if prev.FolderID != folderID || prev.BenefitType != benefit {
			return nil, dErrors.New(dErrors.CodeConflict, "bucket belongs to another folder or benefit type")
		}
		return prev, nil
	})
	if err != nil {
		return nil, storageError(err, "failed to find or create bucket")
	}
	return b, nil
}

// StartFirstSubmission creates an application for a journalpost, creating the person,
// folder and bucket as needed.
func (s *Service) StartFirstSubmission(ctx context.Context, nationalID domain.NationalID, benefit domain.BenefitType, journalpostID domain.JournalpostID) (*Application, error) {
	return s.createApplication(ctx, nationalID, benefit, []domain.JournalpostID{journalpostID})
}

// CreateEmptyApplication is StartFirstSubmission without a journalpost reference.
func (s *Service) CreateEmptyApplication(ctx context.Context, nationalID domain.NationalID, benefit domain.BenefitType) (domain.ApplicationID, error) {
	app, err := s.createApplication(ctx, nationalID, benefit, nil)
	if err != nil {
		return domain.ApplicationID{}, err
	}
	return app.ID, nil
}

func (s *Service) createApplication(ctx context.Context, nationalID domain.NationalID, benefit domain.BenefitType, journalposts []domain.JournalpostID) (app *Application, err error) {
	ctx, span := s.tracer.Start(ctx, "folder.CreateApplication",
		trace.WithAttributes(attribute.String("benefit_type", benefit.String())))
	defer func() { endSpan(span, err) }()

	p, err := s.persons.FindOrCreateByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	f, err := s.FindOrCreateFolder(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	b, err := s.FindOrCreateBucket(ctx, f.ID, benefit)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSingleBucket(ctx, f.ID, benefit); err != nil {
		return nil, err
	}

	id := domain.NewApplicationID()
	if journalposts == nil {
		journalposts = []domain.JournalpostID{}
	}
	app, err = s.applications.Upsert(ctx, id.String(), func(prev *Application) (*Application, error) {
		if prev != nil {
			return nil, dErrors.New(dErrors.CodeConflict, "application id already in use")
		}
		ts := now(ctx)
		return &Application{
			ID:           id,
			BucketID:     b.ID,
			PersonID:     p.ID,
			Journalposts: journalposts,
			EditedBy:     requestcontext.Editor(ctx),
			CreatedAt:    ts,
			UpdatedAt:    ts,
		}, nil
	})
	if err != nil {
		return nil, storageError(err, "failed to create application")
	}

	span.SetAttributes(attribute.String("application_id", app.ID.String()))
	s.metrics.IncrementApplicationsCreated(benefit.Code())
	s.logger.InfoContext(ctx, "application created",
		"application_id", app.ID.String(),
		"bucket_id", b.ID.String(),
		"benefit_type", benefit.Code(),
		"journalpost_ids", domain.JournalpostStrings(journalposts),
	)
	return app, nil
}

// ensureSingleBucket reports a conflict if the folder somehow holds more than one bucket
// for benefit. Bucket keys are derived from the pair, so this only fires on corrupt data.
func (s *Service) ensureSingleBucket(ctx context.Context, folderID domain.FolderID, benefit domain.BenefitType) error {
	buckets, err := s.buckets.FindBy(ctx, "folder_id", folderID.String())
	if err != nil {
		return storageError(err, "failed to list buckets")
	}
	count := 0
	for _, b := range buckets {
		if b.BenefitType == benefit {
			count++
		}
	}
	if count > 1 {
		s.logger.ErrorContext(ctx, "folder has several buckets for one benefit type",
			"folder_id", folderID.String(),
			"benefit_type", benefit.Code(),
			"count", count,
		)
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("folder has %d buckets for %s", count, benefit.Code()))
	}
	return nil
}

// UpdateExistingSubmission replaces the payload and editor of an unsent application.
// Journalposts are replaced only when the update carries some. Writers to one
// application are serialized by the row lock.
func (s *Service) UpdateExistingSubmission(ctx context.Context, id domain.ApplicationID, payload json.RawMessage, journalposts []domain.JournalpostID, editor string) (app *Application, err error) {
	ctx, span := s.tracer.Start(ctx, "folder.UpdateExistingSubmission",
		trace.WithAttributes(attribute.String("application_id", id.String())))
	defer func() { endSpan(span, err) }()

	app, err = s.applications.Upsert(ctx, id.String(), func(prev *Application) (*Application, error) {
		if prev == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		if prev.Sent {
			return nil, dErrors.New(dErrors.CodeInvalidState, "cannot modify a submitted application")
		}
		prev.Payload = payload
		if len(journalposts) > 0 {
			prev.Journalposts = journalposts
		}
		prev.EditedBy = editor
		prev.UpdatedAt = now(ctx)
		return prev, nil
	})
	if err != nil {
		return nil, storageError(err, "failed to update application")
	}
	s.metrics.IncrementApplicationsUpdated()
	s.logger.InfoContext(ctx, "application updated",
		"application_id", id.String(),
		"edited_by", editor,
	)
	return app, nil
}

// MarkSent flags the application as submitted. The flag never reverts.
func (s *Service) MarkSent(ctx context.Context, id domain.ApplicationID) (*Application, error) {
	app, err := s.applications.Upsert(ctx, id.String(), func(prev *Application) (*Application, error) {
		if prev == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		if prev.Sent {
			return prev, nil
		}
		prev.Sent = true
		prev.UpdatedAt = now(ctx)
		return prev, nil
	})
	if err != nil {
		return nil, storageError(err, "failed to mark application sent")
	}
	return app, nil
}

func (s *Service) GetApplication(ctx context.Context, id domain.ApplicationID) (*Application, error) {
	app, err := s.applications.Get(ctx, id.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if err != nil {
		return nil, storageError(err, "failed to load application")
	}
	return app, nil
}

// LoadFullFolder reconstructs the person's folder with every bucket and its
// applications. It returns nil when the person has no folder. Any expected application
// id missing from the tree is an integrity error.
func (s *Service) LoadFullFolder(ctx context.Context, personID domain.PersonID, expect ...domain.ApplicationID) (f *Folder, err error) {
	ctx, span := s.tracer.Start(ctx, "folder.LoadFullFolder",
		trace.WithAttributes(attribute.String("person_id", personID.String())))
	defer func() { endSpan(span, err) }()

	f, err = s.folders.Get(ctx, domain.FolderFor(personID).String())
	if errors.Is(err, sentinel.ErrNotFound) {
		if len(expect) > 0 {
			return nil, s.integrityError(ctx, expect[0], "folder missing")
		}
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "failed to load folder")
	}

	buckets, err := s.buckets.FindBy(ctx, "folder_id", f.ID.String())
	if err != nil {
		return nil, storageError(err, "failed to load buckets")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bucketFanOut)
	for _, b := range buckets {
		g.Go(func() error {
			apps, err := s.applications.FindBy(gctx, "bucket_id", b.ID.String())
			if err != nil {
				return err
			}
			b.Applications = make([]*Application, 0, len(apps))
			for _, a := range apps {
				if a.BucketID == b.ID {
					b.Applications = append(b.Applications, a)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storageError(err, "failed to load applications")
	}
	f.Buckets = buckets
	if f.Buckets == nil {
		f.Buckets = []*Bucket{}
	}

	for _, id := range expect {
		if !f.contains(id) {
			return nil, s.integrityError(ctx, id, "application missing from folder")
		}
	}
	return f, nil
}

func (f *Folder) contains(id domain.ApplicationID) bool {
	for _, b := range f.Buckets {
		for _, a := range b.Applications {
			if a.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *Service) integrityError(ctx context.Context, id domain.ApplicationID, reason string) error {
	s.metrics.IncrementIntegrityErrors()
	s.logger.ErrorContext(ctx, "could not read back application just written",
		"application_id", id.String(),
		"reason", reason,
	)
	return dErrors.New(dErrors.CodeIntegrity, "could not read back application "+id.String())
}

// storageError keeps coded errors raised inside mutators and wraps everything else.
func storageError(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}
