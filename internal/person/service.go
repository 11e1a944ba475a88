// Package person maps national ids to internal person records.
package person

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"punsj/internal/docstore"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/platform/sentinel"
	"punsj/pkg/requestcontext"
)

// Resolver looks up the actor id registered for a national id.
type Resolver interface {
	ActorID(ctx context.Context, nationalID domain.NationalID) (domain.ActorID, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, nationalID domain.NationalID) (domain.ActorID, error)

func (f ResolverFunc) ActorID(ctx context.Context, nationalID domain.NationalID) (domain.ActorID, error) {
	return f(ctx, nationalID)
}

// Service finds and creates person records.
type Service struct {
	store    docstore.Store[Person]
	resolver Resolver
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store docstore.Store[Person], resolver Resolver, opts ...Option) *Service {
	s := &Service{store: store, resolver: resolver, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindByNationalID returns the person registered for nationalID, or nil when there is none.
func (s *Service) FindByNationalID(ctx context.Context, nationalID domain.NationalID) (*Person, error) {
	found, err := s.store.FindBy(ctx, "national_id", nationalID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up person")
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (s *Service) FindByID(ctx context.Context, id domain.PersonID) (*Person, error) {
	p, err := s.store.Get(ctx, id.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}
	return p, nil
}

// FindOrCreateByNationalID returns the existing person or resolves the actor id and
// creates one. A concurrent creation for the same national id is detected through the
// unique index and the winner is returned.
func (s *Service) FindOrCreateByNationalID(ctx context.Context, nationalID domain.NationalID) (*Person, error) {
	existing, err := s.FindByNationalID(ctx, nationalID)
	if err != nil || existing != nil {
		return existing, err
	}

	actorID, err := s.resolver.ActorID(ctx, nationalID)
	if err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve actor id")
	}

	id := domain.NewPersonID()
	created, err := s.store.Upsert(ctx, id.String(), func(prev *Person) (*Person, error) {
		if prev != nil {
			return prev, nil
		}
		return &Person{
			ID:         id,
			NationalID: nationalID,
			ActorID:    actorID,
			CreatedAt:  now(ctx),
		}, nil
	})
	if errors.Is(err, docstore.ErrDuplicate) {
		s.logger.InfoContext(ctx, "person created concurrently",
			"national_id", nationalID.Masked(),
		)
		winner, ferr := s.FindByNationalID(ctx, nationalID)
		if ferr != nil {
			return nil, ferr
		}
		if winner == nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "person vanished after duplicate insert")
		}
		return winner, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}

	s.logger.InfoContext(ctx, "person created",
		"person_id", created.ID.String(),
		"national_id", nationalID.Masked(),
	)
	return created, nil
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}
