// Package journalpost keeps track of inbound documents and whether they are processed.
package journalpost

import (
	"context"
	"errors"
	"log/slog"

	"punsj/internal/docstore"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/platform/sentinel"
	"punsj/pkg/requestcontext"
)

type Service struct {
	store  docstore.Store[Journalpost]
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store docstore.Store[Journalpost], opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id domain.JournalpostID) (*Journalpost, error) {
	jp, err := s.store.Get(ctx, id.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "journalpost not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load journalpost")
	}
	return jp, nil
}

// SetBenefitType records the benefit type a journalpost was opened for. A new record
// is registered as punched here and owned by actor; an existing record without an
// owner is given one.
func (s *Service) SetBenefitType(ctx context.Context, id domain.JournalpostID, benefit domain.BenefitType, actor domain.ActorID) error {
	_, err := s.store.Upsert(ctx, id.String(), func(prev *Journalpost) (*Journalpost, error) {
		if prev == nil {
			prev = s.registered(ctx, id, actor)
		}
		jp := s.orNew(ctx, prev, id)
		jp.BenefitType = benefit
		if jp.ActorID == "" {
			jp.ActorID = actor
		}
		return jp, nil
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set benefit type")
	}
	return nil
}

// EnsureSource registers journalposts that are not known yet as punched here, owned by
// actor. Existing records keep their source and only get an owner when they lack one.
func (s *Service) EnsureSource(ctx context.Context, ids []domain.JournalpostID, actor domain.ActorID) error {
	for _, id := range ids {
		_, err := s.store.Upsert(ctx, id.String(), func(prev *Journalpost) (*Journalpost, error) {
			if prev == nil {
				return s.registered(ctx, id, actor), nil
			}
			if prev.ActorID != "" || actor == "" {
				return prev, nil
			}
			jp := s.orNew(ctx, prev, id)
			jp.ActorID = actor
			return jp, nil
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register journalpost")
		}
	}
	return nil
}

// Sendable splits ids into those that may be submitted and those already processed.
// Unknown journalposts are sendable. Input order is kept.
func (s *Service) Sendable(ctx context.Context, ids []domain.JournalpostID) (sendable, processed []domain.JournalpostID, err error) {
	found, err := s.store.GetMany(ctx, domain.JournalpostStrings(ids))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load journalposts")
	}
	byID := make(map[domain.JournalpostID]*Journalpost, len(found))
	for _, jp := range found {
		byID[jp.ID] = jp
	}
	for _, id := range ids {
		if byID[id].Sendable() {
			sendable = append(sendable, id)
		} else {
			processed = append(processed, id)
		}
	}
	return sendable, processed, nil
}

// MarkProcessed sets ferdigBehandlet on every id. The flag never goes back to false.
func (s *Service) MarkProcessed(ctx context.Context, ids []domain.JournalpostID) error {
	for _, id := range ids {
		_, err := s.store.Upsert(ctx, id.String(), func(prev *Journalpost) (*Journalpost, error) {
			if prev != nil && prev.FerdigBehandlet {
				return prev, nil
			}
			jp := s.orNew(ctx, prev, id)
			jp.FerdigBehandlet = true
			return jp, nil
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark journalpost processed")
		}
	}
	s.logger.InfoContext(ctx, "journalposts marked processed",
		"journalpost_ids", domain.JournalpostStrings(ids),
	)
	return nil
}

// FindByActor lists journalposts registered for an actor, oldest first.
func (s *Service) FindByActor(ctx context.Context, actor domain.ActorID) ([]*Journalpost, error) {
	found, err := s.store.FindBy(ctx, "actor_id", actor.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list journalposts")
	}
	return found, nil
}

func (s *Service) registered(ctx context.Context, id domain.JournalpostID, actor domain.ActorID) *Journalpost {
	jp := s.orNew(ctx, nil, id)
	jp.ActorID = actor
	jp.Source = SourcePunsj
	return jp
}

func (s *Service) orNew(ctx context.Context, prev *Journalpost, id domain.JournalpostID) *Journalpost {
	now := requestcontext.Now(ctx).UTC()
	if prev != nil {
		prev.UpdatedAt = now
		return prev
	}
	return &Journalpost{ID: id, CreatedAt: now, UpdatedAt: now}
}
