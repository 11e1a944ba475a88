//go:build integration

package docstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"punsj/internal/docstore"
	"punsj/pkg/platform/sentinel"
	"punsj/pkg/testutil/containers"
)

type counter struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Hits  int    `json:"hits"`
}

type PostgresDocstoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *docstore.Postgres[counter]
}

func TestPostgresDocstoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDocstoreSuite))
}

func (s *PostgresDocstoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	store, err := docstore.NewPostgres[counter](s.postgres.DB, docstore.TableApplication,
		docstore.WithLockTimeout(2*time.Second))
	s.Require().NoError(err)
	s.store = store
}

func (s *PostgresDocstoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), docstore.TableApplication))
}

func (s *PostgresDocstoreSuite) TestConcurrentUpsertsAreLinearized() {
	ctx := context.Background()
	const writers = 40

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Upsert(ctx, "k", func(prev *counter) (*counter, error) {
				if prev == nil {
					prev = &counter{ID: "k", Owner: "p1"}
				}
				prev.Hits++
				return prev, nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal(writers, got.Hits)
}

func (s *PostgresDocstoreSuite) TestFindByUsesJSONField() {
	ctx := context.Background()
	for _, c := range []counter{{ID: "a", Owner: "p1"}, {ID: "b", Owner: "p2"}, {ID: "c", Owner: "p1"}} {
		_, err := s.store.Upsert(ctx, c.ID, func(*counter) (*counter, error) { return &c, nil })
		s.Require().NoError(err)
	}

	got, err := s.store.FindBy(ctx, "owner", "p1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("a", got[0].ID)
	s.Equal("c", got[1].ID)

	many, err := s.store.GetMany(ctx, []string{"b", "c", "zzz"})
	s.Require().NoError(err)
	s.Len(many, 2)

	_, err = s.store.Get(ctx, "zzz")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresDocstoreSuite) TestLockTimeoutSurfacesAsUnavailable() {
	ctx := context.Background()
	_, err := s.store.Upsert(ctx, "k", func(*counter) (*counter, error) { return &counter{ID: "k"}, nil })
	s.Require().NoError(err)

	short, err := docstore.NewPostgres[counter](s.postgres.DB, docstore.TableApplication,
		docstore.WithLockTimeout(100*time.Millisecond))
	s.Require().NoError(err)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.store.Upsert(ctx, "k", func(prev *counter) (*counter, error) {
			close(entered)
			<-release
			prev.Hits++
			return prev, nil
		})
	}()
	<-entered

	_, err = short.Upsert(ctx, "k", func(prev *counter) (*counter, error) { return prev, nil })
	s.ErrorIs(err, docstore.ErrLockTimeout)
	s.ErrorIs(err, sentinel.ErrUnavailable)

	close(release)
	<-done
}
