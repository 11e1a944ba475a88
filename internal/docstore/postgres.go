package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"punsj/internal/platform/metrics"
	"punsj/pkg/platform/sentinel"
	"punsj/pkg/platform/tx"
)

const defaultLockTimeout = 5 * time.Second

// Postgres stores documents of type T in one table with columns (id, data, created_at, updated_at).
type Postgres[T any] struct {
	db          *sql.DB
	table       string
	lockTimeout time.Duration
	metrics     *metrics.Metrics
}

// Option configures a store.
type Option func(*options)

type options struct {
	lockTimeout time.Duration
	metrics     *metrics.Metrics
	unique      []string
}

// WithLockTimeout bounds how long Upsert waits for the row lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithUniqueFields declares fields that must be unique across documents. Postgres
// enforces them with unique indexes from the migrations; the in-memory store checks them
// itself. Multiple fields form one composite key.
func WithUniqueFields(fields ...string) Option {
	return func(o *options) { o.unique = fields }
}

func buildOptions(opts []Option) options {
	o := options{lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewPostgres creates a store over one of the document tables.
func NewPostgres[T any](db *sql.DB, table string, opts ...Option) (*Postgres[T], error) {
	if db == nil {
		return nil, errors.New("docstore: db is required")
	}
	if err := validTable(table); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Postgres[T]{db: db, table: table, lockTimeout: o.lockTimeout, metrics: o.metrics}, nil
}

// Get returns the document stored under key, or sentinel.ErrNotFound.
func (s *Postgres[T]) Get(ctx context.Context, key string) (doc *T, err error) {
	defer s.observe("get", time.Now(), &err)
	err = retryRead(ctx, func() error {
		var raw []byte
		qerr := tx.Execer(ctx, s.db).
			QueryRowContext(ctx, "SELECT data FROM "+s.table+" WHERE id = $1", key).
			Scan(&raw)
		if errors.Is(qerr, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if qerr != nil {
			return classify(qerr)
		}
		doc, qerr = decode[T](raw)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetMany returns the documents stored under keys. Missing keys are skipped.
func (s *Postgres[T]) GetMany(ctx context.Context, keys []string) (docs []*T, err error) {
	defer s.observe("get_many", time.Now(), &err)
	if len(keys) == 0 {
		return nil, nil
	}
	err = retryRead(ctx, func() error {
		var qerr error
		docs, qerr = s.query(ctx,
			"SELECT data FROM "+s.table+" WHERE id = ANY($1::text[]) ORDER BY created_at, id",
			pq.Array(keys))
		return qerr
	})
	return docs, err
}

// FindBy returns documents whose top-level JSON field equals value, oldest first.
func (s *Postgres[T]) FindBy(ctx context.Context, field, value string) (docs []*T, err error) {
	defer s.observe("find", time.Now(), &err)
	if err = validField(field); err != nil {
		return nil, err
	}
	err = retryRead(ctx, func() error {
		var qerr error
		docs, qerr = s.query(ctx,
			"SELECT data FROM "+s.table+" WHERE data ->> '"+field+"' = $1 ORDER BY created_at, id",
			value)
		return qerr
	})
	return docs, err
}

func (s *Postgres[T]) query(ctx context.Context, query string, args ...any) ([]*T, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, classify(err)
		}
		doc, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// errInsertRace signals that another transaction inserted the key between our locked
// read and our insert.
var errInsertRace = errors.New("docstore: concurrent insert")

// Upsert runs fn against the locked current document and stores its result.
// A transaction already carried by ctx is joined.
func (s *Postgres[T]) Upsert(ctx context.Context, key string, fn Mutator[T]) (result *T, err error) {
	defer s.observe("upsert", time.Now(), &err)
	for attempt := 0; attempt < 2; attempt++ {
		result, err = s.upsertOnce(ctx, key, fn)
		if !errors.Is(err, errInsertRace) {
			return result, err
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrSerialization, s.table, key)
}

func (s *Postgres[T]) upsertOnce(ctx context.Context, key string, fn Mutator[T]) (*T, error) {
	var result *T
	err := tx.RunInTx(ctx, s.db, func(ctx context.Context, sqlTx *sql.Tx) error {
		if _, err := sqlTx.ExecContext(ctx,
			"SELECT set_config('lock_timeout', $1, true)",
			fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())); err != nil {
			return classify(err)
		}

		var raw, prevData []byte
		var prev *T
		err := sqlTx.QueryRowContext(ctx,
			"SELECT data FROM "+s.table+" WHERE id = $1 FOR UPDATE", key).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return classify(err)
		default:
			if prev, err = decode[T](raw); err != nil {
				return err
			}
			if prevData, err = json.Marshal(prev); err != nil {
				return fmt.Errorf("docstore: encode %s/%s: %w", s.table, key, err)
			}
		}

		next, err := fn(prev)
		if err != nil {
			return err
		}
		if next == nil {
			return ErrNilDocument
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("docstore: encode %s/%s: %w", s.table, key, err)
		}
		if prev != nil && bytes.Equal(data, prevData) {
			result = next
			return nil
		}

		if prev == nil {
			res, err := sqlTx.ExecContext(ctx,
				"INSERT INTO "+s.table+" (id, data, created_at, updated_at) VALUES ($1, $2::jsonb, now(), now()) ON CONFLICT (id) DO NOTHING",
				key, data)
			if err != nil {
				return classify(err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return errInsertRace
			}
		} else {
			if _, err := sqlTx.ExecContext(ctx,
				"UPDATE "+s.table+" SET data = $2::jsonb, updated_at = now() WHERE id = $1",
				key, data); err != nil {
				return classify(err)
			}
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Postgres[T]) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveStore(s.table, op, start, *err)
}

func decode[T any](raw []byte) (*T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return &doc, nil
}

// classify maps Postgres SQLSTATE codes to store errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "55P03":
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	case "40001", "40P01":
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	case "23505":
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	default:
		return err
	}
}
