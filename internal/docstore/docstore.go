// Package docstore is the row-locked JSON document store shared by every entity kind.
//
// Each table holds one JSON snapshot per key. Writes go through Upsert, which reads the
// current row with an exclusive lock, hands it to a mutator and writes the result in the
// same transaction, so concurrent writers to one key are linearized. Reads are unlocked
// and observe either the old or the new snapshot, never a mix.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"punsj/pkg/platform/sentinel"
)

// Mutator computes the next document from the current one. prev is nil when the key
// has no document yet and may be modified in place. A result that encodes the same as
// prev skips the write; returning an error aborts the transaction and is passed through
// to the caller.
type Mutator[T any] func(prev *T) (*T, error)

// Store is implemented by Postgres and Memory.
type Store[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	GetMany(ctx context.Context, keys []string) ([]*T, error)
	FindBy(ctx context.Context, field, value string) ([]*T, error)
	Upsert(ctx context.Context, key string, fn Mutator[T]) (*T, error)
}

var (
	_ Store[struct{}] = (*Postgres[struct{}])(nil)
	_ Store[struct{}] = (*Memory[struct{}])(nil)
)

// Table names. Only these tables can back a store.
const (
	TablePerson      = "person"
	TableFolder      = "folder"
	TableBucket      = "bucket"
	TableApplication = "application"
	TableJournalpost = "journalpost"
)

var tables = map[string]struct{}{
	TablePerson:      {},
	TableFolder:      {},
	TableBucket:      {},
	TableApplication: {},
	TableJournalpost: {},
}

var (
	// ErrLockTimeout means the row lock could not be acquired in time. Callers may retry with backoff.
	ErrLockTimeout = fmt.Errorf("docstore: lock wait timeout: %w", sentinel.ErrUnavailable)
	// ErrSerialization means the database aborted the transaction to keep it serializable.
	ErrSerialization = fmt.Errorf("docstore: serialization failure: %w", sentinel.ErrConflict)
	// ErrDuplicate means a unique index rejected the document.
	ErrDuplicate = fmt.Errorf("docstore: unique violation: %w", sentinel.ErrConflict)
	// ErrNilDocument means a mutator returned neither a document nor an error.
	ErrNilDocument = errors.New("docstore: mutator returned nil document")
)

// readRetryDelay is the pause before the single retry of a failed read.
const readRetryDelay = 50 * time.Millisecond

// IsTransient reports whether err is a lock timeout or serialization failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrSerialization)
}

// retryRead runs fn and retries it once when it fails with a transient error.
func retryRead(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !IsTransient(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(readRetryDelay):
	}
	return fn()
}

func validTable(table string) error {
	if _, ok := tables[table]; !ok {
		return fmt.Errorf("docstore: unknown table %q", table)
	}
	return nil
}

// validField accepts lower case JSON field names, which are inlined in SQL so that
// expression indexes on data ->> 'field' are used.
func validField(field string) error {
	if field == "" {
		return errors.New("docstore: empty field name")
	}
	for _, r := range field {
		if (r < 'a' || r > 'z') && r != '_' {
			return fmt.Errorf("docstore: invalid field name %q", field)
		}
	}
	return nil
}
