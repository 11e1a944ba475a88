package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"punsj/internal/platform/metrics"
	"punsj/pkg/platform/sentinel"
)

const numShards = 128

type memoryRow struct {
	data   []byte
	fields map[string]string
	seq    uint64
}

// Memory is an in-process store with the same semantics as Postgres. Writers to one
// key serialize on a sharded mutex; readers see whole snapshots.
type Memory[T any] struct {
	table   string
	shards  [numShards]sync.Mutex
	mu      sync.RWMutex
	rows    map[string]*memoryRow
	seq     uint64
	unique  []string
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewMemory creates an in-memory store for table.
func NewMemory[T any](table string, opts ...Option) (*Memory[T], error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	for _, f := range o.unique {
		if err := validField(f); err != nil {
			return nil, err
		}
	}
	return &Memory[T]{
		table:   table,
		rows:    make(map[string]*memoryRow),
		unique:  o.unique,
		timeout: o.lockTimeout,
		metrics: o.metrics,
	}, nil
}

func (s *Memory[T]) Get(ctx context.Context, key string) (doc *T, err error) {
	defer s.observe("get", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	row, ok := s.rows[key]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decode[T](row.data)
}

func (s *Memory[T]) GetMany(ctx context.Context, keys []string) (docs []*T, err error) {
	defer s.observe("get_many", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rows := make([]*memoryRow, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if row, ok := s.rows[k]; ok {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()
	return decodeRows[T](rows)
}

func (s *Memory[T]) FindBy(ctx context.Context, field, value string) (docs []*T, err error) {
	defer s.observe("find", time.Now(), &err)
	if err := validField(field); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var rows []*memoryRow
	for _, row := range s.rows {
		if v, ok := row.fields[field]; ok && v == value {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()
	return decodeRows[T](rows)
}

func (s *Memory[T]) Upsert(ctx context.Context, key string, fn Mutator[T]) (result *T, err error) {
	defer s.observe("upsert", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.mu.RLock()
	row, exists := s.rows[key]
	s.mu.RUnlock()

	var prev *T
	if exists {
		if prev, err = decode[T](row.data); err != nil {
			return nil, err
		}
	}

	next, err := fn(prev)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, ErrNilDocument
	}
	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode %s/%s: %w", s.table, key, err)
	}
	if exists && bytes.Equal(data, row.data) {
		return next, nil
	}
	fields, err := topLevelFields(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(key, fields); err != nil {
		return nil, err
	}
	s.seq++
	stored := &memoryRow{data: data, fields: fields, seq: s.seq}
	if exists {
		stored.seq = row.seq
	}
	s.rows[key] = stored
	return decode[T](data)
}

// lock acquires the shard for key, giving up after the lock timeout.
func (s *Memory[T]) lock(ctx context.Context, key string) (func(), error) {
	m := &s.shards[hashKey(key)%numShards]
	if m.TryLock() {
		return m.Unlock, nil
	}
	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s/%s", ErrLockTimeout, s.table, key)
		case <-tick.C:
			if m.TryLock() {
				return m.Unlock, nil
			}
		}
	}
}

func (s *Memory[T]) checkUnique(key string, fields map[string]string) error {
	if len(s.unique) == 0 {
		return nil
	}
	want, ok := compositeKey(fields, s.unique)
	if !ok {
		return nil
	}
	for k, row := range s.rows {
		if k == key {
			continue
		}
		if got, ok := compositeKey(row.fields, s.unique); ok && got == want {
			return fmt.Errorf("%w: %s %s", ErrDuplicate, s.table, strings.Join(s.unique, ","))
		}
	}
	return nil
}

func (s *Memory[T]) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveStore(s.table, op, start, *err)
}

func compositeKey(fields map[string]string, names []string) (string, bool) {
	parts := make([]string, len(names))
	for i, n := range names {
		v, ok := fields[n]
		if !ok || v == "" {
			return "", false
		}
		parts[i] = v
	}
	return strings.Join(parts, "\x00"), true
}

// topLevelFields extracts scalar top-level JSON fields as text, the way data ->> 'f' does.
func topLevelFields(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("docstore: document is not a JSON object: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			fields[k] = str
			continue
		}
		if len(v) > 0 && v[0] != '{' && v[0] != '[' && string(v) != "null" {
			fields[k] = string(v)
		}
	}
	return fields, nil
}

func decodeRows[T any](rows []*memoryRow) ([]*T, error) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		doc, err := decode[T](row.data)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
