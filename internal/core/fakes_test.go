package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeStore stages writes per transaction and applies them on commit.
// Isolate undoes the writes of a failed fn, as a savepoint would.
type fakeStore struct {
	mu sync.Mutex

	// failRecord, when set, fails CreateAccessLog for matching entries.
	failRecord func(AccessLogEntry) error
	// failIsolate, when set, is returned from Isolate as an infrastructure
	// failure on the n-th call (1-based) of the whole store.
	failIsolateAt int
	isolateCalls  int

	logs      []AccessLogEntry
	employees map[string]int
	visitors  map[string]int
	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{employees: map[string]int{}, visitors: map[string]int{}}
}

func (s *fakeStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &fakeTx{store: s}
	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, tx.logs...)
	for _, b := range tx.employees {
		s.employees[b]++
	}
	for _, b := range tx.visitors {
		s.visitors[b]++
	}
	s.commits++
	return nil
}

func (s *fakeStore) badges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.logs))
	for i, l := range s.logs {
		out[i] = l.BadgeNumber
	}
	return out
}

type fakeTx struct {
	store     *fakeStore
	logs      []AccessLogEntry
	employees []string
	visitors  []string
}

func (t *fakeTx) Isolate(_ context.Context, fn func() error) error {
	t.store.mu.Lock()
	t.store.isolateCalls++
	fail := t.store.failIsolateAt > 0 && t.store.isolateCalls == t.store.failIsolateAt
	t.store.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: connection lost", ErrTransaction)
	}

	nl, ne, nv := len(t.logs), len(t.employees), len(t.visitors)
	if err := fn(); err != nil {
		t.logs, t.employees, t.visitors = t.logs[:nl], t.employees[:ne], t.visitors[:nv]
		return err
	}
	return nil
}

func (t *fakeTx) CreateAccessLog(_ context.Context, e AccessLogEntry) error {
	if t.store.failRecord != nil {
		if err := t.store.failRecord(e); err != nil {
			return err
		}
	}
	t.logs = append(t.logs, e)
	return nil
}

func (t *fakeTx) UpsertEmployee(_ context.Context, rec NormalizedRecord) error {
	t.employees = append(t.employees, rec.BadgeNumber)
	return nil
}

func (t *fakeTx) UpsertVisitor(_ context.Context, rec NormalizedRecord) error {
	t.visitors = append(t.visitors, rec.BadgeNumber)
	return nil
}

var errUniqueViolation = errors.New("duplicate key value violates unique constraint \"access_logs_pkey\"")

// fixedNow is the clock used by tests that need a deterministic fallback date.
func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

// memIndex is a minimal DuplicateIndex.
type memIndex struct {
	seen map[string]bool
	err  error
}

func (m *memIndex) Seen(_ context.Context, sig string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[sig] {
		return true, nil
	}
	m.seen[sig] = true
	return false, nil
}
