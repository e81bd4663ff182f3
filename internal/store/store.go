// Package store persists access events in PostgreSQL through pgx.
//
// It implements core.Store and core.Tx, the post-import hook and the
// activity log sink. Tables written (schema ownership lives elsewhere):
//
//	access_logs   (badge_number, person_type, event_date, event_time, reader,
//	               terminal, event_type, direction, full_name, group_name,
//	               processed, raw_event_type, created_at)
//	employees     (badge_number UNIQUE, first_name, last_name, department,
//	               status, last_seen, created_at, updated_at)
//	visitors      (badge_number UNIQUE, first_name, last_name, company, status,
//	               access_count, first_seen, last_seen, created_at, updated_at)
//	activity_logs (action, details, ip_address, user_agent, created_at)
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// TxBeginner is the part of *pgxpool.Pool the store needs.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL implementation of core.Store.
type Store struct {
	db  TxBeginner
	now func() time.Time
}

// New wraps a pool (or any TxBeginner).
func New(db TxBeginner) *Store {
	return &Store{db: db, now: time.Now}
}

var _ core.Store = (*Store)(nil)

// RunInTransaction runs fn in a transaction, committing when fn returns nil.
// Begin and commit failures wrap core.ErrTransaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	pgTx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", core.ErrTransaction, err)
	}
	defer pgTx.Rollback(ctx) // no-op after commit

	if err := fn(ctx, &tx{tx: pgTx, now: s.now}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", core.ErrTransaction, err)
	}
	return nil
}

// tx implements core.Tx over one pgx transaction.
type tx struct {
	tx  pgx.Tx
	now func() time.Time
	seq int
}

var _ core.Tx = (*tx)(nil)

// maxRecordAttempts bounds how often a record is replayed after a deadlock
// or serialization failure before the batch is abandoned.
const maxRecordAttempts = 3

// Isolate wraps fn in a savepoint. On failure the savepoint is rolled back
// so later statements in the transaction still run. A deadlock or
// serialization failure replays fn; one that persists fails the batch.
func (t *tx) Isolate(ctx context.Context, fn func() error) error {
	t.seq++
	sp := fmt.Sprintf("sp_%d", t.seq)

	if _, err := t.tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("%w: create savepoint: %w", core.ErrTransaction, err)
	}

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			break
		}
		if _, rbErr := t.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			return fmt.Errorf("%w: rollback savepoint after %v: %w", core.ErrTransaction, err, rbErr)
		}
		switch {
		case isConnectionError(err):
			return fmt.Errorf("%w: %w", core.ErrTransaction, err)
		case isConflictError(err) && attempt < maxRecordAttempts:
			continue
		case isConflictError(err):
			return fmt.Errorf("%w: unresolved after %d attempts: %w", core.ErrTransaction, attempt, err)
		}
		return err
	}

	if _, err := t.tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("%w: release savepoint: %w", core.ErrTransaction, err)
	}
	return nil
}

func (t *tx) CreateAccessLog(ctx context.Context, e core.AccessLogEntry) error {
	_, err := t.tx.Exec(ctx, insertAccessLog,
		e.BadgeNumber,
		string(e.PersonType),
		toPgDate(e.EventDate),
		toPgTime(e.EventTime),
		toPgText(e.Reader),
		toPgText(e.Terminal),
		string(e.EventType),
		string(e.Direction),
		toPgText(e.FullName),
		toPgText(e.GroupName),
		e.Processed,
		toPgText(e.RawEventType),
		toPgTimestamptz(e.CreatedAt),
	)
	return err
}

func (t *tx) UpsertEmployee(ctx context.Context, rec core.NormalizedRecord) error {
	department := rec.Department
	if department == "" {
		department = rec.Group
	}
	_, err := t.tx.Exec(ctx, upsertEmployee,
		rec.BadgeNumber,
		toPgText(rec.FirstName),
		toPgText(rec.LastName),
		toPgText(department),
		toPgTimestamptz(eventTimestamp(rec)),
		toPgTimestamptz(t.now()),
	)
	return err
}

func (t *tx) UpsertVisitor(ctx context.Context, rec core.NormalizedRecord) error {
	company := rec.Group
	if company == "" {
		company = rec.Department
	}
	_, err := t.tx.Exec(ctx, upsertVisitor,
		rec.BadgeNumber,
		toPgText(rec.FirstName),
		toPgText(rec.LastName),
		toPgText(company),
		toPgTimestamptz(eventTimestamp(rec)),
		toPgTimestamptz(t.now()),
	)
	return err
}

// isConnectionError reports errors after which the transaction cannot
// continue even though the savepoint rollback was accepted.
func isConnectionError(err error) bool {
	return errors.Is(err, pgx.ErrTxClosed) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// isConflictError reports a deadlock (40P01) or serialization failure (40001).
func isConflictError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40P01" || pgErr.Code == "40001"
}
