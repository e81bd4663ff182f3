package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/accessimport/internal/metrics"
)

// ErrTransaction marks a failure of the transaction itself (begin, savepoint,
// commit, lost connection). It aborts the batch and the import.
var ErrTransaction = errors.New("transaction failure")

// RecordWriter is the per-record persistence surface.
type RecordWriter interface {
	CreateAccessLog(ctx context.Context, entry AccessLogEntry) error
	UpsertEmployee(ctx context.Context, rec NormalizedRecord) error
	UpsertVisitor(ctx context.Context, rec NormalizedRecord) error
}

// Tx is a batch transaction.
type Tx interface {
	RecordWriter

	// Isolate runs fn so that a failure undoes only fn's writes and leaves
	// the transaction usable. fn's error is returned as is; bookkeeping
	// failures are returned wrapping ErrTransaction.
	Isolate(ctx context.Context, fn func() error) error
}

// Store opens batch transactions. RunInTransaction commits when fn returns
// nil and rolls back otherwise; begin and commit failures wrap ErrTransaction.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// BatchResult is the outcome of one committed batch.
type BatchResult struct {
	Success int
	Errors  []ProcessingError
}

// BatchProcessor persists batches of normalized records.
type BatchProcessor struct {
	Store  Store
	Logger *slog.Logger
	Now    func() time.Time
}

// Process writes every record of batch in one transaction. A record that
// fails is reported in BatchResult.Errors and its siblings still commit.
// A transaction failure rolls the whole batch back and is returned.
//
// The batch is not interrupted by ctx cancellation once started: it always
// ends in a commit or a rollback.
func (p *BatchProcessor) Process(ctx context.Context, batch []NormalizedRecord) (BatchResult, error) {
	if len(batch) == 0 {
		return BatchResult{}, nil
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	start := time.Now()
	var res BatchResult

	err := p.Store.RunInTransaction(context.WithoutCancel(ctx), func(ctx context.Context, tx Tx) error {
		res = BatchResult{}
		for _, rec := range batch {
			err := tx.Isolate(ctx, func() error { return persistRecord(ctx, tx, rec, now()) })
			switch {
			case err == nil:
				res.Success++
			case errors.Is(err, ErrTransaction):
				return err
			default:
				res.Errors = append(res.Errors, ProcessingError{Record: rec, Err: err, Timestamp: now()})
				logger.Debug("record failed",
					"line", rec.RawData.Line,
					"badge", rec.BadgeNumber,
					"error", err,
				)
			}
		}
		return nil
	})

	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Batches.WithLabelValues(metrics.BatchRolledBack).Inc()
		logger.Error("batch rolled back", "records", len(batch), "error", err)
		return BatchResult{}, fmt.Errorf("persist batch of %d records: %w", len(batch), err)
	}

	metrics.Batches.WithLabelValues(metrics.BatchCommitted).Inc()
	metrics.Rows.WithLabelValues(metrics.OutcomePersisted).Add(float64(res.Success))
	metrics.Rows.WithLabelValues(metrics.OutcomeFailed).Add(float64(len(res.Errors)))
	logger.Debug("batch committed", "records", len(batch), "success", res.Success, "errors", len(res.Errors))
	return res, nil
}

// persistRecord writes the access log entry and the matching person profile.
func persistRecord(ctx context.Context, tx RecordWriter, rec NormalizedRecord, now time.Time) error {
	entry, err := NewAccessLogEntry(rec, now)
	if err != nil {
		return fmt.Errorf("build access log entry: %w", err)
	}
	if err := tx.CreateAccessLog(ctx, entry); err != nil {
		return fmt.Errorf("create access log: %w", err)
	}
	if rec.IsVisitor {
		if err := tx.UpsertVisitor(ctx, rec); err != nil {
			return fmt.Errorf("upsert visitor: %w", err)
		}
		return nil
	}
	if err := tx.UpsertEmployee(ctx, rec); err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}
