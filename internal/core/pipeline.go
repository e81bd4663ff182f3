package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/accessimport/internal/metrics"
)

// Defaults for PipelineConfig.
const (
	DefaultBatchSize   = 100
	DefaultMaxErrors   = 1000
	DefaultMaxWarnings = 100
)

// ContextCheckInterval is how often, in rows, the driver checks ctx.
var ContextCheckInterval = 100

// PipelineConfig controls one import.
type PipelineConfig struct {
	BatchSize      int
	ValidateData   bool
	MaxErrors      int
	SkipDuplicates bool
	MaxWarnings    int

	Logger *slog.Logger
	Now    func() time.Time
}

// DefaultPipelineConfig returns the settings used when nothing is configured.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize:    DefaultBatchSize,
		ValidateData: true,
		MaxErrors:    DefaultMaxErrors,
		MaxWarnings:  DefaultMaxWarnings,
	}
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = DefaultMaxErrors
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// DuplicateIndex remembers record signatures across imports.
type DuplicateIndex interface {
	// Seen records signature and reports whether it was already present.
	Seen(ctx context.Context, signature string) (bool, error)
}

type pipelineState int

const (
	stateIdle pipelineState = iota
	stateParsing
	stateBatchFull
	stateInputExhausted
	stateThresholdReached
	stateFlushing
	stateDone
)

func (s pipelineState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateParsing:
		return "parsing"
	case stateBatchFull:
		return "batch_full"
	case stateInputExhausted:
		return "input_exhausted"
	case stateThresholdReached:
		return "error_threshold_reached"
	case stateFlushing:
		return "flushing"
	case stateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pipeline drives one import from raw bytes to persisted batches.
// A Pipeline is single-use and not safe for concurrent use.
type Pipeline struct {
	cfg        PipelineConfig
	resolver   Resolver
	processor  *BatchProcessor
	duplicates DuplicateIndex

	state pipelineState
	stats *ProcessingStats
	batch []NormalizedRecord
}

// NewPipeline builds a pipeline writing to store. duplicates may be nil
// unless cfg.SkipDuplicates is set.
func NewPipeline(store Store, cfg PipelineConfig, duplicates DuplicateIndex) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:        cfg,
		resolver:   Resolver{Dates: DateTimeNormalizer{Now: cfg.Now}},
		processor:  &BatchProcessor{Store: store, Logger: cfg.Logger, Now: cfg.Now},
		duplicates: duplicates,
		state:      stateIdle,
	}
}

// Run ingests r. It returns an error only for a rejected file (ErrEmptyFile,
// *FormatError), a failed batch transaction (wrapping ErrTransaction), or
// cancellation of ctx; stats are returned alongside whenever rows were read.
// Reaching MaxErrors is not an error: Run stops and sets stats.Aborted.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*ProcessingStats, error) {
	if p.state != stateIdle {
		return nil, errors.New("pipeline already used")
	}
	log := p.cfg.Logger

	src, err := openCSV(r)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			log.Warn("file rejected", "reason", fe.Reason, "header", fe.Header)
		}
		p.transition(stateDone)
		return nil, err
	}
	log.Info("file accepted",
		"delimiter", delimiterName(src.delimiter),
		"encoding", src.input.Encoding,
		"columns", len(src.header),
	)

	p.stats = NewProcessingStats(p.cfg.MaxWarnings)
	p.batch = make([]NormalizedRecord, 0, p.cfg.BatchSize)
	p.transition(stateParsing)

	var runErr error
	for p.state != stateDone {
		switch p.state {
		case stateParsing:
			p.transition(p.parse(ctx, src))

		case stateBatchFull, stateInputExhausted, stateThresholdReached:
			resume := p.state == stateBatchFull
			p.transition(stateFlushing)
			if err := p.flush(ctx); err != nil {
				runErr = err
				p.transition(stateDone)
				break
			}
			switch {
			case resume && p.thresholdReached():
				p.stats.Aborted = true
				p.transition(stateDone)
			case resume:
				p.transition(stateParsing)
			default:
				p.transition(stateDone)
			}

		default:
			runErr = fmt.Errorf("unexpected pipeline state %s", p.state)
			p.transition(stateDone)
		}
	}

	if runErr == nil && ctx.Err() != nil && !p.stats.Aborted {
		runErr = ctx.Err()
	}

	p.stats.finish()
	metrics.ImportBytes.Add(float64(src.input.BytesRead()))
	log.Info("file processed",
		"total", p.stats.TotalRecords,
		"success", p.stats.SuccessfullyProcessed,
		"errors", p.stats.ErrorRecords,
		"skipped", p.stats.SkippedRecords,
		"duplicates", p.stats.Duplicates,
		"aborted", p.stats.Aborted,
		"bytes", src.input.BytesRead(),
	)
	return p.stats, runErr
}

// parse reads rows until the batch fills, the input ends, the error
// threshold trips, or ctx is cancelled. It returns the next state.
func (p *Pipeline) parse(ctx context.Context, src *csvSource) pipelineState {
	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return stateInputExhausted
		}

		row, err := src.next()
		if errors.Is(err, io.EOF) {
			return stateInputExhausted
		}

		p.stats.TotalRecords++
		if err != nil {
			p.rowFailed(err)
		} else {
			p.handleRow(ctx, row)
		}

		if p.thresholdReached() {
			p.stats.Aborted = true
			p.cfg.Logger.Warn("error threshold reached, stopping import",
				"errors", p.stats.ErrorRecords,
				"max_errors", p.cfg.MaxErrors,
				"rows_read", p.stats.TotalRecords,
			)
			return stateThresholdReached
		}
		if len(p.batch) >= p.cfg.BatchSize {
			return stateBatchFull
		}
	}
}

// handleRow normalizes one row and queues it for persistence.
func (p *Pipeline) handleRow(ctx context.Context, row RawRow) {
	if row.Blank() {
		p.stats.SkippedRecords++
		p.stats.Warnf("line %d: empty row skipped", row.Line)
		metrics.Rows.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return
	}

	rec, warnings := p.resolver.Resolve(row)
	for _, w := range warnings {
		p.stats.Warn(w)
	}

	if p.cfg.ValidateData {
		if err := ValidateRecord(rec); err != nil {
			p.stats.ErrorRecords++
			p.stats.Warn(ProcessingError{Record: rec, Err: err, Timestamp: p.cfg.Now()}.Warning())
			metrics.Rows.WithLabelValues(metrics.OutcomeFailed).Inc()
			return
		}
	}

	if p.cfg.SkipDuplicates && p.duplicates != nil {
		seen, err := p.duplicates.Seen(ctx, BuildSignature(rec))
		if err != nil {
			p.cfg.Logger.Warn("duplicate index unavailable, keeping row", "line", row.Line, "error", err)
		} else if seen {
			p.stats.Duplicates++
			metrics.Rows.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return
		}
	}

	p.stats.countRecord(rec)
	p.batch = append(p.batch, rec)
}

// rowFailed counts a line the CSV reader could not parse.
func (p *Pipeline) rowFailed(err error) {
	p.stats.ErrorRecords++
	metrics.Rows.WithLabelValues(metrics.OutcomeFailed).Inc()

	var pe *csv.ParseError
	if errors.As(err, &pe) {
		p.stats.Warnf("line %d: malformed CSV: %v", pe.Line, pe.Err)
		return
	}
	p.stats.Warnf("malformed CSV: %v", err)
}

// flush persists the pending batch.
func (p *Pipeline) flush(ctx context.Context) error {
	if len(p.batch) == 0 {
		return nil
	}
	res, err := p.processor.Process(ctx, p.batch)
	p.batch = p.batch[:0]
	if err != nil {
		return err
	}
	p.stats.addBatch(res)
	return nil
}

func (p *Pipeline) thresholdReached() bool {
	return p.stats.ErrorRecords >= p.cfg.MaxErrors
}

func (p *Pipeline) transition(next pipelineState) {
	if p.state != next {
		p.cfg.Logger.Debug("pipeline state", "from", p.state.String(), "to", next.String())
	}
	p.state = next
}
