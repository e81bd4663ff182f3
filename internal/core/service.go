package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/accessimport/internal/logging"
	"github.com/JonMunkholm/accessimport/internal/metrics"
)

// Activity actions written to the activity log.
const (
	ActionCSVImport       = "csv_import"
	ActionCSVImportFailed = "csv_import_failed"
)

// DefaultImportTimeout bounds one import when ServiceConfig.Timeout is unset.
const DefaultImportTimeout = 10 * time.Minute

// PostImportHook runs once after every successful import. Its result is
// returned to the caller as is.
type PostImportHook interface {
	AfterImport(ctx context.Context) (any, error)
}

// Activity is one entry of the activity log.
type Activity struct {
	Action    string
	Details   string // JSON
	IPAddress string
	UserAgent string
}

// ActivitySink records import activity.
type ActivitySink interface {
	LogActivity(ctx context.Context, a Activity) error
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Pipeline      PipelineConfig
	MaxConcurrent int
	MaxWaitTime   time.Duration
	Timeout       time.Duration
}

// Service runs imports against a store, bounded by an ImportLimiter.
type Service struct {
	store      Store
	hook       PostImportHook
	activity   ActivitySink
	duplicates DuplicateIndex
	limiter    *ImportLimiter
	cfg        ServiceConfig
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithPostImportHook sets the hook run after each import.
func WithPostImportHook(h PostImportHook) Option {
	return func(s *Service) { s.hook = h }
}

// WithActivitySink sets where import activity is recorded.
func WithActivitySink(a ActivitySink) Option {
	return func(s *Service) { s.activity = a }
}

// WithDuplicateIndex sets the index consulted when SkipDuplicates is on.
func WithDuplicateIndex(d DuplicateIndex) Option {
	return func(s *Service) { s.duplicates = d }
}

// NewService builds a Service.
func NewService(store Store, cfg ServiceConfig, opts ...Option) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	s := &Service{
		store:   store,
		cfg:     cfg,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportRequest is one file to ingest. FilePath names the file in logs and
// the activity log; it is never opened. NoWait fails with ErrTooManyImports
// at once instead of queueing when every import slot is taken.
type ImportRequest struct {
	FilePath string
	Content  io.Reader
	NoWait   bool
}

// ImportResult is what a caller gets back from a completed import.
type ImportResult struct {
	ImportID       string           `json:"importId"`
	FileName       string           `json:"fileName"`
	Stats          *ProcessingStats `json:"stats"`
	PostProcessing any              `json:"postProcessing"`
	Duration       time.Duration    `json:"-"`
}

// Import ingests one file. Errors are limited to a rejected request or
// file, a busy server, a failed batch transaction, and cancellation; row
// problems are reported in the stats instead.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.FilePath == "" || req.Content == nil {
		return nil, ErrMissingInput
	}

	if req.NoWait {
		if !s.limiter.TryAcquire() {
			return nil, ErrTooManyImports
		}
	} else if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	importID := uuid.NewString()
	fileName := filepath.Base(req.FilePath)
	log := logging.ForImport(ctx, importID, fileName)
	log.Info("import started")

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	pcfg := s.cfg.Pipeline
	pcfg.Logger = log
	stats, err := NewPipeline(s.store, pcfg, s.duplicates).Run(runCtx, req.Content)
	metrics.ImportDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Imports.WithLabelValues(metrics.ImportFailed).Inc()
		log.Error("import failed", "error", err, "duration", time.Since(start))
		s.logActivity(ctx, log, ActionCSVImportFailed, map[string]any{
			"importId": importID,
			"file":     fileName,
			"error":    err.Error(),
			"stats":    stats,
		})
		return nil, fmt.Errorf("import %s: %w", fileName, err)
	}

	result := &ImportResult{
		ImportID: importID,
		FileName: fileName,
		Stats:    stats,
	}

	// The rows are committed; post-processing runs even if the caller left.
	if s.hook != nil {
		post, err := s.hook.AfterImport(context.WithoutCancel(ctx))
		if err != nil {
			log.Error("post-import processing failed", "error", err)
		}
		result.PostProcessing = post
	}

	if stats.Aborted {
		metrics.Imports.WithLabelValues(metrics.ImportAborted).Inc()
	} else {
		metrics.Imports.WithLabelValues(metrics.ImportSuccess).Inc()
	}

	s.logActivity(ctx, log, ActionCSVImport, map[string]any{
		"importId":       importID,
		"file":           fileName,
		"stats":          stats,
		"postProcessing": result.PostProcessing,
	})

	result.Duration = time.Since(start)
	log.Info("import completed", "summary", stats.Summary(), "duration", result.Duration)
	return result, nil
}

// logActivity writes to the activity sink. Failures are logged only: the
// import itself already succeeded or failed on its own terms.
func (s *Service) logActivity(ctx context.Context, log *slog.Logger, action string, details map[string]any) {
	if s.activity == nil {
		return
	}
	payload, err := json.Marshal(details)
	if err != nil {
		log.Warn("encode activity details", "error", err)
		return
	}
	err = s.activity.LogActivity(context.WithoutCancel(ctx), Activity{
		Action:    action,
		Details:   string(payload),
		IPAddress: IPAddressFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
	})
	if err != nil {
		log.Warn("activity log write failed", "action", action, "error", err)
	}
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
