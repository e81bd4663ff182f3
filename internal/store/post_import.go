package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// PostImportResult reports what the post-import pass changed.
type PostImportResult struct {
	TypeUpdates      int64  `json:"typeUpdates"`
	DirectionUpdates int64  `json:"directionUpdates"`
	Processed        int64  `json:"processed"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
}

// PostImport is the core.PostImportHook run after each import: it
// reclassifies visitors, fills missing directions and marks the new access
// logs processed, all in one transaction.
type PostImport struct {
	db TxBeginner
}

// NewPostImport builds the hook.
func NewPostImport(db TxBeginner) *PostImport {
	return &PostImport{db: db}
}

var _ core.PostImportHook = (*PostImport)(nil)

// AfterImport runs the pass. On failure nothing is changed and the returned
// result carries Success=false and the error text.
func (p *PostImport) AfterImport(ctx context.Context) (any, error) {
	res, err := p.run(ctx)
	if err != nil {
		return PostImportResult{Success: false, Error: err.Error()}, err
	}
	return res, nil
}

func (p *PostImport) run(ctx context.Context) (PostImportResult, error) {
	var res PostImportResult

	pgTx, err := p.db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin post-import: %w", err)
	}
	defer pgTx.Rollback(ctx)

	steps := []struct {
		name string
		sql  string
		dst  *int64
	}{
		{"reclassify visitors", reclassifyVisitors, &res.TypeUpdates},
		{"fill directions", fillDirections, &res.DirectionUpdates},
		{"mark processed", markProcessed, &res.Processed},
	}
	for _, step := range steps {
		n, err := execCount(ctx, pgTx, step.sql)
		if err != nil {
			return PostImportResult{}, fmt.Errorf("%s: %w", step.name, err)
		}
		*step.dst = n
	}

	if err := pgTx.Commit(ctx); err != nil {
		return PostImportResult{}, fmt.Errorf("commit post-import: %w", err)
	}

	res.Success = true
	slog.Default().Debug("post-import pass",
		"type_updates", res.TypeUpdates,
		"direction_updates", res.DirectionUpdates,
		"processed", res.Processed,
	)
	return res, nil
}

func execCount(ctx context.Context, tx pgx.Tx, sql string) (int64, error) {
	tag, err := tx.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
