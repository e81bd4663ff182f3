package store

import (
	"context"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// Execer is the part of *pgxpool.Pool the activity log needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ActivityLog writes core.Activity entries to activity_logs.
type ActivityLog struct {
	db  Execer
	now func() time.Time
}

// NewActivityLog builds the sink.
func NewActivityLog(db Execer) *ActivityLog {
	return &ActivityLog{db: db, now: time.Now}
}

var _ core.ActivitySink = (*ActivityLog)(nil)

// LogActivity inserts one entry. An unparseable IP is stored as NULL.
func (a *ActivityLog) LogActivity(ctx context.Context, act core.Activity) error {
	_, err := a.db.Exec(ctx, insertActivity,
		act.Action,
		act.Details,
		parseIP(act.IPAddress),
		toPgText(act.UserAgent),
		toPgTimestamptz(a.now()),
	)
	return err
}

// parseIP returns a netip.Addr for inet columns, or nil.
func parseIP(s string) any {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil
	}
	return addr.Unmap()
}
