package store

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// toPgText maps blank strings to NULL.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgDate keeps only the calendar day of t.
func toPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// toPgTime stores an offset from midnight as a time-of-day.
func toPgTime(d time.Duration) pgtype.Time {
	if d < 0 || d >= 24*time.Hour {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}

func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// eventTimestamp combines the normalized date and time of a record. The
// export carries no zone, so the server's local zone is assumed.
func eventTimestamp(rec core.NormalizedRecord) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", rec.EventDate+" "+rec.EventTime, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
