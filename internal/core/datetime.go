package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	isoDate = "2006-01-02"
	isoTime = "15:04:05"

	// DefaultTime replaces a missing or unreadable time.
	DefaultTime = "00:00:00"
)

// dateRule is one step of the date cascade. build returns the calendar
// parts for a match, or ok=false to let the next rule try.
type dateRule struct {
	name    string
	pattern *regexp.Regexp
	build   func(m []string) (year, month, day int, ok bool)
}

// dateRules run in order; the first rule producing a real calendar date wins.
//
// day_first and ambiguous overlap on purpose: DD/MM/YYYY with a month
// component up to 12 is always read day-first. Only when that fails (the
// second component is above 12, single-digit parts, a year outside
// 2000-2100) does ambiguous apply, and it reads month-first unless the first
// component exceeds 12. 03/04/2024 is therefore 3 April; the file cannot say
// otherwise.
var dateRules = []dateRule{
	{
		name:    "iso",
		pattern: regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`),
		build: func(m []string) (int, int, int, bool) {
			return atoi(m[1]), atoi(m[2]), atoi(m[3]), true
		},
	},
	{
		name:    "day_first",
		pattern: regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`),
		build: func(m []string) (int, int, int, bool) {
			d, mo, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
			if d < 1 || d > 31 || mo < 1 || mo > 12 || y < 2000 || y > 2100 {
				return 0, 0, 0, false
			}
			return y, mo, d, true
		},
	},
	{
		name:    "ambiguous",
		pattern: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`),
		build: func(m []string) (int, int, int, bool) {
			a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
			if a > 12 {
				return y, b, a, true
			}
			return y, a, b, true
		},
	},
	{
		name:    "year_first",
		pattern: regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`),
		build: func(m []string) (int, int, int, bool) {
			return atoi(m[1]), atoi(m[2]), atoi(m[3]), true
		},
	},
	{
		name:    "day_first_dashed",
		pattern: regexp.MustCompile(`^(\d{1,2})[-.](\d{1,2})[-.](\d{4})$`),
		build: func(m []string) (int, int, int, bool) {
			return atoi(m[3]), atoi(m[2]), atoi(m[1]), true
		},
	},
	{
		name:    "short_year",
		pattern: regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2})$`),
		build: func(m []string) (int, int, int, bool) {
			return 2000 + atoi(m[3]), atoi(m[2]), atoi(m[1]), true
		},
	},
}

var timePattern = regexp.MustCompile(`^(\d{1,2})[:hH](\d{2})(?::(\d{2}))?(?:[.,]\d+)?$`)

// DateTimeNormalizer converts date and time tokens to YYYY-MM-DD and
// HH:MM:SS. Now supplies the fallback date; nil means time.Now.
type DateTimeNormalizer struct {
	Now func() time.Time
}

func (n DateTimeNormalizer) today() string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return now().Format(isoDate)
}

// NormalizeDate returns the canonical date and whether a rule matched.
// When none does, the current date is returned with ok=false.
func (n DateTimeNormalizer) NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return n.today(), false
	}
	for _, rule := range dateRules {
		m := rule.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, mo, d, ok := rule.build(m)
		if ok && validDate(y, mo, d) {
			return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
		}
	}
	return n.today(), false
}

// MatchDateRule names the rule that would normalize raw, or "" if none.
func MatchDateRule(raw string) string {
	s := strings.TrimSpace(raw)
	for _, rule := range dateRules {
		m := rule.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if y, mo, d, ok := rule.build(m); ok && validDate(y, mo, d) {
			return rule.name
		}
	}
	return ""
}

// NormalizeTime returns HH:MM:SS, padding missing seconds. Missing or
// unreadable input yields DefaultTime with ok=false.
func NormalizeTime(raw string) (string, bool) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return DefaultTime, false
	}
	h, mi, sec := atoi(m[1]), atoi(m[2]), 0
	if m[3] != "" {
		sec = atoi(m[3])
	}
	if h > 23 || mi > 59 || sec > 59 {
		return DefaultTime, false
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, mi, sec), true
}

// splitDateTime separates "15/03/2024 08:30:00" into its date and time
// parts. ISO "2024-03-15T08:30:00" is split on the T.
func splitDateTime(raw string) (date, clock string) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	if len(s) > 10 && s[10] == 'T' {
		return s[:10], strings.TrimSuffix(s[11:], "Z")
	}
	return s, ""
}

// validDate rejects impossible dates such as 31/02.
func validDate(y, m, d int) bool {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && int(t.Month()) == m && t.Day() == d
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
