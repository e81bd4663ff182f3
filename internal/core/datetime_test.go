package core

import (
	"fmt"
	"regexp"
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	n := DateTimeNormalizer{Now: fixedNow}

	tests := []struct {
		name     string
		input    string
		want     string
		wantOK   bool
		wantRule string
	}{
		{"iso", "2024-03-15", "2024-03-15", true, "iso"},
		{"day first", "15/03/2024", "2024-03-15", true, "day_first"},
		{"ambiguous reads day first", "03/04/2024", "2024-04-03", true, "day_first"},
		{"single digit month first", "3/4/2024", "2024-03-04", true, "ambiguous"},
		{"single digit day above twelve", "25/3/2024", "2024-03-25", true, "ambiguous"},
		{"second component above twelve", "04/25/2024", "2024-04-25", true, "ambiguous"},
		{"year first slashes", "2024/3/15", "2024-03-15", true, "year_first"},
		{"dashed day first", "15-03-2024", "2024-03-15", true, "day_first_dashed"},
		{"dotted day first", "15.03.2024", "2024-03-15", true, "day_first_dashed"},
		{"short year", "15/03/24", "2024-03-15", true, "short_year"},
		{"surrounding spaces", "  15/03/2024 ", "2024-03-15", true, "day_first"},
		{"impossible day", "31/02/2024", "2024-06-01", false, ""},
		{"impossible iso", "2024-99-99", "2024-06-01", false, ""},
		{"text", "hier", "2024-06-01", false, ""},
		{"empty", "", "2024-06-01", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.NormalizeDate(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
			if rule := MatchDateRule(tt.input); rule != tt.wantRule {
				t.Errorf("MatchDateRule(%q) = %q, want %q", tt.input, rule, tt.wantRule)
			}
		})
	}
}

// Every real calendar date written DD/MM/YYYY maps to its ISO form and
// back again.
func TestNormalizeDate_DayFirstRoundTrip(t *testing.T) {
	n := DateTimeNormalizer{Now: fixedNow}

	for _, year := range []int{2000, 2023, 2024, 2100} {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= 31; day++ {
				if !validDate(year, month, day) {
					continue
				}
				input := fmt.Sprintf("%02d/%02d/%04d", day, month, year)

				got, ok := n.NormalizeDate(input)
				if !ok {
					t.Fatalf("NormalizeDate(%q) not recognized", input)
				}
				parsed, err := time.Parse(isoDate, got)
				if err != nil {
					t.Fatalf("NormalizeDate(%q) = %q, not ISO: %v", input, got, err)
				}
				if back := parsed.Format("02/01/2006"); back != input {
					t.Fatalf("round trip %q -> %q -> %q", input, got, back)
				}
			}
		}
	}
}

func TestNormalizeDate_MalformedAlwaysISO(t *testing.T) {
	n := DateTimeNormalizer{Now: fixedNow}
	iso := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	inputs := []string{
		"", " ", "////", "00/00/0000", "99/99/9999", "2024-13-01", "2024-02-30",
		"32/01/2024", "1/1/1", "abc", "15/03/2024/01", "２０２４-０１-０１",
		"15/03", "-1/-1/-1", "2024-03-15T", "\x00\xff", "31.04.2024",
	}
	for _, in := range inputs {
		got, _ := n.NormalizeDate(in)
		if !iso.MatchString(got) {
			t.Errorf("NormalizeDate(%q) = %q, want YYYY-MM-DD", in, got)
		}
	}
}

func TestNormalizeDate_DefaultsToWallClock(t *testing.T) {
	got, ok := DateTimeNormalizer{}.NormalizeDate("not a date")
	if ok {
		t.Fatal("expected ok=false")
	}
	if _, err := time.Parse(isoDate, got); err != nil {
		t.Errorf("fallback %q is not ISO: %v", got, err)
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"08:30:00", "08:30:00", true},
		{"8:30", "08:30:00", true},
		{"08h30", "08:30:00", true},
		{"23:59:59", "23:59:59", true},
		{"08:30:00.123", "08:30:00", true},
		{" 17:05 ", "17:05:00", true},
		{"24:00", DefaultTime, false},
		{"12:60", DefaultTime, false},
		{"noon", DefaultTime, false},
		{"", DefaultTime, false},
	}

	for _, tt := range tests {
		got, ok := NormalizeTime(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeTime(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSplitDateTime(t *testing.T) {
	tests := []struct {
		input, date, clock string
	}{
		{"15/03/2024 08:30:00", "15/03/2024", "08:30:00"},
		{"2024-03-15T08:30:00Z", "2024-03-15", "08:30:00"},
		{"2024-03-15", "2024-03-15", ""},
		{"15/03/2024\t08:30", "15/03/2024", "08:30"},
	}
	for _, tt := range tests {
		d, c := splitDateTime(tt.input)
		if d != tt.date || c != tt.clock {
			t.Errorf("splitDateTime(%q) = (%q, %q), want (%q, %q)", tt.input, d, c, tt.date, tt.clock)
		}
	}
}
