package core

import (
	"errors"
	"strings"
	"testing"
)

func validRecord() NormalizedRecord {
	return NormalizedRecord{
		BadgeNumber: "E-1024",
		EventDate:   "2024-03-15",
		EventTime:   "08:30:00",
		Direction:   DirectionIn,
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NormalizedRecord)
		wantField string
	}{
		{"valid", func(*NormalizedRecord) {}, ""},
		{"invalid badge", func(r *NormalizedRecord) { r.BadgeNumber = InvalidBadge }, "badgeNumber"},
		{"empty badge", func(r *NormalizedRecord) { r.BadgeNumber = "" }, "badgeNumber"},
		{"badge too long", func(r *NormalizedRecord) { r.BadgeNumber = strings.Repeat("9", 51) }, "badgeNumber"},
		{"non iso date", func(r *NormalizedRecord) { r.EventDate = "15/03/2024" }, "eventDate"},
		{"bad time", func(r *NormalizedRecord) { r.EventTime = "8:30" }, "eventTime"},
		{"bad direction", func(r *NormalizedRecord) { r.Direction = "sideways" }, "direction"},
		{"reader too long", func(r *NormalizedRecord) { r.Reader = strings.Repeat("r", 101) }, "reader"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			err := ValidateRecord(rec)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateRecord() error = %v, want nil", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Fatalf("want ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.wantField)
			}
			if !strings.Contains(err.Error(), "validation failed: "+tt.wantField) {
				t.Errorf("error = %q, want it to name %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateRecord_Messages(t *testing.T) {
	rec := validRecord()
	rec.BadgeNumber = InvalidBadge

	err := ValidateRecord(rec)
	if err == nil {
		t.Fatal("ValidateRecord() error = nil")
	}
	if want := `validation failed: badgeNumber: must not be "INVALID"`; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
