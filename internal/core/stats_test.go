package core

import (
	"slices"
	"testing"
)

func TestProcessingStats_WarningCap(t *testing.T) {
	s := NewProcessingStats(2)
	s.Warn("a")
	s.Warnf("line %d: b", 3)
	s.Warn("c")
	s.Warn("d")
	s.finish()

	want := []string{"a", "line 3: b", "... and 2 more warnings"}
	if !slices.Equal(s.Warnings, want) {
		t.Errorf("Warnings = %q, want %q", s.Warnings, want)
	}
}

func TestProcessingStats_Unlimited(t *testing.T) {
	s := NewProcessingStats(0)
	for i := 0; i < 500; i++ {
		s.Warn("w")
	}
	s.finish()
	if len(s.Warnings) != 500 {
		t.Errorf("len(Warnings) = %d, want 500", len(s.Warnings))
	}
}

func TestProcessingStats_CountRecord(t *testing.T) {
	s := NewProcessingStats(0)
	s.countRecord(NormalizedRecord{IsVisitor: true, Direction: DirectionOut})
	s.countRecord(NormalizedRecord{Direction: DirectionIn})
	s.countRecord(NormalizedRecord{Direction: DirectionIn})

	if s.Visitors != 1 || s.Employees != 2 {
		t.Errorf("visitors/employees = %d/%d, want 1/2", s.Visitors, s.Employees)
	}
	if s.EntriesCount != 2 || s.ExitsCount != 1 {
		t.Errorf("entries/exits = %d/%d, want 2/1", s.EntriesCount, s.ExitsCount)
	}
}

func TestProcessingStats_Summary(t *testing.T) {
	s := NewProcessingStats(0)
	s.TotalRecords = 10
	s.SuccessfullyProcessed = 10
	if got, want := s.Summary(), "10 of 10 records imported"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	s.SuccessfullyProcessed = 6
	s.ErrorRecords = 2
	s.SkippedRecords = 1
	s.Duplicates = 1
	s.Aborted = true
	want := "6 of 10 records imported (2 errors, 1 skipped, 1 duplicates); stopped after too many errors"
	if got := s.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestBuildSignature(t *testing.T) {
	rec := NormalizedRecord{
		BadgeNumber: "E-1024",
		EventDate:   "2024-03-15",
		EventTime:   "08:30:00",
		Controller:  "UTL-01",
		Reader:      "Entree_Nord",
		EventType:   "Entrée",
		LastName:    "Martin",
		FirstName:   "Claire",
		Group:       "ignored",
	}
	want := "E-1024|2024-03-15|08:30:00|UTL-01|Entree_Nord|Entrée|Martin|Claire"
	if got := BuildSignature(rec); got != want {
		t.Errorf("BuildSignature() = %q, want %q", got, want)
	}

	other := rec
	other.Group = "different"
	if BuildSignature(rec) != BuildSignature(other) {
		t.Error("group must not affect the signature")
	}

	other.EventTime = "08:30:01"
	if BuildSignature(rec) == BuildSignature(other) {
		t.Error("event time must affect the signature")
	}
}
