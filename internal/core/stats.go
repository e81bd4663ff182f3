package core

import (
	"fmt"
	"strings"
)

// ProcessingStats is the result of one import.
type ProcessingStats struct {
	TotalRecords          int      `json:"totalRecords"`
	SuccessfullyProcessed int      `json:"successfullyProcessed"`
	ErrorRecords          int      `json:"errorRecords"`
	SkippedRecords        int      `json:"skippedRecords"`
	Duplicates            int      `json:"duplicates"`
	Employees             int      `json:"employees"`
	Visitors              int      `json:"visitors"`
	EntriesCount          int      `json:"entriesCount"`
	ExitsCount            int      `json:"exitsCount"`
	Warnings              []string `json:"warnings"`

	// Aborted is set when the error threshold stopped the import early.
	Aborted bool `json:"aborted,omitempty"`

	maxWarnings     int
	droppedWarnings int
}

// NewProcessingStats starts an empty stats object. maxWarnings <= 0 keeps
// every warning.
func NewProcessingStats(maxWarnings int) *ProcessingStats {
	return &ProcessingStats{Warnings: []string{}, maxWarnings: maxWarnings}
}

// Warn appends a warning, counting it instead once the cap is reached.
func (s *ProcessingStats) Warn(msg string) {
	if s.maxWarnings > 0 && len(s.Warnings) >= s.maxWarnings {
		s.droppedWarnings++
		return
	}
	s.Warnings = append(s.Warnings, msg)
}

// Warnf formats and appends a warning.
func (s *ProcessingStats) Warnf(format string, args ...any) {
	s.Warn(fmt.Sprintf(format, args...))
}

// countRecord updates the person and direction counters for an accepted record.
func (s *ProcessingStats) countRecord(rec NormalizedRecord) {
	if rec.IsVisitor {
		s.Visitors++
	} else {
		s.Employees++
	}
	if rec.Direction == DirectionOut {
		s.ExitsCount++
	} else {
		s.EntriesCount++
	}
}

// addBatch folds one batch outcome into the totals.
func (s *ProcessingStats) addBatch(res BatchResult) {
	s.SuccessfullyProcessed += res.Success
	s.ErrorRecords += len(res.Errors)
	for _, e := range res.Errors {
		s.Warn(e.Warning())
	}
}

// finish appends the overflow summary line.
func (s *ProcessingStats) finish() {
	if s.droppedWarnings > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("... and %d more warnings", s.droppedWarnings))
		s.droppedWarnings = 0
	}
}

// Summary is a one-line human description used in responses and logs.
func (s *ProcessingStats) Summary() string {
	msg := fmt.Sprintf("%d of %d records imported", s.SuccessfullyProcessed, s.TotalRecords)
	var extra []string
	if s.ErrorRecords > 0 {
		extra = append(extra, fmt.Sprintf("%d errors", s.ErrorRecords))
	}
	if s.SkippedRecords > 0 {
		extra = append(extra, fmt.Sprintf("%d skipped", s.SkippedRecords))
	}
	if s.Duplicates > 0 {
		extra = append(extra, fmt.Sprintf("%d duplicates", s.Duplicates))
	}
	if len(extra) > 0 {
		msg += " (" + strings.Join(extra, ", ") + ")"
	}
	if s.Aborted {
		msg += "; stopped after too many errors"
	}
	return msg
}

// BuildSignature fingerprints a record for duplicate detection across
// imports: badge|date|time|terminal|reader|eventType|lastName|firstName.
func BuildSignature(rec NormalizedRecord) string {
	return strings.Join([]string{
		rec.BadgeNumber,
		rec.EventDate,
		rec.EventTime,
		rec.Controller,
		rec.Reader,
		rec.EventType,
		rec.LastName,
		rec.FirstName,
	}, "|")
}
