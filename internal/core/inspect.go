package core

import (
	"errors"
	"io"
	"time"
)

// DefaultInspectRows is how many rows Inspect normalizes when no limit is given.
const DefaultInspectRows = 10

// InspectedRow is the dry-run outcome of one row.
type InspectedRow struct {
	Line          int              `json:"line"`
	Record        NormalizedRecord `json:"record"`
	EventType     EventType        `json:"mappedEventType"`
	Signature     string           `json:"signature"`
	DateRule      string           `json:"dateRule,omitempty"`
	VisitorRule   string           `json:"visitorRule,omitempty"`
	DirectionRule string           `json:"directionRule"`
	Warnings      []string         `json:"warnings,omitempty"`
	Invalid       []string         `json:"validationErrors,omitempty"`
}

// InspectReport describes how a file would be ingested.
type InspectReport struct {
	Delimiter string            `json:"delimiter"`
	Encoding  string            `json:"encoding"`
	Header    []string          `json:"header"`
	Columns   map[string]string `json:"columns"`
	Rows      []InspectedRow    `json:"rows"`
}

// Inspect runs detection, header validation and normalization on the first
// limit data rows of r without persisting anything. It fails exactly when
// an import of the same file would be rejected up front.
func Inspect(r io.Reader, limit int, now func() time.Time) (*InspectReport, error) {
	if limit <= 0 {
		limit = DefaultInspectRows
	}

	src, err := openCSV(r)
	if err != nil {
		return nil, err
	}

	report := &InspectReport{
		Delimiter: delimiterName(src.delimiter),
		Encoding:  src.input.Encoding,
		Header:    src.header,
		Columns:   MatchColumns(src.header),
		Rows:      make([]InspectedRow, 0, limit),
	}
	resolver := Resolver{Dates: DateTimeNormalizer{Now: now}}

	for len(report.Rows) < limit {
		row, err := src.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Rows = append(report.Rows, InspectedRow{Warnings: []string{"malformed CSV: " + err.Error()}})
			continue
		}
		if row.Blank() {
			continue
		}

		rec, warnings := resolver.Resolve(row)
		datePart, _ := splitDateTime(lookup(row, fieldDate))
		visitorRule, _ := matchVisitorRule(row)
		_, directionRule := matchDirectionRule(row)

		ir := InspectedRow{
			Line:          row.Line,
			Record:        rec,
			EventType:     MapEventType(rec.EventType),
			Signature:     BuildSignature(rec),
			DateRule:      MatchDateRule(datePart),
			VisitorRule:   visitorRule,
			DirectionRule: directionRule,
			Warnings:      warnings,
		}
		var verrs ValidationErrors
		if err := ValidateRecord(rec); errors.As(err, &verrs) {
			for _, v := range verrs {
				ir.Invalid = append(ir.Invalid, v.Error())
			}
		}
		report.Rows = append(report.Rows, ir)
	}
	return report, nil
}
