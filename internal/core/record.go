package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// InvalidBadge replaces a badge number that could not be recovered from the row.
const InvalidBadge = "INVALID"

// PersonType classifies the badge holder.
type PersonType string

const (
	PersonEmployee   PersonType = "employee"
	PersonVisitor    PersonType = "visitor"
	PersonContractor PersonType = "contractor"
)

// Direction is whether an event is an entry or an exit.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Field is one column of a RawRow.
type Field struct {
	Name  string
	Value string
}

// RawRow is one CSV line keyed by the header it was read under. Fields keep
// file order; lookups go through the folded header key so "Numéro de badge",
// "numero_de_badge" and "NUMERO DE BADGE" resolve to the same column.
type RawRow struct {
	Line   int
	Fields []Field

	index map[string]int
}

// NewRawRow pairs header names with record values. Missing trailing values
// read as empty; values beyond the header are dropped.
func NewRawRow(line int, header, record []string) RawRow {
	row := RawRow{
		Line:   line,
		Fields: make([]Field, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		var value string
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row.Fields[i] = Field{Name: name, Value: value}
		key := foldKey(name)
		if _, dup := row.index[key]; !dup && key != "" {
			row.index[key] = i
		}
	}
	return row
}

// Get returns the value of the first alias present with a non-empty value.
// Aliases must already be folded with foldKey.
func (r RawRow) Get(aliases ...string) string {
	for _, a := range aliases {
		if i, ok := r.index[a]; ok && r.Fields[i].Value != "" {
			return r.Fields[i].Value
		}
	}
	return ""
}

// Blank reports whether every value in the row is empty.
func (r RawRow) Blank() bool {
	for _, f := range r.Fields {
		if f.Value != "" {
			return false
		}
	}
	return true
}

// MarshalJSON renders the row as an object in column order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// NormalizedRecord is the canonical shape of one access event.
// EventDate is always YYYY-MM-DD and EventTime always HH:MM:SS.
type NormalizedRecord struct {
	BadgeNumber string    `json:"badgeNumber" validate:"required,ne=INVALID,max=50"`
	FirstName   string    `json:"firstName" validate:"max=100"`
	LastName    string    `json:"lastName" validate:"max=100"`
	FullName    string    `json:"fullName" validate:"max=200"`
	EventDate   string    `json:"eventDate" validate:"required,datetime=2006-01-02"`
	EventTime   string    `json:"eventTime" validate:"required,datetime=15:04:05"`
	Controller  string    `json:"controller" validate:"max=100"`
	Reader      string    `json:"reader" validate:"max=100"`
	EventType   string    `json:"eventType" validate:"max=100"`
	Department  string    `json:"department" validate:"max=100"`
	Group       string    `json:"group" validate:"max=100"`
	IsVisitor   bool      `json:"isVisitor"`
	Direction   Direction `json:"direction" validate:"oneof=in out"`
	Status      string    `json:"status" validate:"max=50"`
	RawData     RawRow    `json:"rawData"`
}

// PersonType derives the stored person type from the visitor flag.
func (r NormalizedRecord) PersonType() PersonType {
	if r.IsVisitor {
		return PersonVisitor
	}
	return PersonEmployee
}

// AccessLogEntry is the persisted form of one NormalizedRecord.
type AccessLogEntry struct {
	BadgeNumber  string
	PersonType   PersonType
	EventDate    time.Time     // midnight UTC
	EventTime    time.Duration // offset from midnight
	Reader       string
	Terminal     string
	EventType    EventType
	Direction    Direction
	FullName     string
	GroupName    string
	Processed    bool
	RawEventType string
	CreatedAt    time.Time
}

// NewAccessLogEntry converts a normalized record. The record invariants
// guarantee the date and time parse; a malformed record is rejected.
func NewAccessLogEntry(rec NormalizedRecord, now time.Time) (AccessLogEntry, error) {
	day, err := time.Parse(isoDate, rec.EventDate)
	if err != nil {
		return AccessLogEntry{}, err
	}
	clock, err := time.Parse(isoTime, rec.EventTime)
	if err != nil {
		return AccessLogEntry{}, err
	}

	group := rec.Group
	if group == "" {
		group = rec.Department
	}

	return AccessLogEntry{
		BadgeNumber:  rec.BadgeNumber,
		PersonType:   rec.PersonType(),
		EventDate:    day,
		EventTime:    clock.Sub(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)),
		Reader:       rec.Reader,
		Terminal:     rec.Controller,
		EventType:    MapEventType(rec.EventType),
		Direction:    rec.Direction,
		FullName:     rec.FullName,
		GroupName:    group,
		Processed:    false,
		RawEventType: rec.EventType,
		CreatedAt:    now,
	}, nil
}

// ProcessingError is one record that failed inside a batch.
type ProcessingError struct {
	Record    NormalizedRecord
	Err       error
	Timestamp time.Time
}

func (e ProcessingError) Error() string {
	return "line " + strconv.Itoa(e.Record.RawData.Line) + " (badge " + e.Record.BadgeNumber + "): " + e.Err.Error()
}

func (e ProcessingError) Unwrap() error { return e.Err }

// Warning is the operator-facing form of the error.
func (e ProcessingError) Warning() string {
	return "line " + itoaLine(e.Record.RawData.Line) + " (badge " + e.Record.BadgeNumber + "): " + recordFailure(e.Err)
}
