package core

import (
	"strconv"
	"strings"
)

// canonicalField names a value the resolver extracts from a RawRow.
type canonicalField string

const (
	fieldBadge      canonicalField = "badgeNumber"
	fieldDate       canonicalField = "eventDate"
	fieldTime       canonicalField = "eventTime"
	fieldFirstName  canonicalField = "firstName"
	fieldLastName   canonicalField = "lastName"
	fieldFullName   canonicalField = "fullName"
	fieldController canonicalField = "controller"
	fieldReader     canonicalField = "reader"
	fieldEventType  canonicalField = "eventType"
	fieldDepartment canonicalField = "department"
	fieldGroup      canonicalField = "group"
	fieldStatus     canonicalField = "status"
	fieldPersonType canonicalField = "personType"
	fieldDirection  canonicalField = "direction"
)

// canonicalFields is the resolution and reporting order.
var canonicalFields = []canonicalField{
	fieldBadge, fieldDate, fieldTime, fieldFirstName, fieldLastName, fieldFullName,
	fieldController, fieldReader, fieldEventType, fieldDepartment, fieldGroup,
	fieldStatus, fieldPersonType, fieldDirection,
}

// fieldAliases lists accepted header names per field, most specific first.
// The first alias holding a non-empty value wins. Names are folded with
// foldKey, so accents, case, spaces and underscores are ignored.
var fieldAliases = map[canonicalField][]string{
	fieldBadge: foldKeys(
		"badgeNumber", "badge_number", "Numéro de badge", "numéro badge", "badge",
		"badge_id", "numéro", "cardNumber", "card_number", "matricule",
	),
	fieldDate: foldKeys(
		"eventDate", "event_date", "Date évènements", "Date événements", "date",
		"jour", "date_evt", "datetime", "Date et heure",
	),
	fieldTime: foldKeys(
		"eventTime", "event_time", "Heure évènements", "Heure événements", "time",
		"heure", "heure_evt",
	),
	fieldFirstName: foldKeys("firstName", "first_name", "Prénom"),
	fieldLastName:  foldKeys("lastName", "last_name", "Nom", "Nom de famille"),
	fieldFullName:  foldKeys("fullName", "full_name", "name", "Nom complet", "nom_complet"),
	fieldController: foldKeys(
		"controller", "Centrale", "Contrôleur", "terminal",
	),
	fieldReader: foldKeys("reader", "Lecteur", "door", "Porte"),
	fieldEventType: foldKeys(
		"eventType", "event_type", "Nature Evenement", "Nature évènement", "Type évènement",
		"type", "event", "évènement",
	),
	fieldDepartment: foldKeys("department", "Département", "service"),
	fieldGroup:      foldKeys("group", "Groupe", "group_name", "company", "Société", "entreprise"),
	fieldStatus:     foldKeys("status", "Statut"),
	fieldPersonType: foldKeys(
		"personType", "person_type", "Type de personne", "visitorType", "isVisitor", "visitor", "visiteur",
	),
	fieldDirection: foldKeys("direction", "Sens", "in_out"),
}

// fieldAliasSet indexes fieldAliases for membership tests.
var fieldAliasSet = func() map[canonicalField]map[string]bool {
	out := make(map[canonicalField]map[string]bool, len(fieldAliases))
	for f, aliases := range fieldAliases {
		set := make(map[string]bool, len(aliases))
		for _, a := range aliases {
			set[a] = true
		}
		out[f] = set
	}
	return out
}()

// lookup returns the resolved value of a canonical field.
func lookup(row RawRow, f canonicalField) string {
	return row.Get(fieldAliases[f]...)
}

// MatchColumns reports which header column satisfies each canonical field,
// in canonicalFields order. Unmatched fields map to "".
func MatchColumns(header []string) map[string]string {
	byKey := make(map[string]string, len(header))
	for _, h := range header {
		if k := foldKey(h); k != "" {
			if _, dup := byKey[k]; !dup {
				byKey[k] = h
			}
		}
	}
	out := make(map[string]string, len(canonicalFields))
	for _, f := range canonicalFields {
		out[string(f)] = ""
		for _, a := range fieldAliases[f] {
			if col, ok := byKey[a]; ok {
				out[string(f)] = col
				break
			}
		}
	}
	return out
}

// Resolver turns RawRows into NormalizedRecords.
type Resolver struct {
	Dates DateTimeNormalizer
}

// Resolve normalizes one row. It never fails: unusable values degrade to
// documented defaults and a warning is returned for each.
func (r Resolver) Resolve(row RawRow) (NormalizedRecord, []string) {
	var warnings []string
	warn := func(msg string) {
		warnings = append(warnings, "line "+itoaLine(row.Line)+": "+msg)
	}

	badge := lookup(row, fieldBadge)
	if badge == "" {
		badge = InvalidBadge
		warn("missing badge number")
	}

	rawDate := lookup(row, fieldDate)
	rawTime := lookup(row, fieldTime)
	datePart, embeddedTime := splitDateTime(rawDate)
	if embeddedTime != "" {
		rawTime = embeddedTime
	}

	date, ok := r.Dates.NormalizeDate(datePart)
	if !ok {
		if datePart == "" {
			warn("missing event date, using " + date)
		} else {
			warn("unrecognized date " + quote(datePart) + ", using " + date)
		}
	}
	clock, ok := NormalizeTime(rawTime)
	if !ok {
		if rawTime == "" {
			warn("missing event time, using " + clock)
		} else {
			warn("unrecognized time " + quote(rawTime) + ", using " + clock)
		}
	}

	first, last, full := resolveNames(row)

	rec := NormalizedRecord{
		BadgeNumber: badge,
		FirstName:   first,
		LastName:    last,
		FullName:    full,
		EventDate:   date,
		EventTime:   clock,
		Controller:  lookup(row, fieldController),
		Reader:      lookup(row, fieldReader),
		EventType:   lookup(row, fieldEventType),
		Department:  lookup(row, fieldDepartment),
		Group:       lookup(row, fieldGroup),
		Status:      lookup(row, fieldStatus),
		IsVisitor:   ClassifyVisitor(row),
		Direction:   ClassifyDirection(row),
		RawData:     row,
	}
	return rec, warnings
}

// resolveNames prefers the split columns and falls back to splitting a
// full-name column on its first space.
func resolveNames(row RawRow) (first, last, full string) {
	first = lookup(row, fieldFirstName)
	last = lookup(row, fieldLastName)
	full = strings.TrimSpace(first + " " + last)
	if full != "" {
		return first, last, full
	}

	full = strings.Join(strings.Fields(lookup(row, fieldFullName)), " ")
	if full == "" {
		return "", "", ""
	}
	first, last, _ = strings.Cut(full, " ")
	return first, last, full
}

func quote(s string) string { return `"` + s + `"` }

func itoaLine(n int) string {
	if n <= 0 {
		return "?"
	}
	return strconv.Itoa(n)
}
