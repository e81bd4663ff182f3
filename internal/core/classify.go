package core

import (
	"strings"
	"unicode"
)

// visitorRule is one step of the visitor cascade.
type visitorRule struct {
	name  string
	match func(RawRow) bool
}

// directionRule is one step of the direction cascade. ok=false passes to
// the next rule.
type directionRule struct {
	name    string
	resolve func(RawRow) (Direction, bool)
}

var (
	visitorTypeWords   = []string{"visitor", "visiteur"}
	visitorStatusWords = []string{"visiteur", "visitor", "extern", "temp"}
	visitorGroupWords  = []string{"visit", "extern", "prestataire"}
	visitorBadgePrefix = []string{"V-", "VIS-", "VISIT-"}

	entryWords = []string{"entree", "entry", "entrance", "arrivee", "arrival"}
	exitWords  = []string{"sortie", "exit", "depart", "departure"}
)

// visitorRules decide isVisitor; the first match wins, otherwise employee.
var visitorRules = []visitorRule{
	{
		name: "explicit_type",
		match: func(row RawRow) bool {
			v := foldText(lookup(row, fieldPersonType))
			return containsAny(v, visitorTypeWords) || v == "true" || v == "oui" || v == "yes"
		},
	},
	{
		name: "status",
		match: func(row RawRow) bool {
			return containsAny(foldText(lookup(row, fieldStatus)), visitorStatusWords)
		},
	},
	{
		name: "badge_prefix",
		match: func(row RawRow) bool {
			badge := strings.ToUpper(strings.TrimSpace(lookup(row, fieldBadge)))
			for _, p := range visitorBadgePrefix {
				if strings.HasPrefix(badge, p) {
					return true
				}
			}
			return false
		},
	},
	{
		name: "group",
		match: func(row RawRow) bool {
			return containsAny(foldText(lookup(row, fieldGroup)), visitorGroupWords) ||
				containsAny(foldText(lookup(row, fieldDepartment)), visitorGroupWords)
		},
	},
}

// directionRules decide the event direction; the default is in.
var directionRules = []directionRule{
	{
		name: "explicit",
		resolve: func(row RawRow) (Direction, bool) {
			v := foldText(lookup(row, fieldDirection))
			for _, tok := range strings.FieldsFunc(v, func(r rune) bool { return !unicode.IsLetter(r) }) {
				switch tok {
				case "in", "entree":
					return DirectionIn, true
				case "out", "sortie":
					return DirectionOut, true
				}
			}
			return directionFromWords(v)
		},
	},
	{
		name: "event_type",
		resolve: func(row RawRow) (Direction, bool) {
			return directionFromWords(foldText(lookup(row, fieldEventType)))
		},
	},
	{
		name: "reader",
		resolve: func(row RawRow) (Direction, bool) {
			v := foldText(lookup(row, fieldReader))
			if d, ok := directionFromWords(v); ok {
				return d, true
			}
			switch {
			case v == "":
				return "", false
			case strings.HasSuffix(v, "_out"), strings.HasSuffix(v, "out"):
				return DirectionOut, true
			case strings.HasSuffix(v, "_in"), strings.HasSuffix(v, "in"):
				return DirectionIn, true
			}
			return "", false
		},
	},
}

// ClassifyVisitor reports whether the row describes a visitor.
func ClassifyVisitor(row RawRow) bool {
	_, ok := matchVisitorRule(row)
	return ok
}

func matchVisitorRule(row RawRow) (string, bool) {
	for _, r := range visitorRules {
		if r.match(row) {
			return r.name, true
		}
	}
	return "", false
}

// ClassifyDirection returns the direction of the row's event.
func ClassifyDirection(row RawRow) Direction {
	d, _ := matchDirectionRule(row)
	return d
}

func matchDirectionRule(row RawRow) (Direction, string) {
	for _, r := range directionRules {
		if d, ok := r.resolve(row); ok {
			return d, r.name
		}
	}
	return DirectionIn, "default"
}

func directionFromWords(v string) (Direction, bool) {
	if v == "" {
		return "", false
	}
	if containsAny(v, entryWords) {
		return DirectionIn, true
	}
	if containsAny(v, exitWords) {
		return DirectionOut, true
	}
	return "", false
}

func containsAny(s string, words []string) bool {
	if s == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
