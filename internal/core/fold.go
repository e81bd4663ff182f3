package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining diacritics: "Évènement" -> "Evenement".
// A transform.Transformer is stateful, so each call builds its own chain.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// foldText lower-cases, trims and strips diacritics. Used for matching cell
// values against keyword lists.
func foldText(s string) string {
	return strings.ToLower(strings.TrimSpace(stripMarks(s)))
}

// foldKey reduces a header name to lower-case ASCII letters and digits so
// that spacing, punctuation, case and accents do not matter.
func foldKey(s string) string {
	folded := foldText(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldKeys folds a list of aliases, dropping duplicates but keeping order.
func foldKeys(aliases ...string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		k := foldKey(a)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
