package core

import (
	"errors"
	"strings"
)

// candidateDelimiters is ordered: on equal counts the earlier one wins.
var candidateDelimiters = []rune{',', ';', '\t'}

// ErrInvalidFormat is the message of every FormatError.
var ErrInvalidFormat = errors.New("Invalid CSV format: missing required columns")

// FormatError rejects a whole file before any row is processed. Reason is
// logged; the message shown to callers is always ErrInvalidFormat.
type FormatError struct {
	Header []string
	Reason string
}

func (e *FormatError) Error() string { return ErrInvalidFormat.Error() }

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

// firstLine returns text up to the first line break, without the break.
func firstLine(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return text[:i]
	}
	return text
}

// DetectDelimiter picks the separator of a delimited file by counting the
// candidates on its first line. A line with none of them yields ','.
func DetectDelimiter(text string) rune {
	line := firstLine(text)
	best, bestCount := candidateDelimiters[0], 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// HasDelimiter reports whether the first line contains any candidate
// separator.
func HasDelimiter(text string) bool {
	return strings.ContainsAny(firstLine(text), ",;\t")
}

// ValidateHeader accepts a header that names a badge number or an event
// date column under any known alias.
func ValidateHeader(header []string) error {
	for _, h := range header {
		key := foldKey(h)
		if fieldAliasSet[fieldBadge][key] || fieldAliasSet[fieldDate][key] {
			return nil
		}
	}
	return &FormatError{Header: header, Reason: "no badge number or event date column"}
}
