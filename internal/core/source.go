package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// csvSource is an opened upload: encoding decoded, delimiter detected and
// header validated. Rows are read one at a time.
type csvSource struct {
	reader    *csv.Reader
	input     *DecodedInput
	header    []string
	delimiter rune
}

// openCSV performs every check that must pass before the first row is
// processed. It returns ErrEmptyFile or a *FormatError on rejection.
func openCSV(r io.Reader) (*csvSource, error) {
	in, err := WrapInput(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	br := bufio.NewReader(in)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.TrimSpace(first) == "" {
		return nil, ErrEmptyFile
	}

	delim := DetectDelimiter(first)

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	rec, err := cr.Read()
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("unreadable header: %v", err)}
	}
	header := make([]string, len(rec))
	for i, h := range rec {
		header[i] = strings.TrimSpace(h)
	}

	if err := ValidateHeader(header); err != nil {
		return nil, err
	}

	return &csvSource{reader: cr, input: in, header: header, delimiter: delim}, nil
}

// next returns the following data row. A malformed line is returned as a
// *csv.ParseError with a zero RawRow; io.EOF ends the input.
func (s *csvSource) next() (RawRow, error) {
	rec, err := s.reader.Read()
	if err != nil {
		return RawRow{}, err
	}
	line, _ := s.reader.FieldPos(0)
	return NewRawRow(line, s.header, rec), nil
}

// delimiterName renders a delimiter for logs and responses.
func delimiterName(d rune) string {
	switch d {
	case '\t':
		return "tab"
	case ';':
		return "semicolon"
	default:
		return "comma"
	}
}
