package core

// streaming.go prepares raw upload bytes for the CSV reader without
// buffering the whole file:
//
//   - CountingReader counts raw bytes for logs and metrics
//   - the first 4 KiB are sniffed; input that is not UTF-8 is decoded as
//     Windows-1252, the code page of most badge-system exports
//   - UTF-8 input has its BOM removed and invalid bytes replaced with U+FFFD
//
// Use WrapInput to apply all of it in the right order.

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names reported by DecodedInput.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

const sniffSize = 4096

// CountingReader counts bytes read from the wrapped reader.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// DecodedInput is a UTF-8 stream over the raw upload.
type DecodedInput struct {
	io.Reader

	// Encoding is the source encoding detected from the first bytes.
	Encoding string

	raw *CountingReader
}

// BytesRead is the number of raw (pre-decoding) bytes consumed so far.
func (d *DecodedInput) BytesRead() int64 {
	return d.raw.BytesRead
}

// WrapInput detects the encoding of r and returns a UTF-8 reader over it.
func WrapInput(r io.Reader) (*DecodedInput, error) {
	raw := NewCountingReader(r)
	br := bufio.NewReaderSize(raw, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	atEOF := errors.Is(err, io.EOF)

	if looksUTF8(head, atEOF) {
		return &DecodedInput{
			Reader:   transform.NewReader(br, unicode.UTF8BOM.NewDecoder()),
			Encoding: EncodingUTF8,
			raw:      raw,
		}, nil
	}
	return &DecodedInput{
		Reader:   transform.NewReader(br, charmap.Windows1252.NewDecoder()),
		Encoding: EncodingWindows1252,
		raw:      raw,
	}, nil
}

// looksUTF8 reports whether b is valid UTF-8, allowing a rune cut off at
// the end of the sniff window when more input follows.
func looksUTF8(b []byte, atEOF bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if atEOF {
		return false
	}
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		tail := b[len(b)-i:]
		if utf8.RuneStart(tail[0]) {
			return !utf8.FullRune(tail) && utf8.Valid(b[:len(b)-i])
		}
	}
	return false
}
