package core

// error_messages.go maps technical errors to messages an operator can act on.
// Every message carries a code to quote to support:
//
//	FMT001  file header has no badge number or event date column
//	FMT002  file content or path missing
//	FMT003  first line has no , ; or tab separator
//	FMT004  file exceeds the configured size limit
//	FMT005  file is empty
//	IMP001  import stopped: database transaction failed
//	IMP002  all import slots busy
//	IMP003  import cancelled or timed out
//	DB001   unique constraint (duplicate badge or event)
//	DB002   foreign key violation
//	DB003   value too long for its column
//	DB004   database unreachable
//	DB005   deadlock or serialization failure
//	VAL001  record failed column validation
//	RATE001 too many requests
//	ERR000  anything else; check the logs for the technical error
//
// Typed errors are checked first (errors.Is / errors.As), then the
// PostgreSQL SQLSTATE, then substring patterns as a last resort.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage is an error in operator terms.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do
	Code    string // support reference
}

var (
	msgMissingColumns = UserMessage{ErrInvalidFormat.Error(), "Export the file with its header row; it needs a badge number or event date column", "FMT001"}
	msgMissingInput   = UserMessage{"File path and file content are required", "Send both filePath and fileContent", "FMT002"}
	msgNoDelimiter    = UserMessage{"Invalid CSV format: no column separator found", "Use comma, semicolon or tab separated values", "FMT003"}
	msgTooLarge       = UserMessage{"File exceeds the maximum size", "Split the export into smaller files", "FMT004"}
	msgEmptyFile      = UserMessage{"The file is empty", "Export at least a header row and one event", "FMT005"}
	msgTransaction    = UserMessage{"The import was stopped because the database transaction failed", "Retry the import; rows from the failed batch were not saved", "IMP001"}
	msgBusy           = UserMessage{"The server is busy with other imports", "Wait a moment and try again", "IMP002"}
	msgCancelled      = UserMessage{"The import was cancelled or timed out", "Retry with a smaller file", "IMP003"}
	msgUnique         = UserMessage{"A record with the same key already exists", "Check the file for repeated events", "DB001"}
	msgForeignKey     = UserMessage{"A referenced record does not exist", "Check that the badge holder exists", "DB002"}
	msgTooLong        = UserMessage{"A value is too long for its column", "Shorten names, readers or groups in the export", "DB003"}
	msgUnreachable    = UserMessage{"Unable to reach the database", "Try again in a few moments", "DB004"}
	msgDeadlock       = UserMessage{"The database was busy with conflicting writes", "Try again", "DB005"}
	msgValidation     = UserMessage{"A record failed validation", "Check the warnings for the offending field", "VAL001"}
	msgRateLimit      = UserMessage{"Too many requests", "Wait a moment before trying again", "RATE001"}

	defaultMessage = UserMessage{"An unexpected error occurred", "Try again or contact support", "ERR000"}
)

// ErrMissingInput, ErrNoDelimiter, ErrFileTooLarge and ErrEmptyFile reject
// a request before the pipeline starts.
var (
	ErrMissingInput = errors.New("file path and file content are required")
	ErrNoDelimiter  = errors.New("no delimiter found in header")
	ErrFileTooLarge = errors.New("file too large")
	ErrEmptyFile    = errors.New("empty file")
)

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrInvalidFormat, msgMissingColumns},
	{ErrMissingInput, msgMissingInput},
	{ErrNoDelimiter, msgNoDelimiter},
	{ErrFileTooLarge, msgTooLarge},
	{ErrEmptyFile, msgEmptyFile},
	{ErrTooManyImports, msgBusy},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgCancelled},
}

// sqlStateMessages keys on PostgreSQL error codes.
var sqlStateMessages = map[string]UserMessage{
	"23505": msgUnique,
	"23503": msgForeignKey,
	"22001": msgTooLong,
	"40P01": msgDeadlock,
	"40001": msgDeadlock,
	"08000": msgUnreachable,
	"08003": msgUnreachable,
	"08006": msgUnreachable,
	"57P01": msgUnreachable,
}

// errorPatterns are matched case-insensitively against the error text.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"duplicate key", msgUnique},
	{"violates unique", msgUnique},
	{"violates foreign key", msgForeignKey},
	{"value too long", msgTooLong},
	{"connection refused", msgUnreachable},
	{"connection reset", msgUnreachable},
	{"deadlock", msgDeadlock},
	{"validation failed", msgValidation},
	{"rate limit", msgRateLimit},
}

// MapError converts a technical error to a UserMessage. A transaction
// failure is reported as such even when its cause is also recognizable.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return msgValidation
	}

	if errors.Is(err, ErrTransaction) {
		return msgTransaction
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStateMessages[pgErr.Code]; ok {
			return msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// recordFailure turns a per-record error into a short warning string.
func recordFailure(err error) string {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	msg := MapError(err)
	if msg.Code == defaultMessage.Code {
		return err.Error()
	}
	return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
}
