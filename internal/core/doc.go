// Package core ingests access-control CSV exports: badge events from door
// controllers, exported by tools that disagree on separators, column names,
// languages and date formats.
//
// The package holds all domain logic and no SQL or HTTP. Persistence is
// reached through [Store] and [Tx]; the web handlers and the CLI both call
// [Service.Import].
//
// # Pipeline
//
// One import flows through:
//
//  1. [WrapInput]: encoding sniffing (UTF-8 or Windows-1252), BOM removal.
//  2. [DetectDelimiter] and [ValidateHeader]: the file is rejected with a
//     [FormatError] before any row is touched if no badge or date column
//     is recognized.
//  3. [Resolver.Resolve]: column aliases (French, English, snake_case) are
//     resolved to a [NormalizedRecord]; dates and times go through
//     [DateTimeNormalizer]; [ClassifyVisitor] and [ClassifyDirection] apply
//     their rule chains.
//  4. [Pipeline.Run] batches records (default 100) and hands each batch to
//     [BatchProcessor.Process], which writes it in one transaction with a
//     savepoint per record.
//  5. [ProcessingStats] collects counters and warnings and is returned.
//
// # Failure model
//
// Bad values degrade to defaults with a warning. A record that fails
// validation or persistence is counted in ErrorRecords and its batch
// siblings still commit. Only a rejected file, a failed transaction
// ([ErrTransaction]) or cancellation fail the import. After MaxErrors
// failed records the import stops early and returns partial stats.
//
// # Error codes
//
// [MapError] turns errors into a [UserMessage] with a support code; the
// table is at the top of error_messages.go.
package core
