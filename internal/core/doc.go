// Package core implements the restaurant tabular import pipeline.
//
// It holds all domain logic independent of any transport or storage
// engine, so the HTTP server, the CLI and the tests drive it the same way.
//
// # Pipeline
//
// A run takes one file through a fixed sequence of stages:
//
//  1. Read: [ReadTable] decodes CSV (encoding/csv) or XLSX (excelize) into
//     a [RawTable] of text cells. Locale-variant blank tokens become [Missing].
//  2. Classify: [Classify] applies an ordered rule table to the column names
//     and yields an [EntityKind]. A caller-supplied kind skips this stage.
//  3. Transform: [Transformer] trims text and coerces dates, numbers and
//     booleans on a copy of the table.
//  4. Validate: [Validator] builds a [ValidationReport]. Findings are
//     informational and never stop the run.
//  5. Load: [Load] drives a [RowLoader] over every row and accounts for each
//     one as inserted, skipped or failed in a [LoadOutcome].
//
// [Service] wires the stages together behind an [ImportLimiter] and records
// a summary of every run through a [RunRecorder].
//
// # Transactions
//
// The loader talks to a [Store]. With [CommitPerRow] every row runs in its
// own transaction. With [CommitBatch] the whole file runs in one transaction
// and each row in a nested one (a savepoint), so a failing row never poisons
// the batch while a failing final commit rolls everything back and surfaces
// as [ErrBatchRollback].
//
// # Error Handling
//
// Fatal errors are sentinels checked with errors.Is: [ErrUnsupportedFormat],
// [ErrUnreadableFile], [ErrEmptyFile], [ErrUnknownEntityKind],
// [ErrBatchRollback] and [ErrTooManyImports]. [MapError] turns any error
// into a coded [UserMessage] for display.
package core
