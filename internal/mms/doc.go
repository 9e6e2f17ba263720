// Package mms parses AEMO "MMS CSV" report files into typed records.
//
// An MMS file is a flat sequence of rows whose first field names the row type:
//
//	C,NEMP.WORLD,TRADINGIS,AEMO,PUBLIC,2024/03/03,13:30:08,...   control
//	I,TRADING,PRICE,3,SETTLEMENTDATE,RUNNO,REGIONID,...         header
//	D,TRADING,PRICE,3,"2024/03/03 13:35:00",1,NSW1,...           data
//	C,"END OF REPORT",15                                         control
//
// A header opens a section for the dataset named by its (category, report,
// version) triple; data rows that follow carry the same triple and are decoded
// by the [Schema] registered for it. Sections repeat, they never nest.
//
// # Parsing
//
// [Parser] walks one file with a private scan state, so several files can be
// parsed at once from the same Parser. Row-level problems are recorded in
// [FileResult.Issues] and scanning continues; [WithStrict] turns the first one
// into a hard failure instead.
//
// # Schemas
//
// Schemas live in a [Registry] that is filled once at startup and only read
// afterwards. The four NEMweb datasets handled by this repository are
// registered by package tables.
//
// # Batches
//
// [Aggregator] parses the entries of one archive on a bounded worker pool and
// folds them into a [Collection]. An entry that cannot be decoded or parsed
// becomes an [EntryFailure]; it never aborts the batch.
//
// # Timestamps
//
// MMS timestamps are wall-clock times in the market's civil zone
// (Australia/Sydney). [Normalizer] converts them to UTC and refuses wall times
// that fall in a DST gap or overlap.
package mms
