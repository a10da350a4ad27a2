// Package journal persists one row per pipeline invocation in SQLite so
// operators can inspect job outcomes (terminal status, the state a failure
// originated from, and the classified error kind) after the fact.
//
// The database is an observability ledger, not a work queue: each invocation
// owns exactly one job end to end and never picks work up from here.
package journal
