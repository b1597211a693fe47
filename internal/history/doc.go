// Package history provides an optional persistence layer for run outcomes.
//
// It records one entry per sync run (evaluation date, counts, error if any)
// so operators can audit what each run did. Nothing here participates in
// deduplication: idempotence comes entirely from querying remote state.
package history
