// Package syncer reconciles candidate cards against remote state.
//
// One read per destination builds the dedup baseline; candidates whose names
// already exist there are skipped, the remainder are created in input order.
// The first failing call aborts the run. Because deduplication queries remote
// state on every run, a partially completed run is safe to repeat.
package syncer
