// Package rules holds the recurrence rule model and its evaluation engine.
//
// Evaluation is pure: given a rule set and a date it returns the cards that
// are due to appear, without touching the network or the clock.
package rules
