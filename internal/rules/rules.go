package rules

import (
	"time"
)

// Rule is a declarative predicate over calendar fields.
//
// Each of Year/Month/Day/Weekday is either nil (wildcard, always matches) or
// an exact-match constraint against the evaluation date. Weekday follows the
// rules-file convention 0=Monday .. 6=Sunday.
//
// A rule with all four fields nil fires every day.
type Rule struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Year        *int   `json:"year,omitempty"`
	Month       *int   `json:"month,omitempty"`
	Day         *int   `json:"day,omitempty"`
	Weekday     *int   `json:"weekday,omitempty"`

	// DueOffset is the number of days to add to the evaluation date to form
	// the card's due timestamp. nil means the card carries no due date.
	DueOffset *int `json:"due_offset,omitempty"`
}

// Card is a not-yet-persisted task derived from a matching rule.
// It is recomputed on every run; nothing here survives between runs.
type Card struct {
	Name        string
	Destination string
	Due         *time.Time
}

// Options tune how due timestamps are derived. The zero value is usable:
// due dates land at 09:00 in the local timezone.
type Options struct {
	// DueHour/DueMinute form the time-of-day attached to due dates.
	// Both zero means the 09:00 default.
	DueHour   int
	DueMinute int

	// Location is the timezone the due time is interpreted in before being
	// normalized to UTC for transmission. nil means time.Local.
	Location *time.Location
}

func (o Options) dueClock() (int, int) {
	if o.DueHour == 0 && o.DueMinute == 0 {
		return 9, 0
	}
	return o.DueHour, o.DueMinute
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Matches reports whether the rule fires on the given date.
// Set fields must all equal the date's components (logical AND); unset fields
// always pass. OR across values is expressed with multiple rules.
func (r Rule) Matches(date time.Time) bool {
	if r.Year != nil && *r.Year != date.Year() {
		return false
	}
	if r.Month != nil && *r.Month != int(date.Month()) {
		return false
	}
	if r.Day != nil && *r.Day != date.Day() {
		return false
	}
	if r.Weekday != nil && *r.Weekday != mondayWeekday(date) {
		return false
	}
	return true
}

// mondayWeekday maps Go's Sunday-based weekday to the 0=Monday convention
// used by rules files.
func mondayWeekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// Evaluate returns one candidate card per matching rule, in rule order.
//
// Duplicate names across rules are legal here; deduplication against remote
// state belongs to the sync engine. The function performs no I/O and never
// fails, so it can be replayed for any date (backfill, tests).
func Evaluate(ruleset []Rule, date time.Time, opts Options) []Card {
	hour, minute := opts.dueClock()
	loc := opts.location()

	cards := make([]Card, 0, len(ruleset))
	for _, r := range ruleset {
		if !r.Matches(date) {
			continue
		}

		var due *time.Time
		if r.DueOffset != nil {
			d := date.AddDate(0, 0, *r.DueOffset)
			t := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
			due = &t
		}

		cards = append(cards, Card{Name: r.Name, Destination: r.Destination, Due: due})
	}
	return cards
}
