package syncer

import (
	"context"
	"time"

	"recurrent/internal/rules"
	"recurrent/internal/trello"
	logx "recurrent/pkg/logx"
)

// Tracker is the remote boundary the engine syncs against.
// *trello.Client satisfies it; tests supply fakes.
type Tracker interface {
	ListCards(ctx context.Context, destination string) ([]trello.RemoteCard, error)
	CreateCard(ctx context.Context, destination, name string, due *time.Time) error
}

// Report summarizes a run for logging and history. It is informational only:
// a failed run returns an error and whatever half-built report existed is
// discarded by callers that care about exactness.
type Report struct {
	Candidates int
	Created    int
	Skipped    int
}

type Engine struct {
	tracker Tracker
	log     logx.Logger

	// dryRun computes and logs decisions without issuing creates.
	// Baseline reads still happen so the output reflects real remote state.
	dryRun bool
}

func New(tracker Tracker, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{tracker: tracker, log: log}
}

func (e *Engine) SetDryRun(v bool) { e.dryRun = v }

// Sync creates every candidate card that does not already exist remotely.
//
// Dedup keys on name alone within a destination: two rules sharing a name in
// the same destination are treated as the same card. That weak key is
// deliberate and load-bearing; it is what makes re-runs idempotent.
func (e *Engine) Sync(ctx context.Context, candidates []rules.Card) (Report, error) {
	rep := Report{Candidates: len(candidates)}

	// One read per distinct destination, before any create. A failed read
	// aborts everything: a partial baseline cannot be trusted for dedup.
	baselines := make(map[string]map[string]struct{})
	for _, c := range candidates {
		if _, ok := baselines[c.Destination]; ok {
			continue
		}
		existing, err := e.tracker.ListCards(ctx, c.Destination)
		if err != nil {
			return rep, &SyncError{Op: OpList, Destination: c.Destination, Err: err}
		}
		names := make(map[string]struct{}, len(existing))
		for _, rc := range existing {
			names[rc.Name] = struct{}{}
		}
		baselines[c.Destination] = names
		e.log.Debug("fetched dedup baseline",
			logx.String("destination", c.Destination),
			logx.Int("existing", len(existing)),
		)
	}

	for _, c := range candidates {
		if _, ok := baselines[c.Destination][c.Name]; ok {
			rep.Skipped++
			e.log.Debug("card exists; skipping",
				logx.String("card", c.Name),
				logx.String("destination", c.Destination),
			)
			continue
		}

		if e.dryRun {
			rep.Created++
			e.log.Info("would create card (dry run)",
				logx.String("card", c.Name),
				logx.String("destination", c.Destination),
			)
			continue
		}

		if err := e.tracker.CreateCard(ctx, c.Destination, c.Name, c.Due); err != nil {
			// No rollback for cards already created this run; the next run
			// will find them in the baseline and retry only the remainder.
			return rep, &SyncError{Op: OpCreate, Destination: c.Destination, Card: c.Name, Err: err}
		}
		rep.Created++
		e.log.Info("card created",
			logx.String("card", c.Name),
			logx.String("destination", c.Destination),
			logx.Bool("due", c.Due != nil),
		)
	}

	return rep, nil
}
