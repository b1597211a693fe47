package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"recurrent/internal/rules"
	"recurrent/internal/trello"
	logx "recurrent/pkg/logx"
)

// fakeTracker is an in-memory tracker. Created cards become visible to
// subsequent ListCards calls, like the real remote.
type fakeTracker struct {
	cards map[string][]trello.RemoteCard // destination -> cards

	listCalls   []string
	createCalls []createCall

	listErr   map[string]error
	createErr map[string]error // keyed by card name
}

type createCall struct {
	destination string
	name        string
	due         *time.Time
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		cards:     map[string][]trello.RemoteCard{},
		listErr:   map[string]error{},
		createErr: map[string]error{},
	}
}

func (f *fakeTracker) seed(destination string, names ...string) {
	for _, n := range names {
		f.cards[destination] = append(f.cards[destination], trello.RemoteCard{ID: n, Name: n})
	}
}

func (f *fakeTracker) ListCards(_ context.Context, destination string) ([]trello.RemoteCard, error) {
	f.listCalls = append(f.listCalls, destination)
	if err := f.listErr[destination]; err != nil {
		return nil, err
	}
	return f.cards[destination], nil
}

func (f *fakeTracker) CreateCard(_ context.Context, destination, name string, due *time.Time) error {
	f.createCalls = append(f.createCalls, createCall{destination: destination, name: name, due: due})
	if err := f.createErr[name]; err != nil {
		return err
	}
	f.cards[destination] = append(f.cards[destination], trello.RemoteCard{ID: name, Name: name})
	return nil
}

func card(name, destination string) rules.Card {
	return rules.Card{Name: name, Destination: destination}
}

func TestSyncCreatesMissingCards(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	eng := New(tr, logx.Nop())

	due := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	candidates := []rules.Card{
		{Name: "a", Destination: "d1", Due: &due},
		card("b", "d1"),
		card("c", "d2"),
	}

	rep, err := eng.Sync(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if rep.Created != 3 || rep.Skipped != 0 {
		t.Fatalf("report = %+v, want 3 created 0 skipped", rep)
	}
	if len(tr.createCalls) != 3 {
		t.Fatalf("create calls = %d, want 3", len(tr.createCalls))
	}
	// Input order is preserved.
	for i, want := range []string{"a", "b", "c"} {
		if tr.createCalls[i].name != want {
			t.Fatalf("create call %d = %q, want %q", i, tr.createCalls[i].name, want)
		}
	}
	if tr.createCalls[0].due == nil || !tr.createCalls[0].due.Equal(due) {
		t.Fatalf("due not forwarded: %v", tr.createCalls[0].due)
	}
	if tr.createCalls[1].due != nil {
		t.Fatalf("card without due got %v", tr.createCalls[1].due)
	}
}

func TestSyncSkipsExistingCard(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	tr.seed("d1", "Weekly Review")
	eng := New(tr, logx.Nop())

	rep, err := eng.Sync(context.Background(), []rules.Card{card("Weekly Review", "d1")})
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(tr.createCalls) != 0 {
		t.Fatalf("create calls = %d, want 0", len(tr.createCalls))
	}
	if len(tr.listCalls) != 1 {
		t.Fatalf("list calls = %d, want 1", len(tr.listCalls))
	}
	if rep.Skipped != 1 || rep.Created != 0 {
		t.Fatalf("report = %+v, want 1 skipped", rep)
	}
}

func TestSyncDedupScopedPerDestination(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	tr.seed("B", "X") // "X" exists only in destination B
	eng := New(tr, logx.Nop())

	rep, err := eng.Sync(context.Background(), []rules.Card{card("X", "A")})
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if rep.Created != 1 {
		t.Fatalf("report = %+v, want 1 created", rep)
	}
	if len(tr.createCalls) != 1 || tr.createCalls[0].destination != "A" {
		t.Fatalf("unexpected create calls %+v", tr.createCalls)
	}
}

func TestSyncOneReadPerDestination(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	eng := New(tr, logx.Nop())

	candidates := []rules.Card{
		card("a", "d1"), card("b", "d1"), card("c", "d1"),
		card("d", "d2"),
	}
	if _, err := eng.Sync(context.Background(), candidates); err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(tr.listCalls) != 2 {
		t.Fatalf("list calls = %v, want one per destination", tr.listCalls)
	}
}

func TestSyncIdempotent(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	tr.seed("d1", "already-there")
	eng := New(tr, logx.Nop())

	candidates := []rules.Card{
		card("already-there", "d1"),
		card("new-1", "d1"),
		card("new-2", "d2"),
	}

	rep1, err := eng.Sync(context.Background(), candidates)
	if err != nil {
		t.Fatalf("first Sync error: %v", err)
	}
	if rep1.Created != 2 || rep1.Skipped != 1 {
		t.Fatalf("first report = %+v, want 2 created 1 skipped", rep1)
	}

	created := len(tr.createCalls)
	rep2, err := eng.Sync(context.Background(), candidates)
	if err != nil {
		t.Fatalf("second Sync error: %v", err)
	}
	if got := len(tr.createCalls) - created; got != 0 {
		t.Fatalf("second run issued %d creates, want 0", got)
	}
	if rep2.Created != 0 || rep2.Skipped != 3 {
		t.Fatalf("second report = %+v, want 0 created 3 skipped", rep2)
	}
}

func TestSyncReadFailureAbortsBeforeAnyCreate(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	boom := errors.New("boom")
	tr.listErr["d2"] = boom
	eng := New(tr, logx.Nop())

	// d1 read succeeds, d2 read fails: no create may happen for either.
	_, err := eng.Sync(context.Background(), []rules.Card{card("a", "d1"), card("b", "d2")})
	if err == nil {
		t.Fatal("expected error")
	}
	var serr *SyncError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SyncError", err)
	}
	if serr.Op != OpList || serr.Destination != "d2" {
		t.Fatalf("error context = %+v", serr)
	}
	if !errors.Is(err, boom) {
		t.Fatal("cause not wrapped")
	}
	if len(tr.createCalls) != 0 {
		t.Fatalf("create calls = %d, want 0", len(tr.createCalls))
	}
}

func TestSyncCreateFailureAbortsRemainder(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	tr.createErr["b"] = errors.New("denied")
	eng := New(tr, logx.Nop())

	_, err := eng.Sync(context.Background(), []rules.Card{card("a", "d1"), card("b", "d1"), card("c", "d1")})
	if err == nil {
		t.Fatal("expected error")
	}
	var serr *SyncError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SyncError", err)
	}
	if serr.Op != OpCreate || serr.Card != "b" || serr.Destination != "d1" {
		t.Fatalf("error context = %+v", serr)
	}
	// "a" was created, "c" was never attempted.
	if len(tr.createCalls) != 2 {
		t.Fatalf("create calls = %d, want 2 (a then failing b)", len(tr.createCalls))
	}

	// The next run skips "a" and retries only the remainder.
	tr.createErr = map[string]error{}
	rep, err := eng.Sync(context.Background(), []rules.Card{card("a", "d1"), card("b", "d1"), card("c", "d1")})
	if err != nil {
		t.Fatalf("retry Sync error: %v", err)
	}
	if rep.Created != 2 || rep.Skipped != 1 {
		t.Fatalf("retry report = %+v, want 2 created 1 skipped", rep)
	}
}

func TestSyncDryRunIssuesNoCreates(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	tr.seed("d1", "old")
	eng := New(tr, logx.Nop())
	eng.SetDryRun(true)

	rep, err := eng.Sync(context.Background(), []rules.Card{card("old", "d1"), card("new", "d1")})
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(tr.createCalls) != 0 {
		t.Fatalf("dry run issued %d creates", len(tr.createCalls))
	}
	if len(tr.listCalls) != 1 {
		t.Fatalf("dry run must still read baselines, got %d reads", len(tr.listCalls))
	}
	if rep.Created != 1 || rep.Skipped != 1 {
		t.Fatalf("report = %+v, want 1 would-create 1 skipped", rep)
	}
}

func TestSyncEmptyCandidates(t *testing.T) {
	t.Parallel()
	tr := newFakeTracker()
	eng := New(tr, logx.Nop())

	rep, err := eng.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if rep.Candidates != 0 || len(tr.listCalls) != 0 || len(tr.createCalls) != 0 {
		t.Fatalf("empty sync touched the tracker: %+v", tr)
	}
}
