package reconcile

import (
	"errors"
	"testing"
	"time"
)

type key struct {
	ch rune
	ms int64
}

func typeAll(r *Reconciler, start time.Time, keys []key) Status {
	status := r.Status()
	for _, k := range keys {
		status = r.Type(k.ch, start.Add(time.Duration(k.ms)*time.Millisecond))
	}
	return status
}

func TestExactTypingRecordsTrigrams(t *testing.T) {
	start := time.Unix(0, 0)
	r := New("abcd", Config{}, start)
	status := typeAll(r, start, []key{{'a', 100}, {'b', 300}, {'c', 600}, {'d', 1000}})
	if status != Done {
		t.Fatalf("expected Done, got %v", status)
	}
	round, err := r.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if len(round.Observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(round.Observations))
	}
	if round.Observations[0].TrigramString() != "abc" || round.Observations[0].ElapsedMs != 300 {
		t.Fatalf("unexpected first observation: %+v", round.Observations[0])
	}
	if round.Observations[1].TrigramString() != "bcd" || round.Observations[1].ElapsedMs != 400 {
		t.Fatalf("unexpected second observation: %+v", round.Observations[1])
	}
	if round.Mistakes != 0 {
		t.Fatalf("expected no mistakes, got %d", round.Mistakes)
	}
}

func TestMistypeBeforeCorrectCountsOneMistake(t *testing.T) {
	start := time.Unix(0, 0)
	r := New("cat", Config{}, start)
	status := typeAll(r, start, []key{{'c', 100}, {'a', 200}, {'x', 300}, {'y', 350}, {'t', 500}})
	if status != Done {
		t.Fatalf("expected Done, got %v", status)
	}
	round, err := r.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if len(round.Observations) != 1 || round.Observations[0].TrigramString() != "cat" {
		t.Fatalf("unexpected observations: %+v", round.Observations)
	}
	if round.Observations[0].ElapsedMs != 300 {
		t.Fatalf("expected elapsed since last accept, got %d", round.Observations[0].ElapsedMs)
	}
	if round.Mistakes != 1 {
		t.Fatalf("expected 1 mistake, got %d", round.Mistakes)
	}
}

func TestNoSilentSkipWhenDisabled(t *testing.T) {
	start := time.Unix(0, 0)
	r := New("cart", Config{SkipEnabled: false, SkipWindow: 1}, start)
	status := typeAll(r, start, []key{{'c', 100}, {'a', 250}, {'x', 400}, {'t', 600}})
	if status != Typing {
		t.Fatalf("expected round still typing, got %v", status)
	}
	if r.Position() != 2 {
		t.Fatalf("expected position 2, got %d", r.Position())
	}
	if len(r.Pending()) != 2 {
		t.Fatalf("expected 2 pending keystrokes, got %d", len(r.Pending()))
	}
	if _, err := r.Result(); !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}
}

func TestSkipRecoveryPastMissedCharacter(t *testing.T) {
	start := time.Unix(0, 0)
	r := New("cart", Config{SkipEnabled: true, SkipWindow: 1}, start)
	status := typeAll(r, start, []key{{'c', 100}, {'a', 250}, {'x', 400}, {'t', 600}})
	if status != Done {
		t.Fatalf("expected Done, got %v (position %d)", status, r.Position())
	}
	round, err := r.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if len(round.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %+v", round.Observations)
	}
	if round.Observations[0].TrigramString() != "art" || round.Observations[0].ElapsedMs != 350 {
		t.Fatalf("unexpected observation: %+v", round.Observations[0])
	}
	if round.Mistakes != 1 {
		t.Fatalf("expected 1 mistake, got %d", round.Mistakes)
	}
}

func TestSkipRecoveryWindowContinuesRound(t *testing.T) {
	start := time.Unix(0, 0)
	r := New("abcdef", Config{SkipEnabled: true, SkipWindow: 2}, start)
	typeAll(r, start, []key{{'a', 10}, {'b', 20}, {'x', 40}, {'d', 60}, {'y', 70}})
	if r.Position() != 2 {
		t.Fatalf("expected position 2 before recovery, got %d", r.Position())
	}
	typeAll(r, start, []key{{'e', 100}})
	if r.Position() != 5 {
		t.Fatalf("expected position 5 after recovery, got %d", r.Position())
	}
	if r.Mistakes() != 2 {
		t.Fatalf("expected 2 mistakes, got %d", r.Mistakes())
	}
	if len(r.Pending()) != 0 {
		t.Fatalf("expected empty pending buffer")
	}
	if status := typeAll(r, start, []key{{'f', 150}}); status != Done {
		t.Fatalf("expected Done, got %v", status)
	}
	obs := r.Observations()
	want := []struct {
		tri string
		ms  int64
	}{
		{"bcd", 40},
		{"cde", 40},
		{"def", 50},
	}
	if len(obs) != len(want) {
		t.Fatalf("expected %d observations, got %+v", len(want), obs)
	}
	for i, w := range want {
		if obs[i].TrigramString() != w.tri || obs[i].ElapsedMs != w.ms {
			t.Fatalf("observation %d: expected %s/%d, got %+v", i, w.tri, w.ms, obs[i])
		}
	}
}

func TestAbortDiscardsEverything(t *testing.T) {
	start := time.Unix(0, 0)
	r := New("abcd", Config{}, start)
	typeAll(r, start, []key{{'a', 100}, {'b', 200}, {'c', 300}, {'z', 350}})
	r.Abort()
	if r.Status() != Aborted {
		t.Fatalf("expected Aborted, got %v", r.Status())
	}
	if len(r.Observations()) != 0 || len(r.Pending()) != 0 {
		t.Fatalf("expected aborted round to discard data")
	}
	if status := r.Type('d', start.Add(time.Second)); status != Aborted {
		t.Fatalf("expected keystrokes after abort to be ignored")
	}
	if _, err := r.Result(); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestEmptyTargetIsDone(t *testing.T) {
	r := New("", Config{}, time.Unix(0, 0))
	if r.Status() != Done {
		t.Fatalf("expected empty target to be done")
	}
	round, err := r.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if round.Metrics.HasWPM || round.Metrics.HasAccuracy {
		t.Fatalf("expected undefined metrics, got %+v", round.Metrics)
	}
}
