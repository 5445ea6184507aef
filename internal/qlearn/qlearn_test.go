package qlearn

import (
	"math/rand"
	"testing"

	"github.com/verte-zerg/keyai/internal/model"
)

func newTestEngine(t *testing.T, corpus string, lr, discount float64) *Engine {
	t.Helper()
	e, err := New(corpus, Params{
		LearningRate:    lr,
		Discount:        discount,
		ExplorationLow:  0.2,
		ExplorationHigh: 1.0,
		Rounds:          10,
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func idx(t *testing.T, a *Alphabet, r rune) int {
	t.Helper()
	i, ok := a.Index(r)
	if !ok {
		t.Fatalf("rune %q not in alphabet", r)
	}
	return i
}

func TestAlphabetFirstOccurrenceOrder(t *testing.T) {
	a := NewAlphabet([]rune("ba ab"))
	if a.Len() != 3 {
		t.Fatalf("expected 3 runes, got %d", a.Len())
	}
	want := []rune{'b', 'a', ' '}
	for i, r := range want {
		if a.Rune(i) != r {
			t.Fatalf("expected %q at %d, got %q", r, i, a.Rune(i))
		}
		if got := idx(t, a, r); got != i {
			t.Fatalf("expected index %d for %q, got %d", i, r, got)
		}
	}
	if _, ok := a.Index('z'); ok {
		t.Fatalf("did not expect z in alphabet")
	}
}

func TestCountOccurrences(t *testing.T) {
	text := []rune("ab ab ab")
	a := NewAlphabet(text)
	occ := CountOccurrences(a, text)
	aI, bI, sI := idx(t, a, 'a'), idx(t, a, 'b'), idx(t, a, ' ')
	cases := []struct {
		tri  [3]int
		want int
	}{
		{[3]int{aI, bI, sI}, 2},
		{[3]int{bI, sI, aI}, 2},
		{[3]int{sI, aI, bI}, 2},
		{[3]int{aI, aI, aI}, 0},
	}
	for _, tc := range cases {
		if got := occ.Count(tc.tri[0], tc.tri[1], tc.tri[2]); got != tc.want {
			t.Fatalf("count %v: expected %d, got %d", tc.tri, tc.want, got)
		}
	}
}

func TestNewRejectsShortCorpus(t *testing.T) {
	_, err := New("ab", Params{LearningRate: 0.5, Discount: 0.9, ExplorationHigh: 1, Rounds: 1}, rand.New(rand.NewSource(1)))
	if err != ErrCorpusTooShort {
		t.Fatalf("expected ErrCorpusTooShort, got %v", err)
	}
}

func TestUpdateSingleObservation(t *testing.T) {
	e := newTestEngine(t, "ab ab ab", 0.5, 0.9)
	applied := e.Update([]model.Observation{{Trigram: [3]rune{'a', 'b', ' '}, ElapsedMs: 100}})
	if applied != 1 {
		t.Fatalf("expected 1 applied observation, got %d", applied)
	}
	v, ok := e.Values().Lookup([3]rune{'a', 'b', ' '})
	if !ok || v != 50 {
		t.Fatalf("expected value 50, got %v (ok=%v)", v, ok)
	}
}

func TestUpdateUsesBestFollowingValue(t *testing.T) {
	e := newTestEngine(t, "ab ab ab", 0.5, 0.9)
	a := e.Alphabet()
	e.Values().Set(idx(t, a, 'b'), idx(t, a, ' '), idx(t, a, 'a'), 40)
	e.Update([]model.Observation{{Trigram: [3]rune{'a', 'b', ' '}, ElapsedMs: 100}})
	v, _ := e.Values().Lookup([3]rune{'a', 'b', ' '})
	if v != 0.5*(100+0.9*40) {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestUpdateSkipsUnknownCharacters(t *testing.T) {
	e := newTestEngine(t, "ab ab ab", 0.5, 0.9)
	applied := e.Update([]model.Observation{{Trigram: [3]rune{'a', 'z', ' '}, ElapsedMs: 100}})
	if applied != 0 || e.Values().NonZero() != 0 {
		t.Fatalf("expected unknown trigram to be ignored")
	}
}

func TestUpdateIsOrderSensitive(t *testing.T) {
	obsA := model.Observation{Trigram: [3]rune{'a', 'b', 'a'}, ElapsedMs: 10}
	obsB := model.Observation{Trigram: [3]rune{'b', 'a', 'b'}, ElapsedMs: 20}

	first := newTestEngine(t, "abab", 0.5, 0.9)
	first.Update([]model.Observation{obsA, obsB})
	second := newTestEngine(t, "abab", 0.5, 0.9)
	second.Update([]model.Observation{obsB, obsA})

	aba1, _ := first.Values().Lookup(obsA.Trigram)
	bab1, _ := first.Values().Lookup(obsB.Trigram)
	aba2, _ := second.Values().Lookup(obsA.Trigram)
	bab2, _ := second.Values().Lookup(obsB.Trigram)

	if aba1 != 5 || bab1 != 12.25 {
		t.Fatalf("A then B: expected aba=5 bab=12.25, got aba=%v bab=%v", aba1, bab1)
	}
	if bab2 != 10 || aba2 != 9.5 {
		t.Fatalf("B then A: expected bab=10 aba=9.5, got bab=%v aba=%v", bab2, aba2)
	}
}

func TestScheduleStaysWithinBounds(t *testing.T) {
	configs := []struct {
		low, high float64
		rounds    int
	}{
		{0.2, 1.0, 10},
		{0, 0.6, 7},
		{0.3, 0.3, 3},
		{0.1, 0.9, 1},
	}
	for _, cfg := range configs {
		s, err := NewSchedule(cfg.low, cfg.high, cfg.rounds)
		if err != nil {
			t.Fatalf("NewSchedule failed: %v", err)
		}
		if s.Rate != cfg.high {
			t.Fatalf("expected initial rate %v, got %v", cfg.high, s.Rate)
		}
		for n := 0; n < 3*cfg.rounds+2; n++ {
			s = s.Advance()
			if s.Rate < cfg.low || s.Rate > cfg.high {
				t.Fatalf("rate %v outside [%v, %v] after %d rounds", s.Rate, cfg.low, cfg.high, n+1)
			}
			if s.Round < 0 || s.Round >= cfg.rounds {
				t.Fatalf("round %d outside [0, %d)", s.Round, cfg.rounds)
			}
		}
	}
}

func TestScheduleCycles(t *testing.T) {
	s, err := NewSchedule(0.2, 1.0, 4)
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	s = s.Advance()
	if s.Round != 1 || s.Rate != 0.25*0.2+0.75*1.0 {
		t.Fatalf("unexpected schedule after one round: %+v", s)
	}
	for i := 0; i < 3; i++ {
		s = s.Advance()
	}
	if s.Round != 0 || s.Rate != 1.0 {
		t.Fatalf("expected schedule to wrap, got %+v", s)
	}
}

func TestNewScheduleRejectsInvalid(t *testing.T) {
	if _, err := NewSchedule(0.2, 1.0, 0); err == nil {
		t.Fatalf("expected error for zero rounds")
	}
	if _, err := NewSchedule(0.8, 0.2, 5); err == nil {
		t.Fatalf("expected error for low > high")
	}
}

func TestFinishRoundAdvancesWithoutPath(t *testing.T) {
	e := newTestEngine(t, "ab ab ab", 0.5, 0.9)
	if err := e.FinishRound(""); err != nil {
		t.Fatalf("FinishRound failed: %v", err)
	}
	if e.Schedule().Round != 1 {
		t.Fatalf("expected round 1, got %d", e.Schedule().Round)
	}
}
