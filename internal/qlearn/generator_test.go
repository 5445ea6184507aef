package qlearn

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGreedyCharPicksHighestValue(t *testing.T) {
	e := newTestEngine(t, "abc abc", 0.5, 0.9)
	a := e.Alphabet()
	aI, bI, cI := idx(t, a, 'a'), idx(t, a, 'b'), idx(t, a, 'c')
	e.Values().Set(aI, bI, aI, 10)
	e.Values().Set(aI, bI, cI, 30)
	if got := e.Generator().GreedyChar(aI, bI); got != cI {
		t.Fatalf("expected c, got %q", a.Rune(got))
	}
}

func TestGreedyCharNeverRepeatsThreeOrDoubleSpaces(t *testing.T) {
	e := newTestEngine(t, "aa b aab ba", 0.5, 0.9)
	a := e.Alphabet()
	aI, sI := idx(t, a, 'a'), idx(t, a, ' ')
	e.Values().Set(aI, aI, aI, 1000)
	e.Values().Set(aI, sI, sI, 1000)
	e.Values().Set(sI, sI, sI, 1000)
	gen := e.Generator()
	for n := 0; n < 200; n++ {
		for p1 := 0; p1 < a.Len(); p1++ {
			for p2 := 0; p2 < a.Len(); p2++ {
				got := gen.GreedyChar(p1, p2)
				if p1 == p2 && p2 == got {
					t.Fatalf("greedy produced triple %q", a.Rune(got))
				}
				if p2 == sI && got == sI {
					t.Fatalf("greedy produced double space")
				}
			}
		}
	}
}

func TestRandomCharFollowsOccurrences(t *testing.T) {
	e := newTestEngine(t, "ab ab ab", 0.5, 0.9)
	a := e.Alphabet()
	aI, bI, sI := idx(t, a, 'a'), idx(t, a, 'b'), idx(t, a, ' ')
	gen := e.Generator()
	for n := 0; n < 100; n++ {
		if got := gen.RandomChar(aI, bI); got != sI {
			t.Fatalf("expected space after ab, got %q", a.Rune(got))
		}
	}
}

func TestRandomCharFallsBackToEligibleUniform(t *testing.T) {
	e := newTestEngine(t, "ab ab ab", 0.5, 0.9)
	a := e.Alphabet()
	aI, bI, sI := idx(t, a, 'a'), idx(t, a, 'b'), idx(t, a, ' ')
	gen := e.Generator()
	seen := map[int]bool{}
	for n := 0; n < 200; n++ {
		got := gen.RandomChar(sI, sI)
		if got == sI {
			t.Fatalf("fallback produced a space after a space")
		}
		seen[got] = true
	}
	if !seen[aI] || !seen[bI] {
		t.Fatalf("expected uniform fallback to reach every eligible rune, got %v", seen)
	}
}

func TestRandomStringLengthAndTrim(t *testing.T) {
	corpus := "the quick brown fox jumps over the lazy dog"
	e := newTestEngine(t, corpus, 0.5, 0.9)
	for n := 0; n < 50; n++ {
		s := e.Target(40)
		if utf8.RuneCountInString(s) > 40 {
			t.Fatalf("expected at most 40 runes, got %d: %q", utf8.RuneCountInString(s), s)
		}
		if s != strings.TrimSpace(s) {
			t.Fatalf("expected trimmed string, got %q", s)
		}
		if strings.Contains(s, "  ") {
			t.Fatalf("unexpected double space in %q", s)
		}
		for _, r := range s {
			if _, ok := e.Alphabet().Index(r); !ok {
				t.Fatalf("rune %q outside alphabet", r)
			}
		}
	}
}

func TestRandomStringDeterministicForSeed(t *testing.T) {
	corpus := "the quick brown fox jumps over the lazy dog"
	params := Params{LearningRate: 0.5, Discount: 0.9, ExplorationLow: 0.2, ExplorationHigh: 1, Rounds: 10}
	e1, err := New(corpus, params, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	e2, err := New(corpus, params, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a, b := e1.Target(60), e2.Target(60); a != b {
		t.Fatalf("expected identical output for identical seeds: %q vs %q", a, b)
	}
}

func TestRandomStringGreedyDrillsHardTrigram(t *testing.T) {
	e := newTestEngine(t, "abcabc", 0.5, 0.9)
	a := e.Alphabet()
	aI, bI, cI := idx(t, a, 'a'), idx(t, a, 'b'), idx(t, a, 'c')
	e.Values().Set(aI, bI, cI, 100)
	e.Values().Set(bI, cI, aI, 100)
	e.Values().Set(cI, aI, bI, 100)
	s := e.Generator().RandomString(30, 0)
	if !strings.Contains(s, "abcabc") {
		t.Fatalf("expected greedy output to cycle abc, got %q", s)
	}
}
