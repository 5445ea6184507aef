package qlearn

import (
	"math/rand"
	"strings"
)

// Generator samples the second-order Markov chain defined by corpus
// occurrences and learned values.
type Generator struct {
	alphabet *Alphabet
	occ      *Occurrences
	values   *Table
	corpus   []rune
	rnd      *rand.Rand
	space    int
}

// NewGenerator returns a generator over the given tables. corpus supplies the
// two-character seeds of generated strings.
func NewGenerator(a *Alphabet, occ *Occurrences, values *Table, corpus []rune, rnd *rand.Rand) *Generator {
	space := -1
	if idx, ok := a.Index(' '); ok {
		space = idx
	}
	return &Generator{
		alphabet: a,
		occ:      occ,
		values:   values,
		corpus:   corpus,
		rnd:      rnd,
		space:    space,
	}
}

// excluded forbids three identical characters in a row and double spaces.
func (g *Generator) excluded(prev1, prev2, i int) bool {
	if prev1 == prev2 && prev2 == i {
		return true
	}
	return g.space >= 0 && i == g.space && prev2 == g.space
}

// GreedyChar returns the index with the highest learned value after
// (prev1, prev2), or a random draw when no value is positive.
func (g *Generator) GreedyChar(prev1, prev2 int) int {
	best := -1
	bestScore := 0.0
	for i := 0; i < g.alphabet.Len(); i++ {
		if g.excluded(prev1, prev2, i) {
			continue
		}
		if v := g.values.Get(prev1, prev2, i); v > bestScore {
			best = i
			bestScore = v
		}
	}
	if best < 0 {
		return g.RandomChar(prev1, prev2)
	}
	return best
}

// RandomChar draws the next index weighted by corpus occurrences.
func (g *Generator) RandomChar(prev1, prev2 int) int {
	total := 0
	for i := 0; i < g.alphabet.Len(); i++ {
		if g.excluded(prev1, prev2, i) {
			continue
		}
		total += g.occ.Count(prev1, prev2, i)
	}
	if total == 0 {
		return g.uniformChar(prev1, prev2)
	}
	target := g.rnd.Intn(total)
	for i := 0; i < g.alphabet.Len(); i++ {
		if g.excluded(prev1, prev2, i) {
			continue
		}
		target -= g.occ.Count(prev1, prev2, i)
		if target < 0 {
			return i
		}
	}
	return g.uniformChar(prev1, prev2)
}

func (g *Generator) uniformChar(prev1, prev2 int) int {
	eligible := make([]int, 0, g.alphabet.Len())
	for i := 0; i < g.alphabet.Len(); i++ {
		if !g.excluded(prev1, prev2, i) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return g.rnd.Intn(g.alphabet.Len())
	}
	return eligible[g.rnd.Intn(len(eligible))]
}

// NextChar picks greedily with probability 1-rate and randomly otherwise.
func (g *Generator) NextChar(prev1, prev2 int, rate float64) int {
	if g.rnd.Float64() > rate {
		return g.GreedyChar(prev1, prev2)
	}
	return g.RandomChar(prev1, prev2)
}

// RandomString grows a corpus seed to at least maxLength characters and
// trims surrounding whitespace.
func (g *Generator) RandomString(maxLength int, rate float64) string {
	start := g.rnd.Intn(len(g.corpus) - 1)
	seq := make([]rune, 2, max(maxLength, 2))
	copy(seq, g.corpus[start:start+2])
	for len(seq) < maxLength {
		prev1, _ := g.alphabet.Index(seq[len(seq)-2])
		prev2, _ := g.alphabet.Index(seq[len(seq)-1])
		seq = append(seq, g.alphabet.Rune(g.NextChar(prev1, prev2, rate)))
	}
	return strings.TrimSpace(string(seq))
}
