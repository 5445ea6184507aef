package qlearn

import (
	"sort"

	"github.com/verte-zerg/keyai/internal/model"
)

// Table holds the learned latency estimate of every trigram. Higher values
// mean the user types the trigram's last character more slowly.
type Table struct {
	alphabet *Alphabet
	n        int
	values   []float64
}

// NewTable returns an all-zero table over a.
func NewTable(a *Alphabet) *Table {
	n := a.Len()
	return &Table{alphabet: a, n: n, values: make([]float64, n*n*n)}
}

// Get returns the value of trigram (i, j, k).
func (t *Table) Get(i, j, k int) float64 {
	return t.values[cell(t.n, i, j, k)]
}

// Set stores the value of trigram (i, j, k).
func (t *Table) Set(i, j, k int, v float64) {
	t.values[cell(t.n, i, j, k)] = v
}

// Lookup returns the value of a trigram given as characters.
func (t *Table) Lookup(tri [3]rune) (float64, bool) {
	i, j, k, ok := t.alphabet.trigram(tri)
	if !ok {
		return 0, false
	}
	return t.Get(i, j, k), true
}

// MaxNext returns the largest value among trigrams starting with (j, k).
func (t *Table) MaxNext(j, k int) float64 {
	base := cell(t.n, j, k, 0)
	best := t.values[base]
	for l := 1; l < t.n; l++ {
		if v := t.values[base+l]; v > best {
			best = v
		}
	}
	return best
}

// NonZero returns the number of cells with a non-zero value.
func (t *Table) NonZero() int {
	count := 0
	for _, v := range t.values {
		if v != 0 {
			count++
		}
	}
	return count
}

// Hardest returns up to n trigrams with the highest positive values.
func (t *Table) Hardest(n int) []model.TrigramValue {
	if n <= 0 {
		return nil
	}
	var out []model.TrigramValue
	t.each(func(i, j, k int, v float64) {
		if v <= 0 {
			return
		}
		out = append(out, model.TrigramValue{Trigram: t.trigramString(i, j, k), Value: v})
	})
	sort.Slice(out, func(a, b int) bool {
		if out[a].Value == out[b].Value {
			return out[a].Trigram < out[b].Trigram
		}
		return out[a].Value > out[b].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// each visits non-zero cells in nested index order.
func (t *Table) each(fn func(i, j, k int, v float64)) {
	for i := 0; i < t.n; i++ {
		for j := 0; j < t.n; j++ {
			for k := 0; k < t.n; k++ {
				v := t.values[cell(t.n, i, j, k)]
				if v == 0 {
					continue
				}
				fn(i, j, k, v)
			}
		}
	}
}

func (t *Table) trigramString(i, j, k int) string {
	return string([]rune{t.alphabet.Rune(i), t.alphabet.Rune(j), t.alphabet.Rune(k)})
}
