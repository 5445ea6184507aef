package qlearn

// Occurrences counts how often each trigram appears in the corpus.
type Occurrences struct {
	n      int
	counts []int
}

// CountOccurrences slides a three-character window over text.
// Every rune of text must belong to a.
func CountOccurrences(a *Alphabet, text []rune) *Occurrences {
	n := a.Len()
	o := &Occurrences{n: n, counts: make([]int, n*n*n)}
	for p := 2; p < len(text); p++ {
		i, j, k, ok := a.trigram([3]rune{text[p-2], text[p-1], text[p]})
		if !ok {
			continue
		}
		o.counts[cell(n, i, j, k)]++
	}
	return o
}

// Count returns the corpus count of trigram (i, j, k).
func (o *Occurrences) Count(i, j, k int) int {
	return o.counts[cell(o.n, i, j, k)]
}

func cell(n, i, j, k int) int {
	return i*n*n + j*n + k
}
