// Package qlearn implements the trigram model that learns which character
// sequences are slow for the user and generates practice text from it.
package qlearn

// Alphabet maps corpus characters to dense indices in first-occurrence order.
type Alphabet struct {
	runes []rune
	index map[rune]int
}

// NewAlphabet builds an alphabet from the runes of text.
func NewAlphabet(text []rune) *Alphabet {
	a := &Alphabet{index: map[rune]int{}}
	for _, r := range text {
		if _, ok := a.index[r]; ok {
			continue
		}
		a.index[r] = len(a.runes)
		a.runes = append(a.runes, r)
	}
	return a
}

// Len returns the number of distinct characters.
func (a *Alphabet) Len() int {
	return len(a.runes)
}

// Index returns the index of r and whether r belongs to the alphabet.
func (a *Alphabet) Index(r rune) (int, bool) {
	i, ok := a.index[r]
	return i, ok
}

// Rune returns the character at index i.
func (a *Alphabet) Rune(i int) rune {
	return a.runes[i]
}

// Runes returns a copy of the characters in index order.
func (a *Alphabet) Runes() []rune {
	out := make([]rune, len(a.runes))
	copy(out, a.runes)
	return out
}

func (a *Alphabet) trigram(r [3]rune) (i, j, k int, ok bool) {
	if i, ok = a.index[r[0]]; !ok {
		return 0, 0, 0, false
	}
	if j, ok = a.index[r[1]]; !ok {
		return 0, 0, 0, false
	}
	if k, ok = a.index[r[2]]; !ok {
		return 0, 0, 0, false
	}
	return i, j, k, true
}
