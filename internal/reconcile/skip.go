package reconcile

// Match is a committed skip recovery.
type Match struct {
	// Deltas holds the time taken for each window character, in window order.
	Deltas []int64
	// Mistakes is the skipped target character plus the unmatched keystrokes
	// found between matched ones.
	Mistakes int
}

// MatchSkip looks for every window character, in order, among the pending
// keystrokes, consuming each keystroke at most once. Keystrokes before the
// first match are not counted. It reports false unless the whole window matches.
func MatchSkip(pending []Keystroke, window []rune) (Match, bool) {
	if len(window) == 0 {
		return Match{}, false
	}
	deltas := make([]int64, 0, len(window))
	unmatched := 0
	cursor := 0
	var prevElapsed int64
	for w, want := range window {
		found := -1
		for p := cursor; p < len(pending); p++ {
			if pending[p].Char == want {
				found = p
				break
			}
		}
		if found < 0 {
			return Match{}, false
		}
		if w > 0 {
			unmatched += found - cursor
		}
		deltas = append(deltas, pending[found].ElapsedMs-prevElapsed)
		prevElapsed = pending[found].ElapsedMs
		cursor = found + 1
	}
	return Match{Deltas: deltas, Mistakes: unmatched + 1}, true
}
