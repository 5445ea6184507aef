package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles accepted characters, the cursor, and the rest of
// the target. The cursor turns red while mistyped keystrokes are pending.
func buildStyledRunes(target []rune, position, pending int) []styledRune {
	wordStart, wordEnd := wordBounds(target, position)
	out := make([]styledRune, len(target))
	for i, r := range target {
		shown := r
		style := pendingStyle
		switch {
		case i < position:
			style = correctStyle
		case i == position && pending > 0:
			style = mistypedStyle
			if r == ' ' {
				shown = '•'
			}
		case i == position:
			style = cursorStyle
		case r != ' ' && i >= wordStart && i < wordEnd:
			style = currentWordStyle
		}
		out[i] = styledRune{
			s:       style.Render(string(shown)),
			width:   runewidth.RuneWidth(shown),
			isSpace: r == ' ',
		}
	}
	return out
}

// wordBounds returns the word the cursor is in, or the next word when the
// cursor sits on a space.
func wordBounds(target []rune, position int) (int, int) {
	start := position
	for start < len(target) && target[start] == ' ' {
		start++
	}
	if start >= len(target) {
		return len(target), len(target)
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return start, end
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// segment is a run of non-space runes or a single space.
type segment struct {
	runes []styledRune
	width int
	space bool
}

func segments(runes []styledRune) []segment {
	var out []segment
	for i := 0; i < len(runes); {
		if runes[i].isSpace {
			out = append(out, segment{runes: runes[i : i+1], width: runes[i].width, space: true})
			i++
			continue
		}
		j, width := i, 0
		for j < len(runes) && !runes[j].isSpace {
			width += runes[j].width
			j++
		}
		out = append(out, segment{runes: runes[i:j], width: width})
		i = j
	}
	return out
}

// wrapStyledRunes lays words out greedily within width. A space that falls on
// a line break is dropped and words wider than a line are split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var lines []string
	var line strings.Builder
	used := 0
	var space *segment
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		used = 0
	}
	for _, seg := range segments(runes) {
		seg := seg
		if seg.space {
			if space != nil {
				line.WriteString(renderStyledRunes(space.runes))
				used += space.width
			}
			space = &seg
			continue
		}
		gap := 0
		if space != nil {
			gap = space.width
		}
		if used > 0 && used+gap+seg.width > width {
			flush()
		} else if space != nil {
			line.WriteString(renderStyledRunes(space.runes))
			used += gap
		}
		space = nil
		for _, item := range seg.runes {
			if used > 0 && used+item.width > width {
				flush()
			}
			line.WriteString(item.s)
			used += item.width
		}
	}
	if space != nil {
		line.WriteString(renderStyledRunes(space.runes))
	}
	lines = append(lines, line.String())
	return strings.Join(lines, "\n")
}
