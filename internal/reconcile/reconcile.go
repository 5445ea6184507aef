// Package reconcile turns raw keystrokes typed against a target string into
// per-trigram timing observations, recovering from typos along the way.
package reconcile

import (
	"errors"
	"time"

	"github.com/verte-zerg/keyai/internal/model"
)

// ErrAborted is returned by Result when the round was aborted.
var ErrAborted = errors.New("round aborted")

// ErrInProgress is returned by Result before the target is fully typed.
var ErrInProgress = errors.New("round in progress")

// Status is the state of a round.
type Status int

const (
	// Typing means the target is not fully typed yet.
	Typing Status = iota
	// Done means every target character was accepted.
	Done
	// Aborted means the user abandoned the round.
	Aborted
)

// Config enables typo skip recovery.
type Config struct {
	SkipEnabled bool
	SkipWindow  int
}

// Keystroke is a typed character that did not match the target, with the
// time since the last accepted character.
type Keystroke struct {
	Char      rune
	ElapsedMs int64
}

// Round is the outcome of a completed round.
type Round struct {
	Observations []model.Observation
	Mistakes     int
	Metrics      Metrics
}

// Reconciler tracks one round of typing against a fixed target.
type Reconciler struct {
	target       []rune
	cfg          Config
	status       Status
	position     int
	pending      []Keystroke
	observations []model.Observation
	mistakes     int
	lastAccept   time.Time
}

// New starts a round at start.
func New(target string, cfg Config, start time.Time) *Reconciler {
	r := &Reconciler{
		target:     []rune(target),
		cfg:        cfg,
		lastAccept: start,
	}
	if len(r.target) == 0 {
		r.status = Done
	}
	return r
}

// Type feeds one keystroke typed at the given time.
func (r *Reconciler) Type(ch rune, at time.Time) Status {
	if r.status != Typing {
		return r.status
	}
	elapsed := at.Sub(r.lastAccept).Milliseconds()
	if ch == r.target[r.position] {
		r.accept(elapsed, at)
		return r.status
	}
	r.pending = append(r.pending, Keystroke{Char: ch, ElapsedMs: elapsed})
	if r.cfg.SkipEnabled && r.cfg.SkipWindow > 0 && len(r.pending) >= r.cfg.SkipWindow {
		r.trySkip(at)
	}
	return r.status
}

// Abort ends the round and discards everything recorded so far.
func (r *Reconciler) Abort() {
	if r.status != Typing {
		return
	}
	r.status = Aborted
	r.pending = nil
	r.observations = nil
}

func (r *Reconciler) accept(elapsed int64, at time.Time) {
	r.observe(r.position, elapsed)
	if len(r.pending) > 0 {
		r.mistakes++
	}
	r.pending = r.pending[:0]
	r.advance(1, at)
}

func (r *Reconciler) trySkip(at time.Time) {
	start := r.position + 1
	if start >= len(r.target) {
		return
	}
	end := min(start+r.cfg.SkipWindow, len(r.target))
	match, ok := MatchSkip(r.pending, r.target[start:end])
	if !ok {
		return
	}
	for i, delta := range match.Deltas {
		r.observe(start+i, delta)
	}
	r.mistakes += match.Mistakes
	r.pending = r.pending[:0]
	r.advance(1+len(match.Deltas), at)
}

func (r *Reconciler) observe(pos int, elapsed int64) {
	if pos < 2 {
		return
	}
	r.observations = append(r.observations, model.Observation{
		Trigram:   [3]rune{r.target[pos-2], r.target[pos-1], r.target[pos]},
		ElapsedMs: elapsed,
	})
}

func (r *Reconciler) advance(n int, at time.Time) {
	r.position += n
	r.lastAccept = at
	if r.position >= len(r.target) {
		r.position = len(r.target)
		r.status = Done
	}
}

// Status returns the round state.
func (r *Reconciler) Status() Status { return r.status }

// Position returns the index of the next expected target character.
func (r *Reconciler) Position() int { return r.position }

// Target returns the target runes.
func (r *Reconciler) Target() []rune { return r.target }

// Pending returns the unmatched keystrokes since the last accepted character.
func (r *Reconciler) Pending() []Keystroke {
	out := make([]Keystroke, len(r.pending))
	copy(out, r.pending)
	return out
}

// Mistakes returns the number of mistakes counted so far.
func (r *Reconciler) Mistakes() int { return r.mistakes }

// Observations returns the observations recorded so far.
func (r *Reconciler) Observations() []model.Observation {
	out := make([]model.Observation, len(r.observations))
	copy(out, r.observations)
	return out
}

// Result returns the completed round.
func (r *Reconciler) Result() (Round, error) {
	switch r.status {
	case Aborted:
		return Round{}, ErrAborted
	case Typing:
		return Round{}, ErrInProgress
	}
	obs := r.Observations()
	return Round{
		Observations: obs,
		Mistakes:     r.mistakes,
		Metrics:      ComputeMetrics(obs, r.mistakes),
	}, nil
}
