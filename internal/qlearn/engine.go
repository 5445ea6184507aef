package qlearn

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/verte-zerg/keyai/internal/model"
)

// ErrCorpusTooShort is returned when the corpus has fewer than three characters.
var ErrCorpusTooShort = errors.New("corpus must contain at least three characters")

// Params configures the value update and the exploration schedule.
type Params struct {
	LearningRate    float64
	Discount        float64
	ExplorationLow  float64
	ExplorationHigh float64
	Rounds          int
}

// Engine owns the tables built from one corpus and the learned values.
type Engine struct {
	alphabet *Alphabet
	occ      *Occurrences
	values   *Table
	gen      *Generator
	schedule Schedule
	alpha    float64
	gamma    float64
}

// New builds the alphabet and occurrence counts from an already filtered corpus.
func New(corpus string, p Params, rnd *rand.Rand) (*Engine, error) {
	text := []rune(corpus)
	if len(text) < 3 {
		return nil, ErrCorpusTooShort
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return nil, fmt.Errorf("learning rate must be in (0, 1]")
	}
	if p.Discount < 0 || p.Discount > 1 {
		return nil, fmt.Errorf("discount must be in [0, 1]")
	}
	schedule, err := NewSchedule(p.ExplorationLow, p.ExplorationHigh, p.Rounds)
	if err != nil {
		return nil, err
	}
	alphabet := NewAlphabet(text)
	occ := CountOccurrences(alphabet, text)
	values := NewTable(alphabet)
	return &Engine{
		alphabet: alphabet,
		occ:      occ,
		values:   values,
		gen:      NewGenerator(alphabet, occ, values, text, rnd),
		schedule: schedule,
		alpha:    p.LearningRate,
		gamma:    p.Discount,
	}, nil
}

// Alphabet returns the corpus alphabet.
func (e *Engine) Alphabet() *Alphabet { return e.alphabet }

// Occurrences returns the corpus trigram counts.
func (e *Engine) Occurrences() *Occurrences { return e.occ }

// Values returns the learned value table.
func (e *Engine) Values() *Table { return e.values }

// Generator returns the text generator.
func (e *Engine) Generator() *Generator { return e.gen }

// Schedule returns the current exploration schedule.
func (e *Engine) Schedule() Schedule { return e.schedule }

// Load hydrates the value table from path and reports whether any entry was loaded.
func (e *Engine) Load(path string) (bool, error) {
	return e.values.LoadFile(path)
}

// Target generates the practice string for the current round.
func (e *Engine) Target(maxLength int) string {
	return e.gen.RandomString(maxLength, e.schedule.Rate)
}

// Update applies the bootstrapped value update for each observation in
// order, in place. Observations with characters outside the alphabet are
// ignored. It returns the number of applied observations.
func (e *Engine) Update(observations []model.Observation) int {
	applied := 0
	for _, obs := range observations {
		i, j, k, ok := e.alphabet.trigram(obs.Trigram)
		if !ok {
			continue
		}
		future := e.values.MaxNext(j, k)
		old := e.values.Get(i, j, k)
		e.values.Set(i, j, k, (1-e.alpha)*old+e.alpha*(float64(obs.ElapsedMs)+e.gamma*future))
		applied++
	}
	return applied
}

// FinishRound advances the exploration schedule and, when modelPath is not
// empty, rewrites the persisted model.
func (e *Engine) FinishRound(modelPath string) error {
	e.schedule = e.schedule.Advance()
	if modelPath == "" {
		return nil
	}
	if err := e.values.SaveFile(modelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}
