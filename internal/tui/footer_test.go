package tui

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keyai/internal/model"
	"github.com/verte-zerg/keyai/internal/qlearn"
	"github.com/verte-zerg/keyai/internal/reconcile"
)

type fakeStore struct {
	rounds []model.RoundStats
	obs    [][]model.Observation
	err    error
}

func (f *fakeStore) InsertRound(_ context.Context, stats model.RoundStats, obs []model.Observation) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rounds = append(f.rounds, stats)
	f.obs = append(f.obs, obs)
	return int64(len(f.rounds)), nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) tick() time.Time {
	c.now = c.now.Add(200 * time.Millisecond)
	return c.now
}

func newTestModel(t *testing.T, st RoundStore, modelPath string) *Model {
	t.Helper()
	engine, err := qlearn.New("the cat sat on the mat", qlearn.Params{
		LearningRate:    0.5,
		Discount:        0.9,
		ExplorationLow:  0.2,
		ExplorationHigh: 1.0,
		Rounds:          4,
	}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := &Model{
		config:    model.Config{LineLength: 12, SkipEnabled: true, SkipWindow: 2},
		engine:    engine,
		store:     st,
		modelPath: modelPath,
		sessionID: "test-session",
		now:       clock.tick,
	}
	m.startRound()
	return m
}

func typeTarget(m *Model) string {
	target := string(m.rec.Target())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(target)})
	return target
}

func TestCompletedRoundUpdatesModelAndStore(t *testing.T) {
	st := &fakeStore{}
	path := filepath.Join(t.TempDir(), "model.txt")
	m := newTestModel(t, st, path)

	target := typeTarget(m)
	if m.Completed() != 1 {
		t.Fatalf("expected 1 completed round, got %d", m.Completed())
	}
	if len(st.rounds) != 1 {
		t.Fatalf("expected stored round, got %d", len(st.rounds))
	}
	stored := st.rounds[0]
	if stored.Target != target || stored.SessionID != "test-session" || stored.ExplorationRate != 1.0 {
		t.Fatalf("unexpected stored round: %+v", stored)
	}
	if stored.Mistakes != 0 || stored.Accuracy == nil || *stored.Accuracy != 100 {
		t.Fatalf("unexpected accuracy: %+v", stored)
	}
	if stored.Observations != len([]rune(target))-2 {
		t.Fatalf("expected one observation per position from 2, got %d", stored.Observations)
	}
	if m.engine.Schedule().Round != 1 {
		t.Fatalf("expected schedule to advance")
	}
	if m.engine.Values().NonZero() == 0 {
		t.Fatalf("expected value table to be updated")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected model file to be written: %v", err)
	}
	footer := m.renderFooter()
	if !containsAll(footer, []string{"fresh model", "saved"}) || strings.Contains(footer, "loaded model") {
		t.Fatalf("expected startup status kept after save: %s", footer)
	}
	if m.rec.Status() != reconcile.Typing || m.rec.Position() != 0 {
		t.Fatalf("expected a fresh round to start")
	}
}

func TestEscapeAbortsWithoutLearning(t *testing.T) {
	st := &fakeStore{}
	path := filepath.Join(t.TempDir(), "model.txt")
	m := newTestModel(t, st, path)

	target := m.rec.Target()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: target[:len(target)-1]})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if !m.Aborted() || m.Completed() != 0 {
		t.Fatalf("expected aborted session with no completed rounds")
	}
	if m.engine.Values().NonZero() != 0 || m.engine.Schedule().Round != 0 {
		t.Fatalf("expected model untouched after abort")
	}
	if len(st.rounds) != 0 {
		t.Fatalf("expected no stored rounds")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no model file after abort")
	}
}

func TestSaveFailureShownInFooter(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	st := &fakeStore{err: errors.New("db down")}
	m := newTestModel(t, st, filepath.Join(blocker, "model.txt"))
	typeTarget(m)
	if m.errMsg == "" {
		t.Fatalf("expected save error to be recorded")
	}
	if !strings.Contains(m.renderFooter(), "failed to save model") {
		t.Fatalf("expected save error in footer: %s", m.renderFooter())
	}
	if m.saved {
		t.Fatalf("expected no saved marker after a failed save")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, nil, "")
	m.hasLast = true
	m.lastMetrics = reconcile.Metrics{WPM: 72.4, HasWPM: true, Accuracy: 97.8, HasAccuracy: true}
	out := m.renderFooter()
	if !containsAll(out, []string{"Round 1/4", "Explore 1.00", "Last 72.4 WPM", "97.8%", "fresh model"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}

	m.lastMetrics = reconcile.Metrics{}
	m.modelLoaded = true
	out = m.renderFooter()
	if !containsAll(out, []string{"Last - WPM · -", "loaded model"}) {
		t.Fatalf("footer missing undefined metrics: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
