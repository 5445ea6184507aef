// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keyai/internal/model"
	"github.com/verte-zerg/keyai/internal/qlearn"
	"github.com/verte-zerg/keyai/internal/reconcile"
	statsPkg "github.com/verte-zerg/keyai/internal/stats"
)

// RoundStore records completed rounds.
type RoundStore interface {
	InsertRound(ctx context.Context, stats model.RoundStats, obs []model.Observation) (int64, error)
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config      model.Config
	engine      *qlearn.Engine
	store       RoundStore
	modelPath   string
	sessionID   string
	modelLoaded bool
	saved       bool
	now         func() time.Time

	width  int
	height int

	rec       *reconcile.Reconciler
	startedAt time.Time

	lastMetrics reconcile.Metrics
	hasLast     bool
	completed   int
	aborted     bool
	errMsg      string
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	mistypedStyle    = incorrectStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a typing TUI model and generates the first round.
func NewModel(cfg model.Config, engine *qlearn.Engine, store RoundStore, modelPath, sessionID string, modelLoaded bool) *Model {
	m := &Model{
		config:      cfg,
		engine:      engine,
		store:       store,
		modelPath:   modelPath,
		sessionID:   sessionID,
		modelLoaded: modelLoaded,
		now:         time.Now,
	}
	m.startRound()
	return m
}

// Aborted reports whether the user left with Esc or Ctrl+C.
func (m *Model) Aborted() bool {
	return m.aborted
}

// Completed returns the number of rounds finished in this session.
func (m *Model) Completed() int {
	return m.completed
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.rec.Abort()
			m.aborted = true
			return m, tea.Quit
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	target := m.rec.Target()
	if len(target) == 0 {
		return ""
	}
	styledRunes := buildStyledRunes(target, m.rec.Position(), len(m.rec.Pending()))
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		if m.rec.Type(r, m.now()) == reconcile.Done {
			m.finishRound()
			m.startRound()
		}
	}
}

func (m *Model) startRound() {
	target := m.engine.Target(m.config.LineLength)
	m.startedAt = m.now()
	m.rec = reconcile.New(target, reconcile.Config{
		SkipEnabled: m.config.SkipEnabled,
		SkipWindow:  m.config.SkipWindow,
	}, m.startedAt)
}

func (m *Model) finishRound() {
	round, err := m.rec.Result()
	if err != nil {
		return
	}
	rate := m.engine.Schedule().Rate
	m.engine.Update(round.Observations)
	if err := m.engine.FinishRound(m.modelPath); err != nil {
		m.errMsg = err.Error()
		m.saved = false
		logErrf("%v\n", err)
	} else {
		m.errMsg = ""
		m.saved = m.modelPath != ""
	}
	m.lastMetrics = round.Metrics
	m.hasLast = true
	m.completed++

	if m.store == nil {
		return
	}
	endedAt := m.now()
	stats := model.RoundStats{
		SessionID:       m.sessionID,
		StartedAt:       m.startedAt,
		EndedAt:         endedAt,
		Target:          string(m.rec.Target()),
		Observations:    len(round.Observations),
		Mistakes:        round.Mistakes,
		ExplorationRate: rate,
		DurationMs:      endedAt.Sub(m.startedAt).Milliseconds(),
	}
	if round.Metrics.HasWPM {
		wpm := round.Metrics.WPM
		stats.WPM = &wpm
	}
	if round.Metrics.HasAccuracy {
		acc := round.Metrics.Accuracy
		stats.Accuracy = &acc
	}
	if _, err := m.store.InsertRound(context.Background(), stats, round.Observations); err != nil {
		logErrf("failed to save round: %v\n", err)
	}
}

func (m *Model) renderFooter() string {
	schedule := m.engine.Schedule()
	segments := []string{
		fmt.Sprintf("Round %d/%d", schedule.Round+1, schedule.Rounds),
		fmt.Sprintf("Explore %.2f", schedule.Rate),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %s WPM · %s",
			statsPkg.FormatOptional("%.1f", optional(m.lastMetrics.WPM, m.lastMetrics.HasWPM)),
			statsPkg.FormatOptional("%.1f%%", optional(m.lastMetrics.Accuracy, m.lastMetrics.HasAccuracy)),
		))
	}
	if m.modelLoaded {
		segments = append(segments, "loaded model")
	} else {
		segments = append(segments, "fresh model")
	}
	if m.saved {
		segments = append(segments, "saved")
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.errMsg != "" {
		footer += "  " + errorStyle.Render(m.errMsg)
	}
	return footer
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
