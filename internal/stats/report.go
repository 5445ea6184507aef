// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/keyai/internal/model"
	"github.com/verte-zerg/keyai/internal/store"
)

// TrigramRow joins a learned value with observed latencies.
type TrigramRow struct {
	Trigram      string
	Value        float64
	AvgLatencyMs float64
	Seen         int64
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Lifetime model.Lifetime
	Rounds   []model.RoundAggregate
	Hardest  []TrigramRow
	Slowest  []TrigramRow
}

// BuildReport loads history from the store and joins it with the hardest
// learned trigrams.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig, hardest []model.TrigramValue) (Report, error) {
	life, err := st.Lifetime(ctx)
	if err != nil {
		return Report{}, err
	}
	rounds, err := st.ListRounds(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	latencies, err := st.TrigramLatencies(ctx, cfg.CurveWindow)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Lifetime: life,
		Rounds:   rounds,
		Hardest:  JoinLatencies(hardest, latencies),
		Slowest:  SlowestTrigrams(latencies, cfg.TopTrigrams),
	}, nil
}

// JoinLatencies attaches observed latencies to learned values, keeping the
// order of values.
func JoinLatencies(values []model.TrigramValue, latencies []model.TrigramLatency) []TrigramRow {
	byTrigram := make(map[string]model.TrigramLatency, len(latencies))
	for _, l := range latencies {
		byTrigram[l.Trigram] = l
	}
	rows := make([]TrigramRow, 0, len(values))
	for _, v := range values {
		row := TrigramRow{Trigram: v.Trigram, Value: v.Value}
		if l, ok := byTrigram[v.Trigram]; ok && l.LatencyCount > 0 {
			row.AvgLatencyMs = float64(l.LatencySumMs) / float64(l.LatencyCount)
			row.Seen = l.LatencyCount
		}
		rows = append(rows, row)
	}
	return rows
}

// SlowestTrigrams returns the top trigrams by mean observed latency.
func SlowestTrigrams(latencies []model.TrigramLatency, top int) []TrigramRow {
	if top <= 0 {
		return nil
	}
	rows := make([]TrigramRow, 0, len(latencies))
	for _, l := range latencies {
		if l.LatencyCount == 0 {
			continue
		}
		rows = append(rows, TrigramRow{
			Trigram:      l.Trigram,
			AvgLatencyMs: float64(l.LatencySumMs) / float64(l.LatencyCount),
			Seen:         l.LatencyCount,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgLatencyMs == rows[j].AvgLatencyMs {
			return rows[i].Trigram < rows[j].Trigram
		}
		return rows[i].AvgLatencyMs > rows[j].AvgLatencyMs
	})
	if len(rows) > top {
		rows = rows[:top]
	}
	return rows
}

// TrigramTable returns headers and cells for trigram rows.
func TrigramTable(rows []TrigramRow) ([]string, [][]string) {
	headers := []string{"Trigram", "Learned", "Avg Latency (ms)", "Seen"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		learned := "-"
		if r.Value != 0 {
			learned = fmt.Sprintf("%.1f", r.Value)
		}
		latency := "-"
		if r.Seen > 0 {
			latency = fmt.Sprintf("%.1f", r.AvgLatencyMs)
		}
		cells = append(cells, []string{TrigramLabel(r.Trigram), learned, latency, fmt.Sprintf("%d", r.Seen)})
	}
	return headers, cells
}

// RenderTrigramTable prints a titled trigram table.
func RenderTrigramTable(w io.Writer, title string, rows []TrigramRow) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No trigram data yet.")
		return err
	}
	headers, cells := TrigramTable(rows)
	for _, line := range formatTable(headers, cells, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderReport prints the full plain-text report.
func RenderReport(w io.Writer, report Report, window, width int) error {
	if err := RenderSummary(w, report.Lifetime, report.Rounds); err != nil {
		return err
	}
	if err := RenderCurves(w, report.Rounds, window, width); err != nil {
		return err
	}
	if err := RenderTrigramTable(w, "Hardest Trigrams (learned)", report.Hardest); err != nil {
		return err
	}
	return RenderTrigramTable(w, "Slowest Trigrams (observed)", report.Slowest)
}
