// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/keyai/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample stretches or shrinks values to width points by averaging buckets.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		lo := i * len(values) / width
		hi := (i + 1) * len(values) / width
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// WPMSeries returns the WPM of rounds where it is defined.
func WPMSeries(rounds []model.RoundAggregate) []float64 {
	out := make([]float64, 0, len(rounds))
	for _, r := range rounds {
		if r.WPM != nil {
			out = append(out, *r.WPM)
		}
	}
	return out
}

// AccuracySeries returns the accuracy of rounds where it is defined.
func AccuracySeries(rounds []model.RoundAggregate) []float64 {
	out := make([]float64, 0, len(rounds))
	for _, r := range rounds {
		if r.Accuracy != nil {
			out = append(out, *r.Accuracy)
		}
	}
	return out
}

// Mean returns the arithmetic mean, or zero for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// FormatOptional formats v with format, or "-" when v is nil.
func FormatOptional(format string, v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// RenderSummary prints lifetime totals.
func RenderSummary(w io.Writer, life model.Lifetime, rounds []model.RoundAggregate) error {
	if life.Rounds == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %d", life.Rounds),
		fmt.Sprintf("Characters: %d", life.Chars),
		fmt.Sprintf("Mistakes: %d", life.Mistakes),
		fmt.Sprintf("Best WPM: %.2f", life.MaxWPM),
		fmt.Sprintf("Best Accuracy: %.2f%%", life.MaxAccuracy),
		fmt.Sprintf("Avg WPM (shown): %.2f", Mean(WPMSeries(rounds))),
		fmt.Sprintf("Avg Accuracy (shown): %.2f%%", Mean(AccuracySeries(rounds))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints moving-average sparklines for WPM and accuracy.
func RenderCurves(w io.Writer, rounds []model.RoundAggregate, window, width int) error {
	if len(rounds) == 0 {
		return nil
	}
	series := []struct {
		name   string
		values []float64
	}{
		{"WPM", WPMSeries(rounds)},
		{"Accuracy", AccuracySeries(rounds)},
	}
	if _, err := fmt.Fprintf(w, "Learning Curves (window %d)\n", window); err != nil {
		return err
	}
	labelWidth := len("Accuracy") + 1
	plotWidth := max(width-labelWidth-24, 10)
	for _, s := range series {
		if len(s.values) == 0 {
			continue
		}
		smoothed := MovingAverage(s.values, window)
		line := Sparkline(Resample(smoothed, plotWidth))
		minVal, maxVal := smoothed[0], smoothed[0]
		for _, v := range smoothed {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
		if _, err := fmt.Fprintf(w, "%-*s %s  min %.1f max %.1f\n", labelWidth, s.name, line, minVal, maxVal); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
