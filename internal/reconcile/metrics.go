package reconcile

import "github.com/verte-zerg/keyai/internal/model"

// Metrics holds the speed and accuracy of a round. A figure is only
// meaningful when its Has flag is set.
type Metrics struct {
	WPM         float64
	HasWPM      bool
	Accuracy    float64
	HasAccuracy bool
}

// ComputeMetrics derives words per minute from observations after the first
// and accuracy as the share of observations without a mistake.
func ComputeMetrics(obs []model.Observation, mistakes int) Metrics {
	var m Metrics
	n := len(obs)
	if n == 0 {
		return m
	}
	m.Accuracy = float64(n-mistakes) * 100 / float64(n)
	if m.Accuracy < 0 {
		m.Accuracy = 0
	}
	m.HasAccuracy = true

	var sumMs int64
	for _, o := range obs[1:] {
		sumMs += o.ElapsedMs
	}
	if n < 2 || sumMs <= 0 {
		return m
	}
	m.WPM = float64(n-1) * 60000 / (5 * float64(sumMs))
	m.HasWPM = true
	return m
}
