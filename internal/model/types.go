// Package model defines shared data structures.
package model

import "time"

// Config defines practice and learning settings.
type Config struct {
	CorpusURL  string
	CorpusPath string
	Charset    string
	LineLength int

	ExplorationLow  float64
	ExplorationHigh float64
	Rounds          int
	LearningRate    float64
	Discount        float64
	Seed            int64

	SkipEnabled bool
	SkipWindow  int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
	TopTrigrams int
}

// Observation is the time it took to type the last character of a trigram.
type Observation struct {
	Trigram   [3]rune
	ElapsedMs int64
}

// TrigramString returns the trigram as a string.
func (o Observation) TrigramString() string {
	return string(o.Trigram[:])
}

// RoundStats captures a completed practice round.
type RoundStats struct {
	SessionID       string
	StartedAt       time.Time
	EndedAt         time.Time
	Target          string
	Observations    int
	Mistakes        int
	WPM             *float64
	Accuracy        *float64
	ExplorationRate float64
	DurationMs      int64
}

// RoundAggregate summarizes a stored round for reporting.
type RoundAggregate struct {
	RoundID      int64
	EndedAt      time.Time
	Observations int
	Mistakes     int
	WPM          *float64
	Accuracy     *float64
}

// Lifetime holds totals across every stored round.
type Lifetime struct {
	Rounds      int
	Chars       int64
	Mistakes    int64
	MaxWPM      float64
	MaxAccuracy float64
}

// TrigramLatency is the mean observed latency of a trigram.
type TrigramLatency struct {
	Trigram      string
	LatencySumMs int64
	LatencyCount int64
}

// TrigramValue is a learned value for a trigram.
type TrigramValue struct {
	Trigram string
	Value   float64
}
