package qlearn

import "fmt"

// Schedule decays the exploration rate from High to Low over Rounds rounds
// and then starts over.
type Schedule struct {
	Rate   float64
	Round  int
	Rounds int
	High   float64
	Low    float64
}

// NewSchedule returns a schedule positioned at round zero.
func NewSchedule(low, high float64, rounds int) (Schedule, error) {
	if rounds <= 0 {
		return Schedule{}, fmt.Errorf("rounds must be > 0")
	}
	if low < 0 || high > 1 || low > high {
		return Schedule{}, fmt.Errorf("exploration range must satisfy 0 <= low <= high <= 1")
	}
	s := Schedule{Rounds: rounds, High: high, Low: low}
	s.Rate = s.rateAt(0)
	return s, nil
}

// Advance returns the schedule for the next round.
func (s Schedule) Advance() Schedule {
	s.Round = (s.Round + 1) % s.Rounds
	s.Rate = s.rateAt(s.Round)
	return s
}

func (s Schedule) rateAt(round int) float64 {
	frac := float64(round) / float64(s.Rounds)
	rate := frac*s.Low + (1-frac)*s.High
	if rate < s.Low {
		rate = s.Low
	}
	if rate > s.High {
		rate = s.High
	}
	return rate
}
