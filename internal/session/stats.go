package session

import "sort"

// RunStats summarizes the timings and outcomes of a collection run
type RunStats struct {
	Sent          int
	Passed        int
	Failed        int
	Skipped       int
	NetworkErrors int
	Durations     []int64 // sorted, milliseconds
	TotalMs       int64
}

// Summarize computes RunStats over results
func Summarize(results []RunResult) RunStats {
	var s RunStats
	for _, r := range results {
		if r.Skipped {
			s.Skipped++
			continue
		}
		s.Sent++
		s.TotalMs += r.Response.Duration
		s.Durations = append(s.Durations, r.Response.Duration)

		switch {
		case r.Response.IsNetworkError():
			s.NetworkErrors++
			s.Failed++
		case r.Failed():
			s.Failed++
		default:
			s.Passed++
		}
	}
	sort.Slice(s.Durations, func(i, j int) bool { return s.Durations[i] < s.Durations[j] })
	return s
}

// Avg returns the mean duration in milliseconds
func (s RunStats) Avg() float64 {
	if s.Sent == 0 {
		return 0
	}
	return float64(s.TotalMs) / float64(s.Sent)
}

// Min returns the fastest duration, or 0 if nothing was sent
func (s RunStats) Min() int64 {
	if len(s.Durations) == 0 {
		return 0
	}
	return s.Durations[0]
}

// Max returns the slowest duration, or 0 if nothing was sent
func (s RunStats) Max() int64 {
	if len(s.Durations) == 0 {
		return 0
	}
	return s.Durations[len(s.Durations)-1]
}

// Percentile interpolates linearly between the closest ranks (p in 0..100)
func (s RunStats) Percentile(p float64) int64 {
	if len(s.Durations) == 0 {
		return 0
	}

	index := (p / 100.0) * float64(len(s.Durations)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(s.Durations) {
		return s.Durations[len(s.Durations)-1]
	}

	weight := index - float64(lower)
	return int64(float64(s.Durations[lower])*(1-weight) + float64(s.Durations[upper])*weight)
}

// P50 returns the median duration
func (s RunStats) P50() int64 {
	return s.Percentile(50)
}

// P95 returns the 95th percentile duration
func (s RunStats) P95() int64 {
	return s.Percentile(95)
}
