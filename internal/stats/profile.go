package stats

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"
)

// ProfileSummary describes the spread of a GC profile.
type ProfileSummary struct {
	Windows int     `json:"windows"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stddev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// SummarizeProfile reduces a GC profile to mean, median, population standard
// deviation and range, each rounded to two decimals.
func SummarizeProfile(profile []float64) (ProfileSummary, error) {
	data := mstats.Float64Data(profile)
	mean, err := mstats.Mean(data)
	if err != nil {
		return ProfileSummary{}, fmt.Errorf("stats: summarize profile: %w", err)
	}
	median, err := mstats.Median(data)
	if err != nil {
		return ProfileSummary{}, fmt.Errorf("stats: summarize profile: %w", err)
	}
	sd, err := mstats.StandardDeviationPopulation(data)
	if err != nil {
		return ProfileSummary{}, fmt.Errorf("stats: summarize profile: %w", err)
	}
	lo, err := mstats.Min(data)
	if err != nil {
		return ProfileSummary{}, fmt.Errorf("stats: summarize profile: %w", err)
	}
	hi, err := mstats.Max(data)
	if err != nil {
		return ProfileSummary{}, fmt.Errorf("stats: summarize profile: %w", err)
	}
	return ProfileSummary{
		Windows: len(profile),
		Mean:    round2(mean),
		Median:  round2(median),
		StdDev:  round2(sd),
		Min:     lo,
		Max:     hi,
	}, nil
}
