// Package stats derives descriptive statistics from a parsed GenBank record:
// length, GC content, windowed GC profile, base composition and the feature
// type histogram.
//
// Every function is a pure read of the record, so one record may be shared by
// concurrent callers without locking.
package stats

import (
	"math"

	"genex/internal/genbank"
)

// DefaultWindowSize is the GC profile window used when callers have no
// preference.
const DefaultWindowSize = 100

// TypeCount is one bar of a feature type histogram.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Histogram counts feature types in the order each type is first seen.
type Histogram []TypeCount

// Get returns the count for typ, or 0.
func (h Histogram) Get(typ string) int {
	for _, tc := range h {
		if tc.Type == typ {
			return tc.Count
		}
	}
	return 0
}

// Total sums all counts.
func (h Histogram) Total() int {
	n := 0
	for _, tc := range h {
		n += tc.Count
	}
	return n
}

// BaseCount is the number of occurrences of one sequence character.
type BaseCount struct {
	Base  string `json:"base"`
	Count int    `json:"count"`
}

// Composition counts every distinct sequence character in first-seen order.
type Composition []BaseCount

// Get returns the count for base, or 0.
func (c Composition) Get(base string) int {
	for _, bc := range c {
		if bc.Base == base {
			return bc.Count
		}
	}
	return 0
}

// Total sums all counts.
func (c Composition) Total() int {
	n := 0
	for _, bc := range c {
		n += bc.Count
	}
	return n
}

// Summary is the aggregate view of a record.
type Summary struct {
	TotalLength  int       `json:"total_length"`
	GCContent    float64   `json:"gc_content"`
	FeatureCount int       `json:"feature_count"`
	FeatureTypes Histogram `json:"feature_type_histogram"`
	MoleculeType string    `json:"molecular_type"`
	Topology     string    `json:"topology"`
}

// Summarize computes length, GC percentage (two decimals), feature counts and
// the molecule type / topology annotations.
func Summarize(rec *genbank.Record) (Summary, error) {
	n := len(rec.Sequence)
	if n == 0 {
		return Summary{}, &EmptySequenceError{Op: "summary"}
	}
	return Summary{
		TotalLength:  n,
		GCContent:    gcPercent(rec.Sequence),
		FeatureCount: len(rec.Features),
		FeatureTypes: FeatureDistribution(rec),
		MoleculeType: rec.MoleculeType(),
		Topology:     rec.Topology(),
	}, nil
}

// GCProfile returns the GC percentage of each full, non-overlapping window of
// size window, scanning from the start of the sequence. A trailing remainder
// shorter than window is dropped.
func GCProfile(rec *genbank.Record, window int) ([]float64, error) {
	n := len(rec.Sequence)
	if n == 0 {
		return nil, &EmptySequenceError{Op: "gc profile"}
	}
	if window <= 0 || window > n {
		return nil, &InvalidWindowError{Size: window, Length: n}
	}
	profile := make([]float64, 0, n/window)
	for start := 0; start+window <= n; start += window {
		profile = append(profile, gcPercent(rec.Sequence[start:start+window]))
	}
	return profile, nil
}

// BaseComposition counts every character of the sequence.
func BaseComposition(rec *genbank.Record) (Composition, error) {
	if len(rec.Sequence) == 0 {
		return nil, &EmptySequenceError{Op: "base composition"}
	}
	var counts [256]int
	var order []byte
	seq := rec.Sequence
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	comp := make(Composition, 0, len(order))
	for _, c := range order {
		comp = append(comp, BaseCount{Base: string(rune(c)), Count: counts[c]})
	}
	return comp, nil
}

// FeatureDistribution counts features by type. It does not look at the
// sequence and is defined for records without one.
func FeatureDistribution(rec *genbank.Record) Histogram {
	hist := Histogram{}
	index := make(map[string]int, 8)
	for _, f := range rec.Features {
		i, ok := index[f.Type]
		if !ok {
			i = len(hist)
			index[f.Type] = i
			hist = append(hist, TypeCount{Type: f.Type})
		}
		hist[i].Count++
	}
	return hist
}

// gcPercent counts G and C in either case. seq must be non-empty.
func gcPercent(seq string) float64 {
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		}
	}
	return round2(float64(gc) / float64(len(seq)) * 100)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
