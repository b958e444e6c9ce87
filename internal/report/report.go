// Package report formats a record and its statistics as the text panels and
// export documents handed to presentation and persistence layers.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"genex/internal/genbank"
	"genex/internal/stats"
)

const (
	ruleWidth   = 50
	originWidth = 60
)

var (
	doubleRule = strings.Repeat("=", ruleWidth)
	singleRule = strings.Repeat("-", ruleWidth)
)

// SourceInfo renders organism, taxonomy, accession and description.
func SourceInfo(rec *genbank.Record) string {
	var b strings.Builder
	b.WriteString("SOURCE INFORMATION\n" + doubleRule + "\n")
	taxonomy := genbank.NotAvailable
	if len(rec.Taxonomy) > 0 {
		taxonomy = strings.Join(rec.Taxonomy, ", ")
	}
	fmt.Fprintf(&b, "Organism: %s\n", rec.Organism)
	fmt.Fprintf(&b, "Taxonomy: %s\n", taxonomy)
	fmt.Fprintf(&b, "Accession: %s\n", rec.Accession)
	fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	return b.String()
}

// FeatureListing renders every feature with its location and qualifiers in
// file order.
func FeatureListing(rec *genbank.Record) string {
	var b strings.Builder
	for _, f := range rec.Features {
		b.WriteString(FeatureEntry(f))
		b.WriteString(singleRule + "\n")
	}
	return b.String()
}

// FeatureEntry renders a single feature: type, location and one line per
// qualifier key with its quoted values.
func FeatureEntry(f genbank.Feature) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\n", f.Type)
	fmt.Fprintf(&b, "Location: %s\n", f.Location)
	b.WriteString("Qualifiers:\n")
	for _, q := range f.Qualifiers {
		quoted := make([]string, len(q.Values))
		for i, v := range q.Values {
			quoted[i] = strconv.Quote(v)
		}
		fmt.Fprintf(&b, "  %s: %s\n", q.Key, strings.Join(quoted, ", "))
	}
	return b.String()
}

// Origin renders the sequence 60 residues per line, each line prefixed by its
// 1-based start position.
func Origin(rec *genbank.Record) string {
	var b strings.Builder
	b.WriteString("SEQUENCE\n" + doubleRule + "\n")
	seq := rec.Sequence
	for i := 0; i < len(seq); i += originWidth {
		fmt.Fprintf(&b, "%8d %s\n", i+1, seq[i:min(i+originWidth, len(seq))])
	}
	return b.String()
}

// Statistics renders a summary followed by its feature distribution.
func Statistics(s stats.Summary) string {
	var b strings.Builder
	b.WriteString("SEQUENCE STATISTICS\n" + doubleRule + "\n")
	fmt.Fprintf(&b, "Total Length: %d bp\n", s.TotalLength)
	fmt.Fprintf(&b, "GC Content: %s%%\n", formatPercent(s.GCContent))
	fmt.Fprintf(&b, "Total Features: %d\n", s.FeatureCount)
	fmt.Fprintf(&b, "Molecular Type: %s\n", s.MoleculeType)
	fmt.Fprintf(&b, "Topology: %s\n\n", s.Topology)
	b.WriteString(Distribution(s.FeatureTypes))
	return b.String()
}

// Distribution renders a feature type histogram in first-seen order.
func Distribution(h stats.Histogram) string {
	var b strings.Builder
	b.WriteString("Feature Distribution:\n" + strings.Repeat("-", 30) + "\n")
	for _, tc := range h {
		fmt.Fprintf(&b, "%s: %d\n", tc.Type, tc.Count)
	}
	return b.String()
}

// Composition renders base counts with their share of the sequence.
func Composition(c stats.Composition) string {
	var b strings.Builder
	b.WriteString("BASE COMPOSITION\n" + doubleRule + "\n")
	total := c.Total()
	for _, bc := range c {
		share := 0.0
		if total > 0 {
			share = float64(bc.Count) / float64(total) * 100
		}
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", bc.Base, bc.Count, share)
	}
	return b.String()
}

// Profile renders a GC profile, one window per line, with its summary.
func Profile(profile []float64, window int, ps stats.ProfileSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GC PROFILE (window size: %dbp)\n%s\n", window, doubleRule)
	for i, v := range profile {
		fmt.Fprintf(&b, "%8d %6s%%\n", i*window+1, formatPercent(v))
	}
	fmt.Fprintf(&b, "\nWindows: %d\n", ps.Windows)
	fmt.Fprintf(&b, "Mean: %s%%  Median: %s%%  StdDev: %s\n", formatPercent(ps.Mean), formatPercent(ps.Median), formatPercent(ps.StdDev))
	fmt.Fprintf(&b, "Min: %s%%  Max: %s%%\n", formatPercent(ps.Min), formatPercent(ps.Max))
	return b.String()
}

// formatPercent prints at most two decimals and drops trailing zeros, with
// at least one decimal kept (50 -> "50.0", 50.4 -> "50.4").
func formatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// Options selects the optional parts of a Report.
type Options struct {
	// Window enables the GC profile when positive.
	Window int
}

// Report bundles a record with every derived view.
type Report struct {
	Record         *genbank.Record       `json:"record"`
	Summary        stats.Summary         `json:"statistics"`
	Composition    stats.Composition     `json:"base_composition"`
	Window         int                   `json:"window_size,omitempty"`
	Profile        []float64             `json:"gc_profile,omitempty"`
	ProfileSummary *stats.ProfileSummary `json:"gc_profile_summary,omitempty"`
}

// Build computes the statistics for rec. Statistics errors are returned
// unchanged so callers can match them with errors.As.
func Build(rec *genbank.Record, opts Options) (*Report, error) {
	sum, err := stats.Summarize(rec)
	if err != nil {
		return nil, err
	}
	comp, err := stats.BaseComposition(rec)
	if err != nil {
		return nil, err
	}
	r := &Report{Record: rec, Summary: sum, Composition: comp}
	if opts.Window > 0 {
		profile, err := stats.GCProfile(rec, opts.Window)
		if err != nil {
			return nil, err
		}
		ps, err := stats.SummarizeProfile(profile)
		if err != nil {
			return nil, err
		}
		r.Window, r.Profile, r.ProfileSummary = opts.Window, profile, &ps
	}
	return r, nil
}

// WriteText writes the combined results document: source information,
// features, origin and statistics, plus composition and profile sections.
func (r *Report) WriteText(w io.Writer) error {
	sections := []struct{ title, body string }{
		{"SOURCE INFORMATION", SourceInfo(r.Record)},
		{"FEATURES", FeatureListing(r.Record)},
		{"ORIGIN", Origin(r.Record)},
		{"STATISTICS", Statistics(r.Summary)},
		{"COMPOSITION", Composition(r.Composition)},
	}
	if r.ProfileSummary != nil {
		sections = append(sections, struct{ title, body string }{"GC PROFILE", Profile(r.Profile, r.Window, *r.ProfileSummary)})
	}
	for i, s := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n\n%s", s.title, s.body); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
