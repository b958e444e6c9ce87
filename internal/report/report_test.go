package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"genex/internal/genbank"
	"genex/internal/stats"
)

func sampleRecord(t *testing.T) *genbank.Record {
	t.Helper()
	rec, err := genbank.Options{UpperCase: true}.ParseFile("../genbank/testdata/sample.gb")
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	return rec
}

func TestSourceInfo(t *testing.T) {
	got := SourceInfo(sampleRecord(t))
	for _, want := range []string{
		"Organism: Homo sapiens\n",
		"Taxonomy: Eukaryota, Metazoa, Chordata",
		"Accession: TEST000001.2\n",
		"Description: Synthetic test construct",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}

	bare := genbank.NewRecord("X1", "", "ACGT")
	if !strings.Contains(SourceInfo(bare), "Taxonomy: N/A\n") {
		t.Fatalf("expected N/A taxonomy fallback")
	}
}

func TestFeatureListing(t *testing.T) {
	got := FeatureListing(sampleRecord(t))
	if n := strings.Count(got, "Type: "); n != 3 {
		t.Fatalf("expected 3 features, got %d", n)
	}
	if !strings.Contains(got, `  db_xref: "GeneID:672", "HGNC:HGNC:1100"`) {
		t.Fatalf("repeated qualifier not listed in order:\n%s", got)
	}
	if !strings.Contains(got, `  pseudo: ""`) {
		t.Fatalf("flag qualifier missing:\n%s", got)
	}
	if strings.Index(got, "BRCA1") > strings.Index(got, "BRCA2") {
		t.Fatalf("features out of order")
	}
}

func TestFeatureEntry(t *testing.T) {
	f := genbank.Feature{
		Type:       "CDS",
		Location:   "1..9",
		Qualifiers: []genbank.Qualifier{{Key: "note", Values: []string{`say "hi"`}}},
	}
	want := "Type: CDS\nLocation: 1..9\nQualifiers:\n  note: \"say \\\"hi\\\"\"\n"
	if got := FeatureEntry(f); got != want {
		t.Fatalf("FeatureEntry = %q, want %q", got, want)
	}
}

func TestOrigin(t *testing.T) {
	rec := genbank.NewRecord("X", "", strings.Repeat("A", 60)+strings.Repeat("C", 5))
	lines := strings.Split(strings.TrimSuffix(Origin(rec), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 lines, got %q", lines)
	}
	if lines[2] != "       1 "+strings.Repeat("A", 60) {
		t.Fatalf("line 1 = %q", lines[2])
	}
	if lines[3] != "      61 CCCCC" {
		t.Fatalf("line 2 = %q", lines[3])
	}
}

func TestStatistics(t *testing.T) {
	sum, err := stats.Summarize(sampleRecord(t))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	got := Statistics(sum)
	for _, want := range []string{
		"Total Length: 250 bp\n",
		"GC Content: 50.4%\n",
		"Total Features: 3\n",
		"Molecular Type: DNA\n",
		"Topology: linear\n",
		"source: 1\ngene: 2\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{50: "50.0", 50.4: "50.4", 66.67: "66.67", 100: "100.0", 0: "0.0"}
	for in, want := range cases {
		if got := formatPercent(in); got != want {
			t.Fatalf("formatPercent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteText(t *testing.T) {
	r, err := Build(sampleRecord(t), Options{Window: stats.DefaultWindowSize})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	last := -1
	for _, section := range []string{"SOURCE INFORMATION\n\n", "\nFEATURES\n\n", "\nORIGIN\n\n", "\nSTATISTICS\n\n", "\nCOMPOSITION\n\n", "\nGC PROFILE\n\n"} {
		i := strings.Index(out, section)
		if i <= last {
			t.Fatalf("section %q missing or out of order", section)
		}
		last = i
	}
	if !strings.Contains(out, "       1   52.0%\n") || !strings.Contains(out, "     101   48.0%\n") {
		t.Fatalf("profile rows missing:\n%s", out[last:])
	}
}

func TestWriteJSON(t *testing.T) {
	r, err := Build(sampleRecord(t), Options{Window: 100})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded struct {
		Record struct {
			Accession string `json:"accession"`
		} `json:"record"`
		Statistics struct {
			GCContent     float64 `json:"gc_content"`
			MolecularType string  `json:"molecular_type"`
			Histogram     []struct {
				Type  string `json:"type"`
				Count int    `json:"count"`
			} `json:"feature_type_histogram"`
		} `json:"statistics"`
		Profile []float64 `json:"gc_profile"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Record.Accession != "TEST000001.2" || decoded.Statistics.GCContent != 50.4 || len(decoded.Profile) != 2 {
		t.Fatalf("unexpected json: %+v", decoded)
	}
	if decoded.Statistics.MolecularType != "DNA" {
		t.Fatalf("molecular_type = %q", decoded.Statistics.MolecularType)
	}
	h := decoded.Statistics.Histogram
	if len(h) != 2 || h[0].Type != "source" || h[0].Count != 1 || h[1].Type != "gene" || h[1].Count != 2 {
		t.Fatalf("feature_type_histogram = %+v", h)
	}
}

func TestBuildErrors(t *testing.T) {
	var empty *stats.EmptySequenceError
	if _, err := Build(genbank.NewRecord("E", "", ""), Options{}); !errors.As(err, &empty) {
		t.Fatalf("expected EmptySequenceError, got %v", err)
	}
	var inv *stats.InvalidWindowError
	if _, err := Build(genbank.NewRecord("S", "", "ACGT"), Options{Window: 10}); !errors.As(err, &inv) {
		t.Fatalf("expected InvalidWindowError, got %v", err)
	}
}
