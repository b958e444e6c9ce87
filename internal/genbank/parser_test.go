package genbank

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func readSample(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "sample.gb"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	return data
}

func TestParseSampleMetadata(t *testing.T) {
	rec, err := Parse(bytes.NewReader(readSample(t)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Accession != "TEST000001.2" {
		t.Fatalf("accession = %q", rec.Accession)
	}
	if want := "Synthetic test construct carrying BRCA1 and BRCA2 fragments, complete sequence"; rec.Description != want {
		t.Fatalf("description = %q", rec.Description)
	}
	if rec.Organism != "Homo sapiens" {
		t.Fatalf("organism = %q", rec.Organism)
	}
	if len(rec.Taxonomy) != 14 || rec.Taxonomy[0] != "Eukaryota" || rec.Taxonomy[13] != "Homo" {
		t.Fatalf("unexpected taxonomy: %v", rec.Taxonomy)
	}
	wantAnnot := map[string]string{
		AnnotMoleculeType: "DNA",
		AnnotTopology:     "linear",
		AnnotDivision:     "PRI",
		AnnotDate:         "10-FEB-2024",
		AnnotLocus:        "TEST000001",
		AnnotAccessions:   "TEST000001 TEST000099",
		AnnotKeywords:     "RefSeq; synthetic",
		AnnotSource:       "Homo sapiens (human)",
		AnnotComment:      "Constructed for parser tests.",
	}
	for k, v := range wantAnnot {
		if got := rec.Annotations[k]; got != v {
			t.Fatalf("annotation %s = %q, want %q", k, got, v)
		}
	}
}

func TestParseSampleFeatures(t *testing.T) {
	rec, err := Parse(bytes.NewReader(readSample(t)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rec.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(rec.Features))
	}
	types := []string{rec.Features[0].Type, rec.Features[1].Type, rec.Features[2].Type}
	if !reflect.DeepEqual(types, []string{"source", "gene", "gene"}) {
		t.Fatalf("feature order = %v", types)
	}

	src := rec.Features[0]
	if src.Location != "1..250" {
		t.Fatalf("source location = %q", src.Location)
	}
	if got := src.Qualifier("organism"); !reflect.DeepEqual(got, []string{"Homo sapiens"}) {
		t.Fatalf("organism qualifier = %v", got)
	}

	g1 := rec.Features[1]
	if g1.Location != "join(1..40,61..100)" {
		t.Fatalf("multi-line location = %q", g1.Location)
	}
	if got := g1.Qualifier("note"); len(got) != 1 || got[0] != "first line of a note that continues here" {
		t.Fatalf("note = %v", got)
	}
	if got := g1.Qualifier("db_xref"); !reflect.DeepEqual(got, []string{"GeneID:672", "HGNC:HGNC:1100"}) {
		t.Fatalf("repeated qualifier lost values: %v", got)
	}
	keys := make([]string, 0, len(g1.Qualifiers))
	for _, q := range g1.Qualifiers {
		keys = append(keys, q.Key)
	}
	if !reflect.DeepEqual(keys, []string{"gene", "note", "db_xref"}) {
		t.Fatalf("qualifier order = %v", keys)
	}

	g2 := rec.Features[2]
	if g2.Location != "complement(<120..>250)" {
		t.Fatalf("location = %q", g2.Location)
	}
	if got := g2.Qualifier("pseudo"); !reflect.DeepEqual(got, []string{""}) {
		t.Fatalf("flag qualifier = %#v", got)
	}
	if g2.Qualifier("missing") != nil {
		t.Fatalf("expected nil for unknown qualifier")
	}
}

func TestParseSampleSequence(t *testing.T) {
	data := readSample(t)
	rec, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rec.Sequence) != 250 {
		t.Fatalf("sequence length = %d", len(rec.Sequence))
	}
	if !strings.HasPrefix(rec.Sequence, "ggccaattgg") || strings.ContainsAny(rec.Sequence, " 0123456789\n") {
		t.Fatalf("sequence not cleaned: %q", rec.Sequence[:20])
	}

	upper, err := Options{UpperCase: true}.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse upper: %v", err)
	}
	if upper.Sequence != strings.ToUpper(rec.Sequence) {
		t.Fatalf("upper-case option did not fold sequence")
	}
}

func TestParseIdempotent(t *testing.T) {
	data := readSample(t)
	a, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parsing the same bytes twice gave different records")
	}
}

func TestParseFirstRecordOnly(t *testing.T) {
	doc := "LOCUS       ONE   4 bp    DNA     circular BCT 01-JAN-2020\n" +
		"ORIGIN\n        1 acgt\n//\n" +
		"LOCUS       TWO   4 bp    DNA     linear   BCT 01-JAN-2020\n" +
		"ORIGIN\n        1 tttt\n//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Accession != "ONE" || rec.Sequence != "acgt" || rec.Topology() != "circular" {
		t.Fatalf("expected first record only, got %+v", rec)
	}
}

func TestParseDefaults(t *testing.T) {
	doc := "LOCUS       BARE\nORIGIN\n        1 GGCC AATT\n//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Organism != NotAvailable {
		t.Fatalf("organism = %q", rec.Organism)
	}
	if rec.Taxonomy == nil || len(rec.Taxonomy) != 0 {
		t.Fatalf("taxonomy = %#v", rec.Taxonomy)
	}
	if rec.MoleculeType() != Unknown || rec.Topology() != Unknown {
		t.Fatalf("molecule/topology = %q/%q", rec.MoleculeType(), rec.Topology())
	}
	if rec.Annotation("nope") != Unknown {
		t.Fatalf("missing annotation should be %q", Unknown)
	}
	if rec.Sequence != "GGCCAATT" {
		t.Fatalf("sequence = %q", rec.Sequence)
	}
	if len(rec.Features) != 0 {
		t.Fatalf("features = %v", rec.Features)
	}
}

func TestParseNoOrigin(t *testing.T) {
	doc := "LOCUS       NOSEQ  0 bp  DNA  linear  UNA 01-JAN-2020\n" +
		"FEATURES             Location/Qualifiers\n" +
		"     misc_feature    1..10\n" +
		"//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Sequence != "" || len(rec.Features) != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Annotations[AnnotDivision] != "UNA" {
		t.Fatalf("division = %q", rec.Annotations[AnnotDivision])
	}
}

func TestParseWrappedOrganism(t *testing.T) {
	doc := "LOCUS       ECO  8 bp  DNA  circular  BCT 01-JAN-2020\n" +
		"SOURCE      Escherichia coli\n" +
		"  ORGANISM  Escherichia coli str. K-12 substr. MG1655 with a very long\n" +
		"            strain designation\n" +
		"            Bacteria; Pseudomonadota; Gammaproteobacteria.\n" +
		"ORIGIN\n        1 acgtacgt\n//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := "Escherichia coli str. K-12 substr. MG1655 with a very long strain designation"; rec.Organism != want {
		t.Fatalf("organism = %q", rec.Organism)
	}
	if want := []string{"Bacteria", "Pseudomonadota", "Gammaproteobacteria"}; !reflect.DeepEqual(rec.Taxonomy, want) {
		t.Fatalf("taxonomy = %q", rec.Taxonomy)
	}
}

func TestParseOrganismLineagePlaceholder(t *testing.T) {
	doc := "LOCUS       SYN\n" +
		"  ORGANISM  synthetic construct\n" +
		"            .\n" +
		"//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Organism != "synthetic construct" || len(rec.Taxonomy) != 0 {
		t.Fatalf("organism = %q, taxonomy = %q", rec.Organism, rec.Taxonomy)
	}
}

func TestParseBlankLinesInFeatureTable(t *testing.T) {
	doc := "LOCUS       BLANK  8 bp  DNA  linear  UNA 01-JAN-2020\n" +
		"FEATURES             Location/Qualifiers\n" +
		"     source          1..8\n" +
		"\n" +
		"     gene            1..4\n" +
		"\r\n" +
		"                     /gene=\"a\"\n" +
		"     CDS             1..4\n" +
		"\n" +
		"ORIGIN\n        1 acgtacgt\n//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var types []string
	for _, f := range rec.Features {
		types = append(types, f.Type)
	}
	if want := []string{"source", "gene", "CDS"}; !reflect.DeepEqual(types, want) {
		t.Fatalf("feature types = %q, want %q", types, want)
	}
	if got := rec.Features[1].Qualifier("gene"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("gene qualifier = %q", got)
	}
	if rec.Sequence != "acgtacgt" {
		t.Fatalf("sequence = %q", rec.Sequence)
	}
}

func TestParseQuotedSlash(t *testing.T) {
	doc := "LOCUS       Q\n" +
		"FEATURES             Location/Qualifiers\n" +
		"     CDS             1..6\n" +
		"                     /note=\"path a\n" +
		"                     /b \"\"quoted\"\"\"\n" +
		"                     /translation=\"MK\n" +
		"                     RS\"\n" +
		"ORIGIN\n        1 atgaaa\n//\n"
	rec, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := rec.Features[0]
	if got := f.Qualifier("note"); len(got) != 1 || got[0] != `path a /b "quoted"` {
		t.Fatalf("note = %q", got)
	}
	if got := f.Qualifier("translation"); len(got) != 1 || got[0] != "MKRS" {
		t.Fatalf("translation = %q", got)
	}
}

func TestParseFormatErrors(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		section string
	}{
		{"empty", "", "LOCUS"},
		{"no locus", "DEFINITION  nothing here\n", "LOCUS"},
		{"unterminated record", "LOCUS       X\nDEFINITION  x.\n", "record"},
		{"unterminated features", "LOCUS       X\nFEATURES             Location/Qualifiers\n     gene            1..4\n", "FEATURES"},
		{"orphan qualifier", "LOCUS       X\nFEATURES             Location/Qualifiers\n                     /gene=\"a\"\n//\n", "FEATURES"},
		{"feature without location", "LOCUS       X\nFEATURES             Location/Qualifiers\n     gene\n//\n", "FEATURES"},
		{"unterminated origin", "LOCUS       X\nORIGIN\n        1 acgt\n", "ORIGIN"},
		{"bad sequence char", "LOCUS       X\nORIGIN\n        1 ac#gt\n//\n", "ORIGIN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if fe.Section != tc.section {
				t.Fatalf("section = %q, want %q (%v)", fe.Section, tc.section, err)
			}
		})
	}
}

func TestFormatErrorOffset(t *testing.T) {
	doc := "LOCUS       X\nORIGIN\n        1 ac#gt\n//\n"
	_, err := Parse(strings.NewReader(doc))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Line != 3 {
		t.Fatalf("line = %d", fe.Line)
	}
	if want := int64(strings.Index(doc, "#")); fe.Offset != want {
		t.Fatalf("offset = %d, want %d", fe.Offset, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParseIOErrors(t *testing.T) {
	_, err := Parse(failingReader{})
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.gb")
	_, err = ParseFile(missing)
	if !errors.As(err, &ioErr) || ioErr.Path != missing {
		t.Fatalf("expected IOError for %s, got %v", missing, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("IOError should unwrap to ErrNotExist: %v", err)
	}
}

func TestParseFile(t *testing.T) {
	rec, err := Options{UpperCase: true}.ParseFile(filepath.Join("testdata", "sample.gb"))
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if !strings.HasPrefix(rec.Sequence, "GGCCAATTGG") {
		t.Fatalf("sequence = %q", rec.Sequence[:10])
	}
}
