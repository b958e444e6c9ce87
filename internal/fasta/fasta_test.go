package fasta

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestScanAllRecords(t *testing.T) {
	input := ">seq1\nATGC\n>seq2 desc here\nGG TT\nAA\n"
	var recs []Record
	err := scan(strings.NewReader(input), func(rec Record) bool {
		recs = append(recs, rec)
		return true
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "seq1" || recs[0].Sequence != "ATGC" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].ID != "seq2" || recs[1].Description != "desc here" || recs[1].Sequence != "GGTTAA" {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestReadFirst(t *testing.T) {
	rec, err := ReadFirst(strings.NewReader(">a one\nAC\nGT\n>b\nTT\n"))
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	if rec.Header() != "a one" || rec.Sequence != "ACGT" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := ReadFirst(strings.NewReader("ACGT\n")); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestWriteWraps(t *testing.T) {
	var buf bytes.Buffer
	rec := Record{ID: "x", Description: "demo", Sequence: strings.Repeat("A", 130)}
	if err := Write(&buf, rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 || lines[0] != ">x demo" || len(lines[1]) != 60 || len(lines[3]) != 10 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	back, err := ReadFirst(&buf)
	if err != nil || back != rec {
		t.Fatalf("round trip mismatch: %+v, %v", back, err)
	}
}
