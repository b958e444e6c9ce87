// Package fasta reads and writes FASTA formatted sequences. Reading is used as
// a fallback input when a source is not a GenBank flat file; writing exports a
// record's sequence.
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LineWidth is the number of residues per line written by Write.
const LineWidth = 60

// ErrNoRecord is returned when the input holds no '>' header.
var ErrNoRecord = errors.New("fasta: no record found")

// Record is a single FASTA entry. ID is the first word of the header line and
// Description the remainder.
type Record struct {
	ID          string
	Description string
	Sequence    string
}

// Header rebuilds the header line without the leading '>'.
func (r Record) Header() string {
	if r.Description == "" {
		return r.ID
	}
	return r.ID + " " + r.Description
}

// ReadFirst returns the first record of r and stops reading.
func ReadFirst(r io.Reader) (Record, error) {
	var first Record
	found := false
	err := scan(r, func(rec Record) bool {
		first, found = rec, true
		return false
	})
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, ErrNoRecord
	}
	return first, nil
}

// scan reads records in order and hands each to emit; emit returning false
// stops the scan. Lines beginning with '>' start a record and sequence lines
// are concatenated with whitespace removed.
func scan(r io.Reader, emit func(Record) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	var (
		current Record
		seq     strings.Builder
		open    bool
	)
	flush := func() bool {
		if !open {
			return true
		}
		current.Sequence = seq.String()
		seq.Reset()
		return emit(current)
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ">") {
			if !flush() {
				return nil
			}
			id, desc, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
			current = Record{ID: id, Description: strings.TrimSpace(desc)}
			open = true
			continue
		}
		if open {
			seq.WriteString(strings.Join(strings.Fields(line), ""))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("fasta: read: %w", err)
	}
	flush()
	return nil
}

// Write emits rec as FASTA wrapped at LineWidth residues per line.
func Write(w io.Writer, rec Record) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, ">%s\n", rec.Header()); err != nil {
		return err
	}
	seq := rec.Sequence
	for i := 0; i < len(seq); i += LineWidth {
		end := min(i+LineWidth, len(seq))
		if _, err := fmt.Fprintln(bw, seq[i:end]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
