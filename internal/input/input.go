// Package input turns a file path or an in-memory buffer into a
// genbank.Record. GenBank flat files are the primary input; FASTA files are
// accepted as a sequence-only fallback. Gzip-compressed sources are detected
// by magic number.
package input

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"genex/internal/fasta"
	"genex/internal/genbank"
)

// Format selects the parser for a source.
type Format int

const (
	FormatAuto Format = iota
	FormatGenBank
	FormatFASTA
)

func (f Format) String() string {
	switch f {
	case FormatGenBank:
		return "genbank"
	case FormatFASTA:
		return "fasta"
	default:
		return "auto"
	}
}

// ParseFormat maps a user-supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "genbank", "gb", "gbk":
		return FormatGenBank, nil
	case "fasta", "fa", "fna":
		return FormatFASTA, nil
	}
	return FormatAuto, fmt.Errorf("input: unknown format %q", s)
}

// Options controls how a source is read.
type Options struct {
	Format    Format
	UpperCase bool
}

// DetectFormat guesses the format from a file name, ignoring a .gz suffix.
// Unrecognised extensions report FormatAuto.
func DetectFormat(name string) Format {
	name = strings.TrimSuffix(strings.ToLower(name), ".gz")
	switch filepath.Ext(name) {
	case ".gb", ".gbk", ".gbff", ".genbank", ".gbf":
		return FormatGenBank
	case ".fa", ".fasta", ".fna", ".fas":
		return FormatFASTA
	}
	return FormatAuto
}

// Load reads the first record of the file at path.
func Load(path string, opts Options) (*genbank.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &genbank.IOError{Path: path, Err: err}
	}
	defer f.Close()
	rec, err := Read(f, path, opts)
	var ioErr *genbank.IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = path
	}
	return rec, err
}

// Read reads the first record from r. name is only used to pick a format
// when opts.Format is FormatAuto; it may be empty for in-memory buffers.
func Read(r io.Reader, name string, opts Options) (*genbank.Record, error) {
	br := bufio.NewReader(r)
	sig, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, &genbank.IOError{Err: err}
	}
	var src io.Reader = br
	if len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, &genbank.IOError{Err: err}
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
		src = br
	}

	format := opts.Format
	if format == FormatAuto {
		format = DetectFormat(name)
	}
	if format == FormatAuto {
		format = sniff(br)
	}

	if format == FormatFASTA {
		return readFASTA(src, opts)
	}
	return genbank.Options{UpperCase: opts.UpperCase}.Parse(src)
}

// sniff looks at the first non-blank byte: '>' means FASTA, anything else is
// handed to the GenBank parser.
func sniff(br *bufio.Reader) Format {
	for n := 64; n <= 4096; n *= 2 {
		buf, err := br.Peek(n)
		if trimmed := bytes.TrimLeft(buf, " \t\r\n"); len(trimmed) > 0 {
			if trimmed[0] == '>' {
				return FormatFASTA
			}
			return FormatGenBank
		}
		if err != nil {
			break
		}
	}
	return FormatGenBank
}

func readFASTA(r io.Reader, opts Options) (*genbank.Record, error) {
	fr, err := fasta.ReadFirst(r)
	if errors.Is(err, fasta.ErrNoRecord) {
		return nil, &genbank.FormatError{Section: "FASTA", Msg: "no '>' header found"}
	}
	if err != nil {
		return nil, &genbank.IOError{Err: err}
	}
	seq := fr.Sequence
	if opts.UpperCase {
		seq = strings.ToUpper(seq)
	}
	return genbank.NewRecord(fr.ID, fr.Description, seq), nil
}
