package genbank

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	keywordWidth   = 12
	featureIndentN = 5
	qualIndentN    = 21
	maxLineBytes   = 16 << 20
)

var (
	continuationIndent = strings.Repeat(" ", keywordWidth)
	featureIndent      = strings.Repeat(" ", featureIndentN)
	qualifierIndent    = strings.Repeat(" ", qualIndentN)
)

// Options tunes parsing. The zero value keeps the sequence letters exactly as
// they appear in the ORIGIN block.
type Options struct {
	// UpperCase folds sequence letters to upper case.
	UpperCase bool
}

// Parse reads the first record of a GenBank document with default options.
func Parse(r io.Reader) (*Record, error) { return Options{}.Parse(r) }

// ParseFile opens path and parses its first record with default options.
func ParseFile(path string) (*Record, error) { return Options{}.ParseFile(path) }

// ParseFile opens path and parses its first record.
func (o Options) ParseFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	rec, err := o.Parse(f)
	var ioErr *IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = path
	}
	return rec, err
}

// Parse reads exactly one record from r. Anything after the first "//"
// terminator is left unread. Missing organism, taxonomy, molecule type or
// topology fall back to NotAvailable / Unknown instead of failing.
func (o Options) Parse(r io.Reader) (*Record, error) {
	s := newLineScanner(r)

	for s.advance() {
		if strings.HasPrefix(s.line, "LOCUS") {
			break
		}
	}
	if !s.ok {
		return nil, s.formatError("LOCUS", "no LOCUS line found")
	}

	rec := &Record{Annotations: map[string]string{}}
	parseLocus(rec, s.line)
	s.advance()

	var primary, version string
	for {
		if !s.ok {
			return nil, s.formatError("record", "unterminated record: missing //")
		}
		line := s.line
		switch {
		case strings.HasPrefix(line, "//"):
			switch {
			case version != "":
				rec.Accession = version
			case primary != "":
				rec.Accession = primary
			default:
				rec.Accession = rec.Annotations[AnnotLocus]
			}
			rec.fillDefaults()
			return rec, nil

		case strings.TrimSpace(line) == "":
			s.advance()

		case strings.HasPrefix(line, "FEATURES"):
			feats, err := parseFeatures(s)
			if err != nil {
				return nil, err
			}
			rec.Features = feats

		case strings.HasPrefix(line, "ORIGIN"):
			seq, err := o.parseOrigin(s)
			if err != nil {
				return nil, err
			}
			rec.Sequence = seq

		default:
			key, first, cont := readEntry(s)
			switch key {
			case "DEFINITION":
				rec.Description = strings.TrimSuffix(joinEntry(first, cont), ".")
			case "ACCESSION":
				ids := strings.Fields(joinEntry(first, cont))
				if len(ids) > 0 {
					primary = ids[0]
					rec.Annotations[AnnotAccessions] = strings.Join(ids, " ")
				}
			case "VERSION":
				if f := strings.Fields(first); len(f) > 0 {
					version = f[0]
				}
			case "KEYWORDS":
				if kw := strings.TrimSuffix(joinEntry(first, cont), "."); kw != "" {
					rec.Annotations[AnnotKeywords] = kw
				}
			case "SOURCE":
				rec.Annotations[AnnotSource] = joinEntry(first, cont)
			case "ORGANISM":
				rec.Organism, rec.Taxonomy = splitOrganism(first, cont)
			case "COMMENT":
				rec.Annotations[AnnotComment] = joinEntry(first, cont)
			case "DBLINK":
				rec.Annotations[AnnotDBLink] = joinEntry(first, cont)
			}
		}
	}
}

// parseLocus picks the molecule type, topology, division and date out of the
// LOCUS columns. Older files omit or reorder some of them, so columns are
// classified by shape rather than position.
func parseLocus(rec *Record, line string) {
	cols := strings.Fields(line)
	if len(cols) > 1 {
		rec.Annotations[AnnotLocus] = cols[1]
	}
	for _, c := range cols[min(2, len(cols)):] {
		switch {
		case c == "bp":
		case c == "aa":
			if rec.Annotations[AnnotMoleculeType] == "" {
				rec.Annotations[AnnotMoleculeType] = "protein"
			}
		case strings.EqualFold(c, "linear"), strings.EqualFold(c, "circular"):
			rec.Annotations[AnnotTopology] = strings.ToLower(c)
		case isLocusDate(c):
			rec.Annotations[AnnotDate] = c
		case isMoleculeType(c):
			for _, prefix := range []string{"ds-", "ss-", "ms-"} {
				c = strings.TrimPrefix(c, prefix)
			}
			rec.Annotations[AnnotMoleculeType] = c
		case len(c) == 3 && strings.ToUpper(c) == c && !isDigits(c):
			rec.Annotations[AnnotDivision] = c
		}
	}
}

func isMoleculeType(c string) bool {
	return strings.Contains(c, "DNA") || strings.Contains(c, "RNA") || c == "NA"
}

// isLocusDate matches DD-MMM-YYYY.
func isLocusDate(c string) bool {
	return len(c) == 11 && c[2] == '-' && c[6] == '-' && isDigits(c[7:])
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// readEntry consumes a keyword line and its 12-space continuation lines.
// It always advances at least one line.
func readEntry(s *lineScanner) (key, first string, cont []string) {
	line := s.line
	if len(line) > keywordWidth {
		key = strings.TrimSpace(line[:keywordWidth])
		first = strings.TrimSpace(line[keywordWidth:])
	} else {
		key = strings.TrimSpace(line)
	}
	for s.advance() && strings.HasPrefix(s.line, continuationIndent) {
		cont = append(cont, strings.TrimSpace(s.line))
	}
	return key, first, cont
}

func joinEntry(first string, cont []string) string {
	parts := make([]string, 0, len(cont)+1)
	if first != "" {
		parts = append(parts, first)
	}
	parts = append(parts, cont...)
	return strings.Join(parts, " ")
}

// splitOrganism separates a wrapped organism name from the lineage that
// follows it. A continuation line belongs to the lineage once it contains a
// ';' or the lineage has started; a lone "." is an empty-lineage placeholder.
func splitOrganism(first string, cont []string) (string, []string) {
	name := []string{first}
	var lineage []string
	for _, line := range cont {
		switch {
		case len(lineage) > 0 || strings.Contains(line, ";"):
			lineage = append(lineage, line)
		case line == ".":
		default:
			name = append(name, line)
		}
	}
	return strings.TrimSpace(strings.Join(name, " ")), splitTaxonomy(lineage)
}

func splitTaxonomy(lines []string) []string {
	joined := strings.TrimSuffix(strings.TrimSpace(strings.Join(lines, " ")), ".")
	taxa := []string{}
	for _, t := range strings.Split(joined, ";") {
		if t = strings.TrimSpace(t); t != "" {
			taxa = append(taxa, t)
		}
	}
	return taxa
}

// parseFeatures reads the feature table starting at the FEATURES header and
// stops at the first non-blank line that is not indented by at least five
// columns. Blank lines inside the table are skipped.
func parseFeatures(s *lineScanner) ([]Feature, error) {
	feats := []Feature{}
	s.advanceNonBlank()
	for s.ok && strings.HasPrefix(s.line, featureIndent) {
		if strings.HasPrefix(s.line, qualifierIndent) {
			return nil, s.formatError("FEATURES", "qualifier or location line outside a feature")
		}
		fields := strings.Fields(s.line)
		if len(fields) < 2 {
			return nil, s.formatError("FEATURES", fmt.Sprintf("feature %q has no location", fields[0]))
		}
		feat := Feature{
			Type:     fields[0],
			Location: strings.Join(fields[1:], ""),
		}

		s.advanceNonBlank()
		for s.ok && strings.HasPrefix(s.line, qualifierIndent) {
			txt := strings.TrimSpace(s.line)
			if strings.HasPrefix(txt, "/") {
				break
			}
			feat.Location += txt
			s.advanceNonBlank()
		}

		for s.ok && strings.HasPrefix(s.line, qualifierIndent) {
			txt := strings.TrimPrefix(strings.TrimSpace(s.line), "/")
			if txt == "" {
				s.advanceNonBlank()
				continue
			}
			key, val, _ := strings.Cut(txt, "=")
			for s.advanceNonBlank() && strings.HasPrefix(s.line, qualifierIndent) {
				more := strings.TrimSpace(s.line)
				if strings.HasPrefix(more, "/") && !openQuote(val) {
					break
				}
				if key == "translation" {
					val += more
				} else {
					val += " " + more
				}
			}
			feat.addQualifier(key, unquote(val))
		}
		feats = append(feats, feat)
	}
	if !s.ok {
		return nil, s.formatError("FEATURES", "unterminated feature table")
	}
	return feats, nil
}

// openQuote reports whether a qualifier value has an unbalanced quote, in
// which case a continuation line starting with '/' still belongs to it.
func openQuote(val string) bool {
	return strings.Count(val, `"`)%2 == 1
}

func unquote(val string) string {
	val = strings.TrimSpace(val)
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	} else {
		val = strings.TrimPrefix(val, `"`)
	}
	return strings.ReplaceAll(val, `""`, `"`)
}

// parseOrigin concatenates the sequence letters of the ORIGIN block, dropping
// position counters and whitespace. It returns with s positioned on "//".
func (o Options) parseOrigin(s *lineScanner) (string, error) {
	var b strings.Builder
	for s.advance() {
		line := s.line
		if strings.HasPrefix(line, "//") {
			return b.String(), nil
		}
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c >= '0' && c <= '9', c == ' ', c == '\t':
			case c >= 'a' && c <= 'z':
				if o.UpperCase {
					c -= 'a' - 'A'
				}
				b.WriteByte(c)
			case c >= 'A' && c <= 'Z', c == '-', c == '*':
				b.WriteByte(c)
			default:
				return "", &FormatError{
					Section: "ORIGIN",
					Line:    s.lineNo,
					Offset:  s.offset + int64(i),
					Msg:     fmt.Sprintf("unexpected character %q in sequence", c),
				}
			}
		}
	}
	return "", s.formatError("ORIGIN", "unterminated sequence block: missing //")
}

// lineScanner tracks line numbers and byte offsets for error reports.
type lineScanner struct {
	sc     *bufio.Scanner
	line   string
	lineNo int
	offset int64
	next   int64
	step   int
	ok     bool
}

func newLineScanner(r io.Reader) *lineScanner {
	s := &lineScanner{sc: bufio.NewScanner(r)}
	s.sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	s.sc.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		adv, tok, err := bufio.ScanLines(data, atEOF)
		if tok != nil {
			s.step = adv
		}
		return adv, tok, err
	})
	return s
}

func (s *lineScanner) advance() bool {
	if !s.sc.Scan() {
		s.ok = false
		s.line = ""
		return false
	}
	s.offset = s.next
	s.next += int64(s.step)
	s.lineNo++
	s.line = s.sc.Text()
	s.ok = true
	return true
}

// advanceNonBlank moves to the next line that is not blank.
func (s *lineScanner) advanceNonBlank() bool {
	for s.advance() {
		if strings.TrimSpace(s.line) != "" {
			return true
		}
	}
	return false
}

// formatError builds a FormatError at the current line, or an IOError when
// the underlying reader failed.
func (s *lineScanner) formatError(section, msg string) error {
	if err := s.sc.Err(); err != nil {
		return &IOError{Err: err}
	}
	if !s.ok {
		return &FormatError{Section: section, Line: s.lineNo, Offset: s.next, Msg: msg}
	}
	return &FormatError{Section: section, Line: s.lineNo, Offset: s.offset, Msg: msg}
}
