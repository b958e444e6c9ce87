package genbank

import "fmt"

// FormatError reports a document that does not follow the flat-file layout.
// Line is 1-based; Offset is the byte offset of the start of that line.
type FormatError struct {
	Section string
	Line    int
	Offset  int64
	Msg     string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("genbank: %s: line %d (byte %d): %s", e.Section, e.Line, e.Offset, e.Msg)
	}
	return fmt.Sprintf("genbank: %s: %s", e.Section, e.Msg)
}

// IOError reports a source that could not be read at all.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("genbank: read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("genbank: read: %v", e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
