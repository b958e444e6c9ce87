package stats

import "fmt"

// EmptySequenceError is returned when a sequence-dependent statistic is
// requested for a record with no sequence.
type EmptySequenceError struct {
	Op string
}

func (e *EmptySequenceError) Error() string {
	return fmt.Sprintf("stats: %s: sequence is empty", e.Op)
}

// InvalidWindowError is returned when a window size is not in [1, Length].
type InvalidWindowError struct {
	Size   int
	Length int
}

func (e *InvalidWindowError) Error() string {
	if e.Size <= 0 {
		return fmt.Sprintf("stats: window size %d must be positive", e.Size)
	}
	return fmt.Sprintf("stats: window size %d exceeds sequence length %d", e.Size, e.Length)
}
