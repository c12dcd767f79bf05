package scanner

import "fmt"

// SyntaxError reports a grammar violation at a byte offset of the input.
type SyntaxError struct {
	Offset int64
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pdf syntax error at offset %d: %s", e.Offset, e.Reason)
}

func syntaxErrorf(offset int64, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Errorf builds a SyntaxError for callers layered on top of the scanner.
func Errorf(offset int64, format string, args ...any) *SyntaxError {
	return syntaxErrorf(offset, format, args...)
}
