package errors

import "fmt"

// ParseError wraps a specific error with context about which file and line
// it came from.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Define specific error types for better error handling
var (
	ErrUnreadableTable  = fmt.Errorf("unreadable table")
	ErrFileTooLarge     = fmt.Errorf("file too large")
	ErrFileNotFound     = fmt.Errorf("file not found")
	ErrFileAlreadyDated = fmt.Errorf("file already has a date")
	ErrInvalidDate      = fmt.Errorf("invalid date")
	ErrInvalidRange     = fmt.Errorf("invalid date range")
	ErrInvalidTransport = fmt.Errorf("invalid transport file")
	ErrKeyNotFound      = fmt.Errorf("key not found")
	ErrCorruptValue     = fmt.Errorf("corrupt stored value")
)
