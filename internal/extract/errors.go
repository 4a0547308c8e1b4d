package extract

import "fmt"

// InvalidPatternError is returned when a raw pattern does not compile.
type InvalidPatternError struct {
	// Pattern is the expression that was rejected.
	Pattern string
	// Err is the underlying compile error.
	Err error
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the compile error.
func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
