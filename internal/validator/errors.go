package validator

import "errors"

var (
	// ErrInvalidPattern names an invalid pattern set entry. Pattern entries
	// are plain substrings or names and are not compiled; New and Classify
	// never return this error.
	ErrInvalidPattern = errors.New("invalid validator pattern")
)
