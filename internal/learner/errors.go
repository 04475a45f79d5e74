package learner

import "errors"

var (
	// ErrNoGlobalDefault is returned by cold start when no configuration
	// exists yet to serve as the global default.
	ErrNoGlobalDefault = errors.New("no global default configuration available")
)
