package capture

import "errors"

var (
	ErrOverallTimeout  = errors.New("capture overall deadline exceeded")
	ErrNoResponse      = errors.New("navigation completed with no response object")
	ErrArtifactWrite   = errors.New("artifact write failed")
	ErrUnknownArtifact = errors.New("unknown artifact kind requested")
)
