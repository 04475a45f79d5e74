package browsersession

import "errors"

// Session errors - returned during browser acquisition and release.
var (
	ErrLaunchFailed  = errors.New("browser launch failed")
	ErrPoolShutdown  = errors.New("session pool is shutting down")
	ErrSessionDead   = errors.New("browser session is dead")
	ErrRestartFailed = errors.New("browser session restart failed")
)

// Navigation errors - returned during page navigation.
var (
	ErrNavigateFailed   = errors.New("navigation failed")
	ErrNavigateTimeout  = errors.New("navigation timeout exceeded")
	ErrNoResponse       = errors.New("navigation completed with no response object")
	ErrExtractHTML      = errors.New("HTML extraction failed")
	ErrResponseTooLarge = errors.New("response exceeds maximum size limit")
)
