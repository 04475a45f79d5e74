package main

import "errors"

// ErrCaptureNotOK marks a pipeline run that did not reach a clean ok result:
// a browser launch, page or navigation failure, the overall timeout, a
// blocked, captcha, rate limited or empty validation, or an artifact
// emission failure. The queue treats it like any other handler error:
// retried with backoff, then dead-lettered.
var ErrCaptureNotOK = errors.New("capture did not complete cleanly")
