package queue

import "errors"

var (
	ErrPoolShutdown = errors.New("worker pool is shutting down")
	ErrNoHandler    = errors.New("no handler registered for job type")
)
