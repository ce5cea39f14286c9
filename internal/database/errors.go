package database

import "errors"

var (
	// ErrRunNotFound is returned for an unknown run id
	ErrRunNotFound = errors.New("run not found")

	// ErrRunFinished is returned when a finished run is finished again
	ErrRunFinished = errors.New("run already finished")
)
