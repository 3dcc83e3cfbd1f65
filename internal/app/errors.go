package app

import "errors"

var (
	// ErrFindings marks a run that completed but reported error diagnostics.
	ErrFindings = errors.New("errors reported")
	// ErrFatalInput marks input the engine cannot work with at all: no
	// documents, an unreadable graph, bad flags or bad configuration.
	ErrFatalInput = errors.New("fatal input error")
)
