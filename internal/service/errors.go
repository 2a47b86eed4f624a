package service

import (
	"errors"
	"fmt"

	"pds-status/internal/report"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitCollection = 2
	ExitWrite      = 3
)

// CollectionError is a fatal collection failure: the data directory or the
// account store could not be read.
type CollectionError struct {
	Op  string
	Err error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection failed: %s: %v", e.Op, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// PartialMetricError is a recovered failure to sample one host metric.
type PartialMetricError struct {
	Metric string
	Err    error
}

func (e *PartialMetricError) Error() string {
	return fmt.Sprintf("%s: %v", e.Metric, e.Err)
}

func (e *PartialMetricError) Unwrap() error {
	return e.Err
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var collErr *CollectionError
	if errors.As(err, &collErr) {
		return ExitCollection
	}

	var writeErr *report.WriteError
	if errors.As(err, &writeErr) {
		return ExitWrite
	}

	return ExitFailure
}
