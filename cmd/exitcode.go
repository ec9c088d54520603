package cmd

import (
	"errors"

	"ticketclassifier/pkg/categorizer"
)

// Process exit codes, one per error family.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitDataLoad   = 2
	ExitClient     = 3
	ExitParse      = 4
	ExitValidation = 5
)

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, categorizer.ErrDataLoad):
		return ExitDataLoad
	case errors.Is(err, categorizer.ErrClient):
		return ExitClient
	case errors.Is(err, categorizer.ErrParse):
		return ExitParse
	case errors.Is(err, categorizer.ErrValidation):
		return ExitValidation
	default:
		return ExitFailure
	}
}
