package domain

import "errors"

// ErrMissingInput is returned when a required input file does not exist.
var ErrMissingInput = errors.New("missing required input")
