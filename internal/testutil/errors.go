package testutil

import "errors"

// ErrSimulated is a sentinel error for testing failure paths of stores and collaborators.
var ErrSimulated = errors.New("simulated error for testing")
