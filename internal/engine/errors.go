package engine

import "errors"

// Sentinel errors for the engine package.
var (
	// Request errors
	ErrInvalidDirection = errors.New("engine: invalid turn direction")
	ErrInvalidTurns     = errors.New("engine: scramble turn count must not be negative")

	// State errors
	ErrBusy    = errors.New("engine: turn in progress")
	ErrCorrupt = errors.New("engine: cube state corrupt")
)
