package cubeturn

import "errors"

// Sentinel errors for the cubeturn package.
var (
	// Replay errors
	ErrUnsupportedLog = errors.New("cubeturn: unsupported log version")
	ErrUnknownEntry   = errors.New("cubeturn: unknown log entry")

	// Configuration errors
	ErrInvalidOption = errors.New("cubeturn: invalid option")
)
