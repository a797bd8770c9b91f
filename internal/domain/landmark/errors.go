package landmark

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownType = errors.New("unknown landmark type")
)
