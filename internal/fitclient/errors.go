package fitclient

import "errors"

// Sentinel errors returned by the scenario client.
var (
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMismatch         = errors.New("server results differ from local computation")
)
