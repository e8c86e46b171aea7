package sentinel

import "errors"

// Sentinel dependency errors. Ledger backends and stores return these (optionally
// wrapped) so services can translate them into domain errors exactly once.
var (
	ErrNotFound    = errors.New("not found")
	ErrMalformed   = errors.New("malformed")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
