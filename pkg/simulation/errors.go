package simulation

import "errors"

// Errors returned by the simulation driver.
var (
	// ErrInvalidParams indicates simulation parameters outside their
	// documented ranges (negative counts, bad absorption, empty band set).
	ErrInvalidParams = errors.New("simulation: invalid parameters")

	// ErrNotReady indicates a simulation was requested before geometry
	// and receiver were configured.
	ErrNotReady = errors.New("simulation: geometry not ready")

	// ErrCancelled indicates the run was cancelled between batches.
	ErrCancelled = errors.New("simulation: cancelled")

	// ErrInternal indicates more than 1% of rays were abandoned due to
	// unexpected intersection numerics.
	ErrInternal = errors.New("simulation: internal error")
)
