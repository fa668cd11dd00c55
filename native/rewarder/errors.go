package rewarder

import "errors"

var (
	// ErrUnauthorized is returned when a caller identity check fails on a
	// privileged entry point.
	ErrUnauthorized = errors.New("rewarder: unauthorized")
	// ErrNothingToClaim is returned when an explicit bonus claim finds no
	// qualifying bonus window.
	ErrNothingToClaim = errors.New("rewarder: nothing to claim")
	// ErrInvalidConfiguration is returned when construction parameters violate
	// the module invariants.
	ErrInvalidConfiguration = errors.New("rewarder: invalid configuration")

	errNilState  = errors.New("rewarder: state not configured")
	errNilLedger = errors.New("rewarder: position ledger not configured")
)
