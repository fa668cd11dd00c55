package positions

import "errors"

var (
	ErrNotFound         = errors.New("positions: position not found")
	ErrUnauthorized     = errors.New("positions: unauthorized")
	ErrPositionNotEmpty = errors.New("positions: position not empty")
	ErrInvalidAmount    = errors.New("positions: invalid amount")

	errNilState = errors.New("positions: state not configured")
)
