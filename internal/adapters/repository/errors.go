package repository

import "errors"

// Sentinel kinds for scoreboard errors.
var (
	ErrNotFound       = errors.New("shooter not found")
	ErrInvalidLimit   = errors.New("invalid scoreboard limit")
	ErrInvalidShooter = errors.New("invalid shooter id")
)
