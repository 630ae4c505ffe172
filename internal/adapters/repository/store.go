// Package repository keeps the shooters' running score totals.
package repository

import "context"

// Entry is a scoreboard row.
type Entry struct {
	Rank      int
	ShooterID string
	Total     int64
	Hits      int64
}

// Store provides read/write access to the scoreboard.
type Store interface {
	// AddScore adds amount to shooterID's total, creating the shooter on
	// first use, and returns the new total. Zero-point hits still count as
	// hits.
	AddScore(ctx context.Context, shooterID string, amount int) (int64, error)

	// Rank returns the shooter's current rank and total.
	// Returns ErrNotFound if the shooter is unknown.
	Rank(ctx context.Context, shooterID string) (Entry, error)

	// TopN returns the top-N entries ordered by total desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of shooters on the board.
	Count(ctx context.Context) int

	// Total returns the sum of all shooters' totals.
	Total(ctx context.Context) int64

	// Reset clears the board.
	Reset(ctx context.Context)
}
