// Package types contains common types used across the application
package types

// Entry is a scoreboard row as served to clients.
type Entry struct {
	Rank      int    `json:"rank"`
	ShooterID string `json:"shooter_id"`
	Total     int64  `json:"total"`
	Hits      int64  `json:"hits"`
}

// Average returns the mean points per hit, or 0 before the first hit.
func (e Entry) Average() float64 {
	if e.Hits == 0 {
		return 0
	}
	return float64(e.Total) / float64(e.Hits)
}
