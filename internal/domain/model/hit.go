// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/bullseye/internal/domain/geometry"
)

// HitKind tells how an impact was reported by the host simulation.
type HitKind string

// Hit kinds.
const (
	// HitCollision is a solid contact carrying zero or more contact points.
	HitCollision HitKind = "collision"
	// HitTrigger is a non-solid overlap with no contact points.
	HitTrigger HitKind = "trigger"
)

// Collision is a solid-contact notification. Geometry is the collider that
// struck the target, placed by Transform; it is optional and only consulted
// when Contacts is empty.
type Collision struct {
	Contacts  []geometry.Point3
	Geometry  geometry.Shape
	Transform geometry.Transform
	SourceID  string
}

// Trigger is an overlap notification for trigger-style projectiles.
type Trigger struct {
	Geometry  geometry.Shape
	Transform geometry.Transform
	SourceID  string
}

// HitEvent is the resolved impact: a world-space point and who caused it.
type HitEvent struct {
	Point    geometry.Point3
	SourceID string // attribution only, never used for scoring
}

// ScoreResult is the output of scoring one hit.
type ScoreResult struct {
	RawScore   float64
	FinalScore int
}

// ScoreEvent is published to score listeners after every processed hit.
type ScoreEvent struct {
	HitID      string          `json:"hit_id"`
	TargetID   string          `json:"target_id"`
	SourceID   string          `json:"source_id"`
	Kind       HitKind         `json:"kind"`
	Point      geometry.Point3 `json:"point"`
	Distance   float64         `json:"distance"`
	RawScore   float64         `json:"raw_score"`
	FinalScore int             `json:"final_score"`
	At         time.Time       `json:"at"`
}

// HitNotification is the queued form of a collision or trigger report.
type HitNotification struct {
	HitID      string
	TargetID   string
	Kind       HitKind
	Collision  Collision
	Trigger    Trigger
	ReceivedAt time.Time
}

// SourceID returns the attributed shooter regardless of kind.
func (n *HitNotification) SourceID() string {
	if n.Kind == HitTrigger {
		return n.Trigger.SourceID
	}
	return n.Collision.SourceID
}

// NewHitID returns a fresh random hit identifier.
func NewHitID() string {
	return uuid.NewString()
}
