package pathfind

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// PathEvent is published on the event bus of a Finder after every search.
type PathEvent struct {
	ID        uuid.UUID
	Outcome   Outcome
	Start     Location
	End       Location
	Waypoints []mgl64.Vec3
	Expanded  int
}
