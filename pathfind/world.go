package pathfind

import (
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// World is the block access a Finder needs. Implementations must be safe for concurrent use if the Finder is
// shared between goroutines.
type World interface {
	// Solid reports if the block at pos blocks movement.
	Solid(pos cube.Pos) bool
	// Hazard reports if the block at pos is a material that should not be walked in or on, such as lava.
	Hazard(pos cube.Pos) bool
	// LineOfSight reports if no solid block lies on the segment between from and to.
	LineOfSight(from, to mgl64.Vec3) bool
	// Range returns the vertical range of the world. Positions outside it are never walkable.
	Range() cube.Range
}

// Location is a point in a dimension. Paths can only be found between locations of the same dimension.
type Location struct {
	Dimension world.Dimension
	Pos       mgl64.Vec3
}

// Loc returns a Location in the dimension passed.
func Loc(dim world.Dimension, x, y, z float64) Location {
	return Location{Dimension: dim, Pos: mgl64.Vec3{x, y, z}}
}

func sameDimension(a, b Location) bool {
	return a.Dimension == b.Dimension
}

// blockPos returns the block containing the point.
func blockPos(x, y, z float64) cube.Pos {
	return cube.Pos{int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z))}
}
