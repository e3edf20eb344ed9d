package voxel

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/block/cube/trace"
	"github.com/go-gl/mathgl/mgl64"
)

// LineOfSight reports if the segment between from and to crosses no block for which solid returns true. The
// blocks containing from and to are part of the segment.
func LineOfSight(from, to mgl64.Vec3, solid func(pos cube.Pos) bool) bool {
	if from.ApproxEqual(to) {
		return !solid(cube.PosFromVec3(from))
	}
	open := true
	trace.TraverseBlocks(from, to, func(pos cube.Pos) bool {
		if solid(pos) {
			open = false
		}
		return open
	})
	return open
}
