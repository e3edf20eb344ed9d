package voxel

import (
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// Material is the kind of a block held by a Memory world.
type Material uint8

const (
	Air Material = iota
	Solid
	// Plant is passable vegetation such as grass or flowers.
	Plant
	Lava
	Fire
)

// Solid reports if the material blocks movement.
func (m Material) Solid() bool {
	return m == Solid
}

// Hazard reports if the material should be avoided when walking.
func (m Material) Hazard() bool {
	return m == Lava || m == Fire
}

func (m Material) String() string {
	switch m {
	case Air:
		return "air"
	case Solid:
		return "solid"
	case Plant:
		return "plant"
	case Lava:
		return "lava"
	case Fire:
		return "fire"
	}
	return "unknown"
}

// ParseMaterial returns the Material with the name passed, as returned by Material.String.
func ParseMaterial(name string) (Material, bool) {
	for m := Air; m <= Fire; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return Air, false
}

// Memory is a voxel world kept entirely in memory. Every block that was never set is air. Memory is mostly
// useful for tests and offline planning.
type Memory struct {
	r cube.Range

	mu     sync.RWMutex
	blocks map[cube.Pos]Material
}

// NewMemory returns an empty Memory world with the vertical range passed.
func NewMemory(r cube.Range) *Memory {
	return &Memory{r: r, blocks: make(map[cube.Pos]Material)}
}

// Set sets the material of the block at pos.
func (m *Memory) Set(pos cube.Pos, mat Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mat == Air {
		delete(m.blocks, pos)
		return
	}
	m.blocks[pos] = mat
}

// Fill sets every block in the box spanned by a and b, both inclusive.
func (m *Memory) Fill(a, b cube.Pos, mat Material) {
	lo := cube.Pos{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
	hi := cube.Pos{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				m.Set(cube.Pos{x, y, z}, mat)
			}
		}
	}
}

// Material returns the material of the block at pos.
func (m *Memory) Material(pos cube.Pos) Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks[pos]
}

// Range returns the vertical range of the world.
func (m *Memory) Range() cube.Range {
	return m.r
}

// Solid reports if the block at pos blocks movement.
func (m *Memory) Solid(pos cube.Pos) bool {
	return m.Material(pos).Solid()
}

// Hazard reports if the block at pos is hazardous.
func (m *Memory) Hazard(pos cube.Pos) bool {
	return m.Material(pos).Hazard()
}

// LineOfSight reports if no solid block lies between from and to.
func (m *Memory) LineOfSight(from, to mgl64.Vec3) bool {
	return LineOfSight(from, to, m.Solid)
}
