package grid

import "fmt"

// Bit widths of the packed Key fields. The horizontal axes get enough room for the ±30M block world border
// at a step of one block, the vertical axis only needs to cover the bounded world height.
const (
	horizontalBits = 26
	verticalBits   = 12

	zShift = 0
	yShift = horizontalBits
	xShift = horizontalBits + verticalBits
)

const (
	horizontalMask = 1<<horizontalBits - 1
	verticalMask   = 1<<verticalBits - 1

	minHorizontal = -(1 << (horizontalBits - 1))
	maxHorizontal = 1<<(horizontalBits-1) - 1
	minVertical   = -(1 << (verticalBits - 1))
	maxVertical   = 1<<(verticalBits-1) - 1
)

// Cell is the signed integer lattice index of a Node. It is the structural key of the grid cache, so two
// distinct cells never share a Node regardless of how far they are from the origin.
type Cell struct {
	X, Y, Z int64
}

// Key is a Cell packed into a single 64-bit integer: 26 bits of X, 12 bits of Y and 26 bits of Z, each
// field holding the two's complement of its index.
type Key uint64

// Pack returns the packed Key of the cell. The second return value is false if one of the indices does not
// fit its field, in which case the Key must not be used.
func (c Cell) Pack() (Key, bool) {
	if c.X < minHorizontal || c.X > maxHorizontal ||
		c.Z < minHorizontal || c.Z > maxHorizontal ||
		c.Y < minVertical || c.Y > maxVertical {
		return 0, false
	}
	k := uint64(c.X)&horizontalMask<<xShift |
		uint64(c.Y)&verticalMask<<yShift |
		uint64(c.Z)&horizontalMask<<zShift
	return Key(k), true
}

// Unpack restores the Cell a Key was packed from.
func (k Key) Unpack() Cell {
	return Cell{
		X: signExtend(uint64(k)>>xShift&horizontalMask, horizontalBits),
		Y: signExtend(uint64(k)>>yShift&verticalMask, verticalBits),
		Z: signExtend(uint64(k)>>zShift&horizontalMask, horizontalBits),
	}
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// Less orders cells lexicographically by X, Y and Z.
func (c Cell) Less(o Cell) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

func (c Cell) String() string {
	return fmt.Sprintf("[%d %d %d]", c.X, c.Y, c.Z)
}
