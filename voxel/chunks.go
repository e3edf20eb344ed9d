package voxel

import (
	"slices"
	"sync"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/block/model"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/go-gl/mathgl/mgl64"
)

// AirRuntimeID is the runtime ID of air, which empty chunks are filled with.
var AirRuntimeID, _ = chunk.StateToRuntimeID("minecraft:air", nil)

var airB world.Block = block.Air{}

// passable holds blocks that have a model but can be walked through.
var passable = []string{"minecraft:air", "minecraft:short_grass", "minecraft:grass", "minecraft:seagrass", "minecraft:tallgrass", "minecraft:tall_grass"}

// hazardous holds blocks that hurt when stood in or on.
var hazardous = []string{"minecraft:lava", "minecraft:flowing_lava", "minecraft:fire", "minecraft:soul_fire", "minecraft:magma", "minecraft:cactus", "minecraft:sweet_berry_bush"}

// Passable reports if a block can be walked through.
func Passable(b world.Block) bool {
	if _, ok := b.Model().(model.Empty); ok {
		return true
	}
	name, _ := b.EncodeBlock()
	return slices.Contains(passable, name)
}

// Hazardous reports if a block should be avoided when walking.
func Hazardous(b world.Block) bool {
	if _, ok := b.(block.Lava); ok {
		return true
	}
	name, _ := b.EncodeBlock()
	return slices.Contains(hazardous, name)
}

// Chunks is a world made of chunk columns, as received from a server or loaded from disk. Blocks in chunks
// that were never set are air.
type Chunks struct {
	r cube.Range

	chunkMutex sync.Mutex
	chunks     map[world.ChunkPos]*Column
}

// NewChunks returns an empty Chunks world with the vertical range passed.
func NewChunks(r cube.Range) *Chunks {
	return &Chunks{r: r, chunks: map[world.ChunkPos]*Column{}}
}

// Column represents the data of a chunk. The data is protected by the mutex of the Column.
type Column struct {
	sync.Mutex

	*chunk.Chunk
}

func newColumn(c *chunk.Chunk) *Column {
	return &Column{Chunk: c}
}

// Range returns the vertical range of the world.
func (w *Chunks) Range() cube.Range {
	return w.r
}

func (w *Chunks) chunk(pos world.ChunkPos) *Column {
	w.chunkMutex.Lock()
	defer w.chunkMutex.Unlock()
	return w.chunks[pos]
}

// SetChunk replaces the chunk at pos.
func (w *Chunks) SetChunk(pos world.ChunkPos, c *chunk.Chunk) {
	w.chunkMutex.Lock()
	defer w.chunkMutex.Unlock()
	w.chunks[pos] = newColumn(c)
}

// SetBlock sets the block at pos, creating an empty chunk if none is present yet. Positions outside the
// vertical range are ignored.
func (w *Chunks) SetBlock(pos cube.Pos, b world.Block) {
	rid, ok := RuntimeID(b)
	if !ok {
		return
	}
	w.SetRuntimeID(pos, rid)
}

// RuntimeID returns the runtime ID of the block state of b. It does not need the block registry of a running
// server.
func RuntimeID(b world.Block) (uint32, bool) {
	name, props := b.EncodeBlock()
	return chunk.StateToRuntimeID(name, props)
}

// SetRuntimeID is like SetBlock, but takes the runtime ID of the block.
func (w *Chunks) SetRuntimeID(pos cube.Pos, rid uint32) {
	if pos.OutOfBounds(w.r) {
		return
	}
	cp := chunkPosFromBlockPos(pos)

	w.chunkMutex.Lock()
	c, ok := w.chunks[cp]
	if !ok {
		c = newColumn(chunk.New(AirRuntimeID, w.r))
		w.chunks[cp] = c
	}
	w.chunkMutex.Unlock()

	c.Lock()
	defer c.Unlock()
	c.Chunk.SetBlock(uint8(pos[0]&0xf), int16(pos[1]), uint8(pos[2]&0xf), 0, rid)
}

// Block reads the block at pos. Unloaded chunks and positions outside the vertical range read as air.
func (w *Chunks) Block(pos cube.Pos) world.Block {
	if w == nil || pos.OutOfBounds(w.r) {
		// Fast way out.
		return airB
	}
	c := w.chunk(chunkPosFromBlockPos(pos))
	if c == nil {
		return airB
	}
	c.Lock()
	rid := c.Chunk.Block(uint8(pos[0]&0xf), int16(pos[1]), uint8(pos[2]&0xf), 0)
	c.Unlock()

	b, ok := world.BlockByRuntimeID(rid)
	if !ok {
		return airB
	}
	return b
}

// Solid reports if the block at pos blocks movement.
func (w *Chunks) Solid(pos cube.Pos) bool {
	return !Passable(w.Block(pos))
}

// Hazard reports if the block at pos is hazardous.
func (w *Chunks) Hazard(pos cube.Pos) bool {
	return Hazardous(w.Block(pos))
}

// LineOfSight reports if no solid block lies between from and to.
func (w *Chunks) LineOfSight(from, to mgl64.Vec3) bool {
	return LineOfSight(from, to, w.Solid)
}

// chunkPosFromBlockPos returns the ChunkPos of the chunk that a block at a cube.Pos is in.
func chunkPosFromBlockPos(p cube.Pos) world.ChunkPos {
	return world.ChunkPos{int32(p[0] >> 4), int32(p[2] >> 4)}
}
