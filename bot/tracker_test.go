package bot

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"git.patyhank.net/falloutBot/pathlib/voxel"
	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/goxiaoy/go-eventbus"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

func stoneRID(t *testing.T) uint32 {
	t.Helper()
	rid, ok := voxel.RuntimeID(block.Stone{})
	if !ok {
		t.Fatalf("no runtime ID for stone")
	}
	return rid
}

func TestTrackerUpdateBlock(t *testing.T) {
	bus := eventbus.New()
	var changed []*BlockChangedEvent
	disposable, _ := eventbus.Subscribe[*BlockChangedEvent](bus)(func(ctx context.Context, ev *BlockChangedEvent) error {
		changed = append(changed, ev)
		return nil
	})
	defer disposable.Dispose()

	tr := NewTracker(nil, bus)
	err := tr.HandlePacket(&packet.UpdateBlock{
		Position:          protocol.BlockPos{-3, 64, 20},
		NewBlockRuntimeID: stoneRID(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !tr.World().Solid(cube.Pos{-3, 64, 20}) {
		t.Fatalf("updated block is not solid")
	}
	if tr.World().Solid(cube.Pos{-3, 65, 20}) {
		t.Fatalf("block above the update is solid")
	}
	if len(changed) != 1 || changed[0].Position != (cube.Pos{-3, 64, 20}) {
		t.Fatalf("BlockChangedEvent = %v", changed)
	}

	// Blocks on the liquid layer do not change the world.
	_ = tr.HandlePacket(&packet.UpdateBlock{
		Position:          protocol.BlockPos{0, 64, 0},
		NewBlockRuntimeID: stoneRID(t),
		Layer:             1,
	})
	if tr.World().Solid(cube.Pos{0, 64, 0}) {
		t.Fatalf("layer 1 update changed the world")
	}
}

func TestTrackerChangeDimension(t *testing.T) {
	tr := NewTracker(nil, nil)
	_ = tr.HandlePacket(&packet.UpdateBlock{Position: protocol.BlockPos{1, 64, 1}, NewBlockRuntimeID: stoneRID(t)})

	if err := tr.HandlePacket(&packet.ChangeDimension{Dimension: 1}); err != nil {
		t.Fatal(err)
	}
	if tr.Dimension() != world.Nether {
		t.Fatalf("Dimension() = %v, want nether", tr.Dimension())
	}
	if tr.World().Range() != (cube.Range{0, 127}) {
		t.Fatalf("Range() = %v", tr.World().Range())
	}
	if tr.World().Solid(cube.Pos{1, 64, 1}) {
		t.Fatalf("blocks of the previous dimension were kept")
	}
}

func TestListenPriority(t *testing.T) {
	tr := NewTracker(nil, nil)
	var order []int
	stop := errors.New("stop")
	Listen(tr, 1, func(p *packet.Text) error {
		order = append(order, 1)
		return nil
	})
	Listen(tr, 10, func(p *packet.Text) error {
		order = append(order, 10)
		return nil
	})
	Listen(tr, -5, func(p *packet.Text) error {
		order = append(order, -5)
		return stop
	})
	Listen(tr, -10, func(p *packet.Text) error {
		order = append(order, -10)
		return nil
	})

	if err := tr.HandlePacket(&packet.Text{}); !errors.Is(err, stop) {
		t.Fatalf("HandlePacket() = %v, want %v", err, stop)
	}
	want := []int{10, 1, -5}
	if len(order) != len(want) {
		t.Fatalf("handlers called = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("handlers called = %v, want %v", order, want)
		}
	}
}

// levelChunk encodes c as a server sends it in a LevelChunk packet.
func levelChunk(pos world.ChunkPos, c *chunk.Chunk) *packet.LevelChunk {
	data := chunk.Encode(c, chunk.NetworkEncoding)
	var buf bytes.Buffer
	for _, sub := range data.SubChunks {
		buf.Write(sub)
	}
	buf.Write(data.Biomes)
	// Border block count.
	buf.WriteByte(0)
	return &packet.LevelChunk{
		Position:      protocol.ChunkPos(pos),
		SubChunkCount: uint32(len(data.SubChunks)),
		RawPayload:    buf.Bytes(),
	}
}

func TestTrackerLevelChunk(t *testing.T) {
	tr := NewTracker(nil, nil)
	c := chunk.New(voxel.AirRuntimeID, tr.World().Range())
	c.SetBlock(3, 64, 5, 0, stoneRID(t))

	if err := tr.HandlePacket(levelChunk(world.ChunkPos{1, -2}, c)); err != nil {
		t.Fatal(err)
	}
	pos := cube.Pos{16 + 3, 64, -32 + 5}
	if !tr.World().Solid(pos) {
		t.Fatalf("block %v of the received chunk is not solid", pos)
	}
	if tr.World().Solid(pos.Side(cube.FaceUp)) {
		t.Fatalf("block above %v is solid", pos)
	}

	// Chunks whose sub chunks are requested separately carry no blocks and are skipped.
	for _, mode := range []uint32{protocol.SubChunkRequestModeLimited, protocol.SubChunkRequestModeLimitless} {
		err := tr.HandlePacket(&packet.LevelChunk{Position: protocol.ChunkPos{1, -2}, SubChunkCount: mode, RawPayload: []byte{1, 2, 3}})
		if err != nil {
			t.Fatalf("sub chunk request mode %d: %v", mode, err)
		}
	}
	if !tr.World().Solid(pos) {
		t.Fatalf("skipped chunk replaced the received one")
	}
}

func TestTrackerDimensionData(t *testing.T) {
	tr := NewTracker(nil, nil)
	err := tr.HandlePacket(&packet.DimensionData{Definitions: []protocol.DimensionDefinition{
		{Name: "minecraft:overworld", Range: [2]int32{0, 255}},
		{Name: "minecraft:nether", Range: [2]int32{-16, 143}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.World().Range(); got != (cube.Range{0, 255}) {
		t.Fatalf("overworld range = %v, want [0 255]", got)
	}

	_ = tr.HandlePacket(&packet.ChangeDimension{Dimension: 1})
	if got := tr.World().Range(); got != (cube.Range{-16, 143}) {
		t.Fatalf("nether range = %v, want [-16 143]", got)
	}
	_ = tr.HandlePacket(&packet.ChangeDimension{Dimension: 2})
	if got := tr.World().Range(); got != (cube.Range{0, 255}) {
		t.Fatalf("end range = %v, want the default [0 255]", got)
	}

	// A new packet replaces the earlier definitions instead of adding to them.
	_ = tr.HandlePacket(&packet.DimensionData{})
	_ = tr.HandlePacket(&packet.ChangeDimension{Dimension: 0})
	if got := tr.World().Range(); got != (cube.Range{-64, 319}) {
		t.Fatalf("overworld range after reset = %v, want the default [-64 319]", got)
	}
	_ = tr.HandlePacket(&packet.ChangeDimension{Dimension: 7})
	if got := tr.World().Range(); got != (cube.Range{-64, 319}) {
		t.Fatalf("unknown dimension range = %v, want the overworld range", got)
	}
}
