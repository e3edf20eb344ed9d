package bot

import (
	"context"
	"sort"
	"sync"

	"git.patyhank.net/falloutBot/pathlib/voxel"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/goxiaoy/go-eventbus"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	log "github.com/sirupsen/logrus"
)

// Tracker keeps a voxel world in sync with the chunk and block packets sent by a server, so that paths can
// be searched through the world the player is in. Packets read from a connection are passed to
// HandlePacket.
type Tracker struct {
	Logger   *log.Logger
	EventBus *eventbus.EventBus

	mu sync.Mutex

	// overrides holds the vertical ranges sent in the last DimensionData packet, by dimension name.
	overrides map[string]cube.Range
	dimension int32
	world     *voxel.Chunks

	hLock    sync.Mutex
	handlers map[uint32][]handler
}

type handler struct {
	priority int
	f        func(p packet.Packet) error
}

// dimensions holds the names and default vertical ranges of the dimensions, indexed by dimension ID.
var dimensions = [...]struct {
	name string
	r    cube.Range
}{
	{"minecraft:overworld", cube.Range{-64, 319}},
	{"minecraft:nether", cube.Range{0, 127}},
	{"minecraft:the_end", cube.Range{0, 255}},
}

// BlockChangedEvent is published when the server changes a block of the tracked world.
type BlockChangedEvent struct {
	Position cube.Pos
	Block    world.Block
}

// DimensionChangedEvent is published when the player moves to another dimension. The tracked world is
// emptied when this happens.
type DimensionChangedEvent struct {
	Dimension world.Dimension
}

// NewTracker returns a Tracker for a player starting in the overworld. bus may be nil.
func NewTracker(logger *log.Logger, bus *eventbus.EventBus) *Tracker {
	if logger == nil {
		logger = log.StandardLogger()
	}
	t := &Tracker{
		Logger:   logger,
		EventBus: bus,
		handlers: map[uint32][]handler{},
	}
	t.world = voxel.NewChunks(t.rangeOf(0))

	Listen(t, 64, func(p *packet.DimensionData) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.overrides = make(map[string]cube.Range, len(p.Definitions))
		for _, definition := range p.Definitions {
			t.overrides[definition.Name] = cube.Range{int(definition.Range[0]), int(definition.Range[1])}
		}
		// The packet is sent before any chunk, so the world is still empty when its range changes.
		if r := t.rangeOf(t.dimension); r != t.world.Range() {
			t.world = voxel.NewChunks(r)
		}
		return nil
	})
	Listen(t, 64, func(p *packet.ChangeDimension) error {
		t.mu.Lock()
		t.dimension = p.Dimension
		t.world = voxel.NewChunks(t.rangeOf(p.Dimension))
		t.mu.Unlock()
		t.publish(&DimensionChangedEvent{Dimension: t.Dimension()})
		return nil
	})
	Listen(t, 64, func(p *packet.LevelChunk) error {
		if p.SubChunkCount == protocol.SubChunkRequestModeLimited || p.SubChunkCount == protocol.SubChunkRequestModeLimitless {
			// Sub chunks are requested separately, which is not supported.
			return nil
		}
		w := t.World()
		ch, err := chunk.NetworkDecode(voxel.AirRuntimeID, p.RawPayload, int(p.SubChunkCount), w.Range())
		if err != nil {
			return err
		}
		w.SetChunk(world.ChunkPos(p.Position), ch)
		return nil
	})
	Listen(t, 64, func(p *packet.UpdateBlock) error {
		if p.Layer != 0 {
			return nil
		}
		pos := cube.Pos{int(p.Position[0]), int(p.Position[1]), int(p.Position[2])}
		w := t.World()
		w.SetRuntimeID(pos, p.NewBlockRuntimeID)
		t.publish(&BlockChangedEvent{Position: pos, Block: w.Block(pos)})
		return nil
	})
	return t
}

// Listen adds a handler for packets of type T. Handlers with a higher priority are called first.
func Listen[T packet.Packet](t *Tracker, priority int, f func(p T) error) {
	var zero T
	id := zero.ID()

	t.hLock.Lock()
	defer t.hLock.Unlock()
	t.handlers[id] = append(t.handlers[id], handler{priority: priority, f: func(p packet.Packet) error {
		return f(p.(T))
	}})
	sort.SliceStable(t.handlers[id], func(i, j int) bool {
		return t.handlers[id][i].priority > t.handlers[id][j].priority
	})
}

// HandlePacket passes p to every handler of its type, stopping at the first error.
func (t *Tracker) HandlePacket(p packet.Packet) error {
	t.hLock.Lock()
	handlers := t.handlers[p.ID()]
	t.hLock.Unlock()

	for _, h := range handlers {
		if err := h.f(p); err != nil {
			t.Logger.WithField("packet", p.ID()).Debugf("handle packet: %v", err)
			return err
		}
	}
	return nil
}

// World returns the world of the dimension the player is currently in.
func (t *Tracker) World() *voxel.Chunks {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.world
}

// Dimension returns the dimension the player is currently in. Custom dimensions are reported as the
// overworld.
func (t *Tracker) Dimension() world.Dimension {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.dimension {
	case 1:
		return world.Nether
	case 2:
		return world.End
	}
	return world.Overworld
}

// rangeOf returns the vertical range of a dimension. Unknown dimensions get the range of the overworld.
func (t *Tracker) rangeOf(dimension int32) cube.Range {
	if dimension < 0 || int(dimension) >= len(dimensions) {
		dimension = 0
	}
	d := dimensions[dimension]
	if r, ok := t.overrides[d.name]; ok {
		return r
	}
	return d.r
}

func (t *Tracker) publish(ev any) {
	if t.EventBus == nil {
		return
	}
	var err error
	switch ev := ev.(type) {
	case *BlockChangedEvent:
		err = eventbus.Publish[*BlockChangedEvent](t.EventBus)(context.Background(), ev)
	case *DimensionChangedEvent:
		err = eventbus.Publish[*DimensionChangedEvent](t.EventBus)(context.Background(), ev)
	}
	if err != nil {
		t.Logger.Warn("publish tracker event: ", err)
	}
}
