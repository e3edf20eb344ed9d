package bot

import (
	"context"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// PacketWriter writes packets to a server. *minecraft.Conn implements it.
type PacketWriter interface {
	WritePacket(pk packet.Packet) error
}

// eyeHeight is the offset between the feet and the eyes of a player, which is what MovePlayer positions are
// measured at.
const eyeHeight = 1.62

// Walker moves a player along a path by sending a MovePlayer packet for every waypoint.
type Walker struct {
	conn            PacketWriter
	entityRuntimeID uint64

	// Interval is the time waited between two waypoints. Waypoints are sent without waiting if it is not
	// positive.
	Interval time.Duration
	Pitch    float32
	Yaw      float32
	HeadYaw  float32

	position mgl32.Vec3
}

// NewWalker returns a Walker moving the player with the runtime ID passed over conn.
func NewWalker(conn PacketWriter, entityRuntimeID uint64) *Walker {
	return &Walker{conn: conn, entityRuntimeID: entityRuntimeID, Interval: 25 * time.Millisecond}
}

// Position returns the last position sent, at eye height.
func (w *Walker) Position() mgl32.Vec3 {
	return w.position
}

// Follow sends the player to every waypoint of path in order, standing in the centre of the block of each
// waypoint. It returns early if ctx is cancelled or a packet could not be written.
func (w *Walker) Follow(ctx context.Context, path []mgl64.Vec3) error {
	var tick <-chan time.Time
	if w.Interval > 0 {
		t := time.NewTicker(w.Interval)
		defer t.Stop()
		tick = t.C
	}

	for i, p := range path {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.send(BlockCentre(p)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) send(position mgl32.Vec3) error {
	err := w.conn.WritePacket(&packet.MovePlayer{
		EntityRuntimeID: w.entityRuntimeID,
		Position:        position,
		Pitch:           w.Pitch,
		Yaw:             w.Yaw,
		HeadYaw:         w.HeadYaw,
		Mode:            packet.MoveModeNormal,
		OnGround:        true,
	})
	if err != nil {
		return err
	}
	w.position = position
	return nil
}

// BlockCentre returns the eye position of a player standing in the middle of the block containing p.
func BlockCentre(p mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Floor(p[0])) + 0.5,
		float32(math.Floor(p[1])) + eyeHeight,
		float32(math.Floor(p[2])) + 0.5,
	}
}
