package grid

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/df-mc/atomic"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidStep is returned by New if the step size is not a finite number greater than zero.
var ErrInvalidStep = errors.New("grid: step size must be finite and greater than 0")

// Node is a point on the lattice of a Grid. Nodes are only ever created by the Grid they belong to, so two
// nodes with the same coordinates are always the same *Node and may be compared and hashed by pointer.
type Node struct {
	// X, Y and Z are the world coordinates of the node. They are always an exact multiple of the step size of
	// the grid.
	X, Y, Z float64

	cell Cell
}

// Cell returns the lattice index of the node.
func (n *Node) Cell() Cell {
	return n.cell
}

// Key returns the packed key of the node. See Cell.Pack.
func (n *Node) Key() (Key, bool) {
	return n.cell.Pack()
}

// Vec3 returns the world position of the node.
func (n *Node) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{n.X, n.Y, n.Z}
}

func (n *Node) String() string {
	return fmt.Sprintf("(%v, %v, %v)", n.X, n.Y, n.Z)
}

// Stats holds counters of a Grid.
type Stats struct {
	Nodes  int
	Hits   uint64
	Misses uint64
}

// Grid maps continuous coordinates onto a lattice with a fixed step and hands out one canonical Node per
// lattice cell. The cache only grows; Reset may be used to drop it. A Grid is safe for concurrent use and may
// be shared by several searches.
type Grid struct {
	step float64

	// users is read locked by every Hold and write locked by a reset.
	users sync.RWMutex

	mu    sync.RWMutex
	nodes map[Cell]*Node

	hits, misses atomic.Uint64
}

// New returns an empty Grid with the step size passed.
func New(step float64) (*Grid, error) {
	if !(step > 0) || math.IsInf(step, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidStep, step)
	}
	return &Grid{step: step, nodes: make(map[Cell]*Node)}, nil
}

// Step returns the step size of the lattice.
func (g *Grid) Step() float64 {
	return g.step
}

// CellFor returns the lattice cell nearest to the coordinates passed.
func (g *Grid) CellFor(x, y, z float64) Cell {
	return Cell{
		X: int64(math.Round(x / g.step)),
		Y: int64(math.Round(y / g.step)),
		Z: int64(math.Round(z / g.step)),
	}
}

// NodeFor returns the Node of the lattice cell nearest to the coordinates passed. Repeated calls for the same
// cell return the same Node.
func (g *Grid) NodeFor(x, y, z float64) *Node {
	c := g.CellFor(x, y, z)

	g.mu.RLock()
	n, ok := g.nodes[c]
	g.mu.RUnlock()
	if ok {
		g.hits.Inc()
		return n
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// Another goroutine may have inserted the cell between the two locks.
	if n, ok := g.nodes[c]; ok {
		g.hits.Inc()
		return n
	}
	g.misses.Inc()
	n = &Node{
		X:    float64(c.X) * g.step,
		Y:    float64(c.Y) * g.step,
		Z:    float64(c.Z) * g.step,
		cell: c,
	}
	g.nodes[c] = n
	return n
}

// Len returns the amount of cached nodes.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Stats returns the current counters of the grid.
func (g *Grid) Stats() Stats {
	return Stats{Nodes: g.Len(), Hits: g.hits.Load(), Misses: g.misses.Load()}
}

// Hold keeps the grid from being reset until the function returned is called. Code that compares nodes by
// pointer across several NodeFor calls holds the grid for that time. A goroutine must not reset the grid
// while holding it.
func (g *Grid) Hold() (release func()) {
	g.users.RLock()
	return g.users.RUnlock
}

// Reset drops every cached node once no holds remain. Nodes handed out earlier stay valid, but are no longer
// canonical: a new call to NodeFor for their cell returns a different Node.
func (g *Grid) Reset() {
	g.users.Lock()
	defer g.users.Unlock()
	g.reset()
}

// ResetAbove resets the grid if it caches more than limit nodes, waiting for holds like Reset. It returns the
// amount of nodes dropped.
func (g *Grid) ResetAbove(limit int) (int, bool) {
	if g.Len() <= limit {
		return 0, false
	}
	g.users.Lock()
	defer g.users.Unlock()
	// Another goroutine may have reset the grid while this one waited.
	n := g.Len()
	if n <= limit {
		return 0, false
	}
	g.reset()
	return n, true
}

func (g *Grid) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[Cell]*Node)
}
