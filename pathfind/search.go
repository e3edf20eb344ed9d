package pathfind

import (
	"context"
	"iter"
	"math"
	"slices"

	"git.patyhank.net/falloutBot/pathlib/grid"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/fzipp/astar"
	"github.com/tidwall/btree"
)

// offsets are the eight horizontal directions a step can be taken in.
var offsets = [8][2]int64{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// search holds the state of a single grid search.
type search struct {
	f     *Finder
	ctx   context.Context
	req   Request
	start *grid.Node
	goal  *grid.Node

	expanded int
	stopped  Outcome
}

// stop reports if the search must end before expanding another node, recording why.
func (s *search) stop() bool {
	if s.stopped != "" {
		return true
	}
	if s.ctx.Err() != nil {
		s.stopped = OutcomeCancelled
	} else if limit := s.f.opts.MaxExpanded; limit > 0 && s.expanded >= limit {
		s.stopped = OutcomeBudget
	}
	return s.stopped != ""
}

// Neighbours returns the nodes a single step away from n that can be stood on. It implements astar.Graph.
func (s *search) Neighbours(n *grid.Node) iter.Seq[*grid.Node] {
	if s.stop() {
		return func(func(*grid.Node) bool) {}
	}
	s.expanded++
	return slices.Values(s.neighbours(n))
}

func (s *search) neighbours(n *grid.Node) []*grid.Node {
	step := s.f.g.Step()
	c := n.Cell()
	nodes := make([]*grid.Node, 0, len(offsets))
	for _, o := range offsets {
		// Coordinates are computed from the cell the same way the grid computes node coordinates, so the
		// heights checked here are exactly those of the node returned.
		x, z := float64(c.X+o[0])*step, float64(c.Z+o[1])*step
		y, ok := s.surface(x, c.Y, z)
		if !ok || !s.walkable(blockPos(x, y, z)) {
			continue
		}
		if n.Y-y > float64(s.req.MaxDrop) {
			continue
		}
		nodes = append(nodes, s.f.g.NodeFor(x, y, z))
	}
	return nodes
}

// surface scans the lattice heights from at most one block above the cell height cy down to at most MaxDrop
// blocks below it and returns the first height at which a non-solid block rests on a solid one. Only the
// lowest lattice height inside a block is considered, so that nodes stand on the floor of their block.
func (s *search) surface(x float64, cy int64, z float64) (float64, bool) {
	step := s.f.g.Step()
	r := s.f.w.Range()
	up, down := int64(math.Floor(1/step)), int64(math.Floor(float64(s.req.MaxDrop)/step))
	for k := up; k >= -down; k-- {
		y := float64(cy+k) * step
		if y-math.Floor(y) >= step {
			continue
		}
		pos := blockPos(x, y, z)
		if pos.OutOfBounds(r) {
			continue
		}
		if !s.f.w.Solid(pos) && s.f.w.Solid(pos.Side(cube.FaceDown)) {
			return y, true
		}
	}
	return 0, false
}

// walkable reports if pos has clear headroom and solid footing, and, if hazards are avoided, neither pos nor
// its footing is hazardous.
func (s *search) walkable(pos cube.Pos) bool {
	w := s.f.w
	if pos.OutOfBounds(w.Range()) || w.Solid(pos) || w.Solid(pos.Side(cube.FaceUp)) {
		return false
	}
	below := pos.Side(cube.FaceDown)
	if !w.Solid(below) {
		return false
	}
	if s.req.AvoidHazards && (w.Hazard(pos) || w.Hazard(below)) {
		return false
	}
	return true
}

// cost returns the cost of a step between two neighbouring nodes: one step for a straight move, √2 steps for
// a diagonal move, combined with the height difference.
func (s *search) cost(a, b *grid.Node) float64 {
	horizontal := s.f.g.Step()
	if a.X != b.X && a.Z != b.Z {
		horizontal *= math.Sqrt2
	}
	dy := b.Y - a.Y
	return math.Sqrt(horizontal*horizontal + dy*dy)
}

// heuristic returns the straight line distance between two nodes.
func heuristic(a, b *grid.Node) float64 {
	return a.Vec3().Sub(b.Vec3()).Len()
}

// shortest runs an A* search ordered by cost so far plus heuristic.
func (s *search) shortest() ([]*grid.Node, float64, Outcome) {
	path := astar.FindPath[*grid.Node](s, s.start, s.goal, s.cost, heuristic)
	if path == nil {
		if s.stopped != "" {
			return nil, 0, s.stopped
		}
		return nil, 0, OutcomeExhausted
	}
	return path, path.Cost(s.cost), OutcomeFound
}

// coordinateSumLess orders nodes by the sum of their coordinates. Nodes with equal sums are ordered by cell
// so that distinct nodes never compare equal.
func coordinateSumLess(a, b *grid.Node) bool {
	sa, sb := a.X+a.Y+a.Z, b.X+b.Y+b.Z
	if sa != sb {
		return sa < sb
	}
	return a.Cell().Less(b.Cell())
}

// legacy runs a best-first search whose frontier is ordered by coordinate sum and whose predecessors and
// costs are overwritten on every visit.
func (s *search) legacy() ([]*grid.Node, float64, Outcome) {
	frontier := btree.NewBTreeG[*grid.Node](coordinateSumLess)
	closed := make(map[*grid.Node]struct{})
	cameFrom := make(map[*grid.Node]*grid.Node)
	gScore := map[*grid.Node]float64{s.start: 0}

	frontier.Set(s.start)
	for frontier.Len() > 0 {
		if s.stop() {
			return nil, 0, s.stopped
		}
		current, _ := frontier.PopMin()
		if current == s.goal {
			return reconstruct(cameFrom, current), gScore[current], OutcomeFound
		}
		closed[current] = struct{}{}
		s.expanded++

		for _, n := range s.neighbours(current) {
			if _, ok := closed[n]; ok {
				continue
			}
			cameFrom[n] = current
			gScore[n] = gScore[current] + s.cost(current, n)
			frontier.Set(n)
		}
	}
	return nil, 0, OutcomeExhausted
}

// reconstruct walks cameFrom back from n and returns the path in forward order.
func reconstruct(cameFrom map[*grid.Node]*grid.Node, n *grid.Node) []*grid.Node {
	path := []*grid.Node{n}
	for {
		prev, ok := cameFrom[n]
		if !ok {
			break
		}
		path = append(path, prev)
		n = prev
	}
	slices.Reverse(path)
	return path
}
