package pathfind

import (
	"context"
	"time"

	"git.patyhank.net/falloutBot/pathlib/grid"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/goxiaoy/go-eventbus"
	log "github.com/sirupsen/logrus"
)

// Outcome describes how a search ended.
type Outcome string

const (
	OutcomeCrossDimension Outcome = "cross_dimension"
	OutcomeTooFar         Outcome = "too_far"
	OutcomeDirect         Outcome = "direct"
	OutcomeFound          Outcome = "found"
	OutcomeExhausted      Outcome = "exhausted"
	OutcomeBudget         Outcome = "budget"
	OutcomeCancelled      Outcome = "cancelled"
)

// Request holds the parameters of a single path search.
type Request struct {
	Start, End Location

	// MaxDistance is the largest straight line distance between Start and End for which a path is searched.
	MaxDistance float64

	// AvoidHazards rejects steps into or onto hazardous blocks.
	AvoidHazards bool

	// MaxDrop is the largest amount of blocks a single step may go down.
	MaxDrop int
}

// Result is the result of a search. Waypoints is empty unless Outcome is OutcomeDirect or OutcomeFound.
type Result struct {
	ID        uuid.UUID
	Outcome   Outcome
	Waypoints []mgl64.Vec3

	// Cost is the summed step cost of the grid path. It is zero for direct paths.
	Cost float64

	// Expanded is the amount of nodes expanded by the grid search.
	Expanded int
}

// Finder finds walkable paths through a World. A Finder may be used by multiple goroutines at once, and
// several Finders may share a Grid.
type Finder struct {
	w    World
	g    *grid.Grid
	opts Options
}

// New returns a Finder searching w over the lattice of g.
func New(w World, g *grid.Grid, opts Options) *Finder {
	return &Finder{w: w, g: g, opts: opts.withDefaults()}
}

// Grid returns the grid the Finder searches on.
func (f *Finder) Grid() *grid.Grid {
	return f.g
}

// FindPath returns the waypoints of a walkable path from req.Start to req.End, excluding the start point. An
// empty slice is returned if no path exists or none was searched for.
func (f *Finder) FindPath(ctx context.Context, req Request) []mgl64.Vec3 {
	return f.Search(ctx, req).Waypoints
}

// Search is like FindPath, but also reports how the search ended.
func (f *Finder) Search(ctx context.Context, req Request) Result {
	start := time.Now()
	f.maybeReset()

	release := f.g.Hold()
	res := f.search(ctx, req)
	release()
	res.ID = uuid.New()
	if res.Waypoints == nil {
		res.Waypoints = []mgl64.Vec3{}
	}

	searchesTotal.WithLabelValues(string(res.Outcome), f.opts.Policy.String()).Inc()
	searchDuration.Observe(time.Since(start).Seconds())
	gridNodes.Set(float64(f.g.Len()))
	if res.Outcome != OutcomeDirect && res.Outcome != OutcomeCrossDimension && res.Outcome != OutcomeTooFar {
		expandedNodes.Observe(float64(res.Expanded))
	}

	f.opts.Logger.WithFields(log.Fields{
		"id":        res.ID,
		"outcome":   res.Outcome,
		"policy":    f.opts.Policy,
		"expanded":  res.Expanded,
		"waypoints": len(res.Waypoints),
		"took":      time.Since(start),
	}).Debugf("path search %v -> %v", req.Start.Pos, req.End.Pos)

	f.publish(ctx, req, res)
	return res
}

func (f *Finder) search(ctx context.Context, req Request) Result {
	if !sameDimension(req.Start, req.End) {
		return Result{Outcome: OutcomeCrossDimension}
	}
	if req.Start.Pos.Sub(req.End.Pos).Len() > req.MaxDistance {
		return Result{Outcome: OutcomeTooFar}
	}
	if f.w.LineOfSight(req.Start.Pos, req.End.Pos) {
		return Result{Outcome: OutcomeDirect, Waypoints: []mgl64.Vec3{req.End.Pos}}
	}
	if req.MaxDrop < 0 {
		req.MaxDrop = 0
	}

	s := &search{
		f:     f,
		ctx:   ctx,
		req:   req,
		start: f.g.NodeFor(req.Start.Pos[0], req.Start.Pos[1], req.Start.Pos[2]),
		goal:  f.g.NodeFor(req.End.Pos[0], req.End.Pos[1], req.End.Pos[2]),
	}
	var (
		nodes   []*grid.Node
		cost    float64
		outcome Outcome
	)
	switch f.opts.Policy {
	case PolicyLegacy:
		nodes, cost, outcome = s.legacy()
	default:
		nodes, cost, outcome = s.shortest()
	}
	if outcome != OutcomeFound {
		return Result{Outcome: outcome, Expanded: s.expanded}
	}
	return Result{Outcome: OutcomeFound, Waypoints: f.waypoints(req.Start.Pos, nodes), Cost: cost, Expanded: s.expanded}
}

// waypoints converts the nodes of a path in forward order to waypoints, dropping the first one if it is the
// start point.
func (f *Finder) waypoints(start mgl64.Vec3, nodes []*grid.Node) []mgl64.Vec3 {
	points := make([]mgl64.Vec3, 0, len(nodes))
	for _, n := range nodes {
		points = append(points, n.Vec3())
	}
	if len(points) > 0 && points[0].Sub(start).Len() <= f.opts.StartTolerance {
		points = points[1:]
	}
	return points
}

func (f *Finder) maybeReset() {
	if f.opts.MaxGridNodes <= 0 {
		return
	}
	if n, ok := f.g.ResetAbove(f.opts.MaxGridNodes); ok {
		f.opts.Logger.Debugf("path grid reset after caching %d nodes", n)
	}
}

func (f *Finder) publish(ctx context.Context, req Request, res Result) {
	if f.opts.Bus == nil {
		return
	}
	err := eventbus.Publish[*PathEvent](f.opts.Bus)(context.WithoutCancel(ctx), &PathEvent{
		ID:        res.ID,
		Outcome:   res.Outcome,
		Start:     req.Start,
		End:       req.End,
		Waypoints: res.Waypoints,
		Expanded:  res.Expanded,
	})
	if err != nil {
		f.opts.Logger.Warn("publish path event: ", err)
	}
}
