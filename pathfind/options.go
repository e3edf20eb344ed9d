package pathfind

import (
	"fmt"

	"github.com/goxiaoy/go-eventbus"
	log "github.com/sirupsen/logrus"
)

// Policy selects how the frontier of a search is ordered and when node costs are relaxed.
type Policy uint8

const (
	// PolicyAStar orders the frontier by cost so far plus the heuristic and only relaxes a node when a cheaper
	// route to it is found. Paths found are shortest paths.
	PolicyAStar Policy = iota
	// PolicyLegacy orders the frontier by the sum of the node coordinates and overwrites the predecessor and
	// cost of a node on every visit. Paths found are walkable but not necessarily shortest.
	PolicyLegacy
)

func (p Policy) String() string {
	switch p {
	case PolicyAStar:
		return "astar"
	case PolicyLegacy:
		return "legacy"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy parses the name of a Policy as returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "astar", "":
		return PolicyAStar, nil
	case "legacy":
		return PolicyLegacy, nil
	}
	return 0, fmt.Errorf("unknown path policy %q", s)
}

// DefaultStartTolerance is the distance within which the first waypoint of a path is considered to be the
// start itself and dropped.
const DefaultStartTolerance = 1e-3

// Options configures a Finder. The zero value is usable.
type Options struct {
	Policy Policy

	// StartTolerance is the distance within which the first waypoint is dropped for being the start point.
	// Zero means DefaultStartTolerance.
	StartTolerance float64

	// MaxExpanded bounds the amount of nodes expanded in one search. Zero means no limit.
	MaxExpanded int

	// MaxGridNodes resets the grid before a search once it caches more nodes than this. Zero means the grid
	// is never reset.
	MaxGridNodes int

	Logger *log.Logger

	// Bus receives a *PathEvent after every search if set.
	Bus *eventbus.EventBus
}

func (o Options) withDefaults() Options {
	if o.StartTolerance <= 0 {
		o.StartTolerance = DefaultStartTolerance
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	return o
}
