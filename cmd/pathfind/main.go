// Command pathfind searches a walkable path through a voxel scene described in YAML and prints its waypoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"git.patyhank.net/falloutBot/pathlib/config"
	"git.patyhank.net/falloutBot/pathlib/pathfind"
	"git.patyhank.net/falloutBot/pathlib/voxel"
	"github.com/dlclark/regexp2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/goxiaoy/go-eventbus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var coordsRegex = regexp2.MustCompile(`^\s*(?<x>-?\d+(?:\.\d+)?)\s*,\s*(?<y>-?\d+(?:\.\d+)?)\s*,\s*(?<z>-?\d+(?:\.\d+)?)\s*$`, regexp2.None)

func main() {
	var (
		configPath = flag.String("config", "", "path of the YAML configuration")
		scenePath  = flag.String("scene", "", "path of the YAML scene to search in")
		from       = flag.String("from", "", "start position as x,y,z")
		to         = flag.String("to", "", "end position as x,y,z")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Stdout, *configPath, *scenePath, *from, *to); err != nil {
		fmt.Fprintln(os.Stderr, "pathfind:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, configPath, scenePath, from, to string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	start, err := parseCoords(from)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	end, err := parseCoords(to)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	dim, w, err := scene.Build()
	if err != nil {
		return fmt.Errorf("scene %s: %w", scenePath, err)
	}

	bus := eventbus.New()
	disposable, _ := eventbus.Subscribe[*pathfind.PathEvent](bus)(func(ctx context.Context, ev *pathfind.PathEvent) error {
		logger.WithFields(log.Fields{
			"id":       ev.ID,
			"outcome":  ev.Outcome,
			"expanded": ev.Expanded,
		}).Infof("searched path %v -> %v (%d waypoints)", ev.Start.Pos, ev.End.Pos, len(ev.Waypoints))
		return nil
	})
	defer disposable.Dispose()

	g, err := cfg.Grid()
	if err != nil {
		return err
	}
	opts, err := cfg.Options(logger, bus)
	if err != nil {
		return err
	}
	finder := pathfind.New(w, g, opts)

	res := finder.Search(ctx, cfg.Request(pathfind.Location{Dimension: dim, Pos: start}, pathfind.Location{Dimension: dim, Pos: end}))
	for _, p := range res.Waypoints {
		fmt.Fprintf(out, "%g,%g,%g\n", p[0], p[1], p[2])
	}
	if len(res.Waypoints) == 0 {
		logger.Warnf("no path found: %s", res.Outcome)
	}

	if cfg.MetricsAddr != "" {
		return serveMetrics(ctx, logger, cfg.MetricsAddr)
	}
	return nil
}

// serveMetrics serves the Prometheus metrics of the search on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, logger *log.Logger, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	logger.Infof("serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadScene(path string) (voxel.Scene, error) {
	if path == "" {
		return voxel.Scene{}, errors.New("no scene passed")
	}
	f, err := os.Open(path)
	if err != nil {
		return voxel.Scene{}, err
	}
	defer f.Close()
	return voxel.DecodeScene(f)
}

// parseCoords parses a position in the form x,y,z.
func parseCoords(s string) (mgl64.Vec3, error) {
	m, err := coordsRegex.FindStringMatch(s)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	if m == nil {
		return mgl64.Vec3{}, fmt.Errorf("invalid position %q, expected x,y,z", s)
	}
	var v mgl64.Vec3
	for i, name := range []string{"x", "y", "z"} {
		if v[i], err = strconv.ParseFloat(m.GroupByName(name).String(), 64); err != nil {
			return mgl64.Vec3{}, err
		}
	}
	return v, nil
}
