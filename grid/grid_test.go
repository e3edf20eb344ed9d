package grid

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func TestNewRejectsInvalidStep(t *testing.T) {
	for _, step := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := New(step); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("New(%v) error = %v, want ErrInvalidStep", step, err)
		}
	}
}

func TestNodeForSnapsToLattice(t *testing.T) {
	tests := []struct {
		step    float64
		x, y, z float64
		want    [3]float64
	}{
		{1, 0.4, 64.6, -0.4, [3]float64{0, 65, 0}},
		{1, -2.6, 63.2, 5.5, [3]float64{-3, 63, 6}},
		{0.5, 1.2, 1.3, -1.1, [3]float64{1, 1.5, -1}},
		{2, 3.1, 0.9, -5, [3]float64{4, 0, -6}},
	}
	for _, tt := range tests {
		g, err := New(tt.step)
		if err != nil {
			t.Fatal(err)
		}
		n := g.NodeFor(tt.x, tt.y, tt.z)
		if got := [3]float64{n.X, n.Y, n.Z}; got != tt.want {
			t.Errorf("step %v: NodeFor(%v, %v, %v) = %v, want %v", tt.step, tt.x, tt.y, tt.z, got, tt.want)
		}
	}
}

func TestNodeForIsCanonical(t *testing.T) {
	g, _ := New(1)
	a := g.NodeFor(10.2, 64, -3.3)
	b := g.NodeFor(9.8, 63.9, -2.7)
	if a != b {
		t.Fatalf("same cell returned different nodes: %p and %p", a, b)
	}
	if c := g.NodeFor(11, 64, -3); c == a {
		t.Fatalf("distinct cells returned the same node %v", c)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	st := g.Stats()
	if st.Hits != 1 || st.Misses != 2 || st.Nodes != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestNodeForFarFromOrigin(t *testing.T) {
	g, _ := New(1)
	// These cells are outside the packed key range and must still be distinct.
	a := g.NodeFor(1<<40, 0, 0)
	b := g.NodeFor(0, 0, 1<<40)
	if a == b {
		t.Fatalf("far cells share a node")
	}
	if _, ok := a.Key(); ok {
		t.Fatalf("expected %v to be outside the packed key range", a)
	}
}

func TestReset(t *testing.T) {
	g, _ := New(1)
	a := g.NodeFor(1, 2, 3)
	g.Reset()
	if g.Len() != 0 {
		t.Fatalf("Len() after Reset = %d", g.Len())
	}
	if b := g.NodeFor(1, 2, 3); b == a {
		t.Fatalf("Reset kept the old node")
	}
}

func TestNodeForConcurrent(t *testing.T) {
	g, _ := New(1)
	const workers = 8
	results := make([][]*Node, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results[w] = append(results[w], g.NodeFor(float64(i), 64, float64(-i)))
			}
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		for i := range results[w] {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d got a different node for cell %d", w, i)
			}
		}
	}
	if g.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", g.Len())
	}
}

func TestResetWaitsForHolds(t *testing.T) {
	g, _ := New(1)
	a := g.NodeFor(1, 2, 3)

	release := g.Hold()
	done := make(chan int)
	go func() {
		n, _ := g.ResetAbove(0)
		done <- n
	}()

	select {
	case <-done:
		t.Fatalf("grid was reset while held")
	case <-time.After(50 * time.Millisecond):
	}
	if b := g.NodeFor(1, 2, 3); b != a {
		t.Fatalf("held grid handed out a new node")
	}

	release()
	select {
	case n := <-done:
		if n != 1 {
			t.Fatalf("ResetAbove dropped %d nodes, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("reset did not run after the hold was released")
	}
	if g.Len() != 0 {
		t.Fatalf("Len() after reset = %d", g.Len())
	}
}

func TestResetAboveLimit(t *testing.T) {
	g, _ := New(1)
	g.NodeFor(0, 0, 0)
	g.NodeFor(1, 0, 0)
	if _, ok := g.ResetAbove(2); ok {
		t.Fatalf("grid with 2 nodes reset at limit 2")
	}
	if n, ok := g.ResetAbove(1); !ok || n != 2 {
		t.Fatalf("ResetAbove(1) = %d, %v, want 2, true", n, ok)
	}
}
