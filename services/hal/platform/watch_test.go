package platform

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeEdges struct {
	edges        chan struct{}
	active, peak atomic.Int32
}

func (f *fakeEdges) WaitForEdge(d time.Duration) bool {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-f.edges:
		return true
	case <-time.After(d):
		return false
	}
}

func TestEdgeWatchRestartHasOneWaiter(t *testing.T) {
	src := &fakeEdges{edges: make(chan struct{})}
	var w edgeWatch
	var old, cur atomic.Int32

	w.start(src, 20*time.Millisecond, func() { old.Add(1) })
	time.Sleep(5 * time.Millisecond) // first goroutine is inside WaitForEdge
	w.start(src, 20*time.Millisecond, func() { cur.Add(1) })

	for i := 0; i < 3; i++ {
		select {
		case src.edges <- struct{}{}:
		case <-time.After(time.Second):
			t.Fatal("nobody waiting for the edge")
		}
	}
	deadline := time.Now().Add(time.Second)
	for cur.Load() != 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if cur.Load() != 3 || old.Load() != 0 {
		t.Fatalf("handlers: current=%d replaced=%d", cur.Load(), old.Load())
	}
	if p := src.peak.Load(); p != 1 {
		t.Fatalf("%d goroutines waited on the pin at once", p)
	}

	w.halt()
	if a := src.active.Load(); a != 0 {
		t.Fatalf("%d waiters left after halt", a)
	}
}
