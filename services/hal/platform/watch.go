package platform

import (
	"sync"
	"time"
)

// edgeSource blocks for an edge up to timeout, as periph's gpio.PinIn does.
type edgeSource interface {
	WaitForEdge(timeout time.Duration) bool
}

// edgeWatch emulates a pin interrupt with a polling goroutine. At most one
// goroutine waits on the pin: halt returns once the current one has exited.
type edgeWatch struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (w *edgeWatch) start(src edgeSource, poll time.Duration, handler func()) {
	w.halt()
	stop, done := make(chan struct{}), make(chan struct{})
	w.mu.Lock()
	w.stop, w.done = stop, done
	w.mu.Unlock()
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if !src.WaitForEdge(poll) {
				continue
			}
			select {
			case <-stop:
				return
			default:
				handler()
			}
		}
	}()
}

// halt must not be called from the handler.
func (w *edgeWatch) halt() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
