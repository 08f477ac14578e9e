package hal

import (
	"context"
	"sync/atomic"
)

// EdgeWaiter turns pin interrupts into blocking level waits. The ISR handler
// performs a non-blocking send only; a pending wake already covers any edge
// that arrives while the slot is full, so nothing is lost.
type EdgeWaiter struct {
	pin   IRQPin
	wake  chan struct{}
	drops uint32
}

// NewEdgeWaiter registers a both-edge interrupt on pin.
func NewEdgeWaiter(pin IRQPin) (*EdgeWaiter, error) {
	w := &EdgeWaiter{pin: pin, wake: make(chan struct{}, 1)}
	if err := pin.SetIRQ(EdgeBoth, w.isr); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *EdgeWaiter) isr() {
	select {
	case w.wake <- struct{}{}:
	default:
		atomic.AddUint32(&w.drops, 1)
	}
}

// Level samples the pin.
func (w *EdgeWaiter) Level() bool { return w.pin.Get() }

// WaitLevel blocks until the pin reads level or ctx ends.
func (w *EdgeWaiter) WaitLevel(ctx context.Context, level bool) error {
	for {
		if w.pin.Get() == level {
			return nil
		}
		select {
		case <-w.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *EdgeWaiter) WaitHigh(ctx context.Context) error { return w.WaitLevel(ctx, true) }
func (w *EdgeWaiter) WaitLow(ctx context.Context) error  { return w.WaitLevel(ctx, false) }

// Close releases the interrupt.
func (w *EdgeWaiter) Close() error { return w.pin.ClearIRQ() }

// Drops reports coalesced interrupts.
func (w *EdgeWaiter) Drops() uint32 { return atomic.LoadUint32(&w.drops) }
