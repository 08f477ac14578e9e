package lifecycle

import (
	"context"
	"time"

	"doorsign-go/services/hal"
	"doorsign-go/types"
)

// Reason is what brought the board out of power-off.
type Reason uint8

const (
	ReasonTimer  Reason = iota // no line high: the RTC timer fired and released
	ReasonButton               // Wake.Button was held
	ReasonAlarm                // RTC alarm line high
)

func (r Reason) String() string {
	switch r {
	case ReasonButton:
		return "button"
	case ReasonAlarm:
		return "alarm"
	default:
		return "timer"
	}
}

// Wake is the boot-time intention derived from the wake cause.
type Wake struct {
	Reason  Reason
	Button  types.Button
	Refresh types.Refresh
	Shift   types.Shift
	Sync    bool
}

// WakeCause scans the button lines in priority order, then the RTC alarm
// line. buttons is indexed by types.Button; a nil entry reads low.
func WakeCause(buttons []hal.InputPin, alarm hal.InputPin) Wake {
	for _, b := range types.Buttons {
		if int(b) >= len(buttons) || buttons[b] == nil || !buttons[b].Get() {
			continue
		}
		w := Wake{Reason: ReasonButton, Button: b}
		switch b {
		case types.ButtonUp:
			w.Refresh, w.Shift = types.RefreshImage, types.ShiftPrev
		case types.ButtonDown:
			w.Refresh, w.Shift = types.RefreshImage, types.ShiftNext
		case types.ButtonA:
			w.Refresh, w.Sync = types.RefreshTopBar, true
		case types.ButtonB:
			w.Refresh = types.RefreshFull
		case types.ButtonC:
			w.Refresh = types.RefreshTopBar
		}
		return w
	}
	if alarm != nil && alarm.Get() {
		return Wake{Reason: ReasonAlarm, Refresh: types.RefreshTopBar}
	}
	return Wake{Reason: ReasonTimer, Refresh: types.RefreshNone}
}

// AtMinute refines an alarm wake once the clock is readable: the top of the
// hour syncs and repaints everything, other minutes refresh the header.
func (w Wake) AtMinute(minute int) Wake {
	if w.Reason != ReasonAlarm {
		return w
	}
	if minute == 0 {
		w.Sync, w.Refresh = true, types.RefreshFull
	} else {
		w.Refresh = types.RefreshTopBar
	}
	return w
}

// waitRelease blocks until pin reads low or timeout passes.
func waitRelease(ctx context.Context, pin hal.IRQPin, timeout time.Duration) error {
	w, err := hal.NewEdgeWaiter(pin)
	if err != nil {
		return err
	}
	defer w.Close()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return w.WaitLow(ctx)
}
