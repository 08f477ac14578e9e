// Package console is a line-oriented command shell on the serial port. It
// doubles as the wired data channel: status and weather payloads can be fed
// to the same handlers the wireless gateway uses.
package console

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"doorsign-go/services/state"
	"doorsign-go/types"
	"doorsign-go/x/fmtx"

	"github.com/google/shlex"
)

// MaxLine bounds one command line; longer input is discarded up to the next
// newline.
const MaxLine = 512

// Port is a byte stream with a cancellable receive, as provided by uartx.
type Port interface {
	io.Writer
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// Sink receives data-channel payloads.
type Sink interface {
	HandleWrite(b []byte)
	HandleMessage(b []byte)
	HandleWeather(doc []byte) error
}

type ClockSetter interface {
	Set(t time.Time) error
}

type Console struct {
	App   *state.App
	Sink  Sink
	Clock ClockSetter
	Log   *slog.Logger
}

const help = `commands:
  press <up|down|a|b|c>
  refresh <none|topbar|image|full>
  status <hex>      status payload
  message <hex>     presence byte + status payload
  weather <json>
  power
  image
  time [rfc3339]
  help`

// Exec runs one command line and returns the reply.
func (c *Console) Exec(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	// The weather document is taken verbatim; quoting rules would eat its quotes.
	if cmd == "weather" {
		if c.Sink == nil {
			return "err: no data channel"
		}
		if err := c.Sink.HandleWeather([]byte(rest)); err != nil {
			return "err: " + err.Error()
		}
		return "ok"
	}

	args, err := shlex.Split(rest)
	if err != nil {
		return "err: " + err.Error()
	}
	switch cmd {
	case "help":
		return help
	case "press":
		if len(args) != 1 {
			return "usage: press <up|down|a|b|c>"
		}
		b, ok := types.ParseButton(args[0])
		if !ok {
			return "err: unknown button " + args[0]
		}
		c.App.Presses.Put(b)
		return "ok"
	case "refresh":
		if len(args) != 1 {
			return "usage: refresh <none|topbar|image|full>"
		}
		r, ok := types.ParseRefresh(args[0])
		if !ok {
			return "err: unknown refresh " + args[0]
		}
		if !c.App.RequestRefresh(r) {
			return "err: shutting down"
		}
		return "ok"
	case "status", "message":
		if len(args) != 1 {
			return "usage: " + cmd + " <hex>"
		}
		if c.Sink == nil {
			return "err: no data channel"
		}
		b, err := hex.DecodeString(args[0])
		if err != nil {
			return "err: " + err.Error()
		}
		if cmd == "status" {
			c.Sink.HandleWrite(b)
		} else {
			c.Sink.HandleMessage(b)
		}
		return "ok"
	case "power":
		p := c.App.Power.Get()
		if p.Source == types.PowerBattery {
			return fmtx.Sprintf("battery %d%%", p.Percent)
		}
		return p.String()
	case "image":
		return fmtx.Sprintf("%d/%d", c.App.Image.Get(), c.App.Image.Count())
	case "time":
		if len(args) == 0 {
			ti := c.App.Time.Get()
			if !ti.Valid {
				return "unset"
			}
			s := fmtx.Sprintf("%02d:%02d", ti.Hour, ti.Minute)
			if !ti.Trusted {
				s += " (untrusted)"
			}
			return s
		}
		if c.Clock == nil {
			return "err: no clock"
		}
		t, err := time.Parse(time.RFC3339, args[0])
		if err != nil {
			return "err: " + err.Error()
		}
		if err := c.Clock.Set(t); err != nil {
			return "err: " + err.Error()
		}
		c.App.RequestRefresh(types.RefreshTopBar)
		return "ok"
	default:
		return "err: unknown command " + cmd + " (try help)"
	}
}

// Serve reads lines from p and writes replies until ctx ends or the port
// fails.
func (c *Console) Serve(ctx context.Context, p Port) error {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	var (
		buf  [64]byte
		line = make([]byte, 0, MaxLine)
		skip bool
	)
	for {
		n, err := p.RecvSomeContext(ctx, buf[:])
		for _, ch := range buf[:n] {
			switch {
			case ch == '\n' || ch == '\r':
				if skip {
					skip = false
					io.WriteString(p, "err: line too long\r\n")
				} else if reply := c.Exec(string(line)); reply != "" {
					log.Debug("console:exec", "line", string(line))
					io.WriteString(p, strings.ReplaceAll(reply, "\n", "\r\n")+"\r\n")
				}
				line = line[:0]
			case skip:
			case len(line) == MaxLine:
				skip = true
				line = line[:0]
			default:
				line = append(line, ch)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// ReaderPort adapts a plain io.ReadWriter (stdin/stdout, a pty) to Port. A
// pending Read is abandoned, not interrupted, when ctx ends.
type ReaderPort struct {
	R io.Reader
	W io.Writer

	once sync.Once
	ch   chan chunk
	rest []byte
	err  error
}

type chunk struct {
	b   []byte
	err error
}

func (r *ReaderPort) Write(b []byte) (int, error) { return r.W.Write(b) }

func (r *ReaderPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	r.once.Do(func() {
		r.ch = make(chan chunk, 1)
		go func() {
			for {
				b := make([]byte, 256)
				n, err := r.R.Read(b)
				r.ch <- chunk{b: b[:n], err: err}
				if err != nil {
					return
				}
			}
		}()
	})
	if len(r.rest) == 0 && r.err == nil {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case c := <-r.ch:
			r.rest, r.err = c.b, c.err
		}
	}
	n := copy(buf, r.rest)
	r.rest = r.rest[n:]
	if len(r.rest) == 0 && r.err != nil {
		return n, r.err
	}
	return n, nil
}
