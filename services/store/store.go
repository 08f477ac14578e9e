// Package store persists the Record in the last erase block of the flash
// device. Saves are erase-then-program; loads never fail.
package store

import (
	"log/slog"
	"sync"

	"doorsign-go/errcode"
	"doorsign-go/services/hal"
	"doorsign-go/services/state"
)

// DefaultScratch is the fixed serialisation buffer size.
const DefaultScratch = 128

type Store struct {
	dev hal.BlockDevice
	log *slog.Logger

	mu      sync.Mutex
	scratch []byte
}

// New returns a store using a scratch buffer of the given size.
func New(dev hal.BlockDevice, scratch int, log *slog.Logger) *Store {
	if scratch <= 0 {
		scratch = DefaultScratch
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{dev: dev, log: log, scratch: make([]byte, scratch)}
}

func (s *Store) blockOffset() int64 {
	return s.dev.Size() - s.dev.EraseBlockSize()
}

// Save serialises r and rewrites the reserved block. An encoding overflow is
// reported without touching flash.
func (s *Store) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.scratch {
		s.scratch[i] = 0xFF
	}
	if _, err := Encode(r, s.scratch); err != nil {
		s.log.Warn("store:encode-failed", "err", err)
		return err
	}
	off := s.blockOffset()
	if err := s.dev.EraseBlocks(off/s.dev.EraseBlockSize(), 1); err != nil {
		s.log.Warn("store:erase-failed", "err", err)
		return errcode.Wrap(errcode.Storage, "store.save", err)
	}
	if _, err := s.dev.WriteAt(s.scratch, off); err != nil {
		s.log.Warn("store:write-failed", "err", err)
		return errcode.Wrap(errcode.Storage, "store.save", err)
	}
	s.log.Debug("store:saved", "image", r.Image, "weather", r.Weather != nil)
	return nil
}

// Load reads the reserved block. Any read or decode failure yields the zero
// Record (no weather, image 0).
func (s *Store) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.dev.ReadAt(s.scratch, s.blockOffset()); err != nil {
		s.log.Warn("store:read-failed", "err", err)
		return Record{}
	}
	r, err := Decode(s.scratch)
	if err != nil {
		s.log.Info("store:defaults", "err", err)
		return Record{}
	}
	return r
}

// SaveApp persists the current weather cache and image index.
func (s *Store) SaveApp(app *state.App) error {
	return s.Save(Snapshot(app))
}

// Snapshot captures the persisted subset of app.
func Snapshot(app *state.App) Record {
	r := Record{Image: app.Image.Get()}
	if w, ok := app.WeatherCopy(); ok {
		r.Weather = &w
	}
	return r
}
