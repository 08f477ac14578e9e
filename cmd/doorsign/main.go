// Command doorsign is the door-sign firmware. The board profile is chosen
// at build time:
//
//	tinygo flash -target badger2040-w -tags cyw43439 ./cmd/doorsign
//	GOOS=linux GOARCH=arm64 go build ./cmd/doorsign
package main

import (
	"image"
	"log/slog"

	"doorsign-go/assets"
	"doorsign-go/services/config"
	"doorsign-go/services/hal/platform"
	"doorsign-go/services/lifecycle"
)

func main() {
	log := slog.New(slog.NewTextHandler(platform.LogSink, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	// Configuration errors are fatal and surface before any pin is touched.
	cfg, err := config.Load(platform.Selected.Device, assets.Count())
	if err != nil {
		log.Error("main:config", "device", platform.Selected.Device, "err", err)
		platform.Halt()
	}

	hw, err := platform.Open(log)
	if err != nil {
		log.Error("main:platform", "board", platform.Selected.Name, "err", err)
		platform.Halt()
	}

	ctx, cancel := platform.Context()
	defer cancel()
	images := func() ([]image.Image, error) { return assets.Load(cfg.Images) }
	ctl := lifecycle.New(hw, cfg, images, log)
	if err := ctl.Run(ctx); err != nil {
		log.Info("main:exit", "err", err)
	}
}
