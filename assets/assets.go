// Package assets embeds the image set shown in the badge image region.
package assets

import (
	"bytes"
	_ "embed"
	"image"

	"doorsign-go/errcode"

	"golang.org/x/image/bmp"
)

var (
	//go:embed busy.bmp
	busyBMP []byte
	//go:embed coffee.bmp
	coffeeBMP []byte
	//go:embed away.bmp
	awayBMP []byte
)

// Names lists the images in index order.
var Names = []string{"busy", "coffee", "away"}

var raw = [][]byte{busyBMP, coffeeBMP, awayBMP}

// Count is the number of embedded images.
func Count() int { return len(raw) }

// Load decodes the first n images (all when n <= 0 or n > Count()).
func Load(n int) ([]image.Image, error) {
	if n <= 0 || n > len(raw) {
		n = len(raw)
	}
	out := make([]image.Image, n)
	for i := 0; i < n; i++ {
		img, err := bmp.Decode(bytes.NewReader(raw[i]))
		if err != nil {
			return nil, errcode.Wrap(errcode.Decode, "assets."+Names[i], err)
		}
		out[i] = img
	}
	return out, nil
}
