package checks_test

import (
	"image"
	"testing"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

func decoded(t *testing.T, img image.Image, tags map[string]string) *core.DecodedImage {
	t.Helper()
	d, err := core.NewDecodedImage(img, core.FormatPNG, tags)
	if err != nil {
		t.Fatalf("NewDecodedImage: %v", err)
	}
	return d
}

func grayFrom(w, h int, pix []uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img
}

func rules() config.Rules { return config.DefaultRules() }
