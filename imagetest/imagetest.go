// Package imagetest builds deterministic synthetic photos for tests.
package imagetest

import (
	"bytes"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"testing"
)

// Noise returns a w×h grayscale image with intensities drawn uniformly from
// [lo, hi] by a generator seeded with seed.
func Noise(w, h int, lo, hi uint8, seed uint64) *image.Gray {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewGray(image.Rect(0, 0, w, h))
	span := int(hi) - int(lo) + 1
	for i := range img.Pix {
		img.Pix[i] = lo + uint8(rng.IntN(span))
	}
	return img
}

// Uniform returns a w×h grayscale image of constant intensity v.
func Uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// Bimodal returns a w×h image whose left half is a and right half is b.
func Bimodal(w, h int, a, b uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := a
			if x >= w/2 {
				v = b
			}
			img.Pix[y*img.Stride+x] = v
		}
	}
	return img
}

// Colour returns a w×h RGBA image filled with c.
func Colour(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// BoxBlur returns a copy of src averaged over a (2r+1)² window, clamped at
// the borders.  Larger radii give monotonically softer images.
func BoxBlur(src *image.Gray, r int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0, 0
			for dy := -r; dy <= r; dy++ {
				yy := min(max(y+dy, 0), h-1)
				for dx := -r; dx <= r; dx++ {
					xx := min(max(x+dx, 0), w-1)
					sum += int(src.Pix[yy*src.Stride+xx])
					n++
				}
			}
			out.Pix[y*out.Stride+x] = uint8((sum + n/2) / n)
		}
	}
	return out
}

// JPEG encodes img at quality 95 and, when exif is non-nil, splices an APP1
// segment carrying it right after the SOI marker.
func JPEG(tb testing.TB, img image.Image, exif *EXIF) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		tb.Fatalf("encode test jpeg: %v", err)
	}
	raw := buf.Bytes()
	if exif == nil {
		return raw
	}
	app1 := exif.APP1()
	out := make([]byte, 0, len(raw)+len(app1))
	out = append(out, raw[:2]...)
	out = append(out, app1...)
	return append(out, raw[2:]...)
}

// PNG encodes img losslessly.
func PNG(tb testing.TB, img image.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

// PNGWithEXIF encodes img as PNG and inserts exif as an eXIf chunk right
// after IHDR.
func PNGWithEXIF(tb testing.TB, img image.Image, exif *EXIF) []byte {
	tb.Helper()
	raw := PNG(tb, img)
	const afterIHDR = 8 + 8 + 13 + 4

	data := exif.TIFF()
	chunk := make([]byte, 8, 12+len(data))
	be.PutUint32(chunk, uint32(len(data)))
	copy(chunk[4:], "eXIf")
	chunk = append(chunk, data...)
	chunk = be.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(raw)+len(chunk))
	out = append(out, raw[:afterIHDR]...)
	out = append(out, chunk...)
	return append(out, raw[afterIHDR:]...)
}
