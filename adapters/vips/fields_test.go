package vips

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skryldev/photo-quality/core"
)

func TestMapFields(t *testing.T) {
	tags := MapFields(map[string]string{
		"exif-ifd0-Make":            "Acme (Acme, ASCII, 5 components, 5 bytes)",
		"exif-ifd0-Orientation":     "1 (Top-left, Short, 1 components, 2 bytes)",
		"exif-ifd2-ExposureTime":    "1/125 (1/125 sec., Rational, 1 components, 8 bytes)",
		"exif-ifd2-ISOSpeedRatings": "200 (200, Short, 1 components, 2 bytes)",
		"exif-ifd3-GPSLatitudeRef":  "N (N, ASCII, 2 components, 2 bytes)",
		"exif-ifd3-GPSLatitude":     "40/1 30/1 0/1 (40, 30, 0.00, Rational, 3 components, 24 bytes)",
		"exif-ifd3-GPSLongitudeRef": "W (W, ASCII, 2 components, 2 bytes)",
		"exif-ifd3-GPSLongitude":    "73/1 45/1 3600/100 (73, 45, 36.00, Rational, 3 components, 24 bytes)",
		"xres":                      "2.834646",
		"exif-data":                 "binary",
	})

	assert.Equal(t, "Acme", tags["Make"])
	assert.Equal(t, "1", tags["Orientation"])
	assert.Equal(t, "1/125", tags["ExposureTime"])
	assert.Equal(t, "200", tags["ISOSpeedRatings"])
	assert.Equal(t, "40.500000", tags[core.TagGPSLatitude])
	assert.Equal(t, "-73.760000", tags[core.TagGPSLongitude])
	assert.NotContains(t, tags, "xres")
	assert.NotContains(t, tags, "data")
}

func TestGPSDecimal_Rejects(t *testing.T) {
	for _, tc := range []struct{ v, ref string }{
		{"40/1 30/1", "N"},
		{"40/1 30/0 0/1", "N"},
		{"40/1 30/1 0/1", "X"},
		{"a/1 30/1 0/1", "N"},
	} {
		_, ok := gpsDecimal(tc.v, tc.ref)
		assert.False(t, ok, "%q %q", tc.v, tc.ref)
	}
}

func TestExifValue(t *testing.T) {
	assert.Equal(t, "Pocket 12", exifValue("Pocket 12 (Pocket 12, ASCII, 10 components, 10 bytes)"))
	assert.Equal(t, "plain", exifValue("plain"))
}

func TestSlots_BoundConcurrentDecodes(t *testing.T) {
	s := newSlots(2)
	ctx := context.Background()
	assert.NoError(t, s.acquire(ctx))
	assert.NoError(t, s.acquire(ctx))

	full, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.acquire(full), context.DeadlineExceeded)

	s.release()
	assert.NoError(t, s.acquire(ctx))
}

func TestSlots_DefaultsToCPUCount(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), cap(newSlots(0)))
	assert.Equal(t, 3, cap(newSlots(3)))
}
