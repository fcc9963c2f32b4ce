// Package vips provides a libvips-backed decoder for hosts with libvips
// installed.  It decodes more container variants than the pure-Go decoders
// and reads EXIF through libvips' own metadata parser.
//
// The decoder itself needs cgo and is only compiled with the vips build tag;
// the metadata mapping in this file is plain Go.
package vips

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"github.com/Skryldev/photo-quality/core"
)

// slots bounds how many decodes are inside libvips at once.
type slots chan struct{}

func newSlots(n int) slots {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return make(slots, n)
}

// acquire blocks until a slot is free or ctx is done.
func (s slots) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s slots) release() { <-s }

// ─── EXIF mapping ─────────────────────────────────────────────────────────────

// MapFields converts libvips metadata fields ("exif-ifd0-Make" ->
// "Acme (Acme, ASCII, 5 components, 5 bytes)") into plain EXIF tag names and
// values.  Non-EXIF fields are dropped.  GPS coordinates are added in
// decimal degrees under core.TagGPSLatitude / core.TagGPSLongitude.
func MapFields(fields map[string]string) map[string]string {
	tags := make(map[string]string, len(fields))
	for field, value := range fields {
		name, ok := exifName(field)
		if !ok {
			continue
		}
		tags[name] = exifValue(value)
	}

	lat, okLat := gpsDecimal(tags["GPSLatitude"], tags["GPSLatitudeRef"])
	lon, okLon := gpsDecimal(tags["GPSLongitude"], tags["GPSLongitudeRef"])
	if okLat && okLon {
		tags[core.TagGPSLatitude] = strconv.FormatFloat(lat, 'f', 6, 64)
		tags[core.TagGPSLongitude] = strconv.FormatFloat(lon, 'f', 6, 64)
	}
	return tags
}

// exifName extracts "Make" from "exif-ifd0-Make".
func exifName(field string) (string, bool) {
	rest, ok := strings.CutPrefix(field, "exif-ifd")
	if !ok {
		return "", false
	}
	_, name, ok := strings.Cut(rest, "-")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// exifValue strips the "(raw, Type, N components, M bytes)" suffix libvips
// appends to every EXIF string.
func exifValue(v string) string {
	if i := strings.LastIndex(v, " ("); i >= 0 && strings.HasSuffix(v, ")") {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// gpsDecimal parses "40/1 26/1 4612/100" with reference "N"/"S"/"E"/"W".
func gpsDecimal(v, ref string) (float64, bool) {
	parts := strings.Fields(v)
	if len(parts) != 3 {
		return 0, false
	}
	var dms [3]float64
	for i, p := range parts {
		f, ok := rational(p)
		if !ok {
			return 0, false
		}
		dms[i] = f
	}
	deg := dms[0] + dms[1]/60 + dms[2]/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		deg = -deg
	case "N", "E":
	default:
		return 0, false
	}
	return deg, true
}

func rational(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !found {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}
