package decoder

import (
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/Skryldev/photo-quality/core"
	"github.com/Skryldev/photo-quality/utils"
)

// ReadEXIF returns the EXIF tags of a JPEG or TIFF file, or of a bare block
// returned by EXIFBlock, keyed by their standard names (DateTimeOriginal,
// Make, FNumber, ...).  GPS coordinates
// are also exposed in decimal degrees under core.TagGPSLatitude and
// core.TagGPSLongitude.  Missing or malformed EXIF yields an empty map:
// absent metadata lowers the metadata score, it never fails decoding.
func ReadEXIF(raw []byte) map[string]string {
	tags := make(map[string]string)
	x, err := exif.Decode(utils.BytesReader(raw))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return tags
	}
	_ = x.Walk(walker(tags))

	if lat, lon, err := x.LatLong(); err == nil {
		tags[core.TagGPSLatitude] = strconv.FormatFloat(lat, 'f', 6, 64)
		tags[core.TagGPSLongitude] = strconv.FormatFloat(lon, 'f', 6, 64)
	}
	return tags
}

type walker map[string]string

func (w walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w[string(name)] = tagValue(tag)
	return nil
}

func tagValue(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimSpace(strings.TrimRight(s, "\x00"))
		}
	}
	return strings.Trim(tag.String(), `"`)
}
