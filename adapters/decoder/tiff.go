package decoder

import (
	"context"
	"io"

	"golang.org/x/image/tiff"

	"github.com/Skryldev/photo-quality/core"
)

// TIFF decodes TIFF images using golang.org/x/image/tiff.  The camera tags
// live in the TIFF directory itself, so they are read with the same EXIF
// parser as JPEG.
type TIFF struct{}

func NewTIFF() *TIFF { return &TIFF{} }

func (t *TIFF) CanDecode(format core.Format) bool { return format == core.FormatTIFF }

func (t *TIFF) Decode(ctx context.Context, r io.Reader) (*core.DecodedImage, error) {
	return decode(ctx, "tiff.decode", core.FormatTIFF, r, tiff.Decode)
}
