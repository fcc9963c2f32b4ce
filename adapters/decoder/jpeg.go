package decoder

import (
	"context"
	"image/jpeg"
	"io"

	"github.com/Skryldev/photo-quality/core"
)

// JPEG decodes JPEG images using the standard library and reads their EXIF
// block.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.DecodedImage, error) {
	return decode(ctx, "jpeg.decode", core.FormatJPEG, r, jpeg.Decode)
}
