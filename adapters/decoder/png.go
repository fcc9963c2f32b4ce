package decoder

import (
	"context"
	"image/png"
	"io"

	"github.com/Skryldev/photo-quality/core"
)

// PNG decodes PNG images using the standard library.  EXIF is read from an
// eXIf chunk when present.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Decode(ctx context.Context, r io.Reader) (*core.DecodedImage, error) {
	return decode(ctx, "png.decode", core.FormatPNG, r, png.Decode)
}
