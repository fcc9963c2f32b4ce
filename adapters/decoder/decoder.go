// Package decoder provides format-specific image decoders.
package decoder

import (
	"context"
	"image"
	"io"

	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
	"github.com/Skryldev/photo-quality/utils"
)

// RegisterAll registers every pure-Go decoder on reg.
func RegisterAll(reg core.Registry) {
	reg.RegisterDecoder(core.FormatJPEG, NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, NewPNG())
	reg.RegisterDecoder(core.FormatWebP, NewWebP())
	reg.RegisterDecoder(core.FormatBMP, NewBMP())
	reg.RegisterDecoder(core.FormatTIFF, NewTIFF())
}

// decode drains r, runs fn on the bytes and wraps the pixels in a
// DecodedImage.  Metadata is read from the EXIF block of the same bytes.
func decode(ctx context.Context, op string, format core.Format, r io.Reader,
	fn func(io.Reader) (image.Image, error)) (*core.DecodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	defer utils.ReleaseBuffer(buf)
	raw := buf.Bytes()

	img, err := fn(utils.BytesReader(raw))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	var tags map[string]string
	if block := EXIFBlock(format, raw); len(block) > 0 {
		tags = ReadEXIF(block)
	}
	return core.NewDecodedImage(img, format, tags)
}
