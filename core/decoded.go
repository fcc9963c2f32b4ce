package core

import (
	"image"
	"image/color"
	"sort"

	apperrors "github.com/Skryldev/photo-quality/errors"
)

// DecodedImage is the in-memory representation shared by all analyzers of a
// single validation call.  It is immutable after NewDecodedImage returns and
// is therefore safe to read from several goroutines.
type DecodedImage struct {
	img      image.Image
	format   Format
	width    int
	height   int
	channels int
	gray     []uint8 // row-major luma view, width*height
	hist     [256]int
	tags     map[string]string
}

// NewDecodedImage builds the luma view and histogram of img and takes a
// private copy of tags.  A zero-area image is rejected.
func NewDecodedImage(img image.Image, format Format, tags map[string]string) (*DecodedImage, error) {
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryDecode, "decoded.new", apperrors.ErrEmptyInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "decoded.new", apperrors.ErrInvalidDimensions)
	}

	d := &DecodedImage{
		img:      img,
		format:   format,
		width:    b.Dx(),
		height:   b.Dy(),
		channels: channelCount(img),
		gray:     luma(img),
		tags:     make(map[string]string, len(tags)),
	}
	for k, v := range tags {
		d.tags[k] = v
	}
	for _, v := range d.gray {
		d.hist[v]++
	}
	return d, nil
}

func (d *DecodedImage) Image() image.Image { return d.img }
func (d *DecodedImage) Format() Format     { return d.format }
func (d *DecodedImage) Width() int         { return d.width }
func (d *DecodedImage) Height() int        { return d.height }
func (d *DecodedImage) Channels() int      { return d.channels }

// PixelCount returns width*height.
func (d *DecodedImage) PixelCount() int { return d.width * d.height }

// Gray returns the luma view.  Callers must not modify the returned slice.
func (d *DecodedImage) Gray() []uint8 { return d.gray }

// GrayAt returns the luma of the pixel at column x, row y.
func (d *DecodedImage) GrayAt(x, y int) uint8 { return d.gray[y*d.width+x] }

// Histogram returns the 256-bin luma histogram.
func (d *DecodedImage) Histogram() [256]int { return d.hist }

// Tag returns the raw metadata value stored under name.
func (d *DecodedImage) Tag(name string) (string, bool) {
	v, ok := d.tags[name]
	return v, ok
}

// TagNames returns the metadata tag names in sorted order.
func (d *DecodedImage) TagNames() []string {
	names := make([]string, 0, len(d.tags))
	for k := range d.tags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func channelCount(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.CMYK:
		return 4
	case *image.Paletted:
		return 3
	}
	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return 1
	}
	return 3
}

// luma converts img to 8-bit intensity using the Rec. 601 weights of
// color.GrayModel.
func luma(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, w*h)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out[y*w:(y+1)*w], src.Pix[off:off+w])
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			off := src.YOffset(b.Min.X, b.Min.Y+y)
			copy(out[y*w:(y+1)*w], src.Y[off:off+w])
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*w]
			for x := 0; x < w; x++ {
				out[y*w+x] = rgbLuma(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*w]
			for x := 0; x < w; x++ {
				out[y*w+x] = rgbLuma(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				out[y*w+x] = g.Y
			}
		}
	}
	return out
}

func rgbLuma(r, g, b uint8) uint8 {
	return uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}
