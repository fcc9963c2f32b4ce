//go:build vips

package vips

import (
	"context"
	"io"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
	"github.com/Skryldev/photo-quality/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	// MaxWorkers bounds both libvips' own thread pool and the number of
	// concurrent Decode calls.  Default runtime.NumCPU().
	MaxWorkers  int
	ReportLeaks bool
}

// Backend is a libvips-powered Decoder.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg   BackendConfig
	slots slots
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	s := newSlots(cfg.MaxWorkers)
	cfg.MaxWorkers = cap(s)
	govips.LoggingSettings(nil, govips.LogLevelWarning)
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Backend{cfg: cfg, slots: s}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatTIFF:
		return true
	}
	return false
}

func (b *Backend) Decode(ctx context.Context, r io.Reader) (*core.DecodedImage, error) {
	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	if err := b.slots.acquire(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}
	defer b.slots.release()

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}
	defer ref.Close()

	fields := ref.GetFields()
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		values[field] = ref.GetString(field)
	}
	tags := MapFields(values)

	// Export through PNG so 16-bit and CMYK sources arrive as a Go image.
	img, err := ref.ToImage(govips.NewDefaultPNGExportParams())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.export", err)
	}
	return core.NewDecodedImage(img, vipsFormatToCore(ref.Format()), tags)
}

// RegisterVipsBackend replaces the pure-Go decoders with libvips for every
// format it handles.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatTIFF} {
		reg.RegisterDecoder(f, b)
	}
}

func vipsFormatToCore(f govips.ImageType) core.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	case govips.ImageTypeTIFF:
		return core.FormatTIFF
	default:
		return core.FormatUnknown
	}
}

// compile-time interface check
var _ core.Decoder = (*Backend)(nil)
