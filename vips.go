//go:build vips

package photoquality

import (
	"github.com/Skryldev/photo-quality/adapters/vips"
	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

func init() {
	startVips = func(cfg config.Config, reg core.Registry) func() {
		b := vips.NewBackend(vips.BackendConfig{MaxWorkers: cfg.WorkerCount})
		vips.RegisterVipsBackend(reg, b)
		return b.Shutdown
	}
}

// WithVipsBackend decodes through an already started libvips backend. The
// caller keeps ownership and must call Shutdown itself.
func WithVipsBackend(b *vips.Backend) Option {
	return func(o *options) {
		o.vips = true
		o.decoders = append(o.decoders, func(reg core.Registry) { vips.RegisterVipsBackend(reg, b) })
	}
}
