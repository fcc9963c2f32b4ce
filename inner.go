package photoquality

import "github.com/Skryldev/photo-quality/core"

// Inner exposes the underlying core.Engine for advanced use (e.g., direct
// registry access in tests).  Prefer the high-level API for normal usage.
func (v *Validator) Inner() *core.Engine { return v.inner }
