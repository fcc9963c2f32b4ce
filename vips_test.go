//go:build !vips

package photoquality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	photoquality "github.com/Skryldev/photo-quality"
	"github.com/Skryldev/photo-quality/config"
	apperrors "github.com/Skryldev/photo-quality/errors"
)

func TestNew_VipsBackendNeedsBuildTag(t *testing.T) {
	cfg := photoquality.DefaultConfig()
	cfg.Backend = config.BackendVips

	v, err := photoquality.New(cfg)
	require.Error(t, err)
	assert.Nil(t, v)
	assert.True(t, apperrors.IsInvalidConfig(err))
	assert.Contains(t, err.Error(), "-tags vips")
}
