package checks_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skryldev/photo-quality/checks"
	"github.com/Skryldev/photo-quality/core"
)

func TestResolution(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		status core.Status
		score  float64
		tier   string
	}{
		{"full hd", 1920, 1080, core.StatusPass, 100, "High"},
		{"thumbnail", 400, 300, core.StatusFail, 6, "Very Low"},
		{"just under megapixels", 800, 600, core.StatusFail, 24, "Very Low"},
		{"minimum met", 1000, 600, core.StatusPass, 30, "Low"},
		{"narrow", 700, 2000, core.StatusFail, 45, "Medium"},
	}
	a := checks.NewResolution()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := a.Analyze(decoded(t, image.NewGray(image.Rect(0, 0, tc.w, tc.h)), nil), rules())
			assert.Equal(t, tc.status, res.Status)
			assert.InDelta(t, tc.score, res.Score, 1e-9)
			assert.Equal(t, tc.tier, res.Details["quality_tier"])
			assert.Equal(t, tc.w, res.Details["width"])
		})
	}
}

func TestResolution_FailCapAppliesAboveRecommended(t *testing.T) {
	r := rules()
	r.Resolution.MinWidth = 4000

	res := checks.NewResolution().Analyze(decoded(t, image.NewGray(image.Rect(0, 0, 3000, 2000)), nil), r)
	assert.Equal(t, core.StatusFail, res.Status)
	assert.Equal(t, r.Resolution.FailScoreCap, res.Score)
	assert.Contains(t, res.Message, "below minimum")
}

func TestResolution_PassScore(t *testing.T) {
	assert.Equal(t, 25.0, checks.NewResolution().PassScore(rules()))
}

func TestQualityTier(t *testing.T) {
	assert.Equal(t, "Ultra High", checks.QualityTier(4000, 3000))
	assert.Equal(t, "High", checks.QualityTier(2000, 1000))
	assert.Equal(t, "Medium", checks.QualityTier(1000, 1000))
	assert.Equal(t, "Low", checks.QualityTier(1000, 500))
	assert.Equal(t, "Very Low", checks.QualityTier(10, 10))
}
