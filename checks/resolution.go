package checks

import (
	"fmt"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

// Resolution checks pixel dimensions and megapixels.
type Resolution struct{}

// NewResolution returns the resolution analyzer.
func NewResolution() *Resolution { return &Resolution{} }

func (*Resolution) Name() core.CheckName { return core.CheckResolution }

func (*Resolution) Analyze(img *core.DecodedImage, rules config.Rules) core.CheckResult {
	r := rules.Resolution
	w, h := img.Width(), img.Height()
	mp := float64(w) * float64(h) / 1e6

	pass := w >= r.MinWidth && h >= r.MinHeight && mp >= r.MinMegapixels
	score := min(100, mp/r.RecommendedMegapixels*100)
	if !pass {
		score = min(score, r.FailScoreCap)
	}

	msg := "Resolution meets the minimum requirements"
	if !pass {
		msg = fmt.Sprintf("Resolution below minimum required size (%dx%d, %.2f MP; need %dx%d, %.2f MP)",
			w, h, mp, r.MinWidth, r.MinHeight, r.MinMegapixels)
	}
	return core.CheckResult{
		Status:  statusOf(pass),
		Score:   round(score, 1),
		Message: msg,
		Details: map[string]any{
			"width":                  w,
			"height":                 h,
			"megapixels":             round(mp, 2),
			"min_width":              r.MinWidth,
			"min_height":             r.MinHeight,
			"min_megapixels":         r.MinMegapixels,
			"recommended_megapixels": r.RecommendedMegapixels,
			"aspect_ratio":           round(float64(w)/float64(h), 2),
			"quality_tier":           QualityTier(w, h),
		},
	}
}

// PassScore is the score of an image meeting exactly min_megapixels.
func (*Resolution) PassScore(rules config.Rules) float64 {
	r := rules.Resolution
	return round(min(100, r.MinMegapixels/r.RecommendedMegapixels*100), 1)
}

func (*Resolution) Advice(core.CheckResult) string {
	return "Use a higher resolution camera setting or move closer to the subject"
}

// QualityTier buckets the pixel count into a human-readable tier.
func QualityTier(w, h int) string {
	switch px := w * h; {
	case px >= 8_000_000:
		return "Ultra High"
	case px >= 2_000_000:
		return "High"
	case px >= 1_000_000:
		return "Medium"
	case px >= 500_000:
		return "Low"
	}
	return "Very Low"
}
