package checks

import (
	"fmt"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

// Exposure scores tonal spread (dynamic range) and clipping at both ends of
// the histogram.
type Exposure struct{}

// NewExposure returns the exposure analyzer.
func NewExposure() *Exposure { return &Exposure{} }

func (*Exposure) Name() core.CheckName { return core.CheckExposure }

func (*Exposure) Analyze(img *core.DecodedImage, rules config.Rules) core.CheckResult {
	r := rules.Exposure
	hist := img.Histogram()
	total := img.PixelCount()

	dr := float64(percentile(hist, total, r.HighPercentile) - percentile(hist, total, r.LowPercentile))
	inBand := dr >= r.AcceptableMin && dr <= r.AcceptableMax

	shadowClip := share(hist, total, 0, r.ClippingTolerance)
	highlightClip := share(hist, total, 255-r.ClippingTolerance, 255)
	clipping := (shadowClip + highlightClip) * 100

	score := round(ExposureScore(dr, clipping, r), 1)
	pass := inBand && score >= r.MinScore

	var msg string
	switch {
	case pass:
		msg = "Exposure and dynamic range are acceptable"
	case !inBand:
		msg = fmt.Sprintf("Dynamic range %.0f is outside the acceptable range [%.0f, %.0f]", dr, r.AcceptableMin, r.AcceptableMax)
	default:
		msg = fmt.Sprintf("Exposure quality below acceptable standards (%.1f%% clipped)", clipping)
	}

	return core.CheckResult{
		Status:  statusOf(pass),
		Score:   score,
		Message: msg,
		Details: map[string]any{
			"dynamic_range":           dr,
			"clipping_percentage":     round(clipping, 2),
			"shadow_clipping":         round(shadowClip, 4),
			"highlight_clipping":      round(highlightClip, 4),
			"acceptable_range":        []float64{r.AcceptableMin, r.AcceptableMax},
			"max_clipping_percentage": r.MaxClippingPercentage,
			"shadows_ratio":           round(share(hist, total, 0, 84), 3),
			"midtones_ratio":          round(share(hist, total, 85, 169), 3),
			"highlights_ratio":        round(share(hist, total, 170, 255), 3),
		},
	}
}

func (*Exposure) PassScore(rules config.Rules) float64 { return rules.Exposure.MinScore }

func (*Exposure) Advice(res core.CheckResult) string {
	shadow, _ := res.Details["shadow_clipping"].(float64)
	highlight, _ := res.Details["highlight_clipping"].(float64)
	dr, _ := res.Details["dynamic_range"].(float64)
	band, _ := res.Details["acceptable_range"].([]float64)
	switch {
	case shadow > 0.02 && shadow >= highlight:
		return "Increase exposure or use fill flash to recover shadow details"
	case highlight > 0.02:
		return "Decrease exposure or avoid direct sunlight to recover highlights"
	case len(band) == 2 && dr > band[1]:
		return "Scene contrast is too high: avoid backlit subjects or enable HDR"
	}
	return "Scene looks flat: improve lighting so the photo shows both shadows and highlights"
}

// ExposureScore combines the dynamic-range score with a multiplicative
// clipping penalty.  Clipping can only lower the result.
func ExposureScore(dynamicRange, clippingPct float64, r config.ExposureRules) float64 {
	var rangeScore float64
	switch {
	case dynamicRange < r.AcceptableMin:
		rangeScore = 100 * (1 - (r.AcceptableMin-dynamicRange)/r.Falloff)
	case dynamicRange > r.AcceptableMax:
		rangeScore = 100 * (1 - (dynamicRange-r.AcceptableMax)/r.Falloff)
	default:
		rangeScore = 100
	}
	rangeScore = max(rangeScore, 0)

	if clippingPct <= r.MaxClippingPercentage {
		return rangeScore
	}
	penalty := clamp((clippingPct-r.MaxClippingPercentage)/r.ClippingPenaltySpan, 0, 1)
	return rangeScore * (1 - penalty)
}
