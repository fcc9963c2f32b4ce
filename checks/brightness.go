package checks

import (
	"fmt"
	"math"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

// Brightness scores the mean luma against the configured range.
type Brightness struct{}

// NewBrightness returns the brightness analyzer.
func NewBrightness() *Brightness { return &Brightness{} }

func (*Brightness) Name() core.CheckName { return core.CheckBrightness }

func (*Brightness) Analyze(img *core.DecodedImage, rules config.Rules) core.CheckResult {
	r := rules.Brightness
	hist := img.Histogram()
	total := img.PixelCount()
	mean, std := meanStd(hist, total)

	inRange := mean >= r.Min && mean <= r.Max
	extreme := extremeShare(hist, total, r.Min, r.Max)
	penalty := clamp((extreme-r.MaxExtremeRatio)/(1-r.MaxExtremeRatio), 0, 1)
	score := round(PositionScore(mean, r)*(1-penalty), 1)
	pass := inRange && score >= r.MinQualityScore

	var msg string
	switch {
	case pass:
		msg = "Brightness is within the acceptable range"
	case inRange:
		msg = fmt.Sprintf("Brightness histogram is unbalanced (%.0f%% of pixels outside the range)", extreme*100)
	case mean < r.Min:
		msg = fmt.Sprintf("Image is too dark (mean %.1f < %.0f)", mean, r.Min)
	default:
		msg = fmt.Sprintf("Image is too bright (mean %.1f > %.0f)", mean, r.Max)
	}

	return core.CheckResult{
		Status:  statusOf(pass),
		Score:   score,
		Message: msg,
		Details: map[string]any{
			"mean_intensity":     round(mean, 2),
			"std_intensity":      round(std, 2),
			"range":              []float64{r.Min, r.Max},
			"quality_percentage": score,
			"extreme_share":      round(extreme, 3),
			"quality_level":      brightnessLevel(score, r.MinQualityScore),
		},
	}
}

func (*Brightness) PassScore(rules config.Rules) float64 { return rules.Brightness.MinQualityScore }

func (*Brightness) Advice(res core.CheckResult) string {
	mean, _ := res.Details["mean_intensity"].(float64)
	bounds, _ := res.Details["range"].([]float64)
	switch {
	case len(bounds) == 2 && mean < bounds[0]:
		return "Take photo in better lighting conditions: increase lighting or use the flash"
	case len(bounds) == 2 && mean > bounds[1]:
		return "Reduce brightness: avoid direct sunlight and glare on the subject"
	}
	return "Avoid harsh contrast between light and shadow: reposition so the subject is evenly lit"
}

// PositionScore scores mean by where it falls relative to [Min, Max]: 100 at
// the centre, 60 at either edge, then falling to 0 at Falloff outside.
func PositionScore(mean float64, r config.BrightnessRules) float64 {
	centre := (r.Min + r.Max) / 2
	half := (r.Max - r.Min) / 2
	switch {
	case mean < r.Min:
		return max(0, 60*(1-(r.Min-mean)/r.Falloff))
	case mean > r.Max:
		return max(0, 60*(1-(mean-r.Max)/r.Falloff))
	case half == 0:
		return 100
	}
	return 100 - 40*math.Abs(mean-centre)/half
}

func meanStd(hist [256]int, total int) (float64, float64) {
	if total == 0 {
		return 0, 0
	}
	var sum float64
	for v, n := range hist {
		sum += float64(v) * float64(n)
	}
	mean := sum / float64(total)
	var sq float64
	for v, n := range hist {
		d := float64(v) - mean
		sq += d * d * float64(n)
	}
	return mean, math.Sqrt(sq / float64(total))
}

// extremeShare is the fraction of pixels whose intensity lies outside [lo, hi].
func extremeShare(hist [256]int, total int, lo, hi float64) float64 {
	if total == 0 {
		return 0
	}
	n := 0
	for v, c := range hist {
		if fv := float64(v); fv < lo || fv > hi {
			n += c
		}
	}
	return float64(n) / float64(total)
}

func brightnessLevel(score, minQuality float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= minQuality:
		return "acceptable"
	}
	return "poor"
}
