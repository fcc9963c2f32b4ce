package checks

import (
	"fmt"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

// Blur scores sharpness by the variance of the Laplacian response.
type Blur struct{}

// NewBlur returns the blur analyzer.
func NewBlur() *Blur { return &Blur{} }

func (*Blur) Name() core.CheckName { return core.CheckBlur }

func (*Blur) Analyze(img *core.DecodedImage, rules config.Rules) core.CheckResult {
	r := rules.Blur
	variance := LaplacianVariance(img)
	pass := variance >= r.MinScore

	msg := "Image sharpness is acceptable"
	if !pass {
		msg = fmt.Sprintf("Image is too blurry for quality standards (variance %.1f < %.0f)", variance, r.MinScore)
	}
	return core.CheckResult{
		Status:  statusOf(pass),
		Score:   round(BlurScore(variance, r.Levels), 1),
		Message: msg,
		Details: map[string]any{
			"variance":  round(variance, 2),
			"threshold": r.MinScore,
			"tier":      BlurTier(variance, r.Levels),
		},
	}
}

// PassScore is the score of an image sitting exactly on min_score.
func (*Blur) PassScore(rules config.Rules) float64 {
	return round(BlurScore(rules.Blur.MinScore, rules.Blur.Levels), 1)
}

func (*Blur) Advice(core.CheckResult) string {
	return "Take a clearer photo with better focus: hold the camera steady and tap the subject to focus"
}

// LaplacianVariance applies the 4-neighbour Laplacian kernel
// [0 1 0; 1 -4 1; 0 1 0] to interior pixels of the luma view and returns the
// population variance of the response.  Images smaller than 3x3 yield 0.
func LaplacianVariance(img *core.DecodedImage) float64 {
	w, h := img.Width(), img.Height()
	if w < 3 || h < 3 {
		return 0
	}
	g := img.Gray()

	var sum, sumSq int64
	for y := 1; y < h-1; y++ {
		row := y * w
		for x := 1; x < w-1; x++ {
			i := row + x
			l := int64(g[i-w]) + int64(g[i+w]) + int64(g[i-1]) + int64(g[i+1]) - 4*int64(g[i])
			sum += l
			sumSq += l * l
		}
	}
	n := float64((w - 2) * (h - 2))
	mean := float64(sum) / n
	return max(float64(sumSq)/n-mean*mean, 0)
}

// BlurScore maps variance onto 0..100: 0 up to the poor level, linear to 60
// at the acceptable level, linear to 100 at the excellent level, then flat.
func BlurScore(variance float64, l config.BlurLevels) float64 {
	switch {
	case variance <= l.Poor:
		return 0
	case variance < l.Acceptable:
		return 60 * (variance - l.Poor) / (l.Acceptable - l.Poor)
	case variance < l.Excellent:
		return 60 + 40*(variance-l.Acceptable)/(l.Excellent-l.Acceptable)
	}
	return 100
}

// BlurTier names the sharpness tier of variance.
func BlurTier(variance float64, l config.BlurLevels) string {
	switch {
	case variance >= l.Excellent:
		return "excellent"
	case variance >= l.Acceptable:
		return "acceptable"
	}
	return "poor"
}
