package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Skryldev/photo-quality/errors"
)

// Rules holds every threshold and weight used by the five quality checks.
// A Rules value is treated as immutable once it has passed ValidateRules.
type Rules struct {
	Blur            BlurRules           `mapstructure:"blur" json:"blur"`
	Resolution      ResolutionRules     `mapstructure:"resolution" json:"resolution"`
	Brightness      BrightnessRules     `mapstructure:"brightness" json:"brightness"`
	Exposure        ExposureRules       `mapstructure:"exposure" json:"exposure"`
	Metadata        MetadataRules       `mapstructure:"metadata" json:"metadata"`
	Weights         Weights             `mapstructure:"weights" json:"weights"`
	PassThreshold   float64             `mapstructure:"pass_threshold" json:"pass_threshold" validate:"gte=0,lte=100"`
	Recommendations RecommendationRules `mapstructure:"recommendations" json:"recommendations"`
}

// BlurRules configures the Laplacian-variance sharpness check.
type BlurRules struct {
	MinScore float64    `mapstructure:"min_score" json:"min_score" validate:"gte=0"`
	Levels   BlurLevels `mapstructure:"levels" json:"levels"`
}

// BlurLevels are the variance boundaries of the poor/acceptable/excellent tiers.
type BlurLevels struct {
	Poor       float64 `mapstructure:"poor" json:"poor" validate:"gte=0"`
	Acceptable float64 `mapstructure:"acceptable" json:"acceptable" validate:"gtfield=Poor"`
	Excellent  float64 `mapstructure:"excellent" json:"excellent" validate:"gtfield=Acceptable"`
}

// ResolutionRules configures the dimension and megapixel check.
type ResolutionRules struct {
	MinWidth              int     `mapstructure:"min_width" json:"min_width" validate:"gte=1"`
	MinHeight             int     `mapstructure:"min_height" json:"min_height" validate:"gte=1"`
	MinMegapixels         float64 `mapstructure:"min_megapixels" json:"min_megapixels" validate:"gt=0"`
	RecommendedMegapixels float64 `mapstructure:"recommended_megapixels" json:"recommended_megapixels" validate:"gtefield=MinMegapixels"`
	// FailScoreCap bounds the score of an image that misses a hard minimum.
	FailScoreCap float64 `mapstructure:"fail_score_cap" json:"fail_score_cap" validate:"gte=0,lte=100"`
}

// BrightnessRules configures the mean-intensity check.
type BrightnessRules struct {
	Min             float64 `mapstructure:"min" json:"min" validate:"gte=0,lte=255"`
	Max             float64 `mapstructure:"max" json:"max" validate:"gtfield=Min,lte=255"`
	MinQualityScore float64 `mapstructure:"min_quality_score" json:"min_quality_score" validate:"gte=0,lte=100"`
	// Falloff is the intensity distance outside the range at which the score reaches 0.
	Falloff float64 `mapstructure:"falloff" json:"falloff" validate:"gt=0"`
	// MaxExtremeRatio is the share of out-of-range pixels tolerated before the
	// histogram penalty starts.
	MaxExtremeRatio float64 `mapstructure:"max_extreme_ratio" json:"max_extreme_ratio" validate:"gte=0,lt=1"`
}

// ExposureRules configures the dynamic-range and clipping check.
type ExposureRules struct {
	AcceptableMin         float64 `mapstructure:"acceptable_min" json:"acceptable_min" validate:"gte=0,lte=255"`
	AcceptableMax         float64 `mapstructure:"acceptable_max" json:"acceptable_max" validate:"gtefield=AcceptableMin,lte=255"`
	Falloff               float64 `mapstructure:"falloff" json:"falloff" validate:"gt=0"`
	MaxClippingPercentage float64 `mapstructure:"max_clipping_percentage" json:"max_clipping_percentage" validate:"gte=0,lte=100"`
	ClippingTolerance     int     `mapstructure:"clipping_tolerance" json:"clipping_tolerance" validate:"gte=0,lte=127"`
	ClippingPenaltySpan   float64 `mapstructure:"clipping_penalty_span" json:"clipping_penalty_span" validate:"gt=0"`
	LowPercentile         float64 `mapstructure:"low_percentile" json:"low_percentile" validate:"gte=0,lt=50"`
	HighPercentile        float64 `mapstructure:"high_percentile" json:"high_percentile" validate:"gt=50,lte=100"`
	MinScore              float64 `mapstructure:"min_score" json:"min_score" validate:"gte=0,lte=100"`
}

// MetadataRules configures the EXIF completeness check.
type MetadataRules struct {
	RequiredFields            []string   `mapstructure:"required_fields" json:"required_fields" validate:"min=1,unique,dive,required"`
	MinCompletenessPercentage float64    `mapstructure:"min_completeness_percentage" json:"min_completeness_percentage" validate:"gte=0,lte=100"`
	Boundaries                *GeoBounds `mapstructure:"boundaries" json:"boundaries,omitempty"`
}

// GeoBounds is an optional latitude/longitude box photos are expected to fall in.
type GeoBounds struct {
	MinLat float64 `mapstructure:"min_lat" json:"min_lat" validate:"gte=-90,lte=90"`
	MaxLat float64 `mapstructure:"max_lat" json:"max_lat" validate:"gtfield=MinLat,lte=90"`
	MinLon float64 `mapstructure:"min_lon" json:"min_lon" validate:"gte=-180,lte=180"`
	MaxLon float64 `mapstructure:"max_lon" json:"max_lon" validate:"gtfield=MinLon,lte=180"`
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (g GeoBounds) Contains(lat, lon float64) bool {
	return lat >= g.MinLat && lat <= g.MaxLat && lon >= g.MinLon && lon <= g.MaxLon
}

// Weights are the integer contributions of each check to the overall score.
type Weights struct {
	Blur       int `mapstructure:"blur" json:"blur" validate:"gte=0"`
	Resolution int `mapstructure:"resolution" json:"resolution" validate:"gte=0"`
	Brightness int `mapstructure:"brightness" json:"brightness" validate:"gte=0"`
	Exposure   int `mapstructure:"exposure" json:"exposure" validate:"gte=0"`
	Metadata   int `mapstructure:"metadata" json:"metadata" validate:"gte=0"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() int {
	return w.Blur + w.Resolution + w.Brightness + w.Exposure + w.Metadata
}

// For returns the weight of the named check, or 0 for an unknown name.
func (w Weights) For(check string) int {
	switch check {
	case "blur":
		return w.Blur
	case "resolution":
		return w.Resolution
	case "brightness":
		return w.Brightness
	case "exposure":
		return w.Exposure
	case "metadata":
		return w.Metadata
	}
	return 0
}

// RecommendationRules overrides the score below which a check is reported
// back to the user.  Checks without an entry use their own pass bar.
type RecommendationRules struct {
	GoodScores map[string]float64 `mapstructure:"good_scores" json:"good_scores,omitempty" validate:"dive,keys,oneof=blur resolution brightness exposure metadata,endkeys,gte=0,lte=100"`
}

// Clone returns a deep copy of r.  The copy shares no slice, map or pointer
// with r, so later writes to either side never leak into the other.
func (r Rules) Clone() Rules {
	out := r
	if r.Metadata.RequiredFields != nil {
		out.Metadata.RequiredFields = append([]string(nil), r.Metadata.RequiredFields...)
	}
	if r.Metadata.Boundaries != nil {
		b := *r.Metadata.Boundaries
		out.Metadata.Boundaries = &b
	}
	if r.Recommendations.GoodScores != nil {
		out.Recommendations.GoodScores = make(map[string]float64, len(r.Recommendations.GoodScores))
		for k, v := range r.Recommendations.GoodScores {
			out.Recommendations.GoodScores[k] = v
		}
	}
	return out
}

// DefaultRules returns the mobile-optimised baseline rules.
func DefaultRules() Rules {
	return Rules{
		Blur: BlurRules{
			MinScore: 100,
			Levels:   BlurLevels{Poor: 0, Acceptable: 100, Excellent: 300},
		},
		Resolution: ResolutionRules{
			MinWidth:              800,
			MinHeight:             600,
			MinMegapixels:         0.5,
			RecommendedMegapixels: 2,
			FailScoreCap:          45,
		},
		Brightness: BrightnessRules{
			Min:             50,
			Max:             220,
			MinQualityScore: 60,
			Falloff:         50,
			MaxExtremeRatio: 0.25,
		},
		Exposure: ExposureRules{
			AcceptableMin:         80,
			AcceptableMax:         150,
			Falloff:               100,
			MaxClippingPercentage: 2,
			ClippingTolerance:     2,
			ClippingPenaltySpan:   20,
			LowPercentile:         0.5,
			HighPercentile:        99.5,
			MinScore:              60,
		},
		Metadata: MetadataRules{
			RequiredFields: []string{
				"timestamp",
				"camera_make_model",
				"orientation",
				"iso",
				"shutter_speed",
				"aperture",
			},
			MinCompletenessPercentage: 15,
		},
		Weights: Weights{
			Blur:       25,
			Resolution: 25,
			Brightness: 20,
			Exposure:   15,
			Metadata:   15,
		},
		PassThreshold: 65,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRules checks field constraints and the cross-field invariants of r.
// Every returned error satisfies errors.IsInvalidConfig.
func ValidateRules(r Rules) error {
	if err := structValidator().Struct(r); err != nil {
		return apperrors.InvalidConfig("rules.validate", describe(err))
	}
	if sum := r.Weights.Sum(); sum != 100 {
		return apperrors.InvalidConfig("rules.validate",
			fmt.Errorf("weights must sum to 100, got %d", sum))
	}
	if r.Blur.MinScore < r.Blur.Levels.Poor {
		return apperrors.InvalidConfig("rules.validate",
			errors.New("blur min_score must not be below the poor level"))
	}
	return nil
}

// describe flattens validator field errors into one readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	if fe.Param() != "" {
		msg += fmt.Sprintf(" (%s)", fe.Param())
	}
	if len(verrs) > 1 {
		msg += fmt.Sprintf(" and %d more", len(verrs)-1)
	}
	return errors.New(msg)
}
