package checks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

// fieldTags lists the EXIF tags that satisfy each logical required field.
var fieldTags = map[string][]string{
	"timestamp":         {"DateTimeOriginal", "DateTime", "DateTimeDigitized"},
	"camera_make_model": {"Make", "Model"},
	"orientation":       {"Orientation"},
	"iso":               {"ISOSpeedRatings", "PhotographicSensitivity"},
	"shutter_speed":     {"ExposureTime", "ShutterSpeedValue"},
	"aperture":          {"FNumber", "ApertureValue"},
}

// Metadata scores how many of the required EXIF fields are present.
type Metadata struct{}

// NewMetadata returns the metadata analyzer.
func NewMetadata() *Metadata { return &Metadata{} }

func (*Metadata) Name() core.CheckName { return core.CheckMetadata }

func (*Metadata) Analyze(img *core.DecodedImage, rules config.Rules) core.CheckResult {
	r := rules.Metadata
	found := make([]string, 0, len(r.RequiredFields))
	missing := make([]string, 0, len(r.RequiredFields))
	for _, field := range r.RequiredFields {
		if HasField(img, field) {
			found = append(found, field)
		} else {
			missing = append(missing, field)
		}
	}

	var completeness float64
	if n := len(r.RequiredFields); n > 0 {
		completeness = float64(len(found)) / float64(n) * 100
	}
	completeness = round(min(completeness, 100), 1)
	pass := completeness >= r.MinCompletenessPercentage

	msg := "Sufficient metadata extracted"
	if !pass {
		msg = fmt.Sprintf("Insufficient metadata extracted (%.1f%% < %.0f%%)", completeness, r.MinCompletenessPercentage)
	}

	details := map[string]any{
		"completeness_percentage": completeness,
		"threshold":               r.MinCompletenessPercentage,
		"found_fields":            found,
		"missing_fields":          missing,
	}
	lat, lon, hasGPS := GPS(img)
	if hasGPS {
		details["gps"] = map[string]float64{"latitude": lat, "longitude": lon}
	}
	if r.Boundaries != nil {
		details["within_boundaries"] = hasGPS && r.Boundaries.Contains(lat, lon)
	}

	return core.CheckResult{
		Status:  statusOf(pass),
		Score:   completeness,
		Message: msg,
		Details: details,
	}
}

func (*Metadata) PassScore(rules config.Rules) float64 {
	return rules.Metadata.MinCompletenessPercentage
}

func (*Metadata) Advice(res core.CheckResult) string {
	missing, _ := res.Details["missing_fields"].([]string)
	if len(missing) == 0 {
		return "Ensure camera metadata is enabled and not stripped before upload"
	}
	return "Ensure camera metadata is enabled and not stripped before upload (missing: " + strings.Join(missing, ", ") + ")"
}

// HasField reports whether any tag aliased to field carries a non-blank
// value.  Unknown field names are looked up as a tag of the same name.
func HasField(img *core.DecodedImage, field string) bool {
	tags, ok := fieldTags[field]
	if !ok {
		tags = []string{field}
	}
	for _, t := range tags {
		if v, ok := img.Tag(t); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// GPS returns the decimal coordinates recorded by the decoder, if any.
func GPS(img *core.DecodedImage) (lat, lon float64, ok bool) {
	latS, ok1 := img.Tag(core.TagGPSLatitude)
	lonS, ok2 := img.Tag(core.TagGPSLongitude)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}
