package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/Skryldev/photo-quality/errors"
)

// EnvPrefix is prepended to every environment override, e.g.
// PHOTOQC_RULES_PASS_THRESHOLD=70.
const EnvPrefix = "PHOTOQC"

// Load reads configuration from path (or, when path is empty, from
// photoqc.yaml in the working directory or ./config), applies PHOTOQC_*
// environment overrides on top of Default(), and validates the result.
// A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("photoqc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, apperrors.InvalidConfig("config.load", fmt.Errorf("read %s: %w", describePath(path), err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, apperrors.InvalidConfig("config.load", fmt.Errorf("decode: %w", err))
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func describePath(path string) string {
	if path == "" {
		return "photoqc.yaml"
	}
	return path
}

// setDefaults registers every key so AutomaticEnv can resolve overrides for it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("worker_count", d.WorkerCount)
	v.SetDefault("queue_size", d.QueueSize)
	v.SetDefault("job_timeout", d.JobTimeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("retry_delay", d.RetryDelay)
	v.SetDefault("max_image_bytes", d.MaxImageBytes)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("storage", string(d.Storage))
	v.SetDefault("local.root_dir", d.Local.RootDir)
	v.SetDefault("local.permissions", d.Local.Permissions)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.access_key_id", d.S3.AccessKeyID)
	v.SetDefault("s3.secret_access_key", d.S3.SecretAccessKey)
	v.SetDefault("s3.use_path_style", d.S3.UsePathStyle)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	r := d.Rules
	v.SetDefault("rules.blur.min_score", r.Blur.MinScore)
	v.SetDefault("rules.blur.levels.poor", r.Blur.Levels.Poor)
	v.SetDefault("rules.blur.levels.acceptable", r.Blur.Levels.Acceptable)
	v.SetDefault("rules.blur.levels.excellent", r.Blur.Levels.Excellent)

	v.SetDefault("rules.resolution.min_width", r.Resolution.MinWidth)
	v.SetDefault("rules.resolution.min_height", r.Resolution.MinHeight)
	v.SetDefault("rules.resolution.min_megapixels", r.Resolution.MinMegapixels)
	v.SetDefault("rules.resolution.recommended_megapixels", r.Resolution.RecommendedMegapixels)
	v.SetDefault("rules.resolution.fail_score_cap", r.Resolution.FailScoreCap)

	v.SetDefault("rules.brightness.min", r.Brightness.Min)
	v.SetDefault("rules.brightness.max", r.Brightness.Max)
	v.SetDefault("rules.brightness.min_quality_score", r.Brightness.MinQualityScore)
	v.SetDefault("rules.brightness.falloff", r.Brightness.Falloff)
	v.SetDefault("rules.brightness.max_extreme_ratio", r.Brightness.MaxExtremeRatio)

	v.SetDefault("rules.exposure.acceptable_min", r.Exposure.AcceptableMin)
	v.SetDefault("rules.exposure.acceptable_max", r.Exposure.AcceptableMax)
	v.SetDefault("rules.exposure.falloff", r.Exposure.Falloff)
	v.SetDefault("rules.exposure.max_clipping_percentage", r.Exposure.MaxClippingPercentage)
	v.SetDefault("rules.exposure.clipping_tolerance", r.Exposure.ClippingTolerance)
	v.SetDefault("rules.exposure.clipping_penalty_span", r.Exposure.ClippingPenaltySpan)
	v.SetDefault("rules.exposure.low_percentile", r.Exposure.LowPercentile)
	v.SetDefault("rules.exposure.high_percentile", r.Exposure.HighPercentile)
	v.SetDefault("rules.exposure.min_score", r.Exposure.MinScore)

	v.SetDefault("rules.metadata.required_fields", r.Metadata.RequiredFields)
	v.SetDefault("rules.metadata.min_completeness_percentage", r.Metadata.MinCompletenessPercentage)

	v.SetDefault("rules.weights.blur", r.Weights.Blur)
	v.SetDefault("rules.weights.resolution", r.Weights.Resolution)
	v.SetDefault("rules.weights.brightness", r.Weights.Brightness)
	v.SetDefault("rules.weights.exposure", r.Weights.Exposure)
	v.SetDefault("rules.weights.metadata", r.Weights.Metadata)

	v.SetDefault("rules.pass_threshold", r.PassThreshold)
}
