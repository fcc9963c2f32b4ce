package photoquality_test

import (
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	photoquality "github.com/Skryldev/photo-quality"
	"github.com/Skryldev/photo-quality/adapters/decoder"
	"github.com/Skryldev/photo-quality/adapters/storage"
	"github.com/Skryldev/photo-quality/archive"
	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
	"github.com/Skryldev/photo-quality/hooks"
	"github.com/Skryldev/photo-quality/imagetest"
	"github.com/Skryldev/photo-quality/pipeline"
	"github.com/Skryldev/photo-quality/scoring"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func newValidator(t *testing.T, opts ...photoquality.Option) *photoquality.Validator {
	t.Helper()
	opts = append([]photoquality.Option{photoquality.WithIDGenerator(core.FixedIDGenerator("test-image"))}, opts...)
	v, err := photoquality.New(photoquality.DefaultConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func sharpScene() image.Image { return imagetest.Noise(1920, 1080, 75, 175, 1) }

func goodPhoto(t *testing.T) []byte {
	return imagetest.JPEG(t, sharpScene(), imagetest.FullEXIF())
}

func check(t *testing.T, r *core.ValidationReport, name core.CheckName) core.CheckResult {
	t.Helper()
	res, ok := r.Checks.Get(name)
	require.True(t, ok, "missing check %s", name)
	return res
}

// ── scenarios ─────────────────────────────────────────────────────────────────

func TestValidate_GoodPhoto(t *testing.T) {
	v := newValidator(t)

	r, err := v.Validate(context.Background(), goodPhoto(t), "good.jpg")
	require.NoError(t, err)

	assert.Equal(t, photoquality.Pass, r.OverallStatus)
	assert.GreaterOrEqual(t, r.OverallScore, 95.0)
	assert.Equal(t, 0, r.TotalIssues)
	assert.Equal(t, "test-image", r.ImageID)
	assert.Equal(t, []string{scoring.MessageAllGood}, r.Recommendations)

	require.Len(t, r.Checks, 5)
	for _, c := range r.Checks {
		assert.Equal(t, core.StatusPass, c.Status, c.Name)
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 100.0)
	}
	assert.Equal(t, 100.0, check(t, r, core.CheckMetadata).Score)
	assert.Equal(t, 100.0, check(t, r, core.CheckResolution).Score)
}

func TestValidate_LowResolutionStillPasses(t *testing.T) {
	v := newValidator(t)
	raw := imagetest.JPEG(t, imagetest.Noise(400, 300, 75, 175, 2), imagetest.FullEXIF())

	r, err := v.Validate(context.Background(), raw, "small.jpg")
	require.NoError(t, err)

	assert.Equal(t, photoquality.Pass, r.OverallStatus)
	assert.Equal(t, 1, r.TotalIssues)
	res := check(t, r, core.CheckResolution)
	assert.Equal(t, core.StatusFail, res.Status)
	assert.Less(t, res.Score, 25.0)
	assert.Less(t, r.OverallScore, 80.0)
	assert.Contains(t, r.Recommendations, "Use a higher resolution camera setting or move closer to the subject")
	assert.NotContains(t, r.Recommendations, scoring.MessageAllGood)
}

func TestValidate_BlackFrameFails(t *testing.T) {
	v := newValidator(t)
	raw := imagetest.PNG(t, imagetest.Uniform(1920, 1080, 0))

	r, err := v.Validate(context.Background(), raw, "black.png")
	require.NoError(t, err)

	assert.Equal(t, photoquality.Fail, r.OverallStatus)
	assert.InDelta(t, 25.0, r.OverallScore, 0.05)
	assert.Equal(t, 4, r.TotalIssues)
	assert.Equal(t, core.StatusPass, check(t, r, core.CheckResolution).Status)

	require.Len(t, r.Recommendations, 4)
	assert.True(t, strings.HasPrefix(r.Recommendations[0], "Take a clearer photo"), r.Recommendations[0])
	assert.Equal(t, "Take photo in better lighting conditions: increase lighting or use the flash", r.Recommendations[1])
	assert.Equal(t, "Increase exposure or use fill flash to recover shadow details", r.Recommendations[2])
	assert.True(t, strings.HasPrefix(r.Recommendations[3], "Ensure camera metadata is enabled"), r.Recommendations[3])
	assert.Contains(t, r.Recommendations[3], "timestamp")
}

func TestValidate_StrippedMetadata(t *testing.T) {
	v := newValidator(t)
	raw := imagetest.PNG(t, sharpScene())

	r, err := v.Validate(context.Background(), raw, "stripped.png")
	require.NoError(t, err)

	assert.Equal(t, photoquality.Pass, r.OverallStatus)
	assert.Equal(t, 1, r.TotalIssues)
	md := check(t, r, core.CheckMetadata)
	assert.Equal(t, core.StatusFail, md.Status)
	assert.Equal(t, 0.0, md.Score)
	assert.InDelta(t, 85.0, r.OverallScore, 1.5)
}

func TestValidate_PNGWithEXIFChunk(t *testing.T) {
	v := newValidator(t)
	raw := imagetest.PNGWithEXIF(t, sharpScene(), imagetest.FullEXIF())

	r, err := v.Validate(context.Background(), raw, "tagged.png")
	require.NoError(t, err)
	assert.Equal(t, 0, r.TotalIssues)
	assert.Equal(t, 100.0, check(t, r, core.CheckMetadata).Score)
}

func TestValidate_Unreadable(t *testing.T) {
	v := newValidator(t)
	for name, raw := range map[string][]byte{
		"empty":       nil,
		"garbage":     []byte("definitely not an image"),
		"truncated":   goodPhoto(t)[:200],
		"fake header": append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...),
	} {
		t.Run(name, func(t *testing.T) {
			r, err := v.Validate(context.Background(), raw, name)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, apperrors.IsUnreadable(err), "got %v", err)
		})
	}
	_, _, errs := v.Stats()
	assert.Equal(t, int64(4), errs)
}

func TestNew_RejectsInvalidWeights(t *testing.T) {
	cfg := photoquality.DefaultConfig()
	cfg.Rules.Weights.Blur = 50
	_, err := photoquality.New(cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidConfig(err))
}

func TestNew_RulesFixedAtConstruction(t *testing.T) {
	cfg := photoquality.DefaultConfig()
	v, err := photoquality.New(cfg, photoquality.WithIDGenerator(core.FixedIDGenerator("test-image")))
	require.NoError(t, err)
	t.Cleanup(v.Close)
	raw := goodPhoto(t)

	before, err := v.Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)

	for i := range cfg.Rules.Metadata.RequiredFields {
		cfg.Rules.Metadata.RequiredFields[i] = "NoSuchTag"
	}
	rules := v.Rules()
	rules.Metadata.RequiredFields[0] = "NoSuchTag"

	after, err := v.Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)
	assert.Equal(t, check(t, before, core.CheckMetadata).Score, check(t, after, core.CheckMetadata).Score)
	assert.Equal(t, 100.0, check(t, after, core.CheckMetadata).Score)
	assert.Equal(t, "timestamp", v.Rules().Metadata.RequiredFields[0])
}

// countingDecoder wraps a decoder and counts its calls.
type countingDecoder struct {
	core.Decoder
	calls atomic.Int64
}

func (d *countingDecoder) Decode(ctx context.Context, r io.Reader) (*core.DecodedImage, error) {
	d.calls.Add(1)
	return d.Decoder.Decode(ctx, r)
}

func TestWithDecoder_OverridesBuiltIn(t *testing.T) {
	dec := &countingDecoder{Decoder: decoder.NewPNG()}
	v := newValidator(t, photoquality.WithDecoder(core.FormatPNG, dec))

	r, err := v.Validate(context.Background(), imagetest.PNG(t, sharpScene()), "x.png")
	require.NoError(t, err)
	assert.Equal(t, photoquality.Pass, r.OverallStatus)
	assert.Equal(t, int64(1), dec.calls.Load())

	_, err = v.Validate(context.Background(), goodPhoto(t), "x.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(1), dec.calls.Load())
}

// civicContent stands in for an extra detector plugged into the runner.
type civicContent struct{}

func (civicContent) Name() core.CheckName { return "civic_content" }
func (civicContent) Analyze(*core.DecodedImage, config.Rules) core.CheckResult {
	return core.CheckResult{Status: core.StatusFail, Message: "no civic objects detected"}
}
func (civicContent) PassScore(config.Rules) float64 { return 50 }
func (civicContent) Advice(core.CheckResult) string  { return "Frame the reported issue in the photo" }

func TestWithAnalyzers_ExtraCheckCarriesNoWeight(t *testing.T) {
	raw := goodPhoto(t)
	base, err := newValidator(t).Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)

	analyzers := append(pipeline.Standard().Analyzers(), civicContent{})
	v := newValidator(t, photoquality.WithAnalyzers(analyzers...))
	r, err := v.Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)

	require.Len(t, r.Checks, 6)
	extra := check(t, r, "civic_content")
	assert.Equal(t, 0, extra.Weight)
	assert.Equal(t, base.OverallScore, r.OverallScore)
	assert.Equal(t, base.OverallStatus, r.OverallStatus)
	assert.Equal(t, base.TotalIssues+1, r.TotalIssues)
	assert.Equal(t, []string{"Frame the reported issue in the photo"}, r.Recommendations)
}

// ── report shape ──────────────────────────────────────────────────────────────

func TestValidate_Deterministic(t *testing.T) {
	v := newValidator(t)
	raw := goodPhoto(t)

	a, err := v.Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)
	b, err := v.Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(ja, jb))
}

func TestReport_JSONOrder(t *testing.T) {
	v := newValidator(t)
	r, err := v.Validate(context.Background(), goodPhoto(t), "x.jpg")
	require.NoError(t, err)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	s := string(out)

	inOrder := func(keys ...string) {
		t.Helper()
		last := -1
		for _, k := range keys {
			i := strings.Index(s, `"`+k+`":`)
			require.GreaterOrEqual(t, i, 0, "key %s missing", k)
			assert.Greater(t, i, last, "key %s out of order", k)
			last = i
		}
	}
	inOrder("overall_status", "overall_score", "total_issues", "image_id", "checks", "recommendations")
	inOrder("blur", "resolution", "brightness", "exposure", "metadata")

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	checks := generic["checks"].(map[string]any)
	blur := checks["blur"].(map[string]any)
	for _, k := range []string{"status", "score", "weight", "message", "details"} {
		assert.Contains(t, blur, k)
	}
	assert.EqualValues(t, 25, blur["weight"])
}

// ── concurrency ───────────────────────────────────────────────────────────────

func TestValidate_ConcurrentCallers(t *testing.T) {
	v := newValidator(t)
	raw := goodPhoto(t)
	want, err := v.Validate(context.Background(), raw, "x.jpg")
	require.NoError(t, err)
	wantJSON, _ := json.Marshal(want)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Validate(context.Background(), raw, "x.jpg")
			if assert.NoError(t, err) {
				gotJSON, _ := json.Marshal(got)
				assert.Equal(t, string(wantJSON), string(gotJSON))
			}
		}()
	}
	wg.Wait()

	validated, _, _ := v.Stats()
	assert.Equal(t, int64(9), validated)
}

func TestBatch(t *testing.T) {
	v := newValidator(t)
	sources := []core.Source{
		photoquality.FromBytes(goodPhoto(t), "good.jpg"),
		photoquality.FromBytes([]byte("junk"), "junk.bin"),
		photoquality.FromBytes(imagetest.PNG(t, imagetest.Uniform(64, 64, 0)), "black.png"),
	}

	reports, errs := v.Batch(context.Background(), sources)
	require.Len(t, reports, 3)
	require.Len(t, errs, 3)

	assert.NoError(t, errs[0])
	assert.Equal(t, photoquality.Pass, reports[0].OverallStatus)
	assert.True(t, apperrors.IsUnreadable(errs[1]))
	assert.Nil(t, reports[1])
	assert.NoError(t, errs[2])
	assert.Equal(t, photoquality.Fail, reports[2].OverallStatus)
}

func TestSubmit_WorkerPool(t *testing.T) {
	v := newValidator(t)
	v.Start()

	results := make(chan core.JobResult, 2)
	require.NoError(t, v.Submit(core.Job{ID: "a", Source: photoquality.FromBytes(goodPhoto(t), "a.jpg"), ResultCh: results}))
	require.NoError(t, v.Submit(core.Job{ID: "b", Source: photoquality.FromBytes(nil, "b.jpg"), ResultCh: results}))

	got := map[string]core.JobResult{}
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			got[r.JobID] = r
		case <-time.After(30 * time.Second):
			t.Fatal("timed out waiting for job results")
		}
	}
	require.NoError(t, got["a"].Err)
	assert.Equal(t, photoquality.Pass, got["a"].Report.OverallStatus)
	assert.True(t, apperrors.IsUnreadable(got["b"].Err))
}

func TestValidate_CancelledContext(t *testing.T) {
	v := newValidator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := v.Validate(ctx, goodPhoto(t), "x.jpg")
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsUnreadable(err))
}

// ── file and reader input ─────────────────────────────────────────────────────

func TestValidateFile(t *testing.T) {
	v := newValidator(t)
	path := filepath.Join(t.TempDir(), "scene.jpg")
	require.NoError(t, os.WriteFile(path, goodPhoto(t), 0o644))

	r, err := v.ValidateFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, photoquality.Pass, r.OverallStatus)

	_, err = v.ValidateFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInput))
}

func TestValidateReader(t *testing.T) {
	v := newValidator(t)
	r, err := v.ValidateReader(context.Background(), bytes.NewReader(goodPhoto(t)), "x.jpg")
	require.NoError(t, err)
	assert.Equal(t, 0, r.TotalIssues)
}

// ── archive and statistics ────────────────────────────────────────────────────

func TestValidateAndStore(t *testing.T) {
	local, err := storage.NewLocal(t.TempDir(), 0o644)
	require.NoError(t, err)
	v := newValidator(t, photoquality.WithStorage(local))

	r, rec, err := v.ValidateAndStore(context.Background(), goodPhoto(t), "good.jpg")
	require.NoError(t, err)
	assert.Equal(t, photoquality.Pass, r.OverallStatus)
	assert.Equal(t, archive.BucketAccepted, rec.Image.Bucket)
	assert.Equal(t, "test-image.jpg", rec.Image.Path)

	ok, err := local.Exists(context.Background(), rec.Report)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = v.ValidateAndStore(context.Background(), []byte("junk"), "junk")
	assert.True(t, apperrors.IsUnreadable(err))
}

func TestValidateAndStore_NoStorage(t *testing.T) {
	v := newValidator(t)
	assert.Nil(t, v.Archive())

	_, _, err := v.ValidateAndStore(context.Background(), goodPhoto(t), "x.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
}

func TestSummary(t *testing.T) {
	v := newValidator(t)
	ctx := context.Background()
	_, err := v.Validate(ctx, goodPhoto(t), "a.jpg")
	require.NoError(t, err)
	_, err = v.Validate(ctx, imagetest.PNG(t, imagetest.Uniform(64, 64, 0)), "b.png")
	require.NoError(t, err)

	s := v.Summary()
	assert.Equal(t, int64(2), s.Total)
	assert.Equal(t, int64(1), s.Passed)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, 50.0, s.PassRate)
	assert.Equal(t, int64(1), s.CheckFailures[core.CheckResolution])

	validated, rejected, _ := v.Stats()
	assert.Equal(t, int64(2), validated)
	assert.Equal(t, int64(1), rejected)

	m := v.Metrics()
	assert.Equal(t, int64(2), m.Validations)
	assert.Equal(t, int64(1), m.Rejections)
	assert.Equal(t, int64(2), m.CheckCalls[core.CheckBlur])
}

func TestSetMetrics_KeepsBuiltInCollector(t *testing.T) {
	v := newValidator(t)
	extra := hooks.NewInMemoryMetrics()
	v.SetMetrics(extra)

	_, err := v.Validate(context.Background(), []byte("junk"), "junk")
	require.Error(t, err)

	assert.Equal(t, int64(1), extra.Snapshot().Errors["decode/decode"])
	assert.Equal(t, int64(1), v.Metrics().Errors["decode/decode"])
}

// ── benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkValidate_1080p(b *testing.B) {
	v, err := photoquality.New(photoquality.DefaultConfig())
	require.NoError(b, err)
	defer v.Close()
	raw := imagetest.JPEG(b, sharpScene(), imagetest.FullEXIF())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Validate(context.Background(), raw, "bench.jpg"); err != nil {
			b.Fatal(err)
		}
	}
}
