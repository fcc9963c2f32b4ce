package scoring_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skryldev/photo-quality/checks"
	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
	"github.com/Skryldev/photo-quality/scoring"
)

func result(name core.CheckName, status core.Status, score float64, weight int) core.CheckResult {
	return core.CheckResult{Name: name, Status: status, Score: score, Weight: weight}
}

func standardScorer() *scoring.Scorer {
	return scoring.New([]core.Analyzer{
		checks.NewBlur(), checks.NewResolution(), checks.NewBrightness(), checks.NewExposure(), checks.NewMetadata(),
	})
}

// ── Aggregate ─────────────────────────────────────────────────────────────────

func TestAggregate_PassWithIssues(t *testing.T) {
	v := scoring.Aggregate(core.Checks{
		result(core.CheckBlur, core.StatusPass, 100, 25),
		result(core.CheckResolution, core.StatusFail, 6, 25),
		result(core.CheckBrightness, core.StatusPass, 95.3, 20),
		result(core.CheckExposure, core.StatusPass, 100, 15),
		result(core.CheckMetadata, core.StatusPass, 100, 15),
	}, 65)

	assert.Equal(t, core.StatusPass, v.Status)
	assert.InDelta(t, 75.6, v.Score, 1e-9)
	assert.Equal(t, 1, v.Issues)
}

func TestAggregate_ThresholdInclusive(t *testing.T) {
	cs := core.Checks{result(core.CheckBlur, core.StatusPass, 65, 100)}
	assert.Equal(t, core.StatusPass, scoring.Aggregate(cs, 65).Status)
	assert.Equal(t, core.StatusFail, scoring.Aggregate(cs, 65.1).Status)
}

func TestAggregate_RoundsToOneDecimal(t *testing.T) {
	v := scoring.Aggregate(core.Checks{
		result(core.CheckBlur, core.StatusPass, 33.33, 50),
		result(core.CheckMetadata, core.StatusPass, 66.67, 50),
	}, 65)
	assert.Equal(t, 50.0, v.Score)
}

func TestAggregate_Bounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	w := config.DefaultRules().Weights
	for i := 0; i < 500; i++ {
		var cs core.Checks
		for _, name := range core.CheckOrder {
			cs = append(cs, result(name, core.StatusPass, rng.Float64()*100, w.For(string(name))))
		}
		v := scoring.Aggregate(cs, 65)
		assert.GreaterOrEqual(t, v.Score, 0.0)
		assert.LessOrEqual(t, v.Score, 100.0)
	}
}

// ── Recommend ─────────────────────────────────────────────────────────────────

func fixed(msg string) func(core.CheckResult) string {
	return func(core.CheckResult) string { return msg }
}

func TestRecommend_OrderAndTieBreak(t *testing.T) {
	advisors := map[core.CheckName]scoring.Advisor{
		core.CheckBlur:       {Advice: fixed("blur"), GoodScore: 60},
		core.CheckResolution: {Advice: fixed("resolution"), GoodScore: 25},
		core.CheckBrightness: {Advice: fixed("brightness"), GoodScore: 60},
		core.CheckExposure:   {Advice: fixed("exposure"), GoodScore: 60},
		core.CheckMetadata:   {Advice: fixed("metadata"), GoodScore: 15},
	}
	got := scoring.Recommend(core.Checks{
		result(core.CheckBlur, core.StatusFail, 10, 25),
		result(core.CheckResolution, core.StatusPass, 100, 25),
		result(core.CheckBrightness, core.StatusFail, 10, 20),
		result(core.CheckExposure, core.StatusFail, 0, 15),
		result(core.CheckMetadata, core.StatusFail, 0, 15),
	}, core.StatusFail, advisors)

	assert.Equal(t, []string{"exposure", "metadata", "blur", "brightness"}, got)
}

func TestRecommend_AllGood(t *testing.T) {
	advisors := map[core.CheckName]scoring.Advisor{core.CheckBlur: {Advice: fixed("blur"), GoodScore: 60}}
	got := scoring.Recommend(core.Checks{result(core.CheckBlur, core.StatusPass, 90, 100)}, core.StatusPass, advisors)
	assert.Equal(t, []string{scoring.MessageAllGood}, got)
}

func TestRecommend_RetakeWhenNothingWeak(t *testing.T) {
	advisors := map[core.CheckName]scoring.Advisor{core.CheckBlur: {Advice: fixed("blur"), GoodScore: 60}}
	got := scoring.Recommend(core.Checks{result(core.CheckBlur, core.StatusPass, 61, 100)}, core.StatusFail, advisors)
	assert.Equal(t, []string{scoring.MessageRetake}, got)
}

func TestRecommend_Deduplicates(t *testing.T) {
	advisors := map[core.CheckName]scoring.Advisor{
		core.CheckBrightness: {Advice: fixed("improve lighting"), GoodScore: 60},
		core.CheckExposure:   {Advice: fixed("improve lighting"), GoodScore: 60},
	}
	got := scoring.Recommend(core.Checks{
		result(core.CheckBrightness, core.StatusFail, 10, 20),
		result(core.CheckExposure, core.StatusFail, 20, 15),
	}, core.StatusFail, advisors)
	assert.Equal(t, []string{"improve lighting"}, got)
}

// A failing check scoring above its default bar still gets advice; an
// explicit good score only compares scores.
func TestRecommend_FailStatusAndOverride(t *testing.T) {
	capped := core.Checks{result(core.CheckResolution, core.StatusFail, 45, 25)}

	def := map[core.CheckName]scoring.Advisor{core.CheckResolution: {Advice: fixed("resolution"), GoodScore: 25}}
	assert.Equal(t, []string{"resolution"}, scoring.Recommend(capped, core.StatusPass, def))

	over := map[core.CheckName]scoring.Advisor{core.CheckResolution: {Advice: fixed("resolution"), GoodScore: 40, Overridden: true}}
	assert.Equal(t, []string{scoring.MessageAllGood}, scoring.Recommend(capped, core.StatusPass, over))
}

func TestScorer_UsesAnalyzerAdviceAndOverrides(t *testing.T) {
	s := standardScorer()
	rules := config.DefaultRules()
	cs := core.Checks{
		result(core.CheckBlur, core.StatusPass, 70, 25),
		result(core.CheckResolution, core.StatusPass, 100, 25),
		result(core.CheckBrightness, core.StatusPass, 95, 20),
		result(core.CheckExposure, core.StatusPass, 100, 15),
		result(core.CheckMetadata, core.StatusPass, 100, 15),
	}
	v := s.Aggregate(cs, rules)
	assert.Equal(t, core.StatusPass, v.Status)
	assert.Equal(t, []string{scoring.MessageAllGood}, s.Recommend(cs, v, rules))

	rules.Recommendations.GoodScores = map[string]float64{"blur": 80}
	got := s.Recommend(cs, v, rules)
	assert.Equal(t, []string{checks.NewBlur().Advice(cs[0])}, got)
}

func TestRecommend_NeverEmpty(t *testing.T) {
	s := standardScorer()
	rules := config.DefaultRules()
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		var cs core.Checks
		for _, name := range core.CheckOrder {
			status := core.StatusPass
			if rng.IntN(3) == 0 {
				status = core.StatusFail
			}
			cs = append(cs, core.CheckResult{
				Name: name, Status: status, Score: rng.Float64() * 100,
				Weight: rules.Weights.For(string(name)), Details: map[string]any{},
			})
		}
		v := s.Aggregate(cs, rules)
		assert.NotEmpty(t, s.Recommend(cs, v, rules))
	}
}
