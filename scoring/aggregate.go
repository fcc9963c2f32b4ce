// Package scoring folds per-check results into the overall verdict and turns
// weak checks into user-facing advice.
package scoring

import (
	"math"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
)

// Aggregate computes the weighted overall score, rounded to one decimal,
// and the verdict against passThreshold.  Issues counts FAIL checks and is
// independent of the verdict: an accepted photo can still carry issues.
func Aggregate(checks core.Checks, passThreshold float64) core.Verdict {
	var weighted float64
	issues := 0
	for _, c := range checks {
		weighted += c.Score * float64(c.Weight)
		if !c.Passed() {
			issues++
		}
	}
	overall := math.Round(weighted/100*10) / 10
	overall = math.Max(0, math.Min(100, overall))

	status := core.StatusFail
	if overall >= passThreshold {
		status = core.StatusPass
	}
	return core.Verdict{Status: status, Score: overall, Issues: issues}
}

// Scorer implements core.Scorer over a fixed analyzer set.
type Scorer struct {
	analyzers map[core.CheckName]core.Analyzer
}

// New returns a Scorer whose advice and pass bars come from analyzers.
func New(analyzers []core.Analyzer) *Scorer {
	m := make(map[core.CheckName]core.Analyzer, len(analyzers))
	for _, a := range analyzers {
		m[a.Name()] = a
	}
	return &Scorer{analyzers: m}
}

func (s *Scorer) Aggregate(checks core.Checks, rules config.Rules) core.Verdict {
	return Aggregate(checks, rules.PassThreshold)
}

func (s *Scorer) Recommend(checks core.Checks, verdict core.Verdict, rules config.Rules) []string {
	return Recommend(checks, verdict.Status, s.advisors(rules))
}

// advisors resolves the good bar of every known check under rules.
func (s *Scorer) advisors(rules config.Rules) map[core.CheckName]Advisor {
	out := make(map[core.CheckName]Advisor, len(s.analyzers))
	for name, a := range s.analyzers {
		adv := Advisor{Advice: a.Advice, GoodScore: a.PassScore(rules)}
		if g, ok := rules.Recommendations.GoodScores[string(name)]; ok {
			adv.GoodScore = g
			adv.Overridden = true
		}
		out[name] = adv
	}
	return out
}
