package scoring

import (
	"sort"

	"github.com/Skryldev/photo-quality/core"
)

const (
	// MessageAllGood is emitted alone when the photo passes with no weak checks.
	MessageAllGood = "Image passed all quality checks"
	// MessageRetake is emitted when the photo fails yet no single check is
	// below its good bar.
	MessageRetake = "Overall quality is below the acceptance threshold: please retake the photo"
)

// Advisor supplies the remediation text and good bar of one check.
type Advisor struct {
	Advice    func(core.CheckResult) string
	GoodScore float64
	// Overridden means GoodScore came from configuration; only the score
	// is compared then.  Otherwise a FAIL status also counts as weak.
	Overridden bool
}

// weak reports whether res warrants advice.
func (a Advisor) weak(res core.CheckResult) bool {
	if res.Score < a.GoodScore {
		return true
	}
	return !a.Overridden && !res.Passed()
}

// Recommend orders checks by ascending score (ties: heavier weight first,
// then name) and returns one suggestion per weak check.  Checks without an
// advisor are skipped.  The result is never empty.
func Recommend(checks core.Checks, status core.Status, advisors map[core.CheckName]Advisor) []string {
	ordered := make(core.Checks, len(checks))
	copy(ordered, checks)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Name < b.Name
	})

	var out []string
	seen := make(map[string]bool)
	for _, c := range ordered {
		adv, ok := advisors[c.Name]
		if !ok || adv.Advice == nil || !adv.weak(c) {
			continue
		}
		msg := adv.Advice(c)
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, msg)
	}

	if len(out) > 0 {
		return out
	}
	if status == core.StatusPass {
		return []string{MessageAllGood}
	}
	return []string{MessageRetake}
}
