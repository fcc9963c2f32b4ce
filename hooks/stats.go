package hooks

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Skryldev/photo-quality/core"
)

// StatsCollector keeps running summary statistics over finished reports.
// It observes reports only and holds nothing but counters.
type StatsCollector struct {
	mu          sync.Mutex
	total       int64
	passed      int64
	scoreSum    float64
	checkFails  map[core.CheckName]int64
	lastUpdated time.Time
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{checkFails: make(map[core.CheckName]int64)}
}

// Stats is a point-in-time summary.
type Stats struct {
	Total         int64                    `json:"total_validations"`
	Passed        int64                    `json:"passed"`
	Failed        int64                    `json:"failed"`
	PassRate      float64                  `json:"pass_rate"`
	AverageScore  float64                  `json:"average_score"`
	CheckFailures map[core.CheckName]int64 `json:"check_failures"`
	LastUpdated   time.Time                `json:"last_updated"`
}

func (s *StatsCollector) BeforeCheck(context.Context, core.CheckName, *core.DecodedImage) {}
func (s *StatsCollector) AfterCheck(context.Context, core.CheckResult, time.Duration)      {}

func (s *StatsCollector) ObserveReport(_ context.Context, r *core.ValidationReport, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if r.Passed() {
		s.passed++
	}
	s.scoreSum += r.OverallScore
	for _, c := range r.Checks {
		if !c.Passed() {
			s.checkFails[c.Name]++
		}
	}
	s.lastUpdated = time.Now().UTC()
}

// Snapshot returns the current summary.  Rates and averages are rounded to
// one decimal; PassRate is a percentage.
func (s *StatsCollector) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Total:         s.total,
		Passed:        s.passed,
		Failed:        s.total - s.passed,
		CheckFailures: make(map[core.CheckName]int64, len(s.checkFails)),
		LastUpdated:   s.lastUpdated,
	}
	if s.total > 0 {
		st.PassRate = math.Round(float64(s.passed)/float64(s.total)*1000) / 10
		st.AverageScore = math.Round(s.scoreSum/float64(s.total)*10) / 10
	}
	for k, v := range s.checkFails {
		st.CheckFailures[k] = v
	}
	return st
}

// Reset clears all counters.
func (s *StatsCollector) Reset() {
	s.mu.Lock()
	s.total, s.passed, s.scoreSum = 0, 0, 0
	s.checkFails = make(map[core.CheckName]int64)
	s.lastUpdated = time.Time{}
	s.mu.Unlock()
}

var (
	_ core.Hook           = (*StatsCollector)(nil)
	_ core.ReportObserver = (*StatsCollector)(nil)
)
