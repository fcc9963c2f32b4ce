package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/Skryldev/photo-quality/core"
	"github.com/Skryldev/photo-quality/hooks"
)

// CLI output formatters
var (
	passColor   = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed, color.Bold)
	warnColor   = color.New(color.FgYellow)
	infoColor   = color.New(color.FgCyan)
	headerColor = color.New(color.FgBlue, color.Bold)
)

func statusLabel(s core.Status) string {
	if s == core.StatusPass {
		return passColor.Sprint(string(s))
	}
	return errorColor.Sprint(string(s))
}

func printResult(w io.Writer, res fileResult) {
	headerColor.Fprintf(w, "%s\n", res.File)
	if res.Report == nil {
		errorColor.Fprintf(w, "  unreadable: %s\n\n", res.Error)
		return
	}
	r := res.Report
	fmt.Fprintf(w, "  %s  score %.1f  issues %d  id %s\n", statusLabel(r.OverallStatus), r.OverallScore, r.TotalIssues, r.ImageID)
	for _, c := range r.Checks {
		fmt.Fprintf(w, "    %-11s %s %5.1f  (w%-2d) %s\n", c.Name, statusLabel(c.Status), c.Score, c.Weight, c.Message)
	}
	for _, rec := range r.Recommendations {
		infoColor.Fprintf(w, "  - %s\n", rec)
	}
	if res.Stored != "" {
		fmt.Fprintf(w, "  stored as %s\n", res.Stored)
	}
	if res.Error != "" {
		warnColor.Fprintf(w, "  warning: %s\n", res.Error)
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, s hooks.Stats) {
	headerColor.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  total %d  passed %d  failed %d  pass rate %.1f%%  average %.1f\n",
		s.Total, s.Passed, s.Failed, s.PassRate, s.AverageScore)
	names := make([]string, 0, len(s.CheckFailures))
	for name := range s.CheckFailures {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %-11s %d failures\n", name, s.CheckFailures[core.CheckName(name)])
	}
}
