package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/Skryldev/photo-quality/core"
	"github.com/Skryldev/photo-quality/hooks"
)

func init() { color.NoColor = true }

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, fileResult{
		File: "kerb.jpg",
		Report: &core.ValidationReport{
			OverallStatus: core.StatusPass,
			OverallScore:  75.5,
			TotalIssues:   1,
			ImageID:       "id-1",
			Checks: core.Checks{
				{Name: core.CheckBlur, Status: core.StatusPass, Score: 100, Weight: 25, Message: "Image sharpness is acceptable"},
				{Name: core.CheckResolution, Status: core.StatusFail, Score: 2, Weight: 25, Message: "too small"},
			},
			Recommendations: []string{"Use a higher resolution camera setting"},
		},
		Stored: "accepted/id-1.jpg",
	})

	out := buf.String()
	assert.Contains(t, out, "kerb.jpg")
	assert.Contains(t, out, "PASS  score 75.5  issues 1  id id-1")
	assert.Contains(t, out, "resolution  FAIL   2.0")
	assert.Contains(t, out, "- Use a higher resolution camera setting")
	assert.Contains(t, out, "stored as accepted/id-1.jpg")
}

func TestPrintResult_Unreadable(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, fileResult{File: "x.jpg", Error: "unreadable image"})
	assert.Contains(t, buf.String(), "unreadable: unreadable image")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, hooks.Stats{
		Total: 4, Passed: 3, Failed: 1, PassRate: 75, AverageScore: 70.2,
		CheckFailures: map[core.CheckName]int64{core.CheckMetadata: 1, core.CheckBlur: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "total 4  passed 3  failed 1  pass rate 75.0%  average 70.2")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("blur")), bytes.Index(buf.Bytes(), []byte("metadata")))
}

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["validate"])
	assert.True(t, names["rules"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
