package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func size(n int64) *int64 { return &n }

func sampleComparison() *PluginComparison {
	pc := &PluginComparison{
		LocalPath:  "/srv/wp-content/plugins/hello",
		RemotePath: "/cache/hello/1.0/extracted/hello",
		Files: []FileComparison{
			{File: "a.php", Status: StatusDifferent, Diff: "--- wordpress.org/a.php\n+++ local/a.php\n@@ -1 +1 @@\n-x\n+y\n", LocalSize: size(2), RemoteSize: size(2)},
			{File: "b.php", Status: StatusLocalOnly, LocalSize: size(3)},
			{File: "c.php", Status: StatusRemoteOnly, RemoteSize: size(4)},
			{File: "d.php", Status: StatusIdentical, LocalSize: size(5), RemoteSize: size(5)},
		},
	}
	for _, fc := range pc.Files {
		pc.Summary.add(fc.Status)
	}
	return pc
}

func TestFormatComparisonSummary(t *testing.T) {
	got := FormatComparisonSummary(sampleComparison())

	want := `Plugin Comparison Summary
=========================
Local:  /srv/wp-content/plugins/hello
Remote: /cache/hello/1.0/extracted/hello

Statistics:
  Identical:        1
  Different:        1
  Local only:       1
  Remote only:      1
  Total:            4

Different Files:
- a.php

Local Only Files:
- b.php

Remote Only Files:
- c.php
`
	assert.Equal(t, want, got)
}

func TestFormatOmitsEmptySections(t *testing.T) {
	pc := &PluginComparison{
		LocalPath:  "l",
		RemotePath: "r",
		Files:      []FileComparison{{File: "x.php", Status: StatusIdentical}},
	}
	pc.Summary.add(StatusIdentical)

	got := FormatComparisonSummary(pc)
	assert.NotContains(t, got, "Different Files")
	assert.NotContains(t, got, "Local Only Files")
	assert.NotContains(t, got, "Remote Only Files")
	assert.NotContains(t, got, "x.php", "identical files are only counted")
	assert.True(t, strings.HasSuffix(got, "  Total:            1\n"))
}

func TestFormatIsStable(t *testing.T) {
	pc := sampleComparison()
	assert.Equal(t, FormatComparisonSummary(pc), FormatComparisonSummary(pc))
}

func TestFormatAlignsLargeCounts(t *testing.T) {
	pc := &PluginComparison{Summary: Summary{Identical: 12345, Total: 12345}}
	got := FormatComparisonSummary(pc)
	assert.Contains(t, got, "  Identical:    12345\n")
	assert.Contains(t, got, "  Different:        0\n")
}

func TestFormatDiffs(t *testing.T) {
	pc := sampleComparison()
	pc.Files = append(pc.Files, FileComparison{File: "e.bin", Status: StatusDifferent, LocalSize: size(10), RemoteSize: size(8)})

	got := FormatDiffs(pc)
	assert.Contains(t, got, "-x\n+y\n")
	assert.Contains(t, got, "Binary or unreadable file e.bin differs (8 -> 10 bytes)\n")
	assert.NotContains(t, got, "b.php")
}
