package diff

import (
	"fmt"
	"strings"
)

// Result contains the parsed hunks and statistics between two versions of a text.
type Result struct {
	Hunks []DiffHunk `json:"hunks"`
	Stats DiffStats  `json:"stats"`
}

// DiffHunk represents a contiguous section of changes in a diff.
type DiffHunk struct {
	OldStart int        `json:"oldStart"` // Starting line in original file
	OldLines int        `json:"oldLines"` // Number of lines in original
	NewStart int        `json:"newStart"` // Starting line in new file
	NewLines int        `json:"newLines"` // Number of lines in new
	Lines    []DiffLine `json:"lines"`
}

// DiffLine represents a single line in a diff with its change type.
// Tracks both old and new line numbers for side-by-side display.
type DiffLine struct {
	Type      string `json:"type"`              // "add", "delete", "context"
	OldLine   *int   `json:"oldLine,omitempty"` // nil for added lines
	NewLine   *int   `json:"newLine,omitempty"` // nil for deleted lines
	Content   string `json:"content"`           // without the line terminator
	NoNewline bool   `json:"noNewline,omitempty"`
}

// DiffStats provides summary statistics for a diff.
type DiffStats struct {
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// Compute diffs before against after, keeping contextLines of unchanged
// lines around every change.
func Compute(before, after string, contextLines int) *Result {
	if contextLines < 0 {
		contextLines = 0
	}
	ops := computeLineOps(before, after)
	hunks := groupIntoHunks(ops, contextLines)

	return &Result{
		Hunks: hunks,
		Stats: calculateStats(hunks),
	}
}

// HasChanges reports whether any line was added or removed
func (r *Result) HasChanges() bool {
	return len(r.Hunks) > 0
}

// Unified renders the result as a unified diff body with the given file labels.
// An unchanged result renders as the empty string.
func (r *Result) Unified(fromLabel, toLabel string) string {
	if !r.HasChanges() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("--- " + fromLabel + "\n")
	sb.WriteString("+++ " + toLabel + "\n")

	for _, hunk := range r.Hunks {
		sb.WriteString(fmt.Sprintf("@@ -%s +%s @@\n",
			hunkRange(hunk.OldStart, hunk.OldLines),
			hunkRange(hunk.NewStart, hunk.NewLines)))

		for _, line := range hunk.Lines {
			switch line.Type {
			case "add":
				sb.WriteByte('+')
			case "delete":
				sb.WriteByte('-')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(line.Content)
			sb.WriteByte('\n')
			if line.NoNewline {
				sb.WriteString("\\ No newline at end of file\n")
			}
		}
	}

	return sb.String()
}

// Unified is a convenience wrapper that computes and renders in one step.
func Unified(fromLabel, toLabel, before, after string, contextLines int) string {
	return Compute(before, after, contextLines).Unified(fromLabel, toLabel)
}

// hunkRange formats a "start,count" range the way GNU diff does:
// the count is omitted when it is exactly one.
func hunkRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// calculateStats counts added and deleted lines across hunks
func calculateStats(hunks []DiffHunk) DiffStats {
	stats := DiffStats{}
	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			switch line.Type {
			case "add":
				stats.Added++
			case "delete":
				stats.Deleted++
			}
		}
	}
	return stats
}
