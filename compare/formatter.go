package compare

import (
	"fmt"
	"strings"
)

// countWidth is the field width the statistics block right-aligns counts to
const countWidth = 6

// FormatComparisonSummary renders a comparison as a human readable report.
// The same comparison always renders to the same bytes.
func FormatComparisonSummary(pc *PluginComparison) string {
	var sb strings.Builder

	sb.WriteString("Plugin Comparison Summary\n")
	sb.WriteString("=========================\n")
	sb.WriteString(fmt.Sprintf("Local:  %s\n", pc.LocalPath))
	sb.WriteString(fmt.Sprintf("Remote: %s\n", pc.RemotePath))
	sb.WriteString("\n")

	sb.WriteString("Statistics:\n")
	writeStat(&sb, "Identical:", pc.Summary.Identical)
	writeStat(&sb, "Different:", pc.Summary.Different)
	writeStat(&sb, "Local only:", pc.Summary.LocalOnly)
	writeStat(&sb, "Remote only:", pc.Summary.RemoteOnly)
	writeStat(&sb, "Total:", pc.Summary.Total)

	writeSection(&sb, "Different Files", pc.Summary.Different, pc.WithStatus(StatusDifferent))
	writeSection(&sb, "Local Only Files", pc.Summary.LocalOnly, pc.WithStatus(StatusLocalOnly))
	writeSection(&sb, "Remote Only Files", pc.Summary.RemoteOnly, pc.WithStatus(StatusRemoteOnly))

	return sb.String()
}

// FormatDiffs concatenates the diff bodies of all different files.
// Files without a diff body (size-only comparisons) get a one-line note.
func FormatDiffs(pc *PluginComparison) string {
	var sb strings.Builder
	for _, fc := range pc.WithStatus(StatusDifferent) {
		if fc.Diff == "" {
			sb.WriteString(fmt.Sprintf("Binary or unreadable file %s differs (%s -> %s bytes)\n",
				fc.File, sizeString(fc.RemoteSize), sizeString(fc.LocalSize)))
			continue
		}
		sb.WriteString(fc.Diff)
		if !strings.HasSuffix(fc.Diff, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func writeStat(sb *strings.Builder, label string, count int) {
	sb.WriteString(fmt.Sprintf("  %-13s%*d\n", label, countWidth, count))
}

func writeSection(sb *strings.Builder, title string, count int, files []FileComparison) {
	if count == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	for _, fc := range files {
		sb.WriteString("- " + fc.File + "\n")
	}
}

func sizeString(size *int64) string {
	if size == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *size)
}
