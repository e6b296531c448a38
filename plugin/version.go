package plugin

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions orders two plugin version strings: -1 if a < b, 0 if equal, 1 if a > b.
// Semver parsing is tried first; plugins that do not follow it ("1.2.3.4",
// "2.0b") are compared numerically segment by segment.
func CompareVersions(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareSegments(a, b)
}

// IsOutdated reports whether the installed version is older than latest.
// An empty version on either side is never outdated.
func (h *Header) IsOutdated(latest string) bool {
	if h == nil || h.Version == "" || strings.TrimSpace(latest) == "" {
		return false
	}
	return CompareVersions(h.Version, latest) < 0
}

func compareSegments(a, b string) int {
	pa := splitVersion(a)
	pb := splitVersion(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// splitVersion keeps the leading digits of each dot separated segment
func splitVersion(v string) []int {
	v = strings.TrimPrefix(strings.ToLower(v), "v")
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		n, _ := strconv.Atoi(p[:end])
		out = append(out, n)
	}
	return out
}
