package wporg

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// BestMatch picks the search hit that most plausibly is the plugin the user meant.
// An exact slug or name match wins; otherwise the closest fuzzy slug match.
func BestMatch(query string, plugins []PluginSummary) (PluginSummary, bool) {
	if len(plugins) == 0 {
		return PluginSummary{}, false
	}

	q := strings.TrimSpace(query)
	for _, p := range plugins {
		if strings.EqualFold(p.Slug, q) || strings.EqualFold(p.Name, q) {
			return p, true
		}
	}

	slugs := make([]string, len(plugins))
	for i, p := range plugins {
		slugs[i] = p.Slug
	}
	needle := strings.ReplaceAll(strings.ToLower(q), " ", "-")
	ranks := fuzzy.RankFindNormalizedFold(needle, slugs)
	if len(ranks) == 0 {
		return PluginSummary{}, false
	}
	sort.Stable(ranks)
	return plugins[ranks[0].OriginalIndex], true
}
