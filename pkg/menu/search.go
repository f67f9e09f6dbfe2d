package menu

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Search returns the visible application entries whose name fuzzily matches
// query, closest first. An empty query matches nothing.
func (ix *Index) Search(query string) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var (
		names   []string
		indices []int
	)
	for idx := range ix.items {
		it := &ix.items[idx]
		if it.Entry == nil || it.Hidden {
			continue
		}
		names = append(names, it.Name)
		indices = append(indices, idx)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	found := make([]int, 0, len(ranks))
	for _, r := range ranks {
		found = append(found, indices[r.OriginalIndex])
	}
	return found
}
