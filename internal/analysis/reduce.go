package analysis

import "sort"

// Reduce deduplicates tags sharing the same (kind, attacker, sorted victims)
// key, keeping the highest-confidence tag per bucket, then sorts by
// confidence descending and kind priority ascending as a tie-break
// (spec.md §4.3 step 2). maxResults truncates the result when > 0.
func Reduce(tags []TacticalTag, maxResults int) []TacticalTag {
	best := map[tagKey]TacticalTag{}
	order := []tagKey{}
	for _, t := range tags {
		k := keyOf(t)
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = t
			continue
		}
		if t.Confidence > existing.Confidence {
			best[k] = t
		}
	}

	out := make([]TacticalTag, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return kindPriority[out[i].Kind] < kindPriority[out[j].Kind]
	})

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
