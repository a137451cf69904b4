package domain

// MergeTopics builds the list stored for a (region, day) key on upsert:
// fresh topics first in their given relevance order, then existing topics
// not already placed in their prior order, deduplicated by TitleKey and
// capped at MaxTopics. Topics with a blank title are dropped.
//
// Merging the same fresh list into its own result is a no-op, which makes
// repeated upserts idempotent.
func MergeTopics(fresh, existing []Topic) []Topic {
	merged := make([]Topic, 0, MaxTopics)
	seen := make(map[string]struct{}, len(fresh)+len(existing))

	place := func(ts []Topic) {
		for _, t := range ts {
			if len(merged) == MaxTopics {
				return
			}
			key := TitleKey(t.Title)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, t)
		}
	}

	place(fresh)
	place(existing)
	return merged
}
