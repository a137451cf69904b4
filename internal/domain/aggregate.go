package domain

// StreakThreshold is the minimum number of days a topic must appear in a
// window before the view annotates it with DaysOngoing.
const StreakThreshold = 3

// AggregateWindow merges snapshots ordered newest day first into one view
// list. Topics are taken in day order, then stored order within a day, first
// occurrence wins, up to MaxTopics. A topic seen on StreakThreshold or more
// distinct days carries DaysOngoing equal to that count.
func AggregateWindow(snaps []Snapshot) []AnnotatedTopic {
	streaks := countStreaks(snaps)

	out := make([]AnnotatedTopic, 0, MaxTopics)
	seen := make(map[string]struct{}, MaxTopics)
	for _, s := range snaps {
		for _, t := range s.Topics {
			key := TitleKey(t.Title)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			at := AnnotatedTopic{Topic: t}
			if n := streaks[key]; n >= StreakThreshold {
				at.DaysOngoing = n
			}
			out = append(out, at)
			if len(out) == MaxTopics {
				return out
			}
		}
	}
	return out
}

// countStreaks returns, per title key, the number of distinct snapshot days
// the title appears in. A legacy snapshot counts as a single day.
func countStreaks(snaps []Snapshot) map[string]int {
	days := make(map[string]map[Day]struct{})
	for _, s := range snaps {
		for _, t := range s.Topics {
			key := TitleKey(t.Title)
			if key == "" {
				continue
			}
			set, ok := days[key]
			if !ok {
				set = make(map[Day]struct{})
				days[key] = set
			}
			set[s.Day] = struct{}{}
		}
	}
	counts := make(map[string]int, len(days))
	for k, set := range days {
		counts[k] = len(set)
	}
	return counts
}
