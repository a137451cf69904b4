// Package domain models regional trending-topic snapshots.
//
// # Regions and days
//
// A region is an ISO 3166-1 alpha-2 code, always uppercased before it is
// used as a key ("us" and " US " both become "US"). A day is a UTC calendar
// date rendered as YYYY-MM-DD; days sort chronologically as strings, which
// the storage adapters rely on for range scans.
//
// # Topics
//
// A topic is identified by its title, compared case-insensitively with
// Unicode case folding ([TitleKey]). Volume and started columns are kept as
// the upstream text ("200K+", "3 hours ago") and are never parsed.
//
// # Snapshots
//
// One snapshot exists per (region, day). Re-fetching a day merges into the
// stored list rather than replacing it ([MergeTopics]):
//
//	stored: [T1, T2]   fetched: [T3]   result: [T3, T1, T2]
//
// The list never exceeds [MaxTopics] and never holds two titles with the
// same key. Records written before per-day storage existed have no day and
// are read only as a fallback.
//
// # Views
//
// A view merges the snapshots of a window newest day first ([AggregateWindow]).
// There is no popularity weighting across days: recency of the day wins,
// then stored order within the day. A title present on [StreakThreshold] or
// more days of the window is annotated with the number of days.
package domain
