package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTitleLen is the longest title accepted; longer cells are page chrome
// or descriptions rather than search terms.
const maxTitleLen = 200

// noiseTokens are table headers and page chrome seen on trending pages and
// their CSV exports, across the locales we scrape. A row whose title equals
// or starts with one of these (case-insensitively) is dropped.
var noiseTokens = []string{
	// en
	"trend", "topic", "query", "search", "volume", "started", "export", "composition",
	// fr
	"tendances", "recherche", "démarrée", "exporter", "état",
	// de
	"suchbegriff", "suchvolumen", "gestartet",
	// es / pt
	"tendencia", "búsqueda", "volumen de búsqueda", "iniciada", "pesquisa", "volume de pesquisa",
}

// Row is one provider-specific record before normalization. Providers that
// only yield free text fill Title; tabular providers fill the columns in
// (title, volume, started) order.
type Row struct {
	Title        string
	SearchVolume string
	StartedAgo   string
}

// TextRows wraps bare strings as rows.
func TextRows(titles ...string) []Row {
	rows := make([]Row, len(titles))
	for i, t := range titles {
		rows[i] = Row{Title: t}
	}
	return rows
}

// ColumnRow builds a row from positional columns: title, volume?, started?.
// Extra columns are ignored.
func ColumnRow(cols ...string) Row {
	var r Row
	if len(cols) > 0 {
		r.Title = cols[0]
	}
	if len(cols) > 1 {
		r.SearchVolume = cols[1]
	}
	if len(cols) > 2 {
		r.StartedAgo = cols[2]
	}
	return r
}

// Normalize converts raw rows into canonical topics: it trims every column,
// drops empty, punctuation-only, over-long and header/noise rows, removes
// case-insensitive duplicate titles keeping the first occurrence, and caps
// the result at MaxTopics.
func Normalize(rows []Row) []Topic {
	topics := make([]Topic, 0, min(len(rows), MaxTopics))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		title := strings.TrimSpace(r.Title)
		if isNoise(title) {
			continue
		}
		key := TitleKey(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		topics = append(topics, Topic{
			Title:        title,
			SearchVolume: strings.TrimSpace(r.SearchVolume),
			StartedAgo:   strings.TrimSpace(r.StartedAgo),
		})
		if len(topics) == MaxTopics {
			break
		}
	}
	return topics
}

func isNoise(title string) bool {
	if title == "" {
		return true
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return true
	}
	if strings.TrimFunc(title, isFiller) == "" {
		return true
	}
	key := TitleKey(title)
	for _, tok := range noiseTokens {
		if strings.HasPrefix(key, tok) {
			return true
		}
	}
	return false
}

func isFiller(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
