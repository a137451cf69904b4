package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DedupCaseInsensitive(t *testing.T) {
	got := Normalize(TextRows("AI", "ai", "Climate"))
	assert.Equal(t, []string{"AI", "Climate"}, Titles(got))
}

func TestNormalize_KeepsColumnsOfFirstOccurrence(t *testing.T) {
	got := Normalize([]Row{
		ColumnRow("Eurovision", "500K+", "3 hours ago"),
		ColumnRow("EUROVISION", "1M+", "1 hour ago"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, Topic{Title: "Eurovision", SearchVolume: "500K+", StartedAgo: "3 hours ago"}, got[0])
}

func TestNormalize_DropsNoise(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"empty", ""},
		{"whitespace", "   \t"},
		{"punctuation", "--- ..."},
		{"symbols", "•••"},
		{"header exact", "Trends"},
		{"header prefix", "Search volume"},
		{"header case", "VOLUME"},
		{"french header", "Tendances de recherche"},
		{"french accent", "Démarrée"},
		{"too long", strings.Repeat("x", 201)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Normalize(TextRows(tt.title)))
		})
	}
}

func TestNormalize_KeepsHashtagTitles(t *testing.T) {
	got := Normalize(TextRows("#SuperBowl", "AI", "ai", "Climate"))
	assert.Equal(t, []string{"#SuperBowl", "AI", "Climate"}, Titles(got))
}

func TestNormalize_TrimsColumns(t *testing.T) {
	got := Normalize([]Row{ColumnRow("  Champions League ", " 2M+ ", " 5 hours ago\t")})
	require.Len(t, got, 1)
	assert.Equal(t, "Champions League", got[0].Title)
	assert.Equal(t, "2M+", got[0].SearchVolume)
	assert.Equal(t, "5 hours ago", got[0].StartedAgo)
}

func TestNormalize_CapsAtMax(t *testing.T) {
	rows := make([]Row, 0, 40)
	for i := range 40 {
		rows = append(rows, Row{Title: fmt.Sprintf("item %d", i)})
	}
	got := Normalize(rows)
	assert.Len(t, got, MaxTopics)
	assert.Equal(t, "item 0", got[0].Title)
	assert.Equal(t, "item 24", got[MaxTopics-1].Title)
}

func TestColumnRow(t *testing.T) {
	assert.Equal(t, Row{Title: "a"}, ColumnRow("a"))
	assert.Equal(t, Row{Title: "a", SearchVolume: "b", StartedAgo: "c"}, ColumnRow("a", "b", "c", "d"))
	assert.Equal(t, Row{}, ColumnRow())
}

func TestTitleKey_FoldsUnicode(t *testing.T) {
	assert.Equal(t, TitleKey("STRASSE"), TitleKey("strasse"))
	assert.Equal(t, TitleKey("Élection"), TitleKey("élection"))
	assert.Equal(t, "ai", TitleKey("  AI "))
}
