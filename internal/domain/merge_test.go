package domain

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func topics(titles ...string) []Topic {
	ts := make([]Topic, len(titles))
	for i, title := range titles {
		ts[i] = Topic{Title: title}
	}
	return ts
}

func TestMergeTopics_FreshFirstThenExisting(t *testing.T) {
	got := MergeTopics(topics("T3"), topics("T1", "T2"))
	assert.Equal(t, []string{"T3", "T1", "T2"}, Titles(got))
}

func TestMergeTopics_Idempotent(t *testing.T) {
	fresh := topics("A", "B", "C")
	first := MergeTopics(fresh, nil)
	second := MergeTopics(fresh, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second merge changed the list (-first +second):\n%s", diff)
	}
}

func TestMergeTopics_FreshWinsColumns(t *testing.T) {
	existing := []Topic{{Title: "Election", SearchVolume: "100K+"}}
	fresh := []Topic{{Title: "election", SearchVolume: "1M+"}}
	got := MergeTopics(fresh, existing)
	assert.Equal(t, []Topic{{Title: "election", SearchVolume: "1M+"}}, got)
}

func TestMergeTopics_Caps(t *testing.T) {
	var fresh, existing []Topic
	for i := range 20 {
		fresh = append(fresh, Topic{Title: fmt.Sprintf("new %d", i)})
		existing = append(existing, Topic{Title: fmt.Sprintf("old %d", i)})
	}
	got := MergeTopics(fresh, existing)
	assert.Len(t, got, MaxTopics)
	assert.Equal(t, "new 0", got[0].Title)
	assert.Equal(t, "old 4", got[MaxTopics-1].Title)
}

func TestMergeTopics_DropsBlankAndDuplicateFresh(t *testing.T) {
	got := MergeTopics(topics("X", " ", "x", "Y"), topics("Y", "Z"))
	assert.Equal(t, []string{"X", "Y", "Z"}, Titles(got))
}
