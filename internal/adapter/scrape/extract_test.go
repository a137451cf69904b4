package scrape

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

func TestExtractRows_Table(t *testing.T) {
	rows, err := ExtractRows(tablePage)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, domain.Row{Title: "Alpha", SearchVolume: "200K+", StartedAgo: "3 hours ago"}, rows[0])
}

func TestExtractRows_FallbackToExploreLinks(t *testing.T) {
	page := `<html><body>
<div role="row"><span>header</span></div>
<div role="row"><td>Only</td></div>
<a href="/trends/explore?q=one">One</a>
<a href="/trends/explore?q=two">Two</a>
<a href="/other">Ignored</a>
</body></html>`

	rows, err := ExtractRows(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, domain.Titles(domain.Normalize(rows)))
}

func TestExtractRows_FallbackCapsPerSelector(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := range 80 {
		fmt.Fprintf(&b, `<a href="/trends/explore?q=%d">Item %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	rows, err := ExtractRows(b.String())
	require.NoError(t, err)
	assert.Len(t, rows, 2*domain.MaxTopics)
	assert.Len(t, domain.Normalize(rows), domain.MaxTopics)
}

func TestExtractRows_Empty(t *testing.T) {
	rows, err := ExtractRows("<html><body><p>consent wall</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
