package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

func TestPreview(t *testing.T) {
	topics := []domain.Topic{
		{Title: "A", SearchVolume: "200K+", StartedAgo: "3 hours ago"},
		{Title: "B", SearchVolume: "50K+"},
		{Title: "C", StartedAgo: "1 hour ago"},
		{Title: "D"},
		{Title: "E"},
		{Title: "F"},
	}

	assert.Equal(t, []string{"A (200K+, 3 hours ago)", "B (50K+)", "C (1 hour ago)", "D", "E"}, preview(topics))
	assert.Empty(t, preview(nil))
}
