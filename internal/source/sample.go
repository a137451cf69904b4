package source

import (
	"context"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// DefaultSampleTopics is the canned offline set.
var DefaultSampleTopics = []string{
	"AI developments",
	"Climate summit",
	"Tech earnings",
	"Sports championship",
	"Election updates",
	"Space mission",
	"Health breakthrough",
	"Entertainment news",
	"Economic indicators",
	"Local events",
}

// Sample is the terminal provider of every chain. It never fails.
type Sample struct {
	titles []string
}

// NewSample returns a sample provider over titles, or over
// DefaultSampleTopics when titles yields no usable topic.
func NewSample(titles []string) *Sample {
	if len(domain.Normalize(domain.TextRows(titles...))) == 0 {
		titles = DefaultSampleTopics
	}
	return &Sample{titles: append([]string(nil), titles...)}
}

func (s *Sample) Name() string                  { return "sample" }
func (s *Sample) Provenance() domain.Provenance { return domain.ProvenanceSample }

func (s *Sample) Attempt(_ context.Context, _ domain.Region) ([]domain.Row, error) {
	return domain.TextRows(s.titles...), nil
}
