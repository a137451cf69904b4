package domain

import "time"

// Provenance tags which source produced a snapshot.
type Provenance string

const (
	ProvenanceScrape    Provenance = "scrape"
	ProvenanceSearchAPI Provenance = "search_api"
	ProvenanceLegacyAPI Provenance = "legacy_api"
	ProvenanceSample    Provenance = "sample"
)

// Valid reports whether p is one of the known provenance tags.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceScrape, ProvenanceSearchAPI, ProvenanceLegacyAPI, ProvenanceSample:
		return true
	}
	return false
}

// Snapshot is the persisted topic list of one region on one calendar day.
// A snapshot with an empty Day is a legacy undated record.
type Snapshot struct {
	Region     Region     `json:"region"`
	Day        Day        `json:"date,omitempty"`
	Topics     []Topic    `json:"topics"`
	Provenance Provenance `json:"source"`
	FetchedAt  time.Time  `json:"fetched_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsLegacy reports whether the snapshot predates per-day records.
func (s Snapshot) IsLegacy() bool { return s.Day == "" }
