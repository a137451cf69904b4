package config

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Tables are the static lookup tables the source providers use. Keys are
// uppercase region codes.
type Tables struct {
	// Locales maps a region to the search API locale ("hl") parameter.
	Locales       map[string]string `yaml:"locales"`
	DefaultLocale string            `yaml:"default_locale"`

	// RegionNames maps a region to the legacy hot-list market name.
	RegionNames       map[string]string `yaml:"region_names"`
	DefaultRegionName string            `yaml:"default_region_name"`

	// ScrapeDomains maps a region to a locale-specific trending site.
	ScrapeDomains       map[string]string `yaml:"scrape_domains"`
	DefaultScrapeDomain string            `yaml:"default_scrape_domain"`

	// SampleTopics is the canned offline fallback set.
	SampleTopics []string `yaml:"sample_topics"`
}

// LoadTables parses the embedded defaults and, when path is set, overlays
// the file at path on top of them. Map entries merge per key; scalar and
// list values in the file replace the defaults.
func LoadTables(path string) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(defaultTables, &t); err != nil {
		return Tables{}, fmt.Errorf("parse embedded tables: %w", err)
	}
	t.normalizeKeys()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Tables{}, fmt.Errorf("read PROVIDER_TABLES_FILE: %w", err)
		}
		var override Tables
		if err := yaml.Unmarshal(data, &override); err != nil {
			return Tables{}, fmt.Errorf("parse PROVIDER_TABLES_FILE: %w", err)
		}
		override.normalizeKeys()
		t = t.merge(override)
	}
	if err := t.validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

func (t Tables) merge(o Tables) Tables {
	maps.Copy(t.Locales, o.Locales)
	maps.Copy(t.RegionNames, o.RegionNames)
	maps.Copy(t.ScrapeDomains, o.ScrapeDomains)
	if o.DefaultLocale != "" {
		t.DefaultLocale = o.DefaultLocale
	}
	if o.DefaultRegionName != "" {
		t.DefaultRegionName = o.DefaultRegionName
	}
	if o.DefaultScrapeDomain != "" {
		t.DefaultScrapeDomain = o.DefaultScrapeDomain
	}
	if len(o.SampleTopics) > 0 {
		t.SampleTopics = o.SampleTopics
	}
	return t
}

func (t *Tables) normalizeKeys() {
	for _, m := range []*map[string]string{&t.Locales, &t.RegionNames, &t.ScrapeDomains} {
		out := make(map[string]string, len(*m))
		for k, v := range *m {
			out[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
		*m = out
	}
}

func (t Tables) validate() error {
	switch {
	case t.DefaultLocale == "":
		return errors.New("tables: default_locale is required")
	case t.DefaultRegionName == "":
		return errors.New("tables: default_region_name is required")
	case t.DefaultScrapeDomain == "":
		return errors.New("tables: default_scrape_domain is required")
	case len(t.SampleTopics) == 0:
		return errors.New("tables: sample_topics must not be empty")
	}
	return nil
}
