package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape:
//
//	default: gpt-4o
//	models:
//	  - id: gpt-4o-mini
//	    name: GPT-4o mini
//	    provider: openai
//	    upstream_id: gpt-4o-mini
//	    max_tokens: 4096
//
// streaming and system_role default to true when omitted.
type catalogFile struct {
	Default string         `yaml:"default"`
	Models  []catalogEntry `yaml:"models"`
}

type catalogEntry struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Provider   string `yaml:"provider"`
	UpstreamID string `yaml:"upstream_id"`
	MaxTokens  int    `yaml:"max_tokens"`
	Streaming  *bool  `yaml:"streaming"`
	SystemRole *bool  `yaml:"system_role"`
}

func (e catalogEntry) toModel() ModelConfig {
	m := ModelConfig{
		ID:                 e.ID,
		Name:               e.Name,
		Provider:           e.Provider,
		UpstreamID:         e.UpstreamID,
		MaxTokens:          e.MaxTokens,
		SupportsStreaming:  true,
		SupportsSystemRole: true,
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	if m.UpstreamID == "" {
		m.UpstreamID = m.ID
	}
	if e.Streaming != nil {
		m.SupportsStreaming = *e.Streaming
	}
	if e.SystemRole != nil {
		m.SupportsSystemRole = *e.SystemRole
	}
	return m
}

// LoadCatalog reads the YAML catalog at path and layers it over base:
// entries with a known id replace the built-in one in place, new ids are
// appended, and a non-empty default replaces the base default.
func LoadCatalog(path string, base *Registry) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model catalog: %w", err)
	}
	return ParseCatalog(data, base)
}

// ParseCatalog is LoadCatalog over raw YAML bytes.
func ParseCatalog(data []byte, base *Registry) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing model catalog: %w", err)
	}

	if base == nil {
		base = Builtin()
	}

	entries := base.List()
	for _, e := range cf.Models {
		entries = append(entries, e.toModel())
	}

	def := cf.Default
	if def == "" {
		def = base.defaultID
	}

	r, err := NewRegistry(entries, def)
	if err != nil {
		return nil, fmt.Errorf("model catalog: %w", err)
	}
	return r, nil
}
