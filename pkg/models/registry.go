package models

import (
	"fmt"
	"slices"
)

// Registry is an immutable, ordered set of models with a default.
// It is safe for concurrent use because nothing mutates it after
// construction.
type Registry struct {
	order     []string
	byID      map[string]ModelConfig
	defaultID string
}

// Builtin returns the registry of models quill ships with.
func Builtin() *Registry {
	r, err := NewRegistry(builtinModels, DefaultModelID)
	if err != nil {
		panic(fmt.Sprintf("models: invalid builtin table: %v", err))
	}
	return r
}

// NewRegistry validates entries and builds a registry. Later entries with
// a repeated id replace earlier ones but keep the earlier position.
func NewRegistry(entries []ModelConfig, defaultID string) (*Registry, error) {
	r := &Registry{
		byID: make(map[string]ModelConfig, len(entries)),
	}

	for _, m := range entries {
		if err := validate(m); err != nil {
			return nil, err
		}
		if _, seen := r.byID[m.ID]; !seen {
			r.order = append(r.order, m.ID)
		}
		r.byID[m.ID] = m
	}

	if len(r.order) == 0 {
		return nil, fmt.Errorf("registry has no models")
	}

	if _, ok := r.byID[defaultID]; !ok {
		return nil, fmt.Errorf("default model %q is not in the registry", defaultID)
	}
	r.defaultID = defaultID

	return r, nil
}

func validate(m ModelConfig) error {
	if m.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if !KnownProvider(m.Provider) {
		return fmt.Errorf("model %q: %w %q", m.ID, ErrUnknownProvider, m.Provider)
	}
	if m.MaxTokens <= 0 {
		return fmt.Errorf("model %q: max_tokens must be positive, got %d", m.ID, m.MaxTokens)
	}
	return nil
}

// WithDefault returns a copy of the registry whose default is id.
// An empty id keeps the current default.
func (r *Registry) WithDefault(id string) (*Registry, error) {
	if id == "" {
		return r, nil
	}
	if _, ok := r.byID[id]; !ok {
		return nil, fmt.Errorf("default model %q is not in the registry", id)
	}
	return &Registry{
		order:     r.order,
		byID:      r.byID,
		defaultID: id,
	}, nil
}

// Resolve returns the model for id, or the default model when id is empty
// or unknown. It never fails.
func (r *Registry) Resolve(id string) ModelConfig {
	if m, ok := r.byID[id]; ok {
		return m
	}
	return r.byID[r.defaultID]
}

// Lookup reports whether id names a registered model.
func (r *Registry) Lookup(id string) (ModelConfig, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Default returns the default model.
func (r *Registry) Default() ModelConfig {
	return r.byID[r.defaultID]
}

// List returns every model in registration order.
func (r *Registry) List() []ModelConfig {
	out := make([]ModelConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Providers returns the distinct provider names used by the registry.
func (r *Registry) Providers() []string {
	var out []string
	for _, id := range r.order {
		p := r.byID[id].Provider
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
