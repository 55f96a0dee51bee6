// Package storage implements the generic record store over PostgreSQL and
// MySQL. It persists rows exactly as given and knows nothing about
// encryption; the fieldcrypt layer wraps it.
package storage

import (
	"fmt"
)

// Model describes one storable entity: its table, id column, and the full
// set of writable columns. Only registered models can be stored.
type Model struct {
	Name     string
	Table    string
	IDColumn string
	Columns  []string
}

// HasColumn reports whether the model declares the given column.
func (m Model) HasColumn(column string) bool {
	for _, c := range m.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Registry maps model names to their storage descriptions.
type Registry struct {
	models map[string]Model
}

// NewRegistry creates a Registry from the given models.
func NewRegistry(models ...Model) *Registry {
	r := &Registry{models: make(map[string]Model, len(models))}
	for _, m := range models {
		r.models[m.Name] = m
	}
	return r
}

// Get returns the model by name.
func (r *Registry) Get(name string) (Model, error) {
	m, ok := r.models[name]
	if !ok {
		return Model{}, fmt.Errorf("unknown model %q", name)
	}
	return m, nil
}
