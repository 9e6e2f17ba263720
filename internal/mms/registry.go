package mms

import "fmt"

// Registry maps dataset keys to schemas in registration order.
//
// Fill it before the first parse; after that it is only read and needs no
// locking. Lookups are exact and case-sensitive.
type Registry struct {
	schemas []*Schema
	byKey   map[SchemaKey]*Schema
}

// NewRegistry returns a registry holding the given schemas.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{byKey: make(map[SchemaKey]*Schema, len(schemas))}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a schema. A key may be registered only once.
func (r *Registry) Register(s Schema) error {
	if err := s.validate(); err != nil {
		return err
	}
	if _, exists := r.byKey[s.Key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSchema, s.Key)
	}
	if r.byKey == nil {
		r.byKey = make(map[SchemaKey]*Schema)
	}

	s.Fields = append([]FieldSpec(nil), s.Fields...)
	r.schemas = append(r.schemas, &s)
	r.byKey[s.Key] = &s
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(s Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Lookup returns the schema registered for key.
func (r *Registry) Lookup(key SchemaKey) (*Schema, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// Schemas returns all schemas in registration order.
func (r *Registry) Schemas() []*Schema {
	return append([]*Schema(nil), r.schemas...)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int { return len(r.schemas) }
