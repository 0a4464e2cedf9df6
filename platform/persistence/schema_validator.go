package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RowValidator checks rows read from the database against per-entity JSON
// Schemas. A row that fails validation is corrupt data, not user error.
type RowValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewRowValidator returns an empty validator; schemas are registered per entity.
func NewRowValidator() *RowValidator {
	return &RowValidator{compiled: make(map[string]*jsonschema.Schema)}
}

// Register compiles and caches the schema for one entity. Registering the same
// name twice replaces the previous schema.
func (v *RowValidator) Register(name string, schemaJSON []byte) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, strings.NewReader(string(schemaJSON))); err != nil {
		return fmt.Errorf("add schema resource for %s: %w", name, err)
	}

	schema, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", name, err)
	}

	v.mu.Lock()
	v.compiled[name] = schema
	v.mu.Unlock()

	return nil
}

// ValidateRow checks one row against the entity's registered schema. The row
// is round-tripped through JSON first so database scan types (time.Time and
// friends) validate as their wire representation.
func (v *RowValidator) ValidateRow(name string, row Row) error {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no schema registered for %s", name)
	}

	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", name, err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("decode %s row: %w", name, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("row does not match %s schema: %w", name, err)
	}

	return nil
}
