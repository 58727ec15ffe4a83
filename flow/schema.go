package flow

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaRegistry resolves argument schemas per tool id. Tools without a
// registered schema skip validation.
type SchemaRegistry interface {
	SchemaFor(toolID string) (*jsonschema.Resolved, bool)
}

// StaticSchemas is a SchemaRegistry backed by a fixed map of schemas,
// resolved once at registration.
type StaticSchemas struct {
	mu       sync.RWMutex
	resolved map[string]*jsonschema.Resolved
}

var _ SchemaRegistry = (*StaticSchemas)(nil)

// NewStaticSchemas creates an empty schema registry.
func NewStaticSchemas() *StaticSchemas {
	return &StaticSchemas{resolved: make(map[string]*jsonschema.Resolved)}
}

// Register resolves and stores the schema for a tool id.
func (s *StaticSchemas) Register(toolID string, schema *jsonschema.Schema) error {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolving schema for %q: %w", toolID, err)
	}
	s.mu.Lock()
	s.resolved[toolID] = resolved
	s.mu.Unlock()
	return nil
}

// SchemaFor returns the resolved schema for a tool id, if any.
func (s *StaticSchemas) SchemaFor(toolID string) (*jsonschema.Resolved, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resolved, ok := s.resolved[toolID]
	return resolved, ok
}

// validateArgs applies a tool's schema to its resolved arguments.
func validateArgs(schemas SchemaRegistry, toolID string, args map[string]any) error {
	if schemas == nil {
		return nil
	}
	resolved, ok := schemas.SchemaFor(toolID)
	if !ok {
		return nil
	}
	if err := resolved.Validate(args); err != nil {
		return fmt.Errorf("%w: tool %q: %w", ErrSchemaValidation, toolID, err)
	}
	return nil
}
