// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package flow

import (
	"context"
	"fmt"
	"sync"
)

// Context carries per-execution metadata into tools.
type Context struct {
	SessionID    string
	ConsentToken string
	Extras       map[string]any
	DebugTrace   bool
}

// Request is a resolved tool invocation.
type Request struct {
	Args    map[string]any
	Context Context
}

// Response is a tool's structured output. Data keys merge into flow state.
type Response struct {
	Data map[string]any
}

// Tool is an executable unit addressable from flow definitions.
type Tool interface {
	ID() string
	Execute(ctx context.Context, req Request) (Response, error)
}

// Registry holds the tools available to an orchestrator.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, rejecting duplicate ids.
func (r *Registry) Register(tool Tool) error {
	if tool == nil || tool.ID() == "" {
		return fmt.Errorf("tool must have a non-empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.ID()]; exists {
		return fmt.Errorf("tool %q already registered", tool.ID())
	}
	r.tools[tool.ID()] = tool
	return nil
}

// Get looks a tool up by id.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[id]
	return tool, ok
}

// ToolFunc adapts a function into a Tool.
type ToolFunc struct {
	Id string
	Fn func(ctx context.Context, req Request) (Response, error)
}

var _ Tool = (*ToolFunc)(nil)

func (t *ToolFunc) ID() string { return t.Id }

func (t *ToolFunc) Execute(ctx context.Context, req Request) (Response, error) {
	return t.Fn(ctx, req)
}
