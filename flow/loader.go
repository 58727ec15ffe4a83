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
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed defaults/*.yaml
var defaultFlows embed.FS

// rawStep is the YAML shape of a step before expression parsing.
type rawStep struct {
	Type     string         `koanf:"type"`
	Uses     string         `koanf:"uses"`
	Ref      string         `koanf:"ref"` // alias for uses
	Args     map[string]any `koanf:"args"`
	Params   map[string]any `koanf:"params"` // alias for args
	When     string         `koanf:"when"`
	Parallel bool           `koanf:"parallel"`
	Retry    struct {
		MaxAttempts    int    `koanf:"max_attempts"`
		InitialDelayMS int    `koanf:"initial_delay_ms"`
		Mode           string `koanf:"mode"`
	} `koanf:"retry"`
}

type rawDefinition struct {
	Name          string   `koanf:"name"`
	RequireScopes []string `koanf:"require_scopes"`
	Budget        struct {
		MaxTokens  int     `koanf:"max_tokens"`
		MaxCostUSD float64 `koanf:"max_cost_usd"`
	} `koanf:"budget"`
	Steps []rawStep `koanf:"steps"`
}

// Loader resolves flow definitions by name: an override directory first,
// then the embedded defaults.
type Loader struct {
	overrideDir string
}

// NewLoader creates a loader. overrideDir may be empty to use only the
// embedded defaults.
func NewLoader(overrideDir string) *Loader {
	return &Loader{overrideDir: overrideDir}
}

// Load returns the definition for a flow name.
func (l *Loader) Load(name string) (*Definition, error) {
	if l.overrideDir != "" {
		path := filepath.Join(l.overrideDir, name+".yaml")
		if _, err := os.Stat(path); err == nil {
			return l.loadFile(path)
		}
	}

	data, err := defaultFlows.ReadFile("defaults/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrFlowNotFound, name)
	}
	return l.loadBytes(data, name)
}

func (l *Loader) loadFile(path string) (*Definition, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading flow file %s: %w", path, err)
	}
	return l.build(k, path)
}

func (l *Loader) loadBytes(data []byte, name string) (*Definition, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing embedded flow %q: %w", name, err)
	}
	return l.build(k, name)
}

func (l *Loader) build(k *koanf.Koanf, origin string) (*Definition, error) {
	var raw rawDefinition
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling flow %s: %w", origin, err)
	}

	def := &Definition{
		Name:          raw.Name,
		RequireScopes: raw.RequireScopes,
		Budget: Budget{
			MaxTokens:  raw.Budget.MaxTokens,
			MaxCostUSD: raw.Budget.MaxCostUSD,
		},
		Steps: make([]Step, 0, len(raw.Steps)),
	}

	for i, rs := range raw.Steps {
		step, err := buildStep(rs)
		if err != nil {
			return nil, fmt.Errorf("flow %s step %d: %w", origin, i, err)
		}
		def.Steps = append(def.Steps, step)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func buildStep(rs rawStep) (Step, error) {
	stepType, err := normalizeStepType(rs.Type)
	if err != nil {
		return Step{}, err
	}

	uses := rs.Uses
	if uses == "" {
		uses = rs.Ref
	}
	rawArgs := rs.Args
	if rawArgs == nil {
		rawArgs = rs.Params
	}

	step := Step{
		Type:     stepType,
		Uses:     uses,
		Parallel: rs.Parallel,
		Retry: RetryPolicy{
			MaxAttempts:  rs.Retry.MaxAttempts,
			InitialDelay: time.Duration(rs.Retry.InitialDelayMS) * time.Millisecond,
		},
	}

	switch rs.Retry.Mode {
	case "", string(RetryFixed):
		step.Retry.Mode = RetryFixed
	case string(RetryExponential):
		step.Retry.Mode = RetryExponential
	default:
		return Step{}, fmt.Errorf("%w: unknown retry mode %q", ErrInvalidDefinition, rs.Retry.Mode)
	}

	if len(rawArgs) > 0 {
		step.Args = make(map[string]Expr, len(rawArgs))
		for key, val := range rawArgs {
			if s, ok := val.(string); ok {
				step.Args[key] = ParseExpr(s)
			} else {
				step.Args[key] = Literal(val)
			}
		}
	}

	if rs.When != "" {
		guard := ParseExpr(rs.When)
		step.When = &guard
	}

	return step, nil
}

// normalizeStepType maps YAML type names, including legacy synonyms, to
// the canonical step types.
func normalizeStepType(t string) (StepType, error) {
	switch t {
	case string(StepPlan), "PLANNER":
		return StepPlan, nil
	case string(StepCritic):
		return StepCritic, nil
	case string(StepSynth), "SYNTHESIZER":
		return StepSynth, nil
	case string(StepTool), "AGENT":
		return StepTool, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStepType, t)
	}
}
