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
	"fmt"
	"time"
)

// StepType identifies what a step does.
type StepType string

const (
	StepPlan   StepType = "PLAN"
	StepCritic StepType = "CRITIC"
	StepSynth  StepType = "SYNTH"
	StepTool   StepType = "TOOL"
)

// RetryMode selects the delay schedule between attempts.
type RetryMode string

const (
	RetryFixed       RetryMode = "FIXED"
	RetryExponential RetryMode = "EXPONENTIAL"
)

// RetryPolicy bounds a tool step's attempts. Zero values mean one attempt,
// no delay.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Mode         RetryMode
}

// Budget caps a flow's resource spend. Zero fields are unlimited.
type Budget struct {
	MaxTokens  int
	MaxCostUSD float64
}

// Step is one unit of a flow. Tool steps carry the tool id, argument
// expressions and retry policy; stage steps only carry the type and an
// optional guard.
type Step struct {
	Type StepType
	// Uses names the tool for TOOL steps.
	Uses string
	// Args maps argument names to expressions resolved at execution time.
	Args map[string]Expr
	// When guards the step; an absent guard always passes.
	When *Expr
	// Parallel is accepted in definitions but currently executes serially.
	Parallel bool
	Retry    RetryPolicy
}

// Definition is a named flow.
type Definition struct {
	Name          string
	RequireScopes []string
	Budget        Budget
	Steps         []Step
}

// Validate checks structural invariants of a definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: flow %q has no steps", ErrInvalidDefinition, d.Name)
	}
	for i, step := range d.Steps {
		switch step.Type {
		case StepPlan, StepCritic, StepSynth:
		case StepTool:
			if step.Uses == "" {
				return fmt.Errorf("%w: flow %q step %d: tool step without uses", ErrInvalidDefinition, d.Name, i)
			}
		default:
			return fmt.Errorf("%w: flow %q step %d: %q", ErrInvalidStepType, d.Name, i, step.Type)
		}
		if step.Retry.MaxAttempts < 0 {
			return fmt.Errorf("%w: flow %q step %d: negative max attempts", ErrInvalidDefinition, d.Name, i)
		}
	}
	return nil
}
