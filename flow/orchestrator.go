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
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of a flow execution.
type Result struct {
	State map[string]any
	Trace []TraceEvent
}

// Orchestrator executes flow definitions step by step.
type Orchestrator struct {
	loader  *Loader
	tools   *Registry
	schemas SchemaRegistry
	consent ConsentService
	budget  BudgetGuard
	tracer  Tracer
	metrics Metrics
	stages  map[StepType]Stage
	logger  *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator) error

// WithConsent wires a consent service.
func WithConsent(consent ConsentService) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.consent = consent
		return nil
	}
}

// WithBudgetGuard wires a budget gate.
func WithBudgetGuard(guard BudgetGuard) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.budget = guard
		return nil
	}
}

// WithSchemas wires a tool argument schema registry.
func WithSchemas(schemas SchemaRegistry) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.schemas = schemas
		return nil
	}
}

// WithTracer wires a tracer.
func WithTracer(tracer Tracer) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.tracer = tracer
		return nil
	}
}

// WithMetrics wires a metrics sink.
func WithMetrics(metrics Metrics) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.metrics = metrics
		return nil
	}
}

// WithStage overrides the implementation of a non-tool step type.
func WithStage(stepType StepType, stage Stage) OrchestratorOption {
	return func(o *Orchestrator) error {
		if stepType == StepTool {
			return fmt.Errorf("tool steps are driven by the registry, not stages")
		}
		o.stages[stepType] = stage
		return nil
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator over a loader and tool registry.
// Consent and budget default to permissive; stages default to the built-in
// planner, critic and synthesizer.
func NewOrchestrator(loader *Loader, tools *Registry, opts ...OrchestratorOption) (*Orchestrator, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool registry cannot be nil")
	}

	o := &Orchestrator{
		loader:  loader,
		tools:   tools,
		consent: PermissiveConsent{},
		budget:  PermissiveBudget{},
		tracer:  NopTracer{},
		metrics: NopMetrics{},
		logger:  slog.Default(),
		stages: map[StepType]Stage{
			StepPlan:   DefaultPlanner(),
			StepCritic: DefaultCritic(),
			StepSynth:  DefaultSynthesizer(),
		},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Execute runs the named flow against the input. Steps run strictly in
// order; the returned state holds everything the steps merged in.
func (o *Orchestrator) Execute(ctx context.Context, flowName string, input map[string]any, fctx Context) (*Result, error) {
	def, err := o.loader.Load(flowName)
	if err != nil {
		return nil, err
	}

	if fctx.SessionID == "" {
		fctx.SessionID = uuid.NewString()
	}
	logger := o.logger.With("session", fctx.SessionID, "flow", def.Name)

	if len(def.RequireScopes) > 0 {
		if err := o.consent.EnsureGranted(fctx.ConsentToken, def.RequireScopes); err != nil {
			logger.Warn("flow consent denied", "scopes", def.RequireScopes, "err", err)
			return nil, fmt.Errorf("%w: flow %q: %w", ErrConsentDenied, def.Name, err)
		}
	}

	state := make(map[string]any)
	extras := fctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	contextRoot := map[string]any{
		"session_id": fctx.SessionID,
		"extras":     extras,
	}

	result := &Result{State: state}
	start := time.Now()

	for i, step := range def.Steps {
		stepLogger := logger.With("step", i, "type", string(step.Type))
		o.tracer.StepStarted(def.Name, i, step.Type)

		event, err := o.runStep(ctx, step, def.Budget, input, state, contextRoot, fctx, stepLogger)
		event.Step = i
		event.Type = step.Type
		o.tracer.StepFinished(def.Name, event)
		if fctx.DebugTrace {
			result.Trace = append(result.Trace, event)
		}

		if err != nil {
			stepLogger.Error("flow aborted", "err", err)
			o.metrics.Count("flow.aborted", 1, map[string]string{"flow": def.Name})
			return result, fmt.Errorf("flow %q step %d: %w", def.Name, i, err)
		}
	}

	o.metrics.Latency("flow.duration", time.Since(start), map[string]string{"flow": def.Name})
	logger.Info("flow finished", "steps", len(def.Steps), "elapsed", time.Since(start))
	return result, nil
}

// runStep executes a single step, merging its output into state.
func (o *Orchestrator) runStep(ctx context.Context, step Step, budget Budget, input, state, contextRoot map[string]any, fctx Context, logger *slog.Logger) (TraceEvent, error) {
	start := time.Now()
	event := TraceEvent{Tool: step.Uses}

	if step.When != nil && !step.When.EvalBool(input, state, contextRoot) {
		logger.Debug("guard false, step skipped")
		event.Skipped = true
		event.Duration = time.Since(start)
		return event, nil
	}

	var (
		output map[string]any
		err    error
	)
	switch step.Type {
	case StepTool:
		output, err = o.runTool(ctx, step, budget, input, state, contextRoot, fctx, logger)
		if err == errStepSkipped {
			event.Skipped = true
			err = nil
		}
	default:
		stage, ok := o.stages[step.Type]
		if !ok {
			err = fmt.Errorf("%w: no stage for %q", ErrInvalidStepType, step.Type)
		} else {
			output, err = stage.Run(ctx, input, state)
		}
	}

	event.Duration = time.Since(start)
	if err != nil {
		event.Err = err.Error()
		return event, err
	}

	for key, val := range output {
		state[key] = val
	}
	event.Output = output
	return event, nil
}

// errStepSkipped is an internal signal: the step did not run but the flow
// continues.
var errStepSkipped = fmt.Errorf("step skipped")

func (o *Orchestrator) runTool(ctx context.Context, step Step, budget Budget, input, state, contextRoot map[string]any, fctx Context, logger *slog.Logger) (map[string]any, error) {
	tool, ok := o.tools.Get(step.Uses)
	if !ok {
		// A missing tool degrades the flow instead of failing it
		logger.Warn("tool not registered, step skipped", "tool", step.Uses)
		o.metrics.Count("flow.tool_missing", 1, map[string]string{"tool": step.Uses})
		return nil, errStepSkipped
	}

	args := make(map[string]any, len(step.Args))
	for name, expr := range step.Args {
		args[name] = expr.Eval(input, state, contextRoot)
	}

	if err := validateArgs(o.schemas, step.Uses, args); err != nil {
		return nil, err
	}

	if !o.budget.Allow(step.Uses, budget.MaxCostUSD, budget.MaxTokens) {
		logger.Warn("budget denied, step skipped", "tool", step.Uses)
		o.metrics.Count("flow.budget_denied", 1, map[string]string{"tool": step.Uses})
		return nil, errStepSkipped
	}

	var resp Response
	err := runWithRetry(ctx, step.Retry, logger, func() error {
		var execErr error
		resp, execErr = tool.Execute(ctx, Request{Args: args, Context: fctx})
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", step.Uses, err)
	}

	// Merge namespaced under the tool id and flattened, last write wins
	merged := make(map[string]any, len(resp.Data)+1)
	if len(resp.Data) > 0 {
		merged[step.Uses] = resp.Data
		for key, val := range resp.Data {
			merged[key] = val
		}
	}
	return merged, nil
}
