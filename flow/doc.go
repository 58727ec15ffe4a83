// Package flow executes declarative tool pipelines. A flow Definition names
// an ordered list of steps: planner, critic and synthesizer stages plus tool
// invocations with typed argument expressions, guards, retry policies and
// budget limits. Definitions load from YAML, with an override directory
// taking precedence over embedded defaults.
//
// The Orchestrator walks the steps strictly in order, threading a shared
// state map: consent is checked once per flow, budget denials skip a step,
// schema validation failures abort, and tool outputs merge back into state
// both namespaced under the tool id and flattened at the top level.
package flow
