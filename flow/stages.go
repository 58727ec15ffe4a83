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
	"strings"
)

// Stage runs a non-tool step (plan, critic, synth) against the current
// state and returns keys to merge back.
type Stage interface {
	Run(ctx context.Context, input, state map[string]any) (map[string]any, error)
}

// StageFunc adapts a function into a Stage.
type StageFunc func(ctx context.Context, input, state map[string]any) (map[string]any, error)

func (f StageFunc) Run(ctx context.Context, input, state map[string]any) (map[string]any, error) {
	return f(ctx, input, state)
}

// stageStopWords mirrors the retrieval keyword filter for subgoal extraction.
var stageStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "of": true,
	"and": true, "in": true, "to": true, "for": true, "with": true, "on": true,
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"which": true, "who": true, "does": true, "do": true,
}

// DefaultPlanner extracts subgoals from the input query: content words
// become search targets under state["plan"].
func DefaultPlanner() Stage {
	return StageFunc(func(ctx context.Context, input, state map[string]any) (map[string]any, error) {
		query, _ := input["query"].(string)
		if query == "" {
			return nil, fmt.Errorf("planner requires input.query")
		}

		var subgoals []string
		for _, word := range strings.Fields(strings.ToLower(query)) {
			cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}")
			if cleaned == "" || stageStopWords[cleaned] {
				continue
			}
			subgoals = append(subgoals, cleaned)
		}

		return map[string]any{
			"plan": map[string]any{
				"query":    query,
				"subgoals": subgoals,
			},
		}, nil
	})
}

// DefaultCritic checks evidence coverage: it flags under state["critique"]
// whether the collected evidence is empty or only a placeholder.
func DefaultCritic() Stage {
	return StageFunc(func(ctx context.Context, input, state map[string]any) (map[string]any, error) {
		evidence, _ := state["evidence"].([]any)

		sufficient := len(evidence) > 0
		notes := "evidence collected"
		if !sufficient {
			notes = "no evidence collected"
		}

		return map[string]any{
			"critique": map[string]any{
				"sufficient": sufficient,
				"notes":      notes,
				"count":      len(evidence),
			},
		}, nil
	})
}

// DefaultSynthesizer assembles an answer from the evidence snippets in
// state, most relevant first.
func DefaultSynthesizer() Stage {
	return StageFunc(func(ctx context.Context, input, state map[string]any) (map[string]any, error) {
		query, _ := input["query"].(string)
		evidence, _ := state["evidence"].([]any)

		var b strings.Builder
		if query != "" {
			fmt.Fprintf(&b, "Answer for: %s\n", query)
		}
		for i, item := range evidence {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			snippet, _ := m["snippet"].(string)
			if snippet == "" {
				continue
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, snippet)
		}
		answer := strings.TrimSpace(b.String())
		if answer == "" {
			answer = "No evidence available to synthesize an answer."
		}

		return map[string]any{"answer": answer}, nil
	})
}
