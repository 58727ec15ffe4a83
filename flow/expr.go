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
	"strconv"
	"strings"
)

// Expr is a typed step argument: either a literal value or a path into one
// of the execution roots (input, state, context) with an optional default.
// Paths are resolved when the step runs; an unresolved path yields the
// default, never an error.
type Expr struct {
	Literal any
	Root    string // "input", "state" or "context"; empty means literal
	Path    []string
	Default any
}

// Literal wraps a constant value.
func Literal(v any) Expr { return Expr{Literal: v} }

// Path builds a lookup expression into the given root.
func Path(root string, segments ...string) Expr {
	return Expr{Root: root, Path: segments}
}

// WithDefault returns a copy of the expression with a fallback value.
func (e Expr) WithDefault(v any) Expr {
	e.Default = v
	return e
}

// ParseExpr recognizes the "${root.seg1.seg2|default}" placeholder syntax;
// anything else is a literal string.
func ParseExpr(raw string) Expr {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "${") || !strings.HasSuffix(trimmed, "}") {
		return Literal(raw)
	}

	body := trimmed[2 : len(trimmed)-1]
	var def any
	if idx := strings.Index(body, "|"); idx >= 0 {
		def = coerceScalar(body[idx+1:])
		body = body[:idx]
	}

	segments := strings.Split(body, ".")
	if len(segments) < 2 {
		return Expr{Literal: raw}
	}
	root := segments[0]
	switch root {
	case "input", "state", "context":
	default:
		return Literal(raw)
	}

	return Expr{Root: root, Path: segments[1:], Default: def}
}

// Eval resolves the expression against the execution roots.
func (e Expr) Eval(input, state, fctx map[string]any) any {
	if e.Root == "" {
		return e.Literal
	}

	var current any
	switch e.Root {
	case "input":
		current = asAny(input)
	case "state":
		current = asAny(state)
	case "context":
		current = asAny(fctx)
	default:
		return e.Default
	}

	for _, seg := range e.Path {
		m, ok := current.(map[string]any)
		if !ok {
			return e.Default
		}
		current, ok = m[seg]
		if !ok {
			return e.Default
		}
	}
	return current
}

// EvalBool resolves a guard expression. Anything that is not a recognizable
// false evaluates true: guards fail open.
func (e Expr) EvalBool(input, state, fctx map[string]any) bool {
	v := e.Eval(input, state, fctx)
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower != "false" && lower != "0" && lower != "no"
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

func asAny(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// coerceScalar interprets a default literal: bool, int, float, else string.
func coerceScalar(s string) any {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
