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

import "errors"

var (
	// ErrFlowNotFound indicates no flow with the requested name exists.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrConsentDenied indicates the consent service rejected the flow's
	// required scopes.
	ErrConsentDenied = errors.New("consent denied")

	// ErrSchemaValidation indicates tool arguments failed schema validation.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrInvalidDefinition indicates a flow definition failed validation.
	ErrInvalidDefinition = errors.New("invalid flow definition")

	// ErrInvalidStepType indicates an unknown step type in a definition.
	ErrInvalidStepType = errors.New("invalid step type")

	// ErrToolNotRegistered indicates a tool id has no registered implementation.
	ErrToolNotRegistered = errors.New("tool not registered")
)
