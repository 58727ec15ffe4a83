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


package reward

import "errors"

var (
	// ErrInvalidConfig indicates a reward configuration failed validation.
	ErrInvalidConfig = errors.New("invalid reward config")

	// ErrNilRepository indicates a nil memory repository was supplied.
	ErrNilRepository = errors.New("memory repository cannot be nil")

	// ErrNoSamples indicates the tuner was invoked without labeled samples.
	ErrNoSamples = errors.New("tuning requires at least one labeled sample")

	// ErrInvalidTunerSettings indicates non-positive tuner iteration or step settings.
	ErrInvalidTunerSettings = errors.New("invalid tuner settings")
)
