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


package fusion

import "errors"

var (
	// ErrInvalidK indicates a non-positive RRF smoothing constant.
	ErrInvalidK = errors.New("rrf constant k must be greater than 0")

	// ErrNilCalibrator indicates a nil Calibrator was supplied.
	ErrNilCalibrator = errors.New("calibrator cannot be nil")

	// ErrNilBoost indicates a nil BoostPolicy was supplied.
	ErrNilBoost = errors.New("boost policy cannot be nil")

	// ErrInvalidBoostTable indicates a malformed authority weight table.
	ErrInvalidBoostTable = errors.New("invalid authority weight table")
)
