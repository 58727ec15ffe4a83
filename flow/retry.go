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
	"log/slog"
	"time"
)

const minRetryDelay = time.Millisecond

// runWithRetry executes the operation under the step's retry policy.
// FIXED mode sleeps a constant delay between attempts; EXPONENTIAL doubles
// it each time. Sleeps honor context cancellation and never follow the
// final attempt. Returns the error from the last attempt.
func runWithRetry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, operation func() error) error {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := policy.InitialDelay
	if delay < minRetryDelay {
		delay = minRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("tool succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		logger.Debug("tool attempt failed",
			"attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if policy.Mode == RetryExponential {
			delay *= 2
		}
	}

	return lastErr
}
