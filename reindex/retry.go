// Copyright 2025 Worklore Authors
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

package reindex

import (
	"context"
	"log/slog"
	"time"
)

// RetryWithBackoff runs op up to maxAttempts times, doubling the wait
// between attempts starting from baseDelay. The context cancels both the
// waits and further attempts. When every attempt fails, the last
// attempt's error is returned.
func RetryWithBackoff(ctx context.Context, op func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := baseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				slog.Debug("retried operation recovered", "attempt", attempt)
			}
			return nil
		}
		if attempt == maxAttempts {
			return err
		}

		slog.Debug("retrying after failure", "attempt", attempt, "maxAttempts", maxAttempts, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
