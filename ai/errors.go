// Copyright 2025 Sidekick Labs
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


package ai

import (
	"context"
	"errors"
)

var (
	// ErrAuth indicates invalid credentials. It is fatal: bad credentials
	// do not self-heal, so callers must not retry.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited indicates the provider is throttling requests.
	// Retryable with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates the provider did not respond in time.
	// Retryable with backoff.
	ErrTimeout = errors.New("request timed out")
)

// IsRetryable reports whether an error is worth retrying with backoff.
// Authentication failures and caller cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
