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


// Package ai defines the interfaces to embedding and completion providers,
// along with their shared configuration, error classification, and retry
// policy.
//
// Providers are explicit, constructor-injected handles; there is no hidden
// process-wide client state. Failures are classified into fatal
// (authentication) and retryable (rate limits, timeouts) categories, and
// RetryPolicy makes the retry behavior visible and unit-testable at each
// call site.
//
// Two implementations are provided: ai/openai for OpenAI-compatible HTTP
// services and ai/mock for deterministic test doubles.
package ai
