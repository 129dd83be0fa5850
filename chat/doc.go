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


// Package chat orchestrates grounded conversations over a user's notes.
//
// The Service keeps in-memory, user-scoped conversation threads, decides
// per message whether it continues the previous topic, retrieves relevant
// notes through the searcher, assembles a token-bounded prompt and streams
// the model's answer as a lazily produced sequence of text deltas. The
// consumer stops the stream simply by breaking out of the iteration.
package chat
