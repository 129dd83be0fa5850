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


// Package search ranks a user's notes against a free-text query.
//
// The Searcher type implements a multi-stage retrieval algorithm:
//   - Temporal intent parsing, turning date phrases into a concrete range
//   - Explicit [[Title]] reference resolution at maximum relevance
//   - Semantic ranking of chunk embeddings over a paginated corpus scan
//   - Date-range injection and proximity boosting for temporal queries
//   - Linked-note expansion for highly relevant results
//
// Keyword overlap is computed as diagnostic metadata on each result; it is
// never blended into the semantic rank.
package search
