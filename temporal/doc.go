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


// Package temporal handles everything date-related in the retrieval engine.
//
// Three independent concerns live here:
//   - Parser detects temporal intent in user queries ("yesterday",
//     "in January", "2024-01-15") and produces a date range plus the query
//     with the temporal phrase stripped out.
//   - Extractor dates corpus documents from their filenames, with a fixed
//     confidence weight per pattern and a created-at fallback.
//   - Boost adjusts a ranked score by the proximity of a document's date to
//     a query's date range.
//
// Parsing ambiguity is always treated as "no temporal intent" rather than an
// error, so search degrades to purely semantic ranking.
package temporal
