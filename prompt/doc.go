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


// Package prompt assembles retrieved notes into a token-bounded LLM prompt.
//
// The Assembler formats search results into a context block, spends a token
// budget greedily over the scored results while always keeping explicit
// references, and enforces a hard ceiling on the fully composed message list
// through two truncation tiers: structured shrinkage of the context section
// first, then dropping older conversational turns. When neither tier can get
// under the ceiling the prompt is sent anyway with a logged warning; budget
// pressure never blocks the user's message.
//
// Token counts are conservative over-estimates of the provider's counting,
// never under-estimates.
package prompt
