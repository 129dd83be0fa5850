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


package prompt

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-labs/sidekick/core"
)

// newTestAssembler builds an assembler on the heuristic counter so tests
// never depend on tokenizer data files.
func newTestAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		counter:       HeuristicCounter{},
		contextBudget: DefaultContextBudget,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func TestAssemble_Format(t *testing.T) {
	a := newTestAssembler()
	budget := &core.PromptBudget{MaxTokens: DefaultContextBudget}

	results := []*core.SearchResult{
		{
			Id:              1,
			Score:           0.95,
			Title:           "Standup",
			Content:         "we discussed the rollout",
			KeywordScore:    1.25,
			MatchedKeywords: []string{"rollout"},
		},
		{
			Id:       2,
			Score:    1.0,
			Title:    "Project Plan",
			Content:  "full plan body",
			Explicit: true,
		},
	}

	context, included := a.Assemble(results, budget)
	require.Len(t, included, 2)

	assert.Contains(t, context, "[From [[Standup]]] (Highly Relevant, score: 0.950, keyword relevance: 1.250, matched terms: rollout)")
	assert.Contains(t, context, "[From [[Project Plan]]] (Explicitly Referenced)")
	assert.Contains(t, context, "Relevant Section:\nwe discussed the rollout")
	assert.Contains(t, context, "\n\n==========\n\n")
	assert.Contains(t, context, "Based on the following context:")
	assert.Contains(t, context, "- [[Project Plan]]")
	assert.Contains(t, context, "- [[Standup]]")
}

func TestAssemble_ModeratelyRelevantIndicator(t *testing.T) {
	a := newTestAssembler()
	budget := &core.PromptBudget{MaxTokens: DefaultContextBudget}

	context, _ := a.Assemble([]*core.SearchResult{
		{Id: 1, Score: 0.8, Title: "Note", Content: "body"},
	}, budget)

	assert.Contains(t, context, "(Relevant, score: 0.800)")
}

func TestAssemble_LinkedContexts(t *testing.T) {
	a := newTestAssembler()
	budget := &core.PromptBudget{MaxTokens: DefaultContextBudget}

	context, _ := a.Assemble([]*core.SearchResult{
		{
			Id:      1,
			Score:   0.92,
			Title:   "Main",
			Content: "body",
			LinkedContexts: []core.LinkedContext{
				{NotePath: "Linked", Relevance: 0.88, Context: "linked body"},
			},
		},
	}, budget)

	assert.Contains(t, context, "Linked note [[Linked]] (relevance: 0.880):\nlinked body")
}

func TestAssemble_Empty(t *testing.T) {
	a := newTestAssembler()
	budget := &core.PromptBudget{MaxTokens: DefaultContextBudget}

	context, included := a.Assemble(nil, budget)
	assert.Empty(t, context)
	assert.Empty(t, included)
	assert.Zero(t, budget.UsedTokens)
}

func TestAssemble_ExplicitExceedsBudget(t *testing.T) {
	a := newTestAssembler()
	budget := &core.PromptBudget{MaxTokens: 10}

	results := []*core.SearchResult{
		{Id: 1, Score: 1.0, Title: "Huge", Content: strings.Repeat("x", 3000), Explicit: true},
		{Id: 2, Score: 0.9, Title: "Small", Content: "tiny"},
	}

	context, included := a.Assemble(results, budget)

	// The explicit result is kept even though it alone busts the budget;
	// the scored result no longer fits.
	require.Len(t, included, 1)
	assert.Equal(t, core.ID(1), included[0].Id)
	assert.Contains(t, context, "[[Huge]]")
	assert.NotContains(t, context, "[[Small]]")
	assert.Greater(t, budget.UsedTokens, budget.MaxTokens)
}

func TestAssemble_GreedyStopsAtFirstOverflow(t *testing.T) {
	a := newTestAssembler()
	budget := &core.PromptBudget{MaxTokens: 300}

	results := []*core.SearchResult{
		{Id: 1, Score: 0.95, Title: "First", Content: strings.Repeat("a", 600)},
		{Id: 2, Score: 0.9, Title: "Second", Content: strings.Repeat("b", 600)},
		// Would fit in the leftover budget, but inclusion stops at the
		// first overflowing result.
		{Id: 3, Score: 0.85, Title: "Third", Content: "tiny"},
	}

	_, included := a.Assemble(results, budget)
	require.Len(t, included, 1)
	assert.Equal(t, core.ID(1), included[0].Id)
}

func TestBuildMessages_Shape(t *testing.T) {
	a := newTestAssembler()

	results := []*core.SearchResult{
		{Id: 7, Score: 0.92, Title: "Standup", Content: "rollout notes"},
	}
	tail := []core.Message{
		{Role: core.RoleUser, Content: "earlier question"},
		{Role: core.RoleAssistant, Content: "earlier answer"},
	}

	messages, ids := a.BuildMessages(results, "You are a notes assistant.", "prefers brevity", tail, "what about the rollout?")

	require.Len(t, messages, 4)
	assert.Equal(t, core.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "You are a notes assistant.")
	assert.Contains(t, messages[0].Content, "MEMORY CONTEXT:\nprefers brevity")
	assert.Contains(t, messages[0].Content, "Here are the relevant notes and their context:")
	assert.Contains(t, messages[0].Content, "[From [[Standup]]]")

	assert.Equal(t, tail[0], messages[1])
	assert.Equal(t, tail[1], messages[2])
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "what about the rollout?"}, messages[3])

	assert.Equal(t, []core.ID{7}, ids)
}

func TestBuildMessages_NoMemoryNoResults(t *testing.T) {
	a := newTestAssembler()

	messages, ids := a.BuildMessages(nil, "preamble", "", nil, "question")

	require.Len(t, messages, 2)
	assert.Equal(t, "preamble", messages[0].Content)
	assert.NotContains(t, messages[0].Content, "MEMORY CONTEXT")
	assert.Empty(t, ids)
}

func TestBuildMessages_StructuredShrinkage(t *testing.T) {
	a := newTestAssembler()

	// Roughly 40k estimated tokens of context against the 28.5k ceiling.
	results := []*core.SearchResult{
		{Id: 1, Score: 1.0, Title: "Big", Content: strings.Repeat("x", 115000), Explicit: true},
	}

	messages, ids := a.BuildMessages(results, "preamble", "", nil, "question")

	require.Len(t, messages, 2)
	assert.Equal(t, []core.ID{1}, ids)

	// The block header survives, the body is cut with a marker, and the
	// final prompt fits the ceiling.
	assert.Contains(t, messages[0].Content, "[From [[Big]]]")
	assert.Contains(t, messages[0].Content, truncationMarker)
	assert.LessOrEqual(t, a.counter.CountMessages(messages), HardTokenCeiling)
}

func TestBuildMessages_DropsOlderTurns(t *testing.T) {
	a := newTestAssembler()

	// Context shrinks to its 50% floor and stays too big together with the
	// tail, so older turns must go.
	results := []*core.SearchResult{
		{Id: 1, Score: 1.0, Title: "Big", Content: strings.Repeat("x", 115000), Explicit: true},
	}
	tail := make([]core.Message, 6)
	for i := range tail {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		tail[i] = core.Message{Role: role, Content: strings.Repeat("t", 5700)}
	}

	messages, _ := a.BuildMessages(results, "preamble", "", tail, "question")

	assert.LessOrEqual(t, a.counter.CountMessages(messages), HardTokenCeiling)

	// System first, question last, and whatever tail remains is the most
	// recent portion.
	require.GreaterOrEqual(t, len(messages), 2)
	assert.Equal(t, core.RoleSystem, messages[0].Role)
	assert.Equal(t, "question", messages[len(messages)-1].Content)
	kept := len(messages) - 2
	assert.Less(t, kept, len(tail))
	if kept > 0 {
		assert.Equal(t, tail[len(tail)-kept:], messages[1:len(messages)-1])
	}
}

func TestBuildMessages_UnreducibleProceeds(t *testing.T) {
	a := newTestAssembler()

	// Even the 50% shrink floor leaves this far over the ceiling; assembly
	// must proceed with the best achievable reduction rather than fail.
	results := []*core.SearchResult{
		{Id: 1, Score: 1.0, Title: "Enormous", Content: strings.Repeat("x", 230000), Explicit: true},
	}

	messages, ids := a.BuildMessages(results, "preamble", "", nil, "question")

	require.Len(t, messages, 2)
	assert.Equal(t, []core.ID{1}, ids)
	assert.Equal(t, core.RoleSystem, messages[0].Role)
	assert.Equal(t, "question", messages[1].Content)
	assert.Greater(t, a.counter.CountMessages(messages), HardTokenCeiling)
}
