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
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sidekick-labs/sidekick/core"
)

const (
	// HardTokenCeiling is the conservative prompt limit, chosen below the
	// provider's real limit so tokenizer estimation error cannot overflow it.
	HardTokenCeiling = 28500

	// DefaultContextBudget bounds the greedy inclusion stage, leaving
	// headroom for the system preamble and the conversation tail.
	DefaultContextBudget = 20000

	blockSeparator   = "\n\n==========\n\n"
	truncationMarker = "\n[content truncated]"

	// minBlockShare is the largest fraction structured shrinkage may cut
	// from any one result block.
	minBlockShare = 0.5

	// shrinkSlack tightens the shrink ratio to cover what shrinkage leaves
	// intact: block headers, separators and truncation markers.
	shrinkSlack = 0.95
)

// Assembler turns search results into a bounded context block and composes
// the final message list for the completion provider.
type Assembler struct {
	counter       TokenCounter
	contextBudget int
	logger        *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// WithTokenCounter replaces the model-derived token counter.
func WithTokenCounter(counter TokenCounter) Option {
	return func(a *Assembler) {
		if counter != nil {
			a.counter = counter
		}
	}
}

// WithContextBudget sets the token budget for the greedy inclusion stage.
func WithContextBudget(tokens int) Option {
	return func(a *Assembler) {
		if tokens > 0 {
			a.contextBudget = tokens
		}
	}
}

// NewAssembler creates an assembler counting tokens for the given model.
// The model's encoding is only loaded when no counter is injected.
func NewAssembler(model string, opts ...Option) *Assembler {
	a := &Assembler{
		contextBudget: DefaultContextBudget,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.counter == nil {
		a.counter = NewTokenCounter(model)
	}
	return a
}

// resultBlock is one formatted result, kept split so structured shrinkage
// can cut the body while preserving the header.
type resultBlock struct {
	title  string
	header string
	body   string
}

func (b resultBlock) render() string {
	return b.header + "\n\nRelevant Section:\n" + b.body
}

// Assemble formats results into a context block under the given budget.
// Explicit references are always included and their cost is spent first;
// scored results are appended greedily in rank order, stopping at the first
// one that would overflow. Returns the context text and the included results.
func (a *Assembler) Assemble(results []*core.SearchResult, budget *core.PromptBudget) (string, []*core.SearchResult) {
	blocks, included := a.assembleBlocks(results, budget)
	return renderContext(blocks), included
}

// BuildMessages composes the full message list: a system message carrying
// the preamble, the user's memory context and the assembled note context,
// then the conversation tail, then the question. The result is brought under
// the hard token ceiling by staged truncation; if that proves impossible the
// messages are returned anyway with a logged warning.
// Also returns the IDs of the results that made it into the context.
func (a *Assembler) BuildMessages(
	results []*core.SearchResult,
	preamble, memory string,
	tail []core.Message,
	question string,
) ([]core.Message, []core.ID) {
	budget := &core.PromptBudget{MaxTokens: a.contextBudget}
	blocks, included := a.assembleBlocks(results, budget)

	compose := func() []core.Message {
		messages := make([]core.Message, 0, len(tail)+2)
		messages = append(messages, core.Message{
			Role:    core.RoleSystem,
			Content: composeSystem(preamble, memory, renderContext(blocks)),
		})
		messages = append(messages, tail...)
		messages = append(messages, core.Message{Role: core.RoleUser, Content: question})
		return messages
	}

	messages := compose()
	total := a.counter.CountMessages(messages)

	// Tier 1: shrink the context section proportionally, keeping every
	// block's header and at least half of its body share.
	if total > HardTokenCeiling && len(blocks) > 0 {
		blocks = a.shrinkBlocks(blocks, total)
		messages = compose()
		total = a.counter.CountMessages(messages)
	}

	// Tier 2: drop older conversational turns. The system message and the
	// final user message are never dropped.
	for total > HardTokenCeiling && len(messages) > 2 {
		a.logger.Debug("dropping conversation turn to fit token ceiling",
			"role", messages[1].Role, "total", total)
		messages = append(messages[:1], messages[2:]...)
		total = a.counter.CountMessages(messages)
	}

	if total > HardTokenCeiling {
		a.logger.Warn("prompt still over token ceiling after truncation, proceeding",
			"total", total, "ceiling", HardTokenCeiling)
	}

	ids := make([]core.ID, len(included))
	for i, result := range included {
		ids[i] = result.Id
	}
	return messages, ids
}

func (a *Assembler) assembleBlocks(results []*core.SearchResult, budget *core.PromptBudget) ([]resultBlock, []*core.SearchResult) {
	if len(results) == 0 {
		return nil, nil
	}

	explicit := make([]*core.SearchResult, 0, len(results))
	scored := make([]*core.SearchResult, 0, len(results))
	for _, result := range results {
		if result.Explicit {
			explicit = append(explicit, result)
		} else {
			scored = append(scored, result)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	blocks := make([]resultBlock, 0, len(results))
	included := make([]*core.SearchResult, 0, len(results))

	// Explicit references are kept whatever they cost; if they alone bust
	// the budget, the ceiling stage shrinks their content instead.
	for _, result := range explicit {
		block := formatBlock(result)
		budget.Spend(a.counter.Count(block.render()))
		blocks = append(blocks, block)
		included = append(included, result)
	}

	for _, result := range scored {
		block := formatBlock(result)
		cost := a.counter.Count(block.render())
		if cost >= budget.Remaining() {
			break
		}
		budget.Spend(cost)
		blocks = append(blocks, block)
		included = append(included, result)
	}

	return blocks, included
}

// shrinkBlocks cuts block bodies proportionally so the context section
// sheds the token excess, inserting a truncation marker into every cut
// block. No block loses more than half its body.
func (a *Assembler) shrinkBlocks(blocks []resultBlock, totalTokens int) []resultBlock {
	var contextParts []string
	for _, block := range blocks {
		contextParts = append(contextParts, block.render())
	}
	contextTokens := a.counter.Count(strings.Join(contextParts, blockSeparator))
	if contextTokens == 0 {
		return blocks
	}

	excess := totalTokens - HardTokenCeiling
	ratio := float64(contextTokens-excess) / float64(contextTokens) * shrinkSlack
	if ratio < minBlockShare {
		ratio = minBlockShare
	}
	a.logger.Debug("shrinking context section",
		"contextTokens", contextTokens, "excess", excess, "keepRatio", ratio)

	shrunk := make([]resultBlock, len(blocks))
	for i, block := range blocks {
		shrunk[i] = block
		body := []rune(block.body)
		keep := int(float64(len(body)) * ratio)
		if keep < len(body) {
			shrunk[i].body = string(body[:keep]) + truncationMarker
		}
	}
	return shrunk
}

// formatBlock renders one result in the context layout: a provenance header
// with relevance metadata, the relevant section, and any linked notes.
func formatBlock(result *core.SearchResult) resultBlock {
	indicator := "Relevant"
	switch {
	case result.Explicit:
		indicator = "Explicitly Referenced"
	case result.Score > 0.9:
		indicator = "Highly Relevant"
	}

	var header strings.Builder
	fmt.Fprintf(&header, "[From [[%s]]] (%s", result.Title, indicator)
	if !result.Explicit {
		fmt.Fprintf(&header, ", score: %.3f", result.Score)
	}
	if result.KeywordScore > 0 {
		fmt.Fprintf(&header, ", keyword relevance: %.3f", result.KeywordScore)
	}
	if len(result.MatchedKeywords) > 0 {
		fmt.Fprintf(&header, ", matched terms: %s", strings.Join(result.MatchedKeywords, ", "))
	}
	header.WriteString(")")

	var body strings.Builder
	body.WriteString(result.Content)
	for _, linked := range result.LinkedContexts {
		fmt.Fprintf(&body, "\n\nLinked note [[%s]] (relevance: %.3f):\n%s",
			linked.NotePath, linked.Relevance, linked.Context)
	}

	return resultBlock{title: result.Title, header: header.String(), body: body.String()}
}

// renderContext joins blocks with separators and appends the footer listing
// every note the context draws on.
func renderContext(blocks []resultBlock) string {
	if len(blocks) == 0 {
		return ""
	}

	parts := make([]string, len(blocks))
	titles := make([]string, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))
	for i, block := range blocks {
		parts[i] = block.render()
		if !seen[block.title] {
			seen[block.title] = true
			titles = append(titles, block.title)
		}
	}
	sort.Strings(titles)

	var out strings.Builder
	out.WriteString(strings.Join(parts, blockSeparator))
	out.WriteString("\n\n---\nBased on the following context:\n")
	for i, title := range titles {
		if i > 0 {
			out.WriteString("\n")
		}
		fmt.Fprintf(&out, "- [[%s]]", title)
	}
	return out.String()
}

// composeSystem folds the preamble, the user's memory context and the note
// context into one system message.
func composeSystem(preamble, memory, context string) string {
	var out strings.Builder
	out.WriteString(preamble)
	if memory != "" {
		out.WriteString("\n\nMEMORY CONTEXT:\n")
		out.WriteString(memory)
	}
	if context != "" {
		out.WriteString("\n\nHere are the relevant notes and their context:\n\n")
		out.WriteString(context)
	}
	return out.String()
}
