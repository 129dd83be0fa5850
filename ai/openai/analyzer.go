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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ContinuityAnalyzer implements ai.ContinuityAnalyzer using OpenAI-compatible chat APIs.
type ContinuityAnalyzer struct {
	client llms.Model
	logger *slog.Logger
}

// continuityResult is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type continuityResult struct {
	IsFollowUp  bool   `json:"isFollowUp"`
	Explanation string `json:"explanation"`
	SearchQuery string `json:"searchQuery"`
}

// newContinuityAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newContinuityAnalyzer(config *ai.Config) (*ContinuityAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ContinuityAnalyzer{
		client: client,
		logger: slog.Default().With("component", "openai-continuity"),
	}, nil
}

// NewContinuityAnalyzer creates a new continuity analyzer using the provided configuration.
//
// Returns ai.ContinuityAnalyzer interface to enforce abstraction.
func NewContinuityAnalyzer(config *ai.Config) (ai.ContinuityAnalyzer, error) {
	return newContinuityAnalyzer(config)
}

// Analyze decides whether message continues the previous exchange and derives
// the retrieval query. The previous exchange is replayed to the model as
// conversation turns so it judges continuity in place, not from a transcript
// pasted into one prompt.
func (a *ContinuityAnalyzer) Analyze(ctx context.Context, prevUser, prevAssistant, message string) (ai.Continuity, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(continuityPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prevUser)},
		},
		{
			Role:  llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{llms.TextPart(prevAssistant)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(message)},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result continuityResult
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.1), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.Continuity{}, classifyError(err)
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return ai.Continuity{SearchQuery: message}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing continuity response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse continuity response after retries", "err", lastErr)
		return ai.Continuity{}, lastErr
	}

	if strings.TrimSpace(result.SearchQuery) == "" {
		result.SearchQuery = message
	}

	a.logger.Debug("analyzed continuity",
		"followUp", result.IsFollowUp,
		"explanation", result.Explanation)

	return ai.Continuity{
		IsFollowUp:  result.IsFollowUp,
		SearchQuery: result.SearchQuery,
		Explanation: result.Explanation,
	}, nil
}
