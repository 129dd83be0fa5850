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
	"log/slog"
	"strings"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client llms.Model
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
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

	return &ChatModel{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Complete generates a full response for the given messages.
func (m *ChatModel) Complete(ctx context.Context, messages []core.Message) (string, error) {
	m.logger.Debug("generating completion", "messages", len(messages))

	response, err := m.client.GenerateContent(ctx, toContent(messages), llms.WithTemperature(0.7))
	if err != nil {
		m.logger.Error("failed to generate completion", "err", err)
		return "", classifyError(err)
	}
	if len(response.Choices) < 1 {
		m.logger.Warn("no choices returned from model")
		return "", nil
	}
	return response.Choices[0].Content, nil
}

// Stream generates a response, invoking onDelta for each text chunk as it
// arrives. The accumulated response is returned on success.
func (m *ChatModel) Stream(ctx context.Context, messages []core.Message, onDelta func(delta string) error) (string, error) {
	m.logger.Debug("streaming completion", "messages", len(messages))

	var full strings.Builder
	_, err := m.client.GenerateContent(ctx, toContent(messages),
		llms.WithTemperature(0.7),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			delta := string(chunk)
			full.WriteString(delta)
			return onDelta(delta)
		}),
	)
	if err != nil {
		m.logger.Error("failed to stream completion", "err", err)
		return full.String(), classifyError(err)
	}
	return full.String(), nil
}

// toContent converts conversation messages to the langchaingo wire form.
func toContent(messages []core.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case core.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case core.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}
	return content
}
