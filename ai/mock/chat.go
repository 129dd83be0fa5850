package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/sidekick-labs/sidekick/core"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default canned response behavior.
	CompleteFunc func(ctx context.Context, messages []core.Message) (string, error)

	// StreamFunc is called by Stream if set.
	// If nil, the default response is delivered as word-sized deltas.
	StreamFunc func(ctx context.Context, messages []core.Message, onDelta func(delta string) error) (string, error)

	callCount int
	// Messages records the message slices passed to Complete and Stream,
	// in call order, for test assertions.
	Messages [][]core.Message
}

// NewMockChatModel creates a mock chat model with default canned responses.
// Note: Returns concrete type to allow test assertions via GetMockChatModel().
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete returns a canned response echoing the last user message.
func (m *MockChatModel) Complete(ctx context.Context, messages []core.Message) (string, error) {
	m.callCount++
	m.Messages = append(m.Messages, messages)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}

	return defaultResponse(messages), nil
}

// Stream delivers the default response as word-sized deltas.
func (m *MockChatModel) Stream(ctx context.Context, messages []core.Message, onDelta func(delta string) error) (string, error) {
	m.callCount++
	m.Messages = append(m.Messages, messages)

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages, onDelta)
	}

	response := defaultResponse(messages)
	var sent strings.Builder
	for _, word := range strings.SplitAfter(response, " ") {
		if err := ctx.Err(); err != nil {
			return sent.String(), err
		}
		if err := onDelta(word); err != nil {
			return sent.String(), err
		}
		sent.WriteString(word)
	}
	return sent.String(), nil
}

// CallCount returns the number of times Complete or Stream was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count, recorded messages, and custom functions.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.Messages = nil
	m.CompleteFunc = nil
	m.StreamFunc = nil
}

// defaultResponse produces a deterministic answer referencing the last user turn.
func defaultResponse(messages []core.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleUser {
			return fmt.Sprintf("mock response to: %s", messages[i].Content)
		}
	}
	return "mock response"
}
