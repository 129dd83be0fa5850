package mock

import (
	"context"

	"github.com/sidekick-labs/sidekick/ai"
)

// MockContinuityAnalyzer is a test double for ai.ContinuityAnalyzer.
// It allows custom behavior injection via function fields.
type MockContinuityAnalyzer struct {
	// AnalyzeFunc is called by Analyze if set.
	// If nil, every message is treated as a new topic.
	AnalyzeFunc func(ctx context.Context, prevUser, prevAssistant, message string) (ai.Continuity, error)

	callCount int
}

// NewMockContinuityAnalyzer creates a mock analyzer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnalyzer().
func NewMockContinuityAnalyzer() *MockContinuityAnalyzer {
	return &MockContinuityAnalyzer{}
}

// Analyze treats the message as a new topic unless a custom function is set.
func (m *MockContinuityAnalyzer) Analyze(ctx context.Context, prevUser, prevAssistant, message string) (ai.Continuity, error) {
	m.callCount++

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, prevUser, prevAssistant, message)
	}

	return ai.Continuity{
		IsFollowUp:  false,
		SearchQuery: message,
		Explanation: "mock: new topic",
	}, nil
}

// CallCount returns the number of times Analyze was called.
func (m *MockContinuityAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockContinuityAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeFunc = nil
}
