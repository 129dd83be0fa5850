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


package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/prompt"
	"github.com/sidekick-labs/sidekick/search"
)

// DefaultContextResults bounds how many search results feed the chat
// context. Kept small so answers stay focused on the best material.
const DefaultContextResults = 3

// DefaultPreamble is the system prompt used when none is configured.
const DefaultPreamble = "You are a personal notes assistant. Ground your answers in the " +
	"provided note context and cite notes by their [[title]] when you draw on them. " +
	"If the notes do not cover the question, say so instead of inventing details."

// errStreamStopped signals that the consumer stopped pulling deltas.
var errStreamStopped = errors.New("stream stopped by consumer")

// UserSettings carries per-user strings folded into the system prompt.
type UserSettings struct {
	Memory       string
	PersonalInfo string
}

// memoryContext renders the settings as one memory block.
func (u UserSettings) memoryContext() string {
	switch {
	case u.Memory == "" && u.PersonalInfo == "":
		return ""
	case u.PersonalInfo == "":
		return u.Memory
	case u.Memory == "":
		return "ABOUT THE USER:\n" + u.PersonalInfo
	default:
		return u.Memory + "\n\nABOUT THE USER:\n" + u.PersonalInfo
	}
}

// Service orchestrates grounded conversations: thread bookkeeping,
// continuity analysis, retrieval, prompt assembly and answer streaming.
type Service struct {
	searcher       *search.Searcher
	assembler      *prompt.Assembler
	chat           ai.ChatModel
	analyzer       ai.ContinuityAnalyzer
	threads        *ThreadStore
	preamble       string
	contextResults int
	logger         *slog.Logger

	mu       sync.RWMutex
	settings map[string]UserSettings
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPreamble replaces the default system prompt.
func WithPreamble(preamble string) Option {
	return func(s *Service) error {
		if preamble != "" {
			s.preamble = preamble
		}
		return nil
	}
}

// WithContextResults sets how many search results feed the chat context.
func WithContextResults(n int) Option {
	return func(s *Service) error {
		if n > 0 {
			s.contextResults = n
		}
		return nil
	}
}

// NewService creates a chat service.
func NewService(
	searcher *search.Searcher,
	assembler *prompt.Assembler,
	provider ai.AIProvider,
	opts ...Option,
) (*Service, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if assembler == nil {
		return nil, ErrAssemblerRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Service{
		searcher:       searcher,
		assembler:      assembler,
		chat:           provider.ChatModel(),
		analyzer:       provider.ContinuityAnalyzer(),
		threads:        NewThreadStore(),
		preamble:       DefaultPreamble,
		contextResults: DefaultContextResults,
		logger:         slog.Default(),
		settings:       make(map[string]UserSettings),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CreateThread starts a new conversation thread for the user.
func (s *Service) CreateThread(userID, title string) Thread {
	return s.threads.Create(userID, title)
}

// GetThread returns a snapshot of one of the user's threads.
func (s *Service) GetThread(threadID uuid.UUID, userID string) (Thread, error) {
	return s.threads.Get(threadID, userID)
}

// ListThreads returns the user's threads, most recently updated first.
func (s *Service) ListThreads(userID string) []Thread {
	return s.threads.List(userID)
}

// DeleteThread removes one of the user's threads.
func (s *Service) DeleteThread(threadID uuid.UUID, userID string) error {
	return s.threads.Delete(threadID, userID)
}

// SetUserSettings stores the user's memory and personal info strings.
func (s *Service) SetUserSettings(userID string, settings UserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = settings
}

// UserSettingsFor returns the user's settings, zero-valued when unset.
func (s *Service) UserSettingsFor(userID string) UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[userID]
}

// Ask answers a message grounded in the user's notes, streaming the answer
// as a lazy sequence of text deltas. Iteration may be abandoned at any point
// to cancel the stream. Pass uuid.Nil as threadID for a stateless exchange;
// with a thread, the turn is recorded and the previous exchange informs the
// retrieval query.
func (s *Service) Ask(ctx context.Context, userID string, threadID uuid.UUID, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if strings.TrimSpace(message) == "" {
			yield("", ErrEmptyMessage)
			return
		}

		searchQuery := s.resolveQuery(ctx, userID, threadID, message)

		results, err := s.searcher.Search(ctx, userID, searchQuery, s.contextResults)
		if err != nil {
			yield("", err)
			return
		}

		tail := s.conversationTail(threadID, userID)
		settings := s.UserSettingsFor(userID)
		messages, sources := s.assembler.BuildMessages(results, s.preamble, settings.memoryContext(), tail, message)

		s.record(threadID, userID, Message{Role: core.RoleUser, Content: message})

		stopped := false
		full, err := s.chat.Stream(ctx, messages, func(delta string) error {
			if !yield(delta, nil) {
				stopped = true
				return errStreamStopped
			}
			return nil
		})
		if err != nil && !stopped {
			s.logger.Error("completion stream failed", "err", err)
			yield("", err)
			return
		}

		// Record whatever the model produced, even a partial answer from an
		// abandoned stream, so the thread reflects what the user saw.
		if full != "" {
			s.record(threadID, userID, Message{Role: core.RoleAssistant, Content: full, Sources: sources})
		}
	}
}

// resolveQuery decides what to search for. With enough thread history the
// continuity analyzer may enrich a follow-up question with context from the
// previous exchange; any analysis failure degrades to the raw message.
func (s *Service) resolveQuery(ctx context.Context, userID string, threadID uuid.UUID, message string) string {
	if threadID == uuid.Nil {
		return message
	}
	thread, err := s.threads.Get(threadID, userID)
	if err != nil || len(thread.Messages) < 2 {
		return message
	}

	prevUser, prevAssistant, ok := lastExchange(thread.Messages)
	if !ok {
		return message
	}

	continuity, err := s.analyzer.Analyze(ctx, prevUser, prevAssistant, message)
	if err != nil {
		s.logger.Warn("continuity analysis failed, treating as new topic", "err", err)
		return message
	}
	if continuity.IsFollowUp && continuity.SearchQuery != "" {
		s.logger.Debug("follow-up detected, enriched retrieval query",
			"explanation", continuity.Explanation)
		return continuity.SearchQuery
	}
	return message
}

// lastExchange returns the most recent user/assistant pair, which must be
// the two latest messages of the thread.
func lastExchange(messages []Message) (string, string, bool) {
	if len(messages) < 2 {
		return "", "", false
	}
	user := messages[len(messages)-2]
	assistant := messages[len(messages)-1]
	if user.Role != core.RoleUser || assistant.Role != core.RoleAssistant {
		return "", "", false
	}
	return user.Content, assistant.Content, true
}

// conversationTail maps the thread history into provider messages.
func (s *Service) conversationTail(threadID uuid.UUID, userID string) []core.Message {
	if threadID == uuid.Nil {
		return nil
	}
	thread, err := s.threads.Get(threadID, userID)
	if err != nil {
		return nil
	}

	tail := make([]core.Message, len(thread.Messages))
	for i, message := range thread.Messages {
		tail[i] = core.Message{Role: message.Role, Content: message.Content}
	}
	return tail
}

// record appends a turn to the thread. Thread bookkeeping is best-effort;
// a missing thread never interrupts the exchange.
func (s *Service) record(threadID uuid.UUID, userID string, message Message) {
	if threadID == uuid.Nil {
		return
	}
	if err := s.threads.Append(threadID, userID, message); err != nil {
		s.logger.Warn("could not record message on thread", "threadId", threadID, "err", err)
	}
}
