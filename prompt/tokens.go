package prompt

import (
	"log/slog"
	"math"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sidekick-labs/sidekick/core"
)

const (
	// safetyMargin inflates every estimate to absorb tokenizer drift between
	// this library and the provider's own counting.
	safetyMargin = 1.05

	// messageOverheadTokens is the per-message wrapping cost of the chat
	// format (role markers and separators).
	messageOverheadTokens = 4

	// replyPrimingTokens is the fixed cost of priming the assistant reply.
	replyPrimingTokens = 3

	// fallbackEncoding is used for model names tiktoken does not know.
	fallbackEncoding = "cl100k_base"
)

// A TokenCounter estimates how many tokens a piece of text will occupy in
// the target model's prompt. Estimates are deterministic and monotonic in
// the input length, and err on the high side.
type TokenCounter interface {
	// Count estimates the tokens of a text fragment.
	Count(text string) int

	// CountMessages estimates the tokens of a fully formatted message list,
	// including per-message overhead.
	CountMessages(messages []core.Message) int
}

// NewTokenCounter returns a counter for the given model name. Unknown models
// fall back to the cl100k_base encoding; if the encoding cannot be loaded at
// all, a character-based heuristic counter is returned instead of failing.
func NewTokenCounter(model string) TokenCounter {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		slog.Debug("unknown model for token counting, using fallback encoding", "model", model)
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		slog.Warn("token encoding unavailable, using heuristic counter", "model", model, "err", err)
		return HeuristicCounter{}
	}
	return &encodingCounter{encoding: encoding}
}

type encodingCounter struct {
	encoding *tiktoken.Tiktoken
}

func (c *encodingCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	tokens := len(c.encoding.Encode(text, nil, nil))
	return int(math.Ceil(float64(tokens) * safetyMargin))
}

func (c *encodingCounter) CountMessages(messages []core.Message) int {
	return countMessages(c, messages)
}

// HeuristicCounter estimates tokens from character counts alone, assuming
// three characters per token. That undershoots real tokenizers for English
// prose, which keeps the estimate conservative.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / 3 * safetyMargin))
}

func (h HeuristicCounter) CountMessages(messages []core.Message) int {
	return countMessages(h, messages)
}

func countMessages(counter TokenCounter, messages []core.Message) int {
	total := replyPrimingTokens
	for _, message := range messages {
		total += counter.Count(message.Content) + messageOverheadTokens
	}
	return total
}
