package services

import (
	"context"

	"github.com/averyhale/saga-engine/pkg/chat"
)

// GenerateRequest is one text-generation call. Prefill seeds the
// assistant's reply (the opening-brace trick used to coerce strict JSON
// on retry); UseBackend selects the cheaper model for non-narrative
// calls when one is configured.
type GenerateRequest struct {
	Messages   []chat.ChatMessage
	Prefill    string
	MaxTokens  int
	UseBackend bool
}

// GenerateResponse carries the text and whether generation was cut off
// by the length limit. Truncated responses go through salvage, never
// straight to the player.
type GenerateResponse struct {
	Text      string
	Truncated bool
}

// LLMService is the interface for text-generation providers.
type LLMService interface {
	// Generate performs one completion. Transient upstream failures
	// return a retryable error; see RetryPolicy.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsReady reports whether the provider can take calls.
	IsReady(ctx context.Context) error
}
