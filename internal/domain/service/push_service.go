package service

import "context"

type PushPayload struct {
	Title string
	Body  string
	Data  map[string]any
}

// DispatchResult counts outcomes per distinct token. InvalidTokens lists
// tokens the provider reported as no longer registered.
type DispatchResult struct {
	SuccessCount  int      `json:"success_count"`
	FailureCount  int      `json:"failure_count"`
	InvalidTokens []string `json:"invalid_tokens,omitempty"`
}

// PushDispatcher never returns an error: failures are folded into the counts.
type PushDispatcher interface {
	Dispatch(ctx context.Context, tokens []string, payload PushPayload) DispatchResult
}
