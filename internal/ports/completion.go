package ports

import "context"

// CompletionRequest is a single grounded prompt to the language model
type CompletionRequest struct {
	System string
	Prompt string
}

// CompletionClient returns the completion text for a request
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
