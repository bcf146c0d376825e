package llm

import "context"

// CompletionRequest carries one prompt and an optional receipt image for
// vision-capable backends.
type CompletionRequest struct {
	Prompt   string
	ImagePNG []byte // optional; attached when the backend supports vision
}

// CompletionResult is the raw model output plus the metered cost of the call.
type CompletionResult struct {
	Text string
	Cost float64 // USD
}

// Collaborator is the model backend the parsing agents depend on. Backends
// are interchangeable; the agents only see prompt-in, text-out.
type Collaborator interface {
	Name() string
	CostPerCall() float64
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
