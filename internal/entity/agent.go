package entity

import "time"

// AgentResult is the uniform envelope every pipeline stage returns. Stages
// convert internal failures into Success=false rather than returning errors,
// so the orchestrator can always evaluate fallback.
type AgentResult[T any] struct {
	Success        bool           `json:"success"`
	Data           T              `json:"data,omitempty"`
	Error          string         `json:"error,omitempty"`
	Confidence     float64        `json:"confidence"` // 0..100
	ProcessingTime time.Duration  `json:"processing_time"`
	Cost           float64        `json:"cost"`
	AgentName      string         `json:"agent_name"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Failure builds a failed envelope with zero confidence.
func Failure[T any](agent, errMsg string, elapsed time.Duration) AgentResult[T] {
	return AgentResult[T]{
		Success:        false,
		Error:          errMsg,
		Confidence:     0,
		ProcessingTime: elapsed,
		AgentName:      agent,
	}
}
