package pipeline

import (
	"time"

	"github.com/expenselens/receipt-engine/internal/entity"
)

// StageResult is one entry in the processing trace.
type StageResult struct {
	Name       string        `json:"name"`
	Success    bool          `json:"success"`
	Confidence float64       `json:"confidence,omitempty"`
	Cost       float64       `json:"cost,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// Result is the full outcome for one receipt.
type Result struct {
	ID          string                      `json:"id"`
	Fingerprint string                      `json:"fingerprint"`
	Data        entity.ExtractedReceiptData `json:"data"`
	Quality     *entity.ParseQuality        `json:"quality,omitempty"`
	RawText     string                      `json:"raw_text,omitempty"`

	Trace        []StageResult `json:"trace"`
	Warnings     []string      `json:"warnings,omitempty"`
	TotalCost    float64       `json:"total_cost"`
	Duration     time.Duration `json:"duration"`
	FromCache    bool          `json:"from_cache"`
	UsedFallback bool          `json:"used_fallback"`
	Strategies   []string      `json:"strategies,omitempty"` // fallback attempt trail

	// Baseline holds the heuristic record when baseline comparison is on and
	// a model path produced the final data.
	Baseline *entity.ExtractedReceiptData `json:"baseline,omitempty"`
}

func (r *Result) addStage(s StageResult) {
	r.Trace = append(r.Trace, s)
	r.TotalCost += s.Cost
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
