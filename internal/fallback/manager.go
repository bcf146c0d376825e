package fallback

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/expenselens/receipt-engine/internal/common"
	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/recognize"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

// Context carries everything a recovery strategy may need, plus the running
// cost ledger the manager enforces its budget against.
type Context struct {
	RawText         string
	ImagePNG        []byte
	Detection       vendor.Detection
	Baseline        *entity.ExtractedReceiptData // heuristic result, if one exists
	BaselineTried   bool                         // the baseline path already ran and was rejected
	HasCollaborator bool
	AccumulatedCost float64
	Recognizer      recognize.Recognizer // re-drives recognition when RawText is empty

	// Attempt ledger. The orchestrator seeds it with the rejected primary
	// parse; Recover appends every strategy run, failures included, so later
	// strategies can mine earlier partial results and error messages.
	PriorResults []entity.AgentResult[entity.ExtractedReceiptData]
	PriorErrors  []string
}

// Strategy is one recovery path. Strategies are data records; adding one
// means appending to the default set.
type Strategy struct {
	Name          string
	Priority      int // lower runs first
	EstimatedCost float64
	CanHandle     func(fc *Context) bool
	Run           func(ctx context.Context, fc *Context) entity.AgentResult[entity.ExtractedReceiptData]
}

type Config struct {
	MaxAttempts   int     // default 3
	MaxTotalCost  float64 // default 0.50 USD
	MinConfidence float64 // acceptance floor, default 30
}

// Manager drives prioritized recovery after the primary extraction paths
// produce an unacceptable result.
type Manager struct {
	cfg        Config
	strategies []Strategy
	logger     *slog.Logger
}

func NewManager(cfg Config, strategies []Strategy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxTotalCost <= 0 {
		cfg.MaxTotalCost = 0.50
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 30
	}
	sorted := make([]Strategy, len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	return &Manager{cfg: cfg, strategies: sorted, logger: logger}
}

// Outcome reports the winning result and the attempt trail.
type Outcome struct {
	Result    entity.AgentResult[entity.ExtractedReceiptData]
	Attempted []string
	TotalCost float64
}

// Recover walks the strategies in priority order until one produces an
// acceptable record or the attempt/cost ceilings are hit.
func (m *Manager) Recover(ctx context.Context, fc *Context) (Outcome, error) {
	start := time.Now()
	var out Outcome

	attempts := 0
	for _, s := range m.strategies {
		if attempts >= m.cfg.MaxAttempts {
			m.logger.Warn("fallback.attempts_exhausted", "attempts", attempts)
			break
		}
		if s.CanHandle != nil && !s.CanHandle(fc) {
			continue
		}
		if fc.AccumulatedCost+s.EstimatedCost > m.cfg.MaxTotalCost {
			m.logger.Warn("fallback.budget_skip",
				"strategy", s.Name,
				"estimated_cost", s.EstimatedCost,
				"accumulated_cost", fc.AccumulatedCost,
				"max_total_cost", m.cfg.MaxTotalCost,
			)
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		attempts++
		out.Attempted = append(out.Attempted, s.Name)
		m.logger.Info("fallback.attempt", "strategy", s.Name, "attempt", attempts)

		res := s.Run(ctx, fc)
		fc.AccumulatedCost += res.Cost
		out.TotalCost += res.Cost
		fc.PriorResults = append(fc.PriorResults, res)
		if res.Error != "" {
			fc.PriorErrors = append(fc.PriorErrors, res.Error)
		}

		if m.acceptable(res) {
			m.logger.Info("fallback.recovered",
				"strategy", s.Name,
				"confidence", res.Confidence,
				"total_cost", out.TotalCost,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			out.Result = res
			return out, nil
		}
		m.logger.Warn("fallback.rejected",
			"strategy", s.Name,
			"success", res.Success,
			"confidence", res.Confidence,
			"error", res.Error,
		)
	}

	m.logger.Error("fallback.exhausted",
		"attempted", out.Attempted,
		"total_cost", out.TotalCost,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, common.ErrAllStrategiesExhausted
}

// acceptable requires a successful run that found a real vendor, a positive
// total, and confidence at or above the floor.
func (m *Manager) acceptable(res entity.AgentResult[entity.ExtractedReceiptData]) bool {
	return res.Success &&
		res.Confidence >= m.cfg.MinConfidence &&
		res.Data.HasVendor() &&
		res.Data.TotalAmount > 0
}
