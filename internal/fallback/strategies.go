package fallback

import (
	"context"
	"time"

	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/heuristic"
	"github.com/expenselens/receipt-engine/internal/vendorparse"
)

// DefaultStrategies builds the standard recovery ladder. Order of escalation:
// re-run recognition plus the rule parser, ask the model for a second opinion
// with the prior failures inlined, scrape a minimal record, and finally merge
// whatever partial fields earlier attempts produced.
func DefaultStrategies(parser *heuristic.Parser, agent *vendorparse.Agent) []Strategy {
	return []Strategy{
		{
			Name:     "heuristic-retry",
			Priority: 1,
			CanHandle: func(fc *Context) bool {
				if parser == nil {
					return false
				}
				if !fc.BaselineTried {
					return true
				}
				// the baseline already ran and was rejected; retrying only
				// helps when recognition itself failed and can be re-driven
				return fc.RawText == "" && fc.Recognizer != nil && len(fc.ImagePNG) > 0
			},
			Run: func(ctx context.Context, fc *Context) entity.AgentResult[entity.ExtractedReceiptData] {
				start := time.Now()
				text := fc.RawText
				recConf := 0.0
				if text == "" && fc.Recognizer != nil && len(fc.ImagePNG) > 0 {
					rec, err := fc.Recognizer.Recognize(ctx, fc.ImagePNG)
					if err != nil {
						return entity.Failure[entity.ExtractedReceiptData]("heuristic-retry", "recognition retry: "+err.Error(), time.Since(start))
					}
					text = rec.Text
					recConf = rec.Confidence
					fc.RawText = text // later strategies reuse the recovered text
				}
				data := parser.Parse(text, recConf)
				return entity.AgentResult[entity.ExtractedReceiptData]{
					Success:        true,
					Data:           data,
					Confidence:     data.Confidence,
					ProcessingTime: time.Since(start),
					AgentName:      "heuristic-retry",
				}
			},
		},
		{
			Name:          "enhanced-generic",
			Priority:      2,
			EstimatedCost: estimatedCost(agent),
			CanHandle: func(fc *Context) bool {
				return fc.HasCollaborator && agent != nil
			},
			Run: func(ctx context.Context, fc *Context) entity.AgentResult[entity.ExtractedReceiptData] {
				res := agent.ParseEnhancedGeneric(ctx, fc.RawText, fc.ImagePNG, fc.Detection, fc.PriorErrors)
				out := entity.AgentResult[entity.ExtractedReceiptData]{
					Success:        res.Success,
					Data:           res.Data.Data,
					Error:          res.Error,
					Confidence:     res.Confidence,
					ProcessingTime: res.ProcessingTime,
					Cost:           res.Cost,
					AgentName:      "enhanced-generic",
					Metadata:       res.Metadata,
				}
				return out
			},
		},
		{
			Name:     "pattern-extraction",
			Priority: 3,
			Run: func(_ context.Context, fc *Context) entity.AgentResult[entity.ExtractedReceiptData] {
				return PatternExtract(fc.RawText)
			},
		},
		{
			Name:     "partial-merge",
			Priority: 4,
			CanHandle: func(fc *Context) bool {
				return fc.Baseline != nil || len(fc.PriorResults) > 0
			},
			Run: func(_ context.Context, fc *Context) entity.AgentResult[entity.ExtractedReceiptData] {
				return MergePartials(fc)
			},
		},
	}
}

func estimatedCost(agent *vendorparse.Agent) float64 {
	if agent == nil {
		return 0
	}
	// the ladder is built before any call happens, so use a flat estimate
	return 0.05
}
