package vendorparse

import (
	"context"
	"log/slog"
	"time"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/llm"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

const agentName = "vendor-parse"

// ParseOutcome bundles the extraction with its quality assessment.
type ParseOutcome struct {
	Data    entity.ExtractedReceiptData `json:"data"`
	Quality entity.ParseQuality         `json:"quality"`
}

type Config struct {
	AttachImage bool // send the processed scan to vision-capable backends
	MaxRetries  int  // extra collaborator attempts after a transport failure
}

// Agent runs model-backed extraction specialized by the detected vendor type.
// Parse never returns an error: every failure mode lands in the envelope so
// the orchestrator can evaluate fallback uniformly.
type Agent struct {
	cfg          Config
	registry     *vendor.Registry
	collaborator llm.Collaborator
	logger       *slog.Logger
}

func NewAgent(cfg Config, registry *vendor.Registry, collaborator llm.Collaborator, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{cfg: cfg, registry: registry, collaborator: collaborator, logger: logger}
}

// HasCollaborator reports whether a model backend is wired in.
func (a *Agent) HasCollaborator() bool {
	return a.collaborator != nil
}

// Parse extracts structured data using a vendor-specialized prompt.
func (a *Agent) Parse(ctx context.Context, rawText string, imagePNG []byte, det vendor.Detection) entity.AgentResult[ParseOutcome] {
	prompt := BuildPrompt(det, rawText)
	if det.FallbackToGeneric || det.Type == vendor.TypeUnknown {
		prompt = BuildEnhancedGenericPrompt(det, rawText, nil)
	}
	return a.run(ctx, prompt, rawText, imagePNG, det)
}

// ParseEnhancedGeneric forces the evidence-enriched generic prompt regardless
// of classification. Fallback strategies use it for a second opinion and feed
// it the error messages of the attempts that already failed.
func (a *Agent) ParseEnhancedGeneric(ctx context.Context, rawText string, imagePNG []byte, det vendor.Detection, priorErrors []string) entity.AgentResult[ParseOutcome] {
	return a.run(ctx, BuildEnhancedGenericPrompt(det, rawText, priorErrors), rawText, imagePNG, det)
}

func (a *Agent) run(ctx context.Context, prompt, rawText string, imagePNG []byte, det vendor.Detection) entity.AgentResult[ParseOutcome] {
	start := time.Now()

	if a.collaborator == nil {
		return entity.Failure[ParseOutcome](agentName, "no model backend configured", time.Since(start))
	}

	req := llm.CompletionRequest{Prompt: prompt}
	if a.cfg.AttachImage {
		req.ImagePNG = imagePNG
	}

	var res llm.CompletionResult
	var err error
	cost := 0.0
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		res, err = a.collaborator.Complete(ctx, req)
		cost += res.Cost
		if err == nil || ctx.Err() != nil {
			break
		}
		if attempt < a.cfg.MaxRetries {
			a.logger.Warn("vendorparse.complete.retry",
				"backend", a.collaborator.Name(),
				"attempt", attempt+1,
				"error", err,
			)
		}
	}
	if err != nil {
		a.logger.Warn("vendorparse.complete.error",
			"backend", a.collaborator.Name(),
			"vendor_type", string(det.Type),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		out := entity.Failure[ParseOutcome](agentName, err.Error(), time.Since(start))
		out.Cost = cost
		return out
	}

	raw := []byte(llm.StripFences(res.Text))
	cleaned, _, err := llm.NormalizeAndSanitizeJSON(raw, a.logger)
	if err != nil {
		out := entity.Failure[ParseOutcome](agentName, "malformed model reply: "+err.Error(), time.Since(start))
		out.Cost = cost
		return out
	}

	schema := llm.BuildReceiptJSONSchema(constants.AsStringSlice())
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		a.logger.Warn("vendorparse.validate.error",
			"vendor_type", string(det.Type), "error", err)
		out := entity.Failure[ParseOutcome](agentName, "schema validation: "+err.Error(), time.Since(start))
		out.Cost = cost
		return out
	}

	data, err := CoerceReceipt(cleaned)
	if err != nil {
		out := entity.Failure[ParseOutcome](agentName, err.Error(), time.Since(start))
		out.Cost = cost
		return out
	}

	pattern, _ := a.registry.Lookup(det.Type)
	postProcess(&data, pattern)

	quality := AssessQuality(&data, det.Confidence)

	a.logger.Info("vendorparse.parse.ok",
		"backend", a.collaborator.Name(),
		"vendor_type", string(det.Type),
		"items", len(data.LineItems),
		"quality", quality.OverallScore,
		"cost", cost,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return entity.AgentResult[ParseOutcome]{
		Success:        true,
		Data:           ParseOutcome{Data: data, Quality: quality},
		Confidence:     data.Confidence,
		ProcessingTime: time.Since(start),
		Cost:           cost,
		AgentName:      agentName,
		Metadata: map[string]any{
			"vendor_type": string(det.Type),
			"backend":     a.collaborator.Name(),
		},
	}
}
