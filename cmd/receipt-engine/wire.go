package main

import (
	"context"
	"log/slog"

	"github.com/expenselens/receipt-engine/internal/common"
	"github.com/expenselens/receipt-engine/internal/fallback"
	"github.com/expenselens/receipt-engine/internal/heuristic"
	"github.com/expenselens/receipt-engine/internal/llm"
	"github.com/expenselens/receipt-engine/internal/llm/gemini"
	"github.com/expenselens/receipt-engine/internal/llm/openai"
	"github.com/expenselens/receipt-engine/internal/pipeline"
	"github.com/expenselens/receipt-engine/internal/recognize"
	"github.com/expenselens/receipt-engine/internal/scan"
	"github.com/expenselens/receipt-engine/internal/vendor"
	"github.com/expenselens/receipt-engine/internal/vendorparse"
)

// buildProcessor wires the full pipeline from environment configuration.
// A missing model backend degrades gracefully to heuristics plus fallback.
func buildProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scanner := scan.NewScanner(scan.Config{
		EnhancedPreprocessing: cfg.Scan.EnableEnhancedPreprocessing,
		MaxMegapixels:         cfg.Scan.MaxMegapixels,
	}, logger)

	recognizer := recognize.NewTesseract(recognize.Config{
		Tesseract:           cfg.Recognize.Tesseract,
		TesseractLang:       cfg.Recognize.TesseractLang,
		TessdataDir:         cfg.Recognize.TessdataDir,
		EnableTSVConfidence: cfg.Recognize.EnableTSVConfidence,
		PSM:                 cfg.Recognize.PSM,
		OEM:                 cfg.Recognize.OEM,
	}, logger)

	registry := vendor.NewRegistry()
	parser := heuristic.NewParser(heuristic.Config{
		SimilarityThreshold: cfg.Heuristic.SimilarityThreshold,
	}, registry, logger)
	detector := vendor.NewDetector(registry, logger)

	collaborator, err := buildCollaborator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	agent := vendorparse.NewAgent(vendorparse.Config{
		AttachImage: true,
		MaxRetries:  cfg.Pipeline.MaxRetries,
	}, registry, collaborator, logger)

	fb := fallback.NewManager(fallback.Config{
		MaxAttempts:   cfg.Pipeline.MaxFallbackAttempts,
		MaxTotalCost:  cfg.Pipeline.MaxTotalFallbackCost,
		MinConfidence: cfg.Heuristic.FallbackMinConfidence,
	}, fallback.DefaultStrategies(parser, agent), logger)

	return pipeline.NewProcessor(cfg.Pipeline, scanner, recognizer, parser, detector, agent, fb, logger), nil
}

func buildCollaborator(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.Collaborator, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.LLM.GeminiAPIKey,
			Model:       cfg.LLM.Model,
			CostPerCall: cfg.LLM.CostPerCall,
		}, logger)
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.OpenAIAPIKey,
			BaseURL:     cfg.LLM.OpenAIBaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			CostPerCall: cfg.LLM.CostPerCall,
		}, logger), nil
	case "":
		logger.Info("no model provider configured; running heuristics only")
		return nil, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+cfg.LLM.Provider, common.ErrInvalidInput)
	}
}
