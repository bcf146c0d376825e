package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/expenselens/receipt-engine/internal/common"
	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/fallback"
	"github.com/expenselens/receipt-engine/internal/heuristic"
	"github.com/expenselens/receipt-engine/internal/recognize"
	"github.com/expenselens/receipt-engine/internal/scan"
	"github.com/expenselens/receipt-engine/internal/vendor"
	"github.com/expenselens/receipt-engine/internal/vendorparse"
)

// Quality gate floors. A specialized parse below any of these goes to
// fallback even when it nominally succeeded.
const (
	minMathConsistency     = 50.0
	minDetectionConfidence = 0.4
)

// Processor orchestrates the full extraction pipeline for one receipt:
// scan, recognize, heuristic baseline, vendor detection, specialized parse,
// quality gate, fallback.
type Processor struct {
	cfg        common.PipelineConfig
	scanner    *scan.Scanner
	recognizer recognize.Recognizer
	parser     *heuristic.Parser
	detector   *vendor.Detector
	agent      *vendorparse.Agent
	fb         *fallback.Manager
	cache      *resultCache
	logger     *slog.Logger
}

func NewProcessor(
	cfg common.PipelineConfig,
	scanner *scan.Scanner,
	recognizer recognize.Recognizer,
	parser *heuristic.Parser,
	detector *vendor.Detector,
	agent *vendorparse.Agent,
	fb *fallback.Manager,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:        cfg,
		scanner:    scanner,
		recognizer: recognizer,
		parser:     parser,
		detector:   detector,
		agent:      agent,
		fb:         fb,
		cache:      newResultCache(cfg.CacheSize),
		logger:     logger,
	}
}

// Process runs the pipeline on one raw document. contentType may be empty;
// the decoder sniffs the format. Identical inputs are served from cache.
func (p *Processor) Process(ctx context.Context, data []byte, contentType string) (*Result, error) {
	start := time.Now()
	fp := Fingerprint(data)

	if cached, ok := p.cache.Get(fp); ok {
		p.logger.Info("pipeline.cache_hit", "fingerprint", fp[:12])
		hit := *cached
		hit.FromCache = true
		return &hit, nil
	}

	res := &Result{ID: uuid.New().String(), Fingerprint: fp}
	ctx = common.WithRequestID(ctx, res.ID)
	p.logger.Info("pipeline.start", "id", res.ID, "bytes", len(data), "content_type", contentType)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	// decode + scan
	pngBytes, err := p.scanStage(ctx, res, data, contentType)
	if err != nil {
		return res, err
	}

	var final entity.ExtractedReceiptData
	var quality *entity.ParseQuality
	det := vendor.Detection{Type: vendor.TypeUnknown}

	// recognize; adapter outages are not terminal, the recovery ladder can
	// re-drive recognition from the scanned image
	rec, recErr := p.recognizeStage(ctx, res, pngBytes)
	if recErr != nil {
		if !p.cfg.EnableFallbacks || p.fb == nil {
			return res, recErr
		}
		res.warn("recognition failed: " + recErr.Error())
		fc := p.newFallbackContext("", pngBytes, det, nil, false)
		fc.PriorErrors = []string{recErr.Error()}
		recovered, rerr := p.fallbackStage(ctx, res, fc)
		if rerr != nil {
			return res, rerr
		}
		final = recovered
		res.RawText = fc.RawText // backfilled when a strategy re-recognized
	} else {
		res.RawText = rec.Text

		// heuristic baseline always runs; it is free and anchors fallback
		baseline := p.baselineStage(res, rec)

		// vendor detection
		if p.cfg.EnableVendorDetection && p.detector != nil {
			stageStart := time.Now()
			det = p.detector.Detect(rec.Text)
			res.addStage(StageResult{
				Name:       "vendor-detect",
				Success:    true,
				Confidence: det.Confidence * 100,
				Duration:   time.Since(stageStart),
				Detail:     string(det.Type),
			})
		}

		// specialized parse
		final = baseline

		if p.cfg.EnableSpecializedParsing && p.agent != nil && p.agent.HasCollaborator() {
			parseRes := p.specializedStage(ctx, res, rec.Text, pngBytes, det)
			if ok, reason := p.qualityGate(parseRes, det); ok {
				final = parseRes.Data.Data
				q := parseRes.Data.Quality
				quality = &q
				if p.cfg.CompareBaseline {
					b := baseline
					res.Baseline = &b
				}
			} else {
				res.warn("specialized parse rejected: " + reason)
				gateReason := reason
				if ok, reason := p.baselineAcceptable(baseline); !ok {
					res.warn("baseline rejected: " + reason)
					fc := p.newFallbackContext(rec.Text, pngBytes, det, &baseline, true)
					fc.PriorResults = []entity.AgentResult[entity.ExtractedReceiptData]{flattenParse(parseRes)}
					fc.PriorErrors = []string{gateReason, reason}
					recovered, rerr := p.fallbackStage(ctx, res, fc)
					if rerr != nil {
						return res, rerr
					}
					final = recovered
				}
			}
		} else if ok, reason := p.baselineAcceptable(baseline); !ok {
			res.warn("baseline rejected: " + reason)
			if p.cfg.EnableFallbacks && p.fb != nil {
				fc := p.newFallbackContext(rec.Text, pngBytes, det, &baseline, true)
				fc.PriorErrors = []string{reason}
				recovered, rerr := p.fallbackStage(ctx, res, fc)
				if rerr != nil {
					return res, rerr
				}
				final = recovered
			}
		}
	}

	if quality == nil {
		q := vendorparse.AssessQuality(&final, det.Confidence)
		quality = &q
	}

	res.Data = final
	res.Quality = quality
	res.Duration = time.Since(start)

	if res.TotalCost > p.cfg.CostThresholdPerReceipt {
		res.warn(fmt.Sprintf("cost %.4f exceeded per-receipt threshold %.4f", res.TotalCost, p.cfg.CostThresholdPerReceipt))
		p.logger.Warn("pipeline.budget_exceeded",
			"id", res.ID, "cost", res.TotalCost, "threshold", p.cfg.CostThresholdPerReceipt)
	}

	p.logger.Info("pipeline.done",
		"id", res.ID,
		"vendor", res.Data.Vendor,
		"total", res.Data.TotalAmount,
		"confidence", res.Data.Confidence,
		"quality", quality.OverallScore,
		"cost", res.TotalCost,
		"used_fallback", res.UsedFallback,
		"elapsed_ms", res.Duration.Milliseconds(),
	)

	p.cache.Put(fp, res)
	return res, nil
}

func (p *Processor) scanStage(ctx context.Context, res *Result, data []byte, contentType string) ([]byte, error) {
	stageStart := time.Now()

	img, err := scan.Decode(data, contentType)
	if err != nil {
		res.addStage(StageResult{Name: "scan", Duration: time.Since(stageStart), Error: err.Error()})
		return nil, err // decode failure is terminal
	}

	scanned, err := p.scanner.Scan(ctx, img)
	if err != nil {
		res.addStage(StageResult{Name: "scan", Duration: time.Since(stageStart), Error: err.Error()})
		return nil, common.WrapError(err, "scan")
	}
	res.Warnings = append(res.Warnings, scanned.Warnings...)

	pngBytes, err := scan.EncodePNG(scanned.Image)
	if err != nil {
		res.addStage(StageResult{Name: "scan", Duration: time.Since(stageStart), Error: err.Error()})
		return nil, common.WrapError(err, "encode scan output")
	}

	res.addStage(StageResult{
		Name:     "scan",
		Success:  true,
		Duration: time.Since(stageStart),
		Detail:   fmt.Sprintf("cropped=%t warped=%t", scanned.Cropped, scanned.Warped),
	})
	return pngBytes, nil
}

func (p *Processor) recognizeStage(ctx context.Context, res *Result, pngBytes []byte) (recognize.Recognition, error) {
	stageStart := time.Now()
	rec, err := runStage(ctx, 0, func(c context.Context) (recognize.Recognition, error) {
		return p.recognizer.Recognize(c, pngBytes)
	})
	if err != nil {
		res.addStage(StageResult{Name: "recognize", Duration: time.Since(stageStart), Error: err.Error()})
		return rec, common.WrapError(err, "recognize")
	}
	res.Warnings = append(res.Warnings, rec.Warnings...)
	res.addStage(StageResult{
		Name:       "recognize",
		Success:    true,
		Confidence: rec.Confidence,
		Duration:   time.Since(stageStart),
	})
	return rec, nil
}

func (p *Processor) baselineStage(res *Result, rec recognize.Recognition) entity.ExtractedReceiptData {
	stageStart := time.Now()
	baseline := p.parser.Parse(rec.Text, rec.Confidence)
	res.addStage(StageResult{
		Name:       "heuristic",
		Success:    true,
		Confidence: baseline.Confidence,
		Duration:   time.Since(stageStart),
	})
	return baseline
}

func (p *Processor) specializedStage(ctx context.Context, res *Result, rawText string, pngBytes []byte, det vendor.Detection) entity.AgentResult[vendorparse.ParseOutcome] {
	parseRes := p.agent.Parse(ctx, rawText, pngBytes, det)
	res.addStage(StageResult{
		Name:       "vendor-parse",
		Success:    parseRes.Success,
		Confidence: parseRes.Confidence,
		Cost:       parseRes.Cost,
		Duration:   parseRes.ProcessingTime,
		Error:      parseRes.Error,
	})
	return parseRes
}

// qualityGate decides whether a specialized parse is good enough to become
// the final record.
func (p *Processor) qualityGate(parseRes entity.AgentResult[vendorparse.ParseOutcome], det vendor.Detection) (bool, string) {
	if !parseRes.Success {
		return false, parseRes.Error
	}
	q := parseRes.Data.Quality
	if q.OverallScore < p.cfg.QualityThreshold*100 {
		return false, fmt.Sprintf("overall score %.1f below threshold %.1f", q.OverallScore, p.cfg.QualityThreshold*100)
	}
	if q.MathConsistency < minMathConsistency {
		return false, fmt.Sprintf("math consistency %.1f too low", q.MathConsistency)
	}
	if det.Confidence < minDetectionConfidence && !det.FallbackToGeneric {
		return false, fmt.Sprintf("detection confidence %.2f too low", det.Confidence)
	}
	return true, ""
}

// baselineAcceptable mirrors the fallback acceptance bar for the free path.
func (p *Processor) baselineAcceptable(data entity.ExtractedReceiptData) (bool, string) {
	if !data.HasVendor() {
		return false, "no vendor"
	}
	if data.TotalAmount <= 0 {
		return false, "no total"
	}
	if data.Confidence < 30 {
		return false, fmt.Sprintf("confidence %.1f below floor", data.Confidence)
	}
	return true, ""
}

func (p *Processor) newFallbackContext(rawText string, pngBytes []byte, det vendor.Detection, baseline *entity.ExtractedReceiptData, baselineTried bool) *fallback.Context {
	return &fallback.Context{
		RawText:         rawText,
		ImagePNG:        pngBytes,
		Detection:       det,
		Baseline:        baseline,
		BaselineTried:   baselineTried,
		HasCollaborator: p.agent != nil && p.agent.HasCollaborator(),
		Recognizer:      p.recognizer,
	}
}

// flattenParse strips the quality envelope so a rejected specialized parse can
// enter the fallback ledger as a plain attempt.
func flattenParse(r entity.AgentResult[vendorparse.ParseOutcome]) entity.AgentResult[entity.ExtractedReceiptData] {
	return entity.AgentResult[entity.ExtractedReceiptData]{
		Success:        r.Success,
		Data:           r.Data.Data,
		Error:          r.Error,
		Confidence:     r.Confidence,
		ProcessingTime: r.ProcessingTime,
		Cost:           r.Cost,
		AgentName:      r.AgentName,
		Metadata:       r.Metadata,
	}
}

func (p *Processor) fallbackStage(ctx context.Context, res *Result, fc *fallback.Context) (entity.ExtractedReceiptData, error) {
	if !p.cfg.EnableFallbacks || p.fb == nil {
		res.warn("fallbacks disabled; keeping best-effort baseline")
		if fc.Baseline != nil {
			return *fc.Baseline, nil
		}
		return entity.ExtractedReceiptData{}, nil
	}

	stageStart := time.Now()
	fc.AccumulatedCost = res.TotalCost

	out, err := p.fb.Recover(ctx, fc)
	res.UsedFallback = true
	res.Strategies = out.Attempted
	res.addStage(StageResult{
		Name:       "fallback",
		Success:    err == nil,
		Confidence: out.Result.Confidence,
		Cost:       out.TotalCost,
		Duration:   time.Since(stageStart),
		Detail:     out.Result.AgentName,
	})
	if err != nil {
		return entity.ExtractedReceiptData{}, err
	}
	return out.Result.Data, nil
}
