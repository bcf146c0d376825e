package vendorparse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenselens/receipt-engine/internal/llm"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

type stubCollaborator struct {
	reply     string
	err       error
	cost      float64
	failFirst int // fail this many calls before succeeding; 0 with err set fails always

	calls      int
	lastPrompt string
	sawImage   bool
}

func (s *stubCollaborator) Name() string         { return "stub" }
func (s *stubCollaborator) CostPerCall() float64 { return s.cost }

func (s *stubCollaborator) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	s.calls++
	s.lastPrompt = req.Prompt
	s.sawImage = len(req.ImagePNG) > 0
	if s.err != nil && (s.failFirst == 0 || s.calls <= s.failFirst) {
		return llm.CompletionResult{Cost: s.cost}, s.err
	}
	return llm.CompletionResult{Text: s.reply, Cost: s.cost}, nil
}

const goodReply = "```json\n" + `{
	"vendor": "Walmart",
	"date": "2024-01-15",
	"total_amount": 0.84,
	"subtotal": 0.78,
	"tax": 0.06,
	"confidence": 88,
	"line_items": [
		{"description": "GREAT VALUE COOKIES", "quantity": 6, "unit_price": 0.13, "total_price": 0.78}
	]
}` + "\n```"

func walmartDetection() vendor.Detection {
	return vendor.Detection{Type: vendor.TypeWalmart, Confidence: 0.9}
}

func TestAgentParseSuccess(t *testing.T) {
	stub := &stubCollaborator{reply: goodReply, cost: 0.02}
	a := NewAgent(Config{}, vendor.NewRegistry(), stub, nil)

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	require.True(t, res.Success)

	assert.Equal(t, "Walmart", res.Data.Data.Vendor)
	assert.Equal(t, 88.0, res.Confidence)
	assert.InDelta(t, 0.02, res.Cost, 1e-9)
	assert.Equal(t, "vendor-parse", res.AgentName)
	assert.Equal(t, "walmart", res.Metadata["vendor_type"])
	assert.Greater(t, res.Data.Quality.OverallScore, 80.0)
}

func TestAgentParseUsesEnhancedPromptForGeneric(t *testing.T) {
	stub := &stubCollaborator{reply: goodReply}
	a := NewAgent(Config{}, vendor.NewRegistry(), stub, nil)

	det := vendor.Detection{Type: vendor.TypeGeneric, Confidence: 0.2, FallbackToGeneric: true,
		Evidence: []string{"price pattern hit"}}
	res := a.Parse(context.Background(), "raw text", nil, det)
	require.True(t, res.Success)
	assert.Contains(t, stub.lastPrompt, "price pattern hit")
}

func TestAgentRetriesTransportFailures(t *testing.T) {
	stub := &stubCollaborator{reply: goodReply, err: errors.New("rate limited"), failFirst: 1, cost: 0.02}
	a := NewAgent(Config{MaxRetries: 2}, vendor.NewRegistry(), stub, nil)

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	require.True(t, res.Success)
	assert.Equal(t, 2, stub.calls)
	assert.InDelta(t, 0.04, res.Cost, 1e-9) // both attempts bill
}

func TestAgentRetriesExhaustedStillFails(t *testing.T) {
	stub := &stubCollaborator{err: errors.New("rate limited"), cost: 0.01}
	a := NewAgent(Config{MaxRetries: 2}, vendor.NewRegistry(), stub, nil)

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	assert.False(t, res.Success)
	assert.Equal(t, 3, stub.calls)
	assert.InDelta(t, 0.03, res.Cost, 1e-9)
}

func TestParseEnhancedGenericInjectsPriorErrors(t *testing.T) {
	stub := &stubCollaborator{reply: goodReply}
	a := NewAgent(Config{}, vendor.NewRegistry(), stub, nil)

	det := vendor.Detection{Type: vendor.TypeGeneric, Confidence: 0.2}
	res := a.ParseEnhancedGeneric(context.Background(), "raw text", nil, det,
		[]string{"math consistency 20.0 too low"})
	require.True(t, res.Success)
	assert.Contains(t, stub.lastPrompt, "math consistency 20.0 too low")
}

func TestAgentCompleteFailureIsEnvelope(t *testing.T) {
	stub := &stubCollaborator{err: errors.New("rate limited"), cost: 0.02}
	a := NewAgent(Config{}, vendor.NewRegistry(), stub, nil)

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "rate limited")
	assert.InDelta(t, 0.02, res.Cost, 1e-9) // failed calls still bill
	assert.Zero(t, res.Confidence)
}

func TestAgentRejectsNonSchemaReply(t *testing.T) {
	stub := &stubCollaborator{reply: `{"total_amount": 1}`} // vendor missing
	a := NewAgent(Config{}, vendor.NewRegistry(), stub, nil)

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "schema validation")
}

func TestAgentRejectsProseReply(t *testing.T) {
	stub := &stubCollaborator{reply: "I could not read this receipt, sorry."}
	a := NewAgent(Config{}, vendor.NewRegistry(), stub, nil)

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	assert.False(t, res.Success)
}

func TestAgentWithoutCollaborator(t *testing.T) {
	a := NewAgent(Config{}, vendor.NewRegistry(), nil, nil)
	assert.False(t, a.HasCollaborator())

	res := a.Parse(context.Background(), "raw text", nil, walmartDetection())
	assert.False(t, res.Success)
}

func TestAgentAttachesImageWhenConfigured(t *testing.T) {
	stub := &stubCollaborator{reply: goodReply}
	a := NewAgent(Config{AttachImage: true}, vendor.NewRegistry(), stub, nil)

	a.Parse(context.Background(), "raw text", []byte("png-bytes"), walmartDetection())
	assert.True(t, stub.sawImage)

	stub2 := &stubCollaborator{reply: goodReply}
	a2 := NewAgent(Config{}, vendor.NewRegistry(), stub2, nil)
	a2.Parse(context.Background(), "raw text", []byte("png-bytes"), walmartDetection())
	assert.False(t, stub2.sawImage)
}
