package main

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/expenselens/receipt-engine/internal/common"
)

func TestApplyConfigFileBridgesToEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// register cleanup, then clear so the file value is observable
	t.Setenv("QUALITY_THRESHOLD", "")
	_ = os.Unsetenv("QUALITY_THRESHOLD")
	t.Setenv("LLM_PROVIDER", "gemini")

	viper.Set("quality_threshold", 0.9)
	viper.Set("llm_provider", "openai")

	applyConfigFile()

	assert.Equal(t, "0.9", os.Getenv("QUALITY_THRESHOLD"))
	// explicit environment wins over the file
	assert.Equal(t, "gemini", os.Getenv("LLM_PROVIDER"))

	cfg := common.LoadConfig()
	assert.InDelta(t, 0.9, cfg.Pipeline.QualityThreshold, 1e-9)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}
