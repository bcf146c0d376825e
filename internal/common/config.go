package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Pipeline  PipelineConfig
	Scan      ScanConfig
	Recognize RecognizeConfig
	LLM       LLMConfig
	Heuristic HeuristicConfig
}

// PipelineConfig holds orchestrator-level configuration
type PipelineConfig struct {
	CostThresholdPerReceipt float64
	QualityThreshold        float64 // 0..1
	MaxRetries              int
	Timeout                 time.Duration
	EnableVendorDetection   bool
	EnableSpecializedParsing bool
	EnableFallbacks         bool
	MaxFallbackAttempts     int
	MaxTotalFallbackCost    float64
	CompareBaseline         bool
	CacheSize               int
}

// ScanConfig holds document scanner configuration
type ScanConfig struct {
	EnableEnhancedPreprocessing bool
	MaxMegapixels               float64
}

// RecognizeConfig holds recognition adapter configuration
type RecognizeConfig struct {
	Tesseract           string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang       string // default "eng"
	TessdataDir         string
	EnableTSVConfidence bool
	PSM                 int // e.g., 6 is good for uniform block of text
	OEM                 int // 1 = LSTM; leave 0 to use default
}

// LLMConfig holds text/vision-understanding collaborator configuration
type LLMConfig struct {
	Provider      string // "gemini" | "openai" | ""
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Temperature   float32
	Timeout       time.Duration
	CostPerCall   float64
}

// HeuristicConfig holds rule-based parser configuration
type HeuristicConfig struct {
	SimilarityThreshold   float64 // line-item dedup, default 0.8
	FallbackMinConfidence float64 // fallback acceptance floor, default 30
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			CostThresholdPerReceipt:  getEnvAsFloat64("COST_THRESHOLD_PER_RECEIPT", 0.10),
			QualityThreshold:         getEnvAsFloat64("QUALITY_THRESHOLD", 0.7),
			MaxRetries:               getEnvAsInt("MAX_RETRIES", 2),
			Timeout:                  getEnvAsDuration("TIMEOUT_MS", 30*time.Second),
			EnableVendorDetection:    getEnvAsBool("ENABLE_VENDOR_DETECTION", true),
			EnableSpecializedParsing: getEnvAsBool("ENABLE_SPECIALIZED_PARSING", true),
			EnableFallbacks:          getEnvAsBool("ENABLE_FALLBACKS", true),
			MaxFallbackAttempts:      getEnvAsInt("MAX_FALLBACK_ATTEMPTS", 3),
			MaxTotalFallbackCost:     getEnvAsFloat64("MAX_TOTAL_FALLBACK_COST", 0.50),
			CompareBaseline:          getEnvAsBool("COMPARE_BASELINE", false),
			CacheSize:                getEnvAsInt("RESULT_CACHE_SIZE", 128),
		},
		Scan: ScanConfig{
			EnableEnhancedPreprocessing: getEnvAsBool("ENABLE_ENHANCED_PREPROCESSING", true),
			MaxMegapixels:               getEnvAsFloat64("SCAN_MAX_MEGAPIXELS", 2.0),
		},
		Recognize: RecognizeConfig{
			Tesseract:           getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang:       getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			EnableTSVConfidence: getEnvAsBool("TESSERACT_TSV_CONFIDENCE", true),
			PSM:                 getEnvAsInt("TESSERACT_PSM", 0),
			OEM:                 getEnvAsInt("TESSERACT_OEM", 0),
		},
		LLM: LLMConfig{
			Provider:      getEnv("LLM_PROVIDER", ""),
			Model:         getEnv("LLM_MODEL", ""),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			CostPerCall:   getEnvAsFloat64("LLM_COST_PER_CALL", 0.01),
		},
		Heuristic: HeuristicConfig{
			SimilarityThreshold:   getEnvAsFloat64("SIMILARITY_THRESHOLD", 0.8),
			FallbackMinConfidence: getEnvAsFloat64("FALLBACK_MIN_CONFIDENCE", 30),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// accept bare milliseconds for *_MS style keys
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "QUALITY_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Pipeline.MaxFallbackAttempts < 0 {
		return NewAppError("CONFIG_ERROR", "MAX_FALLBACK_ATTEMPTS must be >= 0", ErrInvalidInput)
	}
	if c.Pipeline.MaxTotalFallbackCost < 0 {
		return NewAppError("CONFIG_ERROR", "MAX_TOTAL_FALLBACK_COST must be >= 0", ErrInvalidInput)
	}
	if c.Heuristic.SimilarityThreshold <= 0 || c.Heuristic.SimilarityThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "SIMILARITY_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	return nil
}
