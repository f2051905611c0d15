// Package config builds the startup configuration from flags, environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/receipt-ocr/internal/logger"
)

// EnvVarPrefix prefixes every flag's environment variable, e.g.
// RECEIPT_OCR_PORT.
const EnvVarPrefix = "RECEIPT_OCR"

// Scanner backends
const (
	ScannerMistral   = "mistral"
	ScannerGemini    = "gemini"
	ScannerOllama    = "ollama"
	ScannerTesseract = "tesseract"
	ScannerVision    = "vision"
)

// Config holds everything main needs to wire the server
type Config struct {
	Port    int
	Scanner string

	MistralKey   string
	MistralModel string
	MistralURL   string

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string

	TesseractLanguages []string

	VisionCredentials string

	MaxUploadBytes  int64
	CORSOrigins     []string
	CORSCredentials bool

	LogLevel  string
	LogFormat string

	ShowVersion bool

	// Args are the positional arguments left after flag parsing
	Args []string
}

// LoadEnv loads a .env file into the process environment. A missing file is
// not an error.
func LoadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// NewFlagSet declares every flag and returns a function that turns the
// parsed flags into a Config.
func NewFlagSet() (*ff.FlagSet, func() *Config) {
	flags := ff.NewFlagSet("receipt-ocr")
	var (
		port            = flags.IntLong("port", 8000, "HTTP server port")
		scanner         = flags.StringLong("scanner", ScannerMistral, "OCR backend: mistral, gemini, ollama, tesseract or vision")
		mistralKey      = flags.StringLong("mistral-key", "", "Mistral API key (or set MISTRAL_API_KEY env var)")
		mistralModel    = flags.StringLong("mistral-model", "mistral-ocr-latest", "Mistral OCR model name")
		mistralURL      = flags.StringLong("mistral-url", "https://api.mistral.ai", "Mistral API base URL")
		geminiKey       = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = flags.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL       = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = flags.StringLong("ollama-model", "llava", "Ollama vision model name")
		tesseractLang   = flags.StringLong("tesseract-lang", "fra,eng", "Comma separated Tesseract languages")
		visionCreds     = flags.StringLong("vision-credentials", "", "Google Cloud credentials file for the vision scanner (default: application default credentials)")
		maxUploadMB     = flags.IntLong("max-upload-mb", 10, "Maximum upload size in megabytes")
		corsOrigins     = flags.StringLong("cors-origins", "*", "Comma separated list of allowed CORS origins")
		corsCredentials = flags.BoolLong("cors-credentials", "Allow credentials on CORS requests")
		logLevel        = flags.StringLong("log-level", "info", "Log level: trace, debug, info, warn, error")
		logFormat       = flags.StringLong("log-format", "console", "Log format: console or json")
		showVersion     = flags.BoolLong("version", "Show version information")
	)

	return flags, func() *Config {
		return &Config{
			Port:               *port,
			Scanner:            strings.ToLower(strings.TrimSpace(*scanner)),
			MistralKey:         firstNonEmpty(*mistralKey, os.Getenv("MISTRAL_API_KEY")),
			MistralModel:       *mistralModel,
			MistralURL:         strings.TrimSuffix(*mistralURL, "/"),
			GeminiKey:          firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY")),
			GeminiModel:        *geminiModel,
			OllamaURL:          strings.TrimSuffix(*ollamaURL, "/"),
			OllamaModel:        *ollamaModel,
			TesseractLanguages: splitList(*tesseractLang),
			VisionCredentials:  *visionCreds,
			MaxUploadBytes:     int64(*maxUploadMB) << 20,
			CORSOrigins:        splitList(*corsOrigins),
			CORSCredentials:    *corsCredentials,
			LogLevel:           *logLevel,
			LogFormat:          *logFormat,
			ShowVersion:        *showVersion,
			Args:               flags.GetArgs(),
		}
	}
}

// Parse parses args and the environment into a validated Config
func Parse(args []string) (*Config, error) {
	flags, build := NewFlagSet()
	if err := ff.Parse(flags, args, ff.WithEnvVarPrefix(EnvVarPrefix)); err != nil {
		return nil, err
	}

	cfg := build()
	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected scanner has what it needs
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	switch c.Scanner {
	case ScannerMistral:
		if c.MistralKey == "" {
			return fmt.Errorf("mistral API key is required. Set --mistral-key flag or MISTRAL_API_KEY environment variable")
		}
	case ScannerGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
		}
	case ScannerOllama, ScannerVision:
	case ScannerTesseract:
		if len(c.TesseractLanguages) == 0 {
			return fmt.Errorf("at least one tesseract language is required")
		}
	default:
		return fmt.Errorf("invalid scanner type %q", c.Scanner)
	}
	return nil
}

// LoggerConfig returns the logger configuration from the main config
func (c *Config) LoggerConfig() logger.LogConfig {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
