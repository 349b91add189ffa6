package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// UploadConfig holds the document filing tree locations.
type UploadConfig struct {
	BaseDir string `yaml:"baseDir"`
	TempDir string `yaml:"tempDir"`
}

// LLMConfig holds Gemini client settings.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"baseURL"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PipelineConfig holds extraction pipeline switches.
type PipelineConfig struct {
	// UseRegexPrepass fills fields the model left empty from a local
	// regex pass over the extracted text.
	UseRegexPrepass bool `yaml:"useRegexPrepass"`
	Pdftotext       string `yaml:"pdftotext"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads an optional YAML file, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute, // LLM calls are slow and unbounded
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "tax_reply.db"},
		Upload: UploadConfig{
			BaseDir: "./file",
			TempDir: "./file/tmp",
		},
		LLM: LLMConfig{
			Model:       "gemini-1.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Temperature: 0.0,
			Timeout:     2 * time.Minute,
		},
		Pipeline: PipelineConfig{Pdftotext: "pdftotext"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.Addr = getEnv("HTTP_ADDR", cfg.Server.Addr)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Upload.BaseDir = getEnv("UPLOAD_DIR", cfg.Upload.BaseDir)
	cfg.Upload.TempDir = getEnv("UPLOAD_TEMP_DIR", cfg.Upload.TempDir)
	cfg.LLM.APIKey = getEnv("GEMINI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("GEMINI_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("GEMINI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", cfg.LLM.Timeout)
	cfg.Pipeline.UseRegexPrepass = getEnvAsBool("USE_REGEX_PREPASS", cfg.Pipeline.UseRegexPrepass)
	cfg.Pipeline.Pdftotext = getEnv("PDFTOTEXT", cfg.Pipeline.Pdftotext)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError(ErrInvalidInput, 0, "GEMINI_API_KEY is required")
	}
	if c.Upload.BaseDir == "" {
		return NewAppError(ErrInvalidInput, 0, "UPLOAD_DIR is required")
	}
	if c.Database.Path == "" {
		return NewAppError(ErrInvalidInput, 0, "DB_PATH is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
