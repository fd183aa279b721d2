package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigFile names an optional YAML file read before the environment.
	EnvConfigFile = "TOOLDECK_CONFIG"

	// EnvMaxFileBytes is the environment variable name for the upload size limit.
	EnvMaxFileBytes = "TOOLDECK_MAX_FILE_BYTES"

	// EnvMaxAttachmentBytes limits each email attachment.
	EnvMaxAttachmentBytes = "TOOLDECK_MAX_ATTACHMENT_BYTES"

	EnvPort         = "PORT"
	EnvFrontendURL  = "FRONTEND_URL"
	EnvHistoryLimit = "TOOLDECK_HISTORY_LIMIT"
	EnvMaxSessions  = "TOOLDECK_MAX_SESSIONS"
	EnvSessionTTL   = "TOOLDECK_SESSION_TTL"
	EnvOutputDir    = "TOOLDECK_OUTPUT_DIR"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGeminiModel  = "GEMINI_MODEL"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvEmailUser    = "EMAIL_USER"
	EnvEmailPass    = "EMAIL_PASS"

	// DefaultMaxFileBytes is the default maximum accepted upload size (50 MiB).
	DefaultMaxFileBytes int64 = 50 << 20

	// DefaultMaxAttachmentBytes matches the 10 MiB per-file upload limit of the email form.
	DefaultMaxAttachmentBytes int64 = 10 << 20

	DefaultPort         = 5000
	DefaultFrontendURL  = "http://localhost:3000"
	DefaultHistoryLimit = 20
	DefaultMaxSessions  = 64
	DefaultSessionTTL   = 30 * time.Minute
	DefaultGeminiModel  = "gemini-1.5-pro"
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587
)

// ConversionDefaults seeds the per-session conversion settings.
type ConversionDefaults struct {
	ImageQuality     float64 `yaml:"image_quality"`
	Scale            float64 `yaml:"scale"`
	CompressionLevel int     `yaml:"compression_level"`
	DPI              float64 `yaml:"dpi"`
}

// Config holds runtime configuration sourced from an optional YAML file and
// environment variables.
type Config struct {
	Port               int                `yaml:"port"`
	FrontendURL        string             `yaml:"frontend_url"`
	MaxFileSizeBytes   int64              `yaml:"max_file_bytes"`
	MaxAttachmentBytes int64              `yaml:"max_attachment_bytes"`
	HistoryLimit       int                `yaml:"history_limit"`
	MaxSessions        int                `yaml:"max_sessions"`
	SessionTTL         time.Duration      `yaml:"session_ttl"`
	OutputDir          string             `yaml:"output_dir"`
	GeminiAPIKey       string             `yaml:"gemini_api_key"`
	GeminiModel        string             `yaml:"gemini_model"`
	SMTPHost           string             `yaml:"smtp_host"`
	SMTPPort           int                `yaml:"smtp_port"`
	EmailUser          string             `yaml:"email_user"`
	EmailPass          string             `yaml:"email_pass"`
	Defaults           ConversionDefaults `yaml:"defaults"`
}

// MaxFileSizeMB returns the configured limit in whole megabytes.
func (c *Config) MaxFileSizeMB() int64 {
	return c.MaxFileSizeBytes >> 20
}

// HasGemini reports whether an AI key is configured.
func (c *Config) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

// HasSMTP reports whether SMTP credentials are configured.
func (c *Config) HasSMTP() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}

// Default returns a Config with every field at its default.
func Default() *Config {
	return &Config{
		Port:               DefaultPort,
		FrontendURL:        DefaultFrontendURL,
		MaxFileSizeBytes:   DefaultMaxFileBytes,
		MaxAttachmentBytes: DefaultMaxAttachmentBytes,
		HistoryLimit:       DefaultHistoryLimit,
		MaxSessions:        DefaultMaxSessions,
		SessionTTL:         DefaultSessionTTL,
		GeminiModel:        DefaultGeminiModel,
		SMTPHost:           DefaultSMTPHost,
		SMTPPort:           DefaultSMTPPort,
		Defaults: ConversionDefaults{
			ImageQuality:     0.92,
			Scale:            1.0,
			CompressionLevel: 6,
			DPI:              72,
		},
	}
}

// Load reads Config from the YAML file named by TOOLDECK_CONFIG (if any) and
// then from environment variables, falling back to defaults for missing or
// invalid values. Only an unreadable or malformed config file is an error.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()
	cfg.sanitize()
	return cfg, nil
}

// MustLoad is Load for callers that cannot continue without configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	envInt64(EnvMaxFileBytes, &c.MaxFileSizeBytes)
	envInt64(EnvMaxAttachmentBytes, &c.MaxAttachmentBytes)
	envInt(EnvPort, &c.Port)
	envInt(EnvHistoryLimit, &c.HistoryLimit)
	envInt(EnvMaxSessions, &c.MaxSessions)
	envInt(EnvSMTPPort, &c.SMTPPort)
	envString(EnvFrontendURL, &c.FrontendURL)
	envString(EnvOutputDir, &c.OutputDir)
	envString(EnvGeminiAPIKey, &c.GeminiAPIKey)
	envString(EnvGeminiModel, &c.GeminiModel)
	envString(EnvSMTPHost, &c.SMTPHost)
	envString(EnvEmailUser, &c.EmailUser)
	envString(EnvEmailPass, &c.EmailPass)
	if v := os.Getenv(EnvSessionTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.SessionTTL = d
		}
	}
}

// sanitize restores defaults for values a YAML file set out of range.
func (c *Config) sanitize() {
	def := Default()
	if c.MaxFileSizeBytes <= 0 {
		c.MaxFileSizeBytes = def.MaxFileSizeBytes
	}
	if c.MaxAttachmentBytes <= 0 {
		c.MaxAttachmentBytes = def.MaxAttachmentBytes
	}
	if c.Port <= 0 {
		c.Port = def.Port
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = def.MaxSessions
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.SMTPPort <= 0 {
		c.SMTPPort = def.SMTPPort
	}
	if c.GeminiModel == "" {
		c.GeminiModel = def.GeminiModel
	}
	if c.SMTPHost == "" {
		c.SMTPHost = def.SMTPHost
	}
	if c.Defaults.Scale <= 0 {
		c.Defaults.Scale = def.Defaults.Scale
	}
	if c.Defaults.DPI <= 0 {
		c.Defaults.DPI = def.Defaults.DPI
	}
	if c.Defaults.ImageQuality <= 0 || c.Defaults.ImageQuality > 1 {
		c.Defaults.ImageQuality = def.Defaults.ImageQuality
	}
}

func envInt64(name string, dst *int64) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
