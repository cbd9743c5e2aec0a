package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the OCR gateway server.
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Azure   AzureDIConfig
	OCR     OCRConfig
	Speech  SpeechConfig
	CORS    CORSConfig
	APIAuth APIAuthConfig
}

type ServerConfig struct {
	Port  int
	Env   string
	Debug bool
}

type RedisConfig struct {
	URL string
}

// AzureDIConfig points at the Document Intelligence "Read" endpoint.
type AzureDIConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	ModelID    string
}

// OCRConfig carries the polling and confidence policy. The authoritative
// values come from deployment configuration, never from embedded constants.
type OCRConfig struct {
	ConfidenceThreshold float64
	PollInterval        time.Duration
	PollMaxInterval     time.Duration
	PollTimeout         time.Duration
}

type SpeechConfig struct {
	Enabled bool
	Key     string
	Region  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// APIAuthConfig holds the optional bcrypt hash of the accepted API key.
// When KeyHash is empty, authentication is disabled.
type APIAuthConfig struct {
	KeyHash string
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:  envInt("OCRGATEWAY_PORT", 8080),
			Env:   envString("OCRGATEWAY_ENV", "development"),
			Debug: envBool("OCRGATEWAY_DEBUG", false),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Azure: AzureDIConfig{
			Endpoint:   os.Getenv("AZURE_DI_ENDPOINT"),
			APIKey:     os.Getenv("AZURE_DI_API_KEY"),
			APIVersion: envString("AZURE_DI_API_VERSION", "2024-11-30"),
			ModelID:    envString("AZURE_DI_MODEL_ID", "prebuilt-read"),
		},
		OCR: OCRConfig{
			ConfidenceThreshold: envFloat("OCR_CONFIDENCE_THRESHOLD", 0.75),
			PollInterval:        envDuration("OCR_POLL_INTERVAL", 2*time.Second),
			PollMaxInterval:     envDuration("OCR_POLL_MAX_INTERVAL", 15*time.Second),
			PollTimeout:         envDuration("OCR_POLL_TIMEOUT", 2*time.Minute),
		},
		Speech: SpeechConfig{
			Enabled: envBool("SPEECH_ENABLED", false),
			Key:     os.Getenv("AZURE_SPEECH_KEY"),
			Region:  os.Getenv("AZURE_SPEECH_REGION"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS",
				[]string{"https://voyadecir.com", "https://www.voyadecir.com"}),
		},
		APIAuth: APIAuthConfig{
			KeyHash: os.Getenv("OCRGATEWAY_API_KEY_HASH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Azure.Endpoint == "" {
		return fmt.Errorf("AZURE_DI_ENDPOINT is required")
	}
	if !strings.HasPrefix(c.Azure.Endpoint, "http://") && !strings.HasPrefix(c.Azure.Endpoint, "https://") {
		return fmt.Errorf("AZURE_DI_ENDPOINT must start with http:// or https://, got %q", c.Azure.Endpoint)
	}
	if c.Azure.APIKey == "" {
		return fmt.Errorf("AZURE_DI_API_KEY is required")
	}

	if c.OCR.ConfidenceThreshold < 0 || c.OCR.ConfidenceThreshold > 1 {
		return fmt.Errorf("OCR_CONFIDENCE_THRESHOLD must be in [0, 1], got %v", c.OCR.ConfidenceThreshold)
	}
	if c.OCR.PollInterval <= 0 {
		return fmt.Errorf("OCR_POLL_INTERVAL must be positive, got %v", c.OCR.PollInterval)
	}
	if c.OCR.PollMaxInterval < c.OCR.PollInterval {
		return fmt.Errorf("OCR_POLL_MAX_INTERVAL must be >= OCR_POLL_INTERVAL, got %v < %v",
			c.OCR.PollMaxInterval, c.OCR.PollInterval)
	}
	if c.OCR.PollTimeout <= 0 {
		return fmt.Errorf("OCR_POLL_TIMEOUT must be positive, got %v", c.OCR.PollTimeout)
	}

	if c.Speech.Enabled {
		if c.Speech.Key == "" {
			return fmt.Errorf("AZURE_SPEECH_KEY is required when SPEECH_ENABLED is true")
		}
		if c.Speech.Region == "" {
			return fmt.Errorf("AZURE_SPEECH_REGION is required when SPEECH_ENABLED is true")
		}
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
