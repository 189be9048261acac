package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// Defaults mirror the values the service has always run with.
const (
	DefaultClientSecretFile = "gcp.json"
	DefaultBedrockModelID   = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	DefaultBedrockRegion    = "us-east-1"
	DefaultOpenAIModel      = "gpt-4o"
	DefaultTemperature      = 0.5
	DefaultTopP             = 1.0
	DefaultTopK             = 250
	DefaultMaxTokens        = 500
	DefaultMaxMessages      = 10
	DefaultCookedLabel      = "cooked"
	DefaultCookieMaxAge     = 3600
)

// ErrUnknownProvider is returned by Validate for an unsupported LLM_PROVIDER.
var ErrUnknownProvider = errors.New("unknown llm provider")

// Config holds everything a single invocation needs.
type Config struct {
	// ClientSecretFile is the OAuth app descriptor downloaded from the
	// Google Cloud console.
	ClientSecretFile string

	// LLMProvider selects the completion backend ("bedrock" or "openai").
	LLMProvider string

	BedrockModelID string
	BedrockRegion  string

	OpenAIAPIKey string
	OpenAIModel  string

	// Sampling parameters sent with every completion request.
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int

	// MaxMessages caps how many messages are fetched per invocation.
	MaxMessages int

	// CookedLabel marks messages that have already been enriched.
	CookedLabel string

	// CookieMaxAge is the credentials cookie lifetime in seconds.
	CookieMaxAge int

	// CookieMaxAgeFromToken derives the cookie lifetime from the access
	// token expiry instead of CookieMaxAge.
	CookieMaxAgeFromToken bool
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	// A missing .env is the normal case in Lambda.
	_ = godotenv.Load()

	cfg := &Config{
		ClientSecretFile:      clientSecretFile(),
		LLMProvider:           getEnvOrDefault("LLM_PROVIDER", ProviderBedrock),
		BedrockModelID:        getEnvOrDefault("BEDROCK_MODEL_ID", DefaultBedrockModelID),
		BedrockRegion:         getEnvOrDefault("BEDROCK_REGION", DefaultBedrockRegion),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getEnvOrDefault("OPENAI_MODEL", DefaultOpenAIModel),
		Temperature:           getEnvFloatOrDefault("BEDROCK_TEMPERATURE", DefaultTemperature),
		TopP:                  getEnvFloatOrDefault("BEDROCK_TOP_P", DefaultTopP),
		TopK:                  getEnvIntOrDefault("BEDROCK_TOP_K", DefaultTopK),
		MaxTokens:             getEnvIntOrDefault("BEDROCK_MAX_TOKENS", DefaultMaxTokens),
		MaxMessages:           getEnvIntOrDefault("MAX_MESSAGES", DefaultMaxMessages),
		CookedLabel:           getEnvOrDefault("COOKED_LABEL", DefaultCookedLabel),
		CookieMaxAge:          getEnvIntOrDefault("COOKIE_MAX_AGE", DefaultCookieMaxAge),
		CookieMaxAgeFromToken: getEnvBoolOrDefault("COOKIE_MAX_AGE_FROM_TOKEN", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClientSecretFile returns the client secret path from .env or the
// environment without loading or validating the rest of the configuration.
func ClientSecretFile() string {
	_ = godotenv.Load()
	return clientSecretFile()
}

func clientSecretFile() string {
	return getEnvOrDefault("GOOGLE_CLIENT_SECRET_FILE", DefaultClientSecretFile)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderBedrock:
		if c.BedrockModelID == "" {
			return fmt.Errorf("bedrock model id must not be empty")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLMProvider)
	}

	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be between 0.0 and 1.0, got %f", c.TopP)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d", c.TopK)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	// Gmail caps maxResults at 500.
	if c.MaxMessages < 1 || c.MaxMessages > 500 {
		return fmt.Errorf("max messages must be between 1 and 500, got %d", c.MaxMessages)
	}
	if c.CookedLabel == "" {
		return fmt.Errorf("cooked label must not be empty")
	}
	if c.CookieMaxAge < 0 {
		return fmt.Errorf("cookie max age must not be negative, got %d", c.CookieMaxAge)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
