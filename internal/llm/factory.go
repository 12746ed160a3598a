package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/model"
)

// NewProvider creates a provider from configuration. An empty provider
// name disables summaries and returns nil without error.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the runtime configuration to a provider config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig, logger *log.Logger) Config {
	return Config{
		Provider:       llmConfig.Provider,
		Model:          llmConfig.Model,
		APIKey:         llmConfig.APIKey,
		BaseURL:        llmConfig.BaseURL,
		Timeout:        llmConfig.Timeout,
		StrictEvidence: llmConfig.StrictEvidence,
		MaxTokens:      llmConfig.MaxTokens,
		HTTPProxy:      httpConfig.HTTPProxy,
		HTTPSProxy:     httpConfig.HTTPSProxy,
		NoProxy:        httpConfig.NoProxy,
		Logger:         logger,
	}
}

// ApplyEnv fills the API key and base URL from the provider's usual
// environment variables when they are not already set
func ApplyEnv(config *Config) error {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if config.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if config.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return nil
}
