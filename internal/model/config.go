package model

import "runtime"

// Config is the full application configuration.
// Values are layered: flags > environment (HOSTTAB_*) > config file > defaults.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Classify    ClassifyConfig    `yaml:"classify"`
	Stats       StatsConfig       `yaml:"stats"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig configures the fallback suggestion provider
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "ollama", "" (disabled)
	Provider string `yaml:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model"`

	// APIKey for OpenAI/Anthropic (usually from env, not the config file)
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout for a single suggestion request, in seconds
	Timeout int `yaml:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens"`

	// RequestsPerSecond caps the suggestion call rate per provider endpoint
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// Proxy settings for the hand-rolled HTTP providers
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// CacheConfig configures suggestion caching
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir for the persistent layer (default ~/.hosttab/cache)
	Dir string `yaml:"dir,omitempty"`

	// TTLHours for cached suggestions
	TTLHours int `yaml:"ttl_hours"`
}

// ConcurrencyConfig bounds parallel batch classification
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// NegationMode selects how exclusion rules interact with priorities
type NegationMode string

const (
	// NegationPriority: a matching negative rule vetoes classification when
	// its priority is at or above the best matching positive rule's priority.
	NegationPriority NegationMode = "priority"

	// NegationAbsolute: any matching negative rule vetoes regardless of priority.
	NegationAbsolute NegationMode = "absolute"
)

// ClassifyConfig tunes pipeline behavior
type ClassifyConfig struct {
	NegationMode NegationMode `yaml:"negation_mode"`
}

// StatsConfig tunes hosting-balance derivation
type StatsConfig struct {
	// OverdueThresholdDays: days since the family last hosted before
	// the status flips to overdue
	OverdueThresholdDays int `yaml:"overdue_threshold_days"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "", // disabled by default
			Timeout:           30,
			MaxTokens:         300,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTLHours: 24 * 7,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Classify: ClassifyConfig{
			NegationMode: NegationPriority,
		},
		Stats: StatsConfig{
			OverdueThresholdDays: 180,
		},
		Output: OutputConfig{},
	}
}
