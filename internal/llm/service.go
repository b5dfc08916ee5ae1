package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hosttab/hosttab/internal/cache"
	"github.com/hosttab/hosttab/internal/model"
	"github.com/hosttab/hosttab/internal/worker"
)

// Service wraps a provider with rate limiting and suggestion caching.
// It satisfies the pipeline's Suggester contract. A Service with a nil
// provider is disabled: every call reports that, and the pipeline routes
// the event to manual review.
type Service struct {
	provider Provider
	limiter  *worker.Limiter
	cache    cache.Cache
	config   Config
	log      zerolog.Logger
}

// NewService creates a suggestion service. The cache may be nil to
// disable caching.
func NewService(config Config, suggestionCache cache.Cache, log zerolog.Logger) (*Service, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Service{
		provider: provider,
		limiter:  worker.NewLimiter(rps, config.Burst),
		cache:    suggestionCache,
		config:   config,
		log:      log,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Service) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the active provider's name, or "" when disabled
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// cachedSuggestion is the cache entry format for one event's suggestion
type cachedSuggestion struct {
	Category   model.HostingCategory `json:"category"`
	Confidence float64               `json:"confidence"`
	Model      string                `json:"model,omitempty"`
}

// Suggest asks the provider to classify one event no rule matched.
// Identical events hit the cache instead of the API on repeat runs.
func (s *Service) Suggest(ctx context.Context, event model.NormalizedCalendarEvent, rules []model.ClassificationRule) (model.HostingCategory, float64, error) {
	if s.provider == nil {
		return "", 0, fmt.Errorf("llm fallback disabled")
	}

	key := cache.EventKey(event)
	if s.cache != nil {
		if data, found := s.cache.Get(key); found {
			var entry cachedSuggestion
			if err := json.Unmarshal(data, &entry); err == nil {
				s.log.Debug().Str("event_id", event.ID).Msg("suggestion cache hit")
				return entry.Category, entry.Confidence, nil
			}
		}
	}

	if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
		return "", 0, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := s.provider.Complete(ctx, CompletionRequest{
		System:    suggestSystem,
		Prompt:    BuildSuggestPrompt(event, rules),
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return "", 0, err
	}

	category, confidence, err := ParseSuggestion(resp.Text)
	if err != nil {
		return "", 0, fmt.Errorf("%s returned unusable suggestion: %w", s.provider.Name(), err)
	}

	if s.cache != nil {
		entry := cachedSuggestion{Category: category, Confidence: confidence, Model: resp.Model}
		if data, err := json.Marshal(entry); err == nil {
			if err := s.cache.Set(key, data, 0); err != nil {
				s.log.Warn().Err(err).Msg("suggestion cache write failed")
			}
		}
	}

	return category, confidence, nil
}

// SuggestRule proposes a reusable rule from a manually corrected event.
// The proposal is never applied automatically; the caller presents it for
// acceptance.
func (s *Service) SuggestRule(ctx context.Context, event model.NormalizedCalendarEvent, category model.HostingCategory) (*model.RuleSuggestionResponse, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("llm fallback disabled")
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, CompletionRequest{
		System:    ruleSystem,
		Prompt:    BuildRulePrompt(event, category),
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	suggestion, err := ParseRuleSuggestion(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("%s returned unusable rule suggestion: %w", s.provider.Name(), err)
	}
	suggestion.Category = category

	s.log.Debug().
		Str("provider", s.provider.Name()).
		Dur("elapsed", time.Since(start)).
		Int("tokens", resp.TokensUsed).
		Msg("rule suggestion generated")

	return &model.RuleSuggestionResponse{
		Suggestion: *suggestion,
		Provider:   s.provider.Name(),
		Model:      resp.Model,
	}, nil
}
