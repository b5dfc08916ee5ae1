package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hosttab/hosttab/internal/cache"
	"github.com/hosttab/hosttab/internal/classify"
	"github.com/hosttab/hosttab/internal/llm"
	"github.com/hosttab/hosttab/internal/location"
	"github.com/hosttab/hosttab/internal/model"
)

var (
	classifyEvents   string
	classifyRules    string
	classifyPrior    string
	classifyFamilies string
	classifyOut      string
	classifyRulesOut string
	classifyWorkers  int
	classifyForce    bool
	classifyNoCache  bool
	classifyTimeout  time.Duration
	llmProvider      string
	llmModel         string
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify calendar events into hosting records",
	Long: `Classify runs normalized calendar events through the rule pipeline:
- Rules are evaluated priority-descending; exclusion rules can veto
- Events no rule decides can fall back to an LLM suggestion
- Everything undecidable lands in an explicit needs-review list
- Prior manual classifications stick unless --force is given

Example:
  hosttab classify --events events.json --rules rules.json
  hosttab classify --events events.json --rules rules.json --prior classified.json
  hosttab classify --events events.json --rules rules.json --llm openai --llm-model gpt-4o-mini`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyEvents, "events", "", "normalized calendar events file (JSON or YAML)")
	classifyCmd.Flags().StringVar(&classifyRules, "rules", "", "classification rules file (JSON or YAML)")
	classifyCmd.Flags().StringVar(&classifyPrior, "prior", "", "previously classified events file, for stable ids and sticky manual decisions")
	classifyCmd.Flags().StringVar(&classifyFamilies, "families", "", "family roster file used to infer family context (optional)")
	classifyCmd.Flags().StringVar(&classifyOut, "out", "classified.json", `output path for the batch result ("-" for stdout)`)
	classifyCmd.Flags().StringVar(&classifyRulesOut, "rules-out", "", "write rules with updated match counters to this path")
	classifyCmd.Flags().IntVar(&classifyWorkers, "workers", 0, "parallel classification workers (default: NumCPU)")
	classifyCmd.Flags().BoolVar(&classifyForce, "force", false, "re-evaluate events with prior manual classifications")
	classifyCmd.Flags().BoolVar(&classifyNoCache, "no-cache", false, "disable the LLM suggestion cache")
	classifyCmd.Flags().DurationVar(&classifyTimeout, "timeout", 10*time.Minute, "overall batch timeout")

	// LLM flags
	classifyCmd.Flags().StringVar(&llmProvider, "llm", "", "LLM fallback provider (openai, anthropic, ollama; empty = disabled)")
	classifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")

	_ = classifyCmd.MarkFlagRequired("events")
	_ = classifyCmd.MarkFlagRequired("rules")
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, cancel := context.WithTimeout(context.Background(), classifyTimeout)
	defer cancel()

	cfg := loadConfig()
	if classifyWorkers > 0 {
		cfg.Concurrency.Workers = classifyWorkers
	}
	if classifyNoCache {
		cfg.Cache.Enabled = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if err := resolveAPIKey(&cfg.LLM); err != nil {
		return err
	}

	events, err := loadEvents(classifyEvents)
	if err != nil {
		return err
	}
	rules, err := loadRules(classifyRules)
	if err != nil {
		return err
	}

	var prior []model.HostingEvent
	if classifyPrior != "" {
		if prior, err = loadHostingEvents(classifyPrior); err != nil {
			return err
		}
	}

	var families []familySpec
	if classifyFamilies != "" {
		if err := readInto(classifyFamilies, &families); err != nil {
			return err
		}
	}

	registry := classify.NewRuleRegistry(rules, log)

	suggester, err := buildSuggester(cfg, log)
	if err != nil {
		return err
	}

	pipeline := classify.NewPipeline(registry, classify.Options{
		Resolver:        familyResolver(families),
		Suggester:       suggester,
		FamilyNames:     familyNames(families),
		NegationMode:    cfg.Classify.NegationMode,
		Workers:         cfg.Concurrency.Workers,
		ForceReclassify: classifyForce,
		Logger:          log,
	})

	result := pipeline.ClassifyBatch(ctx, events, prior)

	if err := writeJSON(classifyOut, result); err != nil {
		return err
	}
	if classifyRulesOut != "" {
		if err := writeDoc(classifyRulesOut, registry.Snapshot()); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Classified: %d\n", len(result.Classified))
	fmt.Fprintf(os.Stderr, "Needs review: %d\n", len(result.NeedsReview))
	if len(result.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "Rule warnings: %d (run 'hosttab rules check --rules %s')\n", len(result.Warnings), classifyRules)
	}

	return nil
}

// buildSuggester wires the LLM suggestion service, or returns nil when no
// provider is configured so the pipeline routes unmatched events to review.
func buildSuggester(cfg *model.Config, log zerolog.Logger) (classify.Suggester, error) {
	if cfg.LLM.Provider == "" {
		return nil, nil
	}

	svc, err := llm.NewService(llm.ConfigFromModel(cfg.LLM), suggestionCache(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "LLM fallback: %s\n", svc.ProviderName())
	}
	return svc, nil
}

// resolveAPIKey fills the provider API key from the environment
func resolveAPIKey(cfg *model.LLMConfig) error {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.BaseURL == "" {
			cfg.BaseURL = baseURL
		}
	}
	return nil
}

// familySpec is the roster file entry: who belongs to a family and where
// they live, enough to infer family context when no rule pins it down.
type familySpec struct {
	ID           string               `json:"id" yaml:"id"`
	Name         string               `json:"name" yaml:"name"`
	MemberEmails []string             `json:"member_emails,omitempty" yaml:"member_emails,omitempty"`
	Members      []model.FamilyMember `json:"members,omitempty" yaml:"members,omitempty"`
	Addresses    []model.Address      `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// familyResolver infers family context from the roster: an attendee email
// belonging to a family, or an event location matching a saved address.
// Families are tried in file order; the first hit wins.
func familyResolver(families []familySpec) classify.FamilyResolver {
	if len(families) == 0 {
		return nil
	}
	return classify.FamilyResolverFunc(func(event model.NormalizedCalendarEvent) (string, bool) {
		for _, fam := range families {
			for _, email := range fam.MemberEmails {
				for _, attendee := range event.Attendees {
					if strings.EqualFold(attendee, email) {
						return fam.ID, true
					}
				}
			}
			for _, addr := range fam.Addresses {
				if location.MatchesAddress(event.Location, addr.FullAddress) {
					return fam.ID, true
				}
			}
		}
		return "", false
	})
}

func familyNames(families []familySpec) map[string]string {
	if len(families) == 0 {
		return nil
	}
	names := make(map[string]string, len(families))
	for _, fam := range families {
		names[fam.ID] = fam.Name
	}
	return names
}

// suggestionCache builds the layered suggestion cache under the cache dir
func suggestionCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dir = home + "/.hosttab/cache"
	}
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	return cache.NewLayeredCache(ttl, dir, ttl)
}
