package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hosttab/hosttab/internal/llm"
	"github.com/hosttab/hosttab/internal/match"
	"github.com/hosttab/hosttab/internal/model"
)

var (
	rulesFile       string
	suggestEvent    string
	suggestCategory string
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate classification rules",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a rules file",
	Long: `Check validates every rule in a rules file: patterns must compile,
positive rules need a valid category, and rule ids must be unique.
Invalid rules never abort a classify run (they are skipped with a
warning), so check is the way to find them ahead of time.

Example:
  hosttab rules check --rules rules.json`,
	RunE: runRulesCheck,
}

var rulesSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Ask the LLM to propose a rule from a corrected event",
	Long: `Suggest proposes a reusable classification rule from an event you
classified manually. The proposal (type, pattern, reasoning, potential
false positives) is printed for you to review; it is never applied
automatically.

Example:
  hosttab rules suggest --event event.json --category they-hosted --llm openai`,
	RunE: runRulesSuggest,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesSuggestCmd)

	rulesCheckCmd.Flags().StringVar(&rulesFile, "rules", "", "classification rules file (JSON or YAML)")
	_ = rulesCheckCmd.MarkFlagRequired("rules")

	rulesSuggestCmd.Flags().StringVar(&suggestEvent, "event", "", "calendar event file (JSON or YAML, single event)")
	rulesSuggestCmd.Flags().StringVar(&suggestCategory, "category", "", "the correct category (we-hosted, they-hosted, neutral)")
	rulesSuggestCmd.Flags().StringVar(&llmProvider, "llm", "", "LLM provider (openai, anthropic, ollama)")
	rulesSuggestCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
	_ = rulesSuggestCmd.MarkFlagRequired("event")
	_ = rulesSuggestCmd.MarkFlagRequired("category")
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(rulesFile)
	if err != nil {
		return err
	}

	problems := 0
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.ID == "" {
			problems++
			fmt.Fprintf(os.Stderr, "rule %q: missing id\n", rule.Name)
			continue
		}
		if seen[rule.ID] {
			problems++
			fmt.Fprintf(os.Stderr, "rule %s: duplicate id\n", rule.ID)
		}
		seen[rule.ID] = true

		if err := match.CheckRule(rule); err != nil {
			problems++
			fmt.Fprintf(os.Stderr, "rule %s: %v\n", rule.ID, err)
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d problem(s) in %d rule(s)", problems, len(rules))
	}
	fmt.Printf("%d rule(s) OK\n", len(rules))
	return nil
}

func runRulesSuggest(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := loadConfig()
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if cfg.LLM.Provider == "" {
		return fmt.Errorf("no LLM provider configured (use --llm or set llm.provider)")
	}
	if err := resolveAPIKey(&cfg.LLM); err != nil {
		return err
	}

	var event model.NormalizedCalendarEvent
	if err := readInto(suggestEvent, &event); err != nil {
		return err
	}

	svc, err := llm.NewService(llm.ConfigFromModel(cfg.LLM), nil, log)
	if err != nil {
		return fmt.Errorf("llm setup: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.LLM.Timeout)*time.Second)
	defer cancel()

	resp, err := svc.SuggestRule(ctx, event, model.HostingCategory(suggestCategory))
	if err != nil {
		return err
	}

	if err := writeJSON("-", resp); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nProposal from %s/%s. Review it and add it to your rules file if it fits;\nnothing has been applied.\n", resp.Provider, resp.Model)
	return nil
}
