package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hosttab/hosttab/internal/classify"
)

var (
	feedbackRules     string
	feedbackRuleID    string
	feedbackCorrect   bool
	feedbackIncorrect bool
	feedbackOut       string
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record whether a rule's classification was correct",
	Long: `Feedback updates a rule's effectiveness counters from your review of
an auto-rule classification. Counters only ever increase; feedback for
unknown rules or rules that never fired is ignored with a warning.

Example:
  hosttab feedback --rules rules.json --rule r-grandma --correct
  hosttab feedback --rules rules.json --rule r-grandma --incorrect`,
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().StringVar(&feedbackRules, "rules", "", "classification rules file (JSON or YAML)")
	feedbackCmd.Flags().StringVar(&feedbackRuleID, "rule", "", "id of the rule that made the classification")
	feedbackCmd.Flags().BoolVar(&feedbackCorrect, "correct", false, "the classification was correct")
	feedbackCmd.Flags().BoolVar(&feedbackIncorrect, "incorrect", false, "the classification was wrong")
	feedbackCmd.Flags().StringVar(&feedbackOut, "out", "", "output path for updated rules (default: rewrite --rules in place)")

	_ = feedbackCmd.MarkFlagRequired("rules")
	_ = feedbackCmd.MarkFlagRequired("rule")
	feedbackCmd.MarkFlagsMutuallyExclusive("correct", "incorrect")
	feedbackCmd.MarkFlagsOneRequired("correct", "incorrect")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	log := newLogger()

	rules, err := loadRules(feedbackRules)
	if err != nil {
		return err
	}

	registry := classify.NewRuleRegistry(rules, log)
	registry.RecordOutcome(feedbackRuleID, feedbackCorrect)

	rule, ok := registry.Get(feedbackRuleID)
	if !ok {
		return fmt.Errorf("unknown rule %q", feedbackRuleID)
	}

	out := feedbackOut
	if out == "" {
		out = feedbackRules
	}
	if err := writeDoc(out, registry.Snapshot()); err != nil {
		return err
	}

	fmt.Printf("%s: %d/%d correct (effectiveness %.2f)\n",
		rule.ID, rule.CorrectCount, rule.MatchCount, rule.Effectiveness())
	return nil
}
