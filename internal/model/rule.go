package model

// RuleType selects which event field a classification rule inspects
// and how the pattern is interpreted
type RuleType string

const (
	RuleTitleRegex       RuleType = "title_regex"       // case-insensitive regex over the title
	RuleDescriptionRegex RuleType = "description_regex" // case-insensitive regex over the description
	RuleLocationExact    RuleType = "location_exact"    // normalized-location equality
	RuleLocationRegex    RuleType = "location_regex"    // case-insensitive regex over the location
	RuleAttendeeEmail    RuleType = "attendee_email"    // exact (case-insensitive) attendee email
)

// HostingCategory is the classification outcome for a gathering
type HostingCategory string

const (
	CategoryTheyHosted HostingCategory = "they-hosted"
	CategoryWeHosted   HostingCategory = "we-hosted"
	CategoryNeutral    HostingCategory = "neutral"
)

// Valid reports whether c is one of the three known categories
func (c HostingCategory) Valid() bool {
	switch c {
	case CategoryTheyHosted, CategoryWeHosted, CategoryNeutral:
		return true
	}
	return false
}

// ClassificationRule is a user-authored matching rule. Rules are evaluated
// in descending priority order; a negative rule suppresses classification
// rather than assigning a category.
type ClassificationRule struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Type       RuleType        `json:"type" yaml:"type"`
	Pattern    string          `json:"pattern" yaml:"pattern"`
	FamilyID   string          `json:"family_id,omitempty" yaml:"family_id,omitempty"` // empty = applies to any family
	Category   HostingCategory `json:"category" yaml:"category"`
	IsNegative bool            `json:"is_negative" yaml:"is_negative"` // exclusion rule: a match vetoes classification
	Priority   int             `json:"priority" yaml:"priority"`       // higher evaluated first
	Enabled    bool            `json:"enabled" yaml:"enabled"`

	// Effectiveness counters, mutated only by the rule registry.
	// Invariant: CorrectCount <= MatchCount.
	MatchCount   int `json:"match_count" yaml:"match_count"`
	CorrectCount int `json:"correct_count" yaml:"correct_count"`

	// Example strings fed to the LLM as few-shot context. The matcher
	// itself never reads these.
	PositiveExamples []string `json:"positive_examples,omitempty" yaml:"positive_examples,omitempty"`
	NegativeExamples []string `json:"negative_examples,omitempty" yaml:"negative_examples,omitempty"`
}

// Effectiveness returns the confirmed-correct ratio for a rule,
// or 0 if the rule has never fired
func (r *ClassificationRule) Effectiveness() float64 {
	if r.MatchCount == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.MatchCount)
}

// RuleSuggestion is an LLM-proposed classification rule. Suggestions are
// never applied automatically; they are surfaced for user acceptance.
type RuleSuggestion struct {
	Type                    RuleType        `json:"type"`
	Pattern                 string          `json:"pattern"`
	Name                    string          `json:"name"`
	Reasoning               string          `json:"reasoning"`
	Confidence              float64         `json:"confidence"`
	PotentialFalsePositives []string        `json:"potential_false_positives,omitempty"`
	Category                HostingCategory `json:"category"`
	FamilyID                string          `json:"family_id,omitempty"`
}

// RuleSuggestionResponse wraps a suggestion with provenance
type RuleSuggestionResponse struct {
	Suggestion RuleSuggestion `json:"suggestion"`
	Provider   string         `json:"provider,omitempty"`
	Model      string         `json:"model,omitempty"`
}
