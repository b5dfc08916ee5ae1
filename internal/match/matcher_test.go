package match

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/hosttab/hosttab/internal/model"
)

func testEvent() model.NormalizedCalendarEvent {
	return model.NormalizedCalendarEvent{
		ID:          "ev-1",
		Source:      model.SourceGoogle,
		Title:       "Dinner at Grandma's",
		Description: "Annual birthday dinner for the kids",
		Location:    "123 Oak St",
		StartDate:   "2026-03-14",
		Attendees:   []string{"grandma@x.com", "Uncle.Bob@x.com"},
	}
}

func enabledRule(ruleType model.RuleType, pattern string) model.ClassificationRule {
	return model.ClassificationRule{
		ID:       "r-1",
		Type:     ruleType,
		Pattern:  pattern,
		Category: model.CategoryTheyHosted,
		Enabled:  true,
	}
}

func TestMatcher_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		rule    model.ClassificationRule
		matched bool
	}{
		{"title regex matches case-insensitively", enabledRule(model.RuleTitleRegex, "dinner at grandma"), true},
		{"title regex no match", enabledRule(model.RuleTitleRegex, "brunch"), false},
		{"description regex matches", enabledRule(model.RuleDescriptionRegex, "birthday"), true},
		{"location exact matches after normalization", enabledRule(model.RuleLocationExact, "123 Oak Street"), true},
		{"location exact partial does not match", enabledRule(model.RuleLocationExact, "123 Oak"), false},
		{"location regex matches", enabledRule(model.RuleLocationRegex, `oak\s+st`), true},
		{"attendee email matches case-insensitively", enabledRule(model.RuleAttendeeEmail, "UNCLE.BOB@X.COM"), true},
		{"attendee email no match", enabledRule(model.RuleAttendeeEmail, "stranger@x.com"), false},
		{"attendee email is exact, not substring", enabledRule(model.RuleAttendeeEmail, "grandma"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(zerolog.Nop())
			got := m.Evaluate(tt.rule, testEvent())
			if got.Matched != tt.matched {
				t.Errorf("Evaluate() matched = %v, want %v", got.Matched, tt.matched)
			}
			if got.Matched && got.Confidence != 1.0 {
				t.Errorf("rule match confidence = %v, want 1.0", got.Confidence)
			}
			if !got.Matched && got.Confidence != 0 {
				t.Errorf("non-match confidence = %v, want 0", got.Confidence)
			}
		})
	}
}

func TestMatcher_DisabledRuleNeverEvaluated(t *testing.T) {
	m := NewMatcher(zerolog.Nop())

	rule := enabledRule(model.RuleTitleRegex, "dinner")
	rule.Enabled = false

	if got := m.Evaluate(rule, testEvent()); got.Matched {
		t.Error("disabled rule must never match")
	}

	// A disabled rule with a broken pattern must not even produce a warning.
	broken := enabledRule(model.RuleTitleRegex, "([unclosed")
	broken.Enabled = false
	m.Evaluate(broken, testEvent())
	if len(m.Warnings()) != 0 {
		t.Errorf("expected no warnings for disabled rules, got %d", len(m.Warnings()))
	}
}

func TestMatcher_InvalidPatternFailsMatchWithWarning(t *testing.T) {
	m := NewMatcher(zerolog.Nop())

	rule := enabledRule(model.RuleTitleRegex, "([unclosed")
	rule.ID = "bad-rule"

	// Evaluate twice against two events: the rule never matches and the
	// warning is reported once, keyed by rule id.
	for i := 0; i < 2; i++ {
		if got := m.Evaluate(rule, testEvent()); got.Matched {
			t.Fatal("invalid pattern must fail the match")
		}
	}

	warnings := m.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", len(warnings))
	}
	if warnings[0].RuleID != "bad-rule" {
		t.Errorf("warning keyed by %q, want %q", warnings[0].RuleID, "bad-rule")
	}
}

func TestMatcher_EmptyFieldsNeverMatch(t *testing.T) {
	m := NewMatcher(zerolog.Nop())
	empty := model.NormalizedCalendarEvent{ID: "ev-empty"}

	rules := []model.ClassificationRule{
		enabledRule(model.RuleTitleRegex, ".*"),
		enabledRule(model.RuleDescriptionRegex, ".*"),
		enabledRule(model.RuleLocationRegex, ".*"),
		enabledRule(model.RuleLocationExact, "123 Oak St"),
		enabledRule(model.RuleAttendeeEmail, "grandma@x.com"),
	}

	for _, rule := range rules {
		if got := m.Evaluate(rule, empty); got.Matched {
			t.Errorf("rule type %s matched an event with empty fields", rule.Type)
		}
	}
}

func TestCheckRule(t *testing.T) {
	valid := enabledRule(model.RuleTitleRegex, "dinner")
	if err := CheckRule(valid); err != nil {
		t.Errorf("expected valid rule, got %v", err)
	}

	badPattern := enabledRule(model.RuleLocationRegex, "([")
	if err := CheckRule(badPattern); err == nil {
		t.Error("expected error for malformed regex")
	}

	unknownType := enabledRule("body_regex", "x")
	if err := CheckRule(unknownType); err == nil {
		t.Error("expected error for unknown rule type")
	}

	badCategory := enabledRule(model.RuleTitleRegex, "dinner")
	badCategory.Category = "maybe-hosted"
	if err := CheckRule(badCategory); err == nil {
		t.Error("expected error for unknown category")
	}

	// Negative rules suppress rather than assign, so category is not required.
	negative := enabledRule(model.RuleTitleRegex, "cancelled")
	negative.IsNegative = true
	negative.Category = ""
	if err := CheckRule(negative); err != nil {
		t.Errorf("negative rule without category should be valid, got %v", err)
	}
}
