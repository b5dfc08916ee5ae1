package llm

import (
	"strings"
	"testing"

	"github.com/hosttab/hosttab/internal/model"
)

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		category   model.HostingCategory
		confidence float64
		wantErr    bool
	}{
		{"bare json", `{"category":"neutral","confidence":0.6}`, model.CategoryNeutral, 0.6, false},
		{"json wrapped in prose", "Sure! Here you go:\n{\"category\": \"they-hosted\", \"confidence\": 0.85}\nHope that helps.",
			model.CategoryTheyHosted, 0.85, false},
		{"json in code fence", "```json\n{\"category\":\"we-hosted\",\"confidence\":1}\n```", model.CategoryWeHosted, 1, false},
		{"unknown category", `{"category":"maybe","confidence":0.5}`, "", 0, true},
		{"confidence above one", `{"category":"neutral","confidence":1.2}`, "", 0, true},
		{"negative confidence", `{"category":"neutral","confidence":-0.1}`, "", 0, true},
		{"no json at all", "I cannot classify this event.", "", 0, true},
		{"unterminated object", `{"category":"neutral"`, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, confidence, err := ParseSuggestion(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s/%v", category, confidence)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if category != tt.category || confidence != tt.confidence {
				t.Errorf("got %s/%v, want %s/%v", category, confidence, tt.category, tt.confidence)
			}
		})
	}
}

func TestParseRuleSuggestion(t *testing.T) {
	good := `{"type":"attendee_email","pattern":"grandma@x.com","name":"Grandma's gatherings","reasoning":"distinctive attendee","confidence":0.9,"potential_false_positives":["work events grandma attends"]}`

	suggestion, err := ParseRuleSuggestion(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestion.Type != model.RuleAttendeeEmail {
		t.Errorf("Type = %s, want attendee_email", suggestion.Type)
	}
	if suggestion.Pattern != "grandma@x.com" {
		t.Errorf("Pattern = %s", suggestion.Pattern)
	}
	if len(suggestion.PotentialFalsePositives) != 1 {
		t.Errorf("PotentialFalsePositives = %v", suggestion.PotentialFalsePositives)
	}

	bad := []string{
		`{"type":"body_regex","pattern":"x","confidence":0.5}`, // unknown type
		`{"type":"title_regex","pattern":"","confidence":0.5}`, // empty pattern
		`{"type":"title_regex","pattern":"x","confidence":2}`,  // confidence out of range
		`not json`,
	}
	for _, text := range bad {
		if _, err := ParseRuleSuggestion(text); err == nil {
			t.Errorf("expected error for %q", text)
		}
	}
}

func TestBuildSuggestPrompt_IncludesRuleExamples(t *testing.T) {
	event := model.NormalizedCalendarEvent{
		Title:     "Dinner at Grandma's",
		Location:  "123 Oak St",
		StartDate: "2026-03-13",
		Attendees: []string{"grandma@x.com"},
	}
	rules := []model.ClassificationRule{
		{
			Category:         model.CategoryTheyHosted,
			PositiveExamples: []string{"Sunday roast at Grandma's"},
			NegativeExamples: []string{"Grandma's doctor appointment"},
		},
	}

	prompt := BuildSuggestPrompt(event, rules)

	for _, want := range []string{
		"Dinner at Grandma's",
		"grandma@x.com",
		"Sunday roast at Grandma's",
		"Grandma's doctor appointment",
		"they-hosted",
		"we-hosted",
		"neutral",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSuggestPrompt_CapsExamples(t *testing.T) {
	var rules []model.ClassificationRule
	for i := 0; i < 5; i++ {
		rules = append(rules, model.ClassificationRule{
			Category:         model.CategoryNeutral,
			PositiveExamples: []string{"ex-a", "ex-b", "ex-c", "ex-d"},
		})
	}

	prompt := BuildSuggestPrompt(model.NormalizedCalendarEvent{Title: "x"}, rules)

	if got := strings.Count(prompt, "was classified"); got > 10 {
		t.Errorf("prompt contains %d examples, want at most 10", got)
	}
}

func TestFirstJSONObject_SkipsBracesInStrings(t *testing.T) {
	text := `{"category":"neutral","confidence":0.5,"note":"braces } in { strings"}`
	raw, err := firstJSONObject(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != text {
		t.Errorf("got %q, want the whole object", raw)
	}
}
