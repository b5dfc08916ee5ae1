package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hosttab/hosttab/internal/model"
)

const suggestSystem = "You classify family calendar events for a hosting tracker. Answer with strict JSON only, no prose."

// BuildSuggestPrompt constructs the classification prompt for one event.
// The rules' positive/negative example strings are the few-shot context;
// this is the only place they are read.
func BuildSuggestPrompt(event model.NormalizedCalendarEvent, rules []model.ClassificationRule) string {
	var b strings.Builder

	b.WriteString(`Decide whether this calendar event means the tracked family hosted us ("they-hosted"), we hosted them ("we-hosted"), or it was a neutral gathering ("neutral").

Event:
`)
	fmt.Fprintf(&b, "- Title: %s\n", orNone(event.Title))
	fmt.Fprintf(&b, "- Description: %s\n", orNone(event.Description))
	fmt.Fprintf(&b, "- Location: %s\n", orNone(event.Location))
	fmt.Fprintf(&b, "- Date: %s\n", orNone(event.StartDate))
	fmt.Fprintf(&b, "- Attendees: %s\n", orNone(strings.Join(event.Attendees, ", ")))

	writeRuleExamples(&b, rules)

	b.WriteString(`
Respond with exactly one JSON object:
{"category": "they-hosted" | "we-hosted" | "neutral", "confidence": <number between 0 and 1>}`)

	return b.String()
}

const ruleSystem = "You author reusable classification rules for a hosting tracker. Answer with strict JSON only, no prose."

// BuildRulePrompt asks for a reusable rule generalizing a manually
// corrected classification
func BuildRulePrompt(event model.NormalizedCalendarEvent, category model.HostingCategory) string {
	var b strings.Builder

	fmt.Fprintf(&b, `A user manually classified this calendar event as %q. Propose ONE reusable rule that would classify similar future events the same way.

Event:
`, category)
	fmt.Fprintf(&b, "- Title: %s\n", orNone(event.Title))
	fmt.Fprintf(&b, "- Description: %s\n", orNone(event.Description))
	fmt.Fprintf(&b, "- Location: %s\n", orNone(event.Location))
	fmt.Fprintf(&b, "- Attendees: %s\n", orNone(strings.Join(event.Attendees, ", ")))

	b.WriteString(`
Allowed rule types: title_regex, description_regex, location_exact, location_regex, attendee_email.
Prefer attendee_email when a distinctive attendee exists; prefer narrow patterns over broad ones.

Respond with exactly one JSON object:
{"type": "...", "pattern": "...", "name": "...", "reasoning": "...", "confidence": <0..1>, "potential_false_positives": ["..."]}`)

	return b.String()
}

// writeRuleExamples appends the confirmed example strings from existing
// rules as few-shot context, capped to keep the prompt small
func writeRuleExamples(b *strings.Builder, rules []model.ClassificationRule) {
	const maxExamples = 10

	count := 0
	for _, rule := range rules {
		if count >= maxExamples {
			break
		}
		for _, ex := range rule.PositiveExamples {
			if count >= maxExamples {
				break
			}
			if count == 0 {
				b.WriteString("\nConfirmed examples from existing rules:\n")
			}
			fmt.Fprintf(b, "- %q was classified %s\n", ex, rule.Category)
			count++
		}
		for _, ex := range rule.NegativeExamples {
			if count >= maxExamples {
				break
			}
			if count == 0 {
				b.WriteString("\nConfirmed examples from existing rules:\n")
			}
			fmt.Fprintf(b, "- %q was NOT %s\n", ex, rule.Category)
			count++
		}
	}
}

type suggestAnswer struct {
	Category   model.HostingCategory `json:"category"`
	Confidence float64               `json:"confidence"`
}

// ParseSuggestion extracts the category/confidence JSON object from a
// completion. Providers occasionally wrap the JSON in prose or code
// fences, so the first balanced object is taken.
func ParseSuggestion(text string) (model.HostingCategory, float64, error) {
	raw, err := firstJSONObject(text)
	if err != nil {
		return "", 0, err
	}

	var answer suggestAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return "", 0, fmt.Errorf("parse suggestion: %w", err)
	}
	if !answer.Category.Valid() {
		return "", 0, fmt.Errorf("unknown category %q", answer.Category)
	}
	if answer.Confidence < 0 || answer.Confidence > 1 {
		return "", 0, fmt.Errorf("confidence %v out of range", answer.Confidence)
	}
	return answer.Category, answer.Confidence, nil
}

// ParseRuleSuggestion extracts a proposed rule from a completion
func ParseRuleSuggestion(text string) (*model.RuleSuggestion, error) {
	raw, err := firstJSONObject(text)
	if err != nil {
		return nil, err
	}

	var suggestion model.RuleSuggestion
	if err := json.Unmarshal([]byte(raw), &suggestion); err != nil {
		return nil, fmt.Errorf("parse rule suggestion: %w", err)
	}

	switch suggestion.Type {
	case model.RuleTitleRegex, model.RuleDescriptionRegex, model.RuleLocationExact,
		model.RuleLocationRegex, model.RuleAttendeeEmail:
	default:
		return nil, fmt.Errorf("unknown rule type %q", suggestion.Type)
	}
	if suggestion.Pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if suggestion.Confidence < 0 || suggestion.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", suggestion.Confidence)
	}
	return &suggestion, nil
}

// firstJSONObject returns the first balanced {...} block in text
func firstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in response")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
