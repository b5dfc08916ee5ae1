// Package match evaluates a single classification rule against a single
// calendar event.
package match

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hosttab/hosttab/internal/location"
	"github.com/hosttab/hosttab/internal/model"
)

// Result is the outcome of evaluating one rule against one event.
// Rule matches are deterministic, so Confidence is fixed at 1.0;
// only LLM-sourced classification carries sub-1.0 confidence.
type Result struct {
	Matched    bool
	Confidence float64
}

// Warning reports a data-quality problem with a rule (typically a malformed
// regex). A bad rule is treated as never-matching and must not abort
// classification of other events.
type Warning struct {
	RuleID  string         `json:"rule_id"`
	Type    model.RuleType `json:"type"`
	Pattern string         `json:"pattern"`
	Message string         `json:"message"`
}

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// Matcher evaluates rules against events. It caches compiled regexes per
// pattern and collects one warning per malformed rule. Safe for concurrent
// use by batch workers.
type Matcher struct {
	mu      sync.RWMutex
	regexes map[string]compiledPattern

	warnMu   sync.Mutex
	warned   map[string]bool
	warnings []Warning

	log zerolog.Logger
}

// NewMatcher creates a matcher
func NewMatcher(log zerolog.Logger) *Matcher {
	return &Matcher{
		regexes: make(map[string]compiledPattern),
		warned:  make(map[string]bool),
		log:     log,
	}
}

// Evaluate evaluates one rule against one event. Disabled rules never match.
// Empty event fields are treated as non-matching inputs, never as errors.
func (m *Matcher) Evaluate(rule model.ClassificationRule, event model.NormalizedCalendarEvent) Result {
	if !rule.Enabled {
		return Result{}
	}

	switch rule.Type {
	case model.RuleTitleRegex:
		return m.matchRegex(rule, event.Title)

	case model.RuleDescriptionRegex:
		return m.matchRegex(rule, event.Description)

	case model.RuleLocationRegex:
		return m.matchRegex(rule, event.Location)

	case model.RuleLocationExact:
		loc := location.Normalize(event.Location)
		pat := location.Normalize(rule.Pattern)
		if loc == "" || pat == "" {
			return Result{}
		}
		return result(loc == pat)

	case model.RuleAttendeeEmail:
		if rule.Pattern == "" {
			return Result{}
		}
		for _, attendee := range event.Attendees {
			if strings.EqualFold(attendee, rule.Pattern) {
				return result(true)
			}
		}
		return Result{}

	default:
		m.warn(rule, fmt.Sprintf("unknown rule type %q", rule.Type))
		return Result{}
	}
}

// matchRegex runs a case-insensitive regex search over one field. A pattern
// that fails to compile makes the rule never-matching and is reported once
// as a warning keyed by rule id.
func (m *Matcher) matchRegex(rule model.ClassificationRule, field string) Result {
	if field == "" {
		return Result{}
	}

	re, err := m.compiled(rule.Pattern)
	if err != nil {
		m.warn(rule, fmt.Sprintf("invalid pattern: %v", err))
		return Result{}
	}

	return result(re.MatchString(field))
}

// compiled returns the cached case-insensitive regex for a pattern,
// compiling it on first use. Compile failures are cached too so a bad
// pattern is not recompiled for every event.
func (m *Matcher) compiled(pattern string) (*regexp.Regexp, error) {
	m.mu.RLock()
	entry, ok := m.regexes[pattern]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		entry, ok = m.regexes[pattern]
		if !ok {
			re, err := regexp.Compile("(?i)" + pattern)
			entry = compiledPattern{re: re, err: err}
			m.regexes[pattern] = entry
		}
		m.mu.Unlock()
	}

	return entry.re, entry.err
}

// warn records a data-quality warning for a rule, once per rule id
func (m *Matcher) warn(rule model.ClassificationRule, message string) {
	m.warnMu.Lock()
	defer m.warnMu.Unlock()

	if m.warned[rule.ID] {
		return
	}
	m.warned[rule.ID] = true
	m.warnings = append(m.warnings, Warning{
		RuleID:  rule.ID,
		Type:    rule.Type,
		Pattern: rule.Pattern,
		Message: message,
	})

	m.log.Warn().
		Str("rule_id", rule.ID).
		Str("rule_type", string(rule.Type)).
		Str("pattern", rule.Pattern).
		Msg(message)
}

// Warnings returns the data-quality warnings collected so far
func (m *Matcher) Warnings() []Warning {
	m.warnMu.Lock()
	defer m.warnMu.Unlock()

	out := make([]Warning, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// CheckRule validates a rule without evaluating it against an event.
// Used by the rules check command to report malformed rules up front.
func CheckRule(rule model.ClassificationRule) error {
	switch rule.Type {
	case model.RuleTitleRegex, model.RuleDescriptionRegex, model.RuleLocationRegex:
		if rule.Pattern == "" {
			return fmt.Errorf("empty pattern")
		}
		if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	case model.RuleLocationExact, model.RuleAttendeeEmail:
		if rule.Pattern == "" {
			return fmt.Errorf("empty pattern")
		}
	default:
		return fmt.Errorf("unknown rule type %q", rule.Type)
	}

	if !rule.IsNegative && !rule.Category.Valid() {
		return fmt.Errorf("unknown category %q", rule.Category)
	}

	return nil
}

func result(matched bool) Result {
	if matched {
		return Result{Matched: true, Confidence: 1.0}
	}
	return Result{}
}
