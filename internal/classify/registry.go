package classify

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hosttab/hosttab/internal/model"
)

// RuleRegistry owns the mutable rule set. The pipeline reads rules from it
// and reports matches; user feedback lands in RecordOutcome. Counters only
// ever increase: a confirmed-wrong decision is corrected by future
// classification, not by rewriting history.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]*model.ClassificationRule
	log   zerolog.Logger
}

// NewRuleRegistry creates a registry seeded with the given rules.
// Rules are copied; the caller's slice is not retained.
func NewRuleRegistry(rules []model.ClassificationRule, log zerolog.Logger) *RuleRegistry {
	byID := make(map[string]*model.ClassificationRule, len(rules))
	for _, rule := range rules {
		r := rule
		if _, exists := byID[r.ID]; exists {
			log.Warn().Str("rule_id", r.ID).Msg("duplicate rule id, keeping first")
			continue
		}
		byID[r.ID] = &r
	}
	return &RuleRegistry{rules: byID, log: log}
}

// Snapshot returns a copy of all rules sorted by id. Callers persist this
// to carry updated counters back to storage.
func (r *RuleRegistry) Snapshot() []model.ClassificationRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ClassificationRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, *rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a copy of one rule
func (r *RuleRegistry) Get(id string) (model.ClassificationRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return model.ClassificationRule{}, false
	}
	return *rule, true
}

// RecordMatch increments a rule's match counter. Called by the pipeline
// once per classification decision the rule wins, never per re-render.
func (r *RuleRegistry) RecordMatch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[id]
	if !ok {
		r.log.Warn().Str("rule_id", id).Msg("match recorded for unknown rule")
		return
	}
	rule.MatchCount++
}

// RecordOutcome records user feedback on an auto-rule classification.
// Unknown rule ids and rules that never fired are logged as anomalies and
// ignored: neither is fatal and neither changes state. The
// CorrectCount <= MatchCount invariant holds after any call sequence.
func (r *RuleRegistry) RecordOutcome(id string, wasCorrect bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[id]
	if !ok {
		r.log.Warn().Str("rule_id", id).Msg("outcome recorded for unknown rule")
		return
	}
	if rule.MatchCount == 0 {
		r.log.Warn().Str("rule_id", id).Msg("outcome recorded for rule that never fired")
		return
	}
	if !wasCorrect {
		return
	}
	if rule.CorrectCount >= rule.MatchCount {
		r.log.Warn().
			Str("rule_id", id).
			Int("match_count", rule.MatchCount).
			Int("correct_count", rule.CorrectCount).
			Msg("more confirmations than matches, ignoring")
		return
	}
	rule.CorrectCount++
}
