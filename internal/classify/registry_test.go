package classify

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hosttab/hosttab/internal/model"
)

func TestRuleRegistry_RecordOutcome(t *testing.T) {
	reg := NewRuleRegistry([]model.ClassificationRule{
		{ID: "r-1", Type: model.RuleTitleRegex, Pattern: "dinner", Category: model.CategoryTheyHosted, Enabled: true},
	}, zerolog.Nop())

	// A rule that never fired cannot be confirmed.
	reg.RecordOutcome("r-1", true)
	rule, _ := reg.Get("r-1")
	if rule.MatchCount != 0 || rule.CorrectCount != 0 {
		t.Fatalf("expected no-op for unfired rule, got match=%d correct=%d", rule.MatchCount, rule.CorrectCount)
	}

	// Unknown rule ids are a logged anomaly, not a state change.
	reg.RecordOutcome("r-missing", true)

	reg.RecordMatch("r-1")
	reg.RecordMatch("r-1")
	reg.RecordOutcome("r-1", true)
	reg.RecordOutcome("r-1", false)

	rule, _ = reg.Get("r-1")
	if rule.MatchCount != 2 {
		t.Errorf("MatchCount = %d, want 2", rule.MatchCount)
	}
	if rule.CorrectCount != 1 {
		t.Errorf("CorrectCount = %d, want 1", rule.CorrectCount)
	}
}

func TestRuleRegistry_CountersNeverDecrease(t *testing.T) {
	reg := NewRuleRegistry([]model.ClassificationRule{
		{ID: "r-1", Type: model.RuleTitleRegex, Pattern: "x", Category: model.CategoryNeutral, Enabled: true},
	}, zerolog.Nop())

	prevMatch, prevCorrect := 0, 0
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			reg.RecordMatch("r-1")
		case 1:
			reg.RecordOutcome("r-1", true)
		case 2:
			reg.RecordOutcome("r-1", false)
		}

		rule, _ := reg.Get("r-1")
		if rule.MatchCount < prevMatch || rule.CorrectCount < prevCorrect {
			t.Fatalf("counters decreased at step %d: match %d->%d correct %d->%d",
				i, prevMatch, rule.MatchCount, prevCorrect, rule.CorrectCount)
		}
		if rule.CorrectCount > rule.MatchCount {
			t.Fatalf("invariant violated at step %d: correct=%d > match=%d", i, rule.CorrectCount, rule.MatchCount)
		}
		prevMatch, prevCorrect = rule.MatchCount, rule.CorrectCount
	}
}

func TestRuleRegistry_ConcurrentOutcomes(t *testing.T) {
	reg := NewRuleRegistry([]model.ClassificationRule{
		{ID: "r-1", Type: model.RuleTitleRegex, Pattern: "x", Category: model.CategoryNeutral, Enabled: true},
	}, zerolog.Nop())

	const n = 100
	for i := 0; i < n; i++ {
		reg.RecordMatch("r-1")
	}

	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			reg.RecordOutcome("r-1", true)
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	rule, _ := reg.Get("r-1")
	if rule.CorrectCount != n {
		t.Errorf("lost updates: CorrectCount = %d, want %d", rule.CorrectCount, n)
	}
}

func TestRuleRegistry_DuplicateIDsKeepFirst(t *testing.T) {
	reg := NewRuleRegistry([]model.ClassificationRule{
		{ID: "r-1", Name: "first", Type: model.RuleTitleRegex, Pattern: "a", Category: model.CategoryNeutral, Enabled: true},
		{ID: "r-1", Name: "second", Type: model.RuleTitleRegex, Pattern: "b", Category: model.CategoryNeutral, Enabled: true},
	}, zerolog.Nop())

	rule, ok := reg.Get("r-1")
	if !ok || rule.Name != "first" {
		t.Errorf("expected first duplicate to win, got %+v", rule)
	}
	if len(reg.Snapshot()) != 1 {
		t.Errorf("expected 1 rule, got %d", len(reg.Snapshot()))
	}
}
