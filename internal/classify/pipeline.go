// Package classify resolves hosting classifications for calendar events:
// ordered rule evaluation with priority and negation, LLM fallback when no
// rule fires, and the mutable rule registry with effectiveness counters.
package classify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hosttab/hosttab/internal/match"
	"github.com/hosttab/hosttab/internal/model"
	"github.com/hosttab/hosttab/internal/worker"
)

// FamilyResolver infers the family a calendar event belongs to when no
// family-scoped rule decides it. Implementations are supplied by the
// caller; returning ok=false leaves the family context unset.
type FamilyResolver interface {
	ResolveFamily(event model.NormalizedCalendarEvent) (familyID string, ok bool)
}

// FamilyResolverFunc adapts a function to the FamilyResolver interface
type FamilyResolverFunc func(event model.NormalizedCalendarEvent) (string, bool)

// ResolveFamily implements FamilyResolver
func (f FamilyResolverFunc) ResolveFamily(event model.NormalizedCalendarEvent) (string, bool) {
	return f(event)
}

// Suggester is the external LLM collaborator consulted when no rule
// matches. It returns a category and a confidence in [0,1]. Any error is
// non-fatal: the event is surfaced for manual review instead.
type Suggester interface {
	Suggest(ctx context.Context, event model.NormalizedCalendarEvent, rules []model.ClassificationRule) (model.HostingCategory, float64, error)
}

// Outcome is the terminal state for one event: exactly one HostingEvent,
// or a needs-manual-review signal with the reason.
type Outcome struct {
	Event       *model.HostingEvent
	NeedsReview bool
	Reason      string
}

// ReviewItem identifies an event that could not be classified
type ReviewItem struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason"`
}

// BatchResult is the result of classifying a batch of events
type BatchResult struct {
	Classified  []model.HostingEvent `json:"classified"`
	NeedsReview []ReviewItem         `json:"needs_review,omitempty"`
	Warnings    []match.Warning      `json:"warnings,omitempty"`
}

// Options configures a Pipeline. Zero values select sane defaults;
// Resolver and Suggester are optional collaborators.
type Options struct {
	Resolver     FamilyResolver
	Suggester    Suggester
	FamilyNames  map[string]string // familyID -> current display name
	NegationMode model.NegationMode
	Workers      int

	// ForceReclassify re-evaluates events whose prior classification is
	// manual. Off by default: manual decisions stick.
	ForceReclassify bool

	Clock  func() time.Time // injectable for tests
	NewID  func() string
	Logger zerolog.Logger
}

// Pipeline classifies calendar events against the rule registry
type Pipeline struct {
	registry *RuleRegistry
	matcher  *match.Matcher
	opts     Options
	log      zerolog.Logger
}

// NewPipeline creates a pipeline reading rules from the given registry
func NewPipeline(registry *RuleRegistry, opts Options) *Pipeline {
	if opts.NegationMode == "" {
		opts.NegationMode = model.NegationPriority
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Pipeline{
		registry: registry,
		matcher:  match.NewMatcher(opts.Logger),
		opts:     opts,
		log:      opts.Logger,
	}
}

// ClassifyBatch classifies a batch of events. Events are independent and
// processed in parallel; the result preserves input order. Prior
// classifications (if any) keep their HostingEvent ids, and prior manual
// classifications are never re-evaluated unless ForceReclassify is set.
// Duplicate event ids are tolerated: the first occurrence wins.
// No per-event failure aborts the batch, and cancellation keeps the
// classifications already made.
func (p *Pipeline) ClassifyBatch(ctx context.Context, events []model.NormalizedCalendarEvent, prior []model.HostingEvent) BatchResult {
	priorByEvent := make(map[string]*model.HostingEvent, len(prior))
	for i := range prior {
		if prior[i].CalendarEventID != "" {
			priorByEvent[prior[i].CalendarEventID] = &prior[i]
		}
	}

	// Dedupe by event id, first occurrence wins.
	seen := make(map[string]bool, len(events))
	unique := make([]model.NormalizedCalendarEvent, 0, len(events))
	for _, ev := range events {
		if seen[ev.ID] {
			p.log.Debug().Str("event_id", ev.ID).Msg("duplicate event id, skipping")
			continue
		}
		seen[ev.ID] = true
		unique = append(unique, ev)
	}

	outcomes := make([]*Outcome, len(unique))

	pool := worker.NewPool(ctx, p.opts.Workers)
	pool.Start()
	for i, ev := range unique {
		pool.Submit(&classifyJob{
			idx:      i,
			event:    ev,
			prior:    priorByEvent[ev.ID],
			pipeline: p,
		})
	}
	for _, res := range pool.Wait() {
		cr := res.(*classifyResult)
		outcomes[cr.idx] = &cr.outcome
	}

	result := BatchResult{Warnings: p.matcher.Warnings()}
	for i, outcome := range outcomes {
		if outcome == nil {
			// Job never ran: the batch was cancelled underneath it.
			result.NeedsReview = append(result.NeedsReview, ReviewItem{
				EventID: unique[i].ID,
				Reason:  "batch cancelled before classification",
			})
			continue
		}
		if outcome.NeedsReview {
			result.NeedsReview = append(result.NeedsReview, ReviewItem{
				EventID: unique[i].ID,
				Reason:  outcome.Reason,
			})
			continue
		}
		result.Classified = append(result.Classified, *outcome.Event)
	}
	return result
}

type classifyJob struct {
	idx      int
	event    model.NormalizedCalendarEvent
	prior    *model.HostingEvent
	pipeline *Pipeline
}

type classifyResult struct {
	idx     int
	outcome Outcome
}

func (r *classifyResult) GetError() error { return nil }

func (j *classifyJob) Execute(ctx context.Context) worker.Result {
	return &classifyResult{
		idx:     j.idx,
		outcome: j.pipeline.ClassifyOne(ctx, j.event, j.prior),
	}
}

// ClassifyOne resolves the classification for a single event.
// Rule evaluation order within one event is strict: priority descending,
// ties broken by rule id ascending.
func (p *Pipeline) ClassifyOne(ctx context.Context, event model.NormalizedCalendarEvent, prior *model.HostingEvent) Outcome {
	if prior != nil && prior.Method == model.MethodManual && !p.opts.ForceReclassify {
		kept := *prior
		return Outcome{Event: &kept}
	}

	familyID, familyResolved := "", false
	if p.opts.Resolver != nil {
		familyID, familyResolved = p.opts.Resolver.ResolveFamily(event)
	}

	ordered := p.eligibleRules(familyID, familyResolved)

	winner, veto := p.resolveRules(ordered, event)
	if veto != nil {
		return Outcome{
			NeedsReview: true,
			Reason:      fmt.Sprintf("excluded by rule %s", veto.ID),
		}
	}

	if winner != nil {
		p.registry.RecordMatch(winner.ID)
		return Outcome{Event: p.buildEvent(event, prior, winner, familyID)}
	}

	return p.suggestFallback(ctx, event, prior, ordered, familyID)
}

// eligibleRules returns enabled rules whose family scope is unset or
// matches the resolved family, ordered by priority descending and rule id
// ascending for deterministic, reproducible evaluation.
func (p *Pipeline) eligibleRules(familyID string, familyResolved bool) []model.ClassificationRule {
	all := p.registry.Snapshot()
	eligible := make([]model.ClassificationRule, 0, len(all))
	for _, rule := range all {
		if !rule.Enabled {
			continue
		}
		if rule.FamilyID != "" && (!familyResolved || rule.FamilyID != familyID) {
			continue
		}
		eligible = append(eligible, rule)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority > eligible[j].Priority
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// resolveRules walks the ordered rules and returns either the winning
// positive rule or the negative rule that vetoed the event (never both).
//
// The first positive match fixes the candidate category, but a matching
// negative rule at a priority at or above the candidate's suppresses
// classification entirely. Because rules arrive priority-descending, any
// negative match seen before a positive one outranks everything still to
// come, and after a positive match only same-priority rules can still
// veto under NegationPriority. NegationAbsolute keeps scanning the whole
// list: any matching negative vetoes regardless of priority.
func (p *Pipeline) resolveRules(ordered []model.ClassificationRule, event model.NormalizedCalendarEvent) (winner, veto *model.ClassificationRule) {
	for i := range ordered {
		rule := ordered[i]

		if winner != nil {
			if p.opts.NegationMode == model.NegationPriority && rule.Priority < winner.Priority {
				break
			}
			if !rule.IsNegative {
				continue
			}
		}

		if !p.matcher.Evaluate(rule, event).Matched {
			continue
		}

		if rule.IsNegative {
			return nil, &ordered[i]
		}
		if winner == nil {
			winner = &ordered[i]
		}
	}
	return winner, nil
}

// suggestFallback consults the LLM collaborator for an event no rule
// matched. Failure or absence of the collaborator is never fatal: the
// event lands in the manual-review queue.
func (p *Pipeline) suggestFallback(ctx context.Context, event model.NormalizedCalendarEvent, prior *model.HostingEvent, rules []model.ClassificationRule, familyID string) Outcome {
	if p.opts.Suggester == nil {
		return Outcome{NeedsReview: true, Reason: "no rule matched"}
	}

	category, confidence, err := p.opts.Suggester.Suggest(ctx, event, rules)
	if err != nil {
		p.log.Warn().Err(err).Str("event_id", event.ID).Msg("llm suggestion failed")
		return Outcome{NeedsReview: true, Reason: fmt.Sprintf("llm suggestion failed: %v", err)}
	}
	if !category.Valid() {
		p.log.Warn().Str("event_id", event.ID).Str("category", string(category)).Msg("llm returned unknown category")
		return Outcome{NeedsReview: true, Reason: fmt.Sprintf("llm returned unknown category %q", category)}
	}
	if confidence < 0 || confidence > 1 {
		return Outcome{NeedsReview: true, Reason: fmt.Sprintf("llm confidence %v out of range", confidence)}
	}

	he := p.newHostingEvent(event, prior, familyID)
	he.Category = category
	he.Method = model.MethodAutoLLM
	he.Confidence = confidence
	return Outcome{Event: he}
}

// buildEvent emits the HostingEvent for a winning positive rule
func (p *Pipeline) buildEvent(event model.NormalizedCalendarEvent, prior *model.HostingEvent, rule *model.ClassificationRule, familyID string) *model.HostingEvent {
	if rule.FamilyID != "" {
		familyID = rule.FamilyID
	}

	he := p.newHostingEvent(event, prior, familyID)
	he.Category = rule.Category
	he.Method = model.MethodAutoRule
	he.Confidence = 1.0
	he.RuleID = rule.ID
	return he
}

// newHostingEvent builds the common parts of a classified record.
// Re-runs on the same source event keep the prior id and notes; category,
// method, confidence and the classification timestamp are replaced by the
// caller.
func (p *Pipeline) newHostingEvent(event model.NormalizedCalendarEvent, prior *model.HostingEvent, familyID string) *model.HostingEvent {
	he := &model.HostingEvent{
		ID:              p.opts.NewID(),
		CalendarEventID: event.ID,
		Title:           event.Title,
		Date:            event.StartDate,
		Location:        event.Location,
		FamilyID:        familyID,
		FamilyName:      p.opts.FamilyNames[familyID],
		ClassifiedAt:    p.opts.Clock(),
	}
	if prior != nil {
		he.ID = prior.ID
		he.Notes = prior.Notes
	}
	return he
}
