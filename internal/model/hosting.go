package model

import "time"

// ClassificationMethod records how a hosting event was classified
type ClassificationMethod string

const (
	MethodAutoRule ClassificationMethod = "auto-rule"
	MethodAutoLLM  ClassificationMethod = "auto-llm"
	MethodManual   ClassificationMethod = "manual"
)

// HostingEvent is the classified output record for one calendar event.
// Re-classifying the same source event replaces Category, Method,
// Confidence and ClassifiedAt but keeps the same ID.
type HostingEvent struct {
	ID              string               `json:"id" yaml:"id"`
	CalendarEventID string               `json:"calendar_event_id,omitempty" yaml:"calendar_event_id,omitempty"` // back-reference, not ownership
	Title           string               `json:"title" yaml:"title"`
	Date            string               `json:"date" yaml:"date"` // YYYY-MM-DD
	Location        string               `json:"location,omitempty" yaml:"location,omitempty"`
	FamilyID        string               `json:"family_id" yaml:"family_id"`
	FamilyName      string               `json:"family_name,omitempty" yaml:"family_name,omitempty"` // display hint only; join on FamilyID
	Category        HostingCategory      `json:"category" yaml:"category"`
	Method          ClassificationMethod `json:"classification_method" yaml:"classification_method"`
	Confidence      float64              `json:"confidence" yaml:"confidence"`               // 1.0 for rule matches, sub-1.0 only for LLM
	RuleID          string               `json:"rule_id,omitempty" yaml:"rule_id,omitempty"` // winning rule for auto-rule classifications
	Notes           string               `json:"notes,omitempty" yaml:"notes,omitempty"`
	ClassifiedAt    time.Time            `json:"classified_at" yaml:"classified_at"`
}

// HostingStatus is the derived hosting-balance state for a family
type HostingStatus string

const (
	StatusOverdue  HostingStatus = "overdue"
	StatusBalanced HostingStatus = "balanced"
	StatusWeOwe    HostingStatus = "we-owe"   // they have hosted disproportionately more
	StatusTheyOwe  HostingStatus = "they-owe"
)

// FamilyHostingStats is derived from the classified event stream and
// recomputed on demand, never independently mutated
type FamilyHostingStats struct {
	FamilyID            string        `json:"family_id"`
	TheyHostedCount     int           `json:"they_hosted_count"`
	WeHostedCount       int           `json:"we_hosted_count"`
	NeutralCount        int           `json:"neutral_count"`
	LastTheyHosted      string        `json:"last_they_hosted,omitempty"` // YYYY-MM-DD, empty if never
	LastWeHosted        string        `json:"last_we_hosted,omitempty"`
	DaysSinceTheyHosted *int          `json:"days_since_they_hosted,omitempty"` // nil if never hosted
	IsOverdue           bool          `json:"is_overdue"`
	Status              HostingStatus `json:"status"`
}
