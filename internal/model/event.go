package model

import "time"

// EventSource identifies which calendar backend produced an event
type EventSource string

const (
	SourceGoogle EventSource = "google"
	SourceApple  EventSource = "apple"
	SourceManual EventSource = "manual"
)

// NormalizedCalendarEvent is a calendar event after import normalization.
// It is read-only input to the classification core; the importer owns it.
type NormalizedCalendarEvent struct {
	ID            string      `json:"id" yaml:"id"`
	Source        EventSource `json:"source" yaml:"source"`
	Title         string      `json:"title" yaml:"title"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Location      string      `json:"location,omitempty" yaml:"location,omitempty"`
	StartDateTime time.Time   `json:"start_date_time" yaml:"start_date_time"`
	EndDateTime   time.Time   `json:"end_date_time" yaml:"end_date_time"`
	StartDate     string      `json:"start_date" yaml:"start_date"` // YYYY-MM-DD grouping key
	IsAllDay      bool        `json:"is_all_day" yaml:"is_all_day"`
	Attendees     []string    `json:"attendees,omitempty" yaml:"attendees,omitempty"` // attendee emails
	CalendarName  string      `json:"calendar_name,omitempty" yaml:"calendar_name,omitempty"`
}

// Address is a saved household address used for location matching
type Address struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`               // e.g., "Home", "Lake house"
	FullAddress string `json:"full_address" yaml:"full_address"` // free-text postal address
	IsPrimary   bool   `json:"is_primary" yaml:"is_primary"`     // at most one primary per household
}

// MemberRole categorizes a family member
type MemberRole string

const (
	RoleParent MemberRole = "parent"
	RoleChild  MemberRole = "child"
	RoleOther  MemberRole = "other"
)

// FamilyMember is a person belonging to a tracked family
type FamilyMember struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Role          MemberRole `json:"role" yaml:"role"`
	PersonCharmID string     `json:"person_charm_id,omitempty" yaml:"person_charm_id,omitempty"` // weak reference to an external profile
}
