// Package stats derives per-family hosting-balance statistics from the
// classified event stream. Everything here is a pure fold: stats are
// recomputed from events, never independently mutated.
package stats

import (
	"time"

	"github.com/hosttab/hosttab/internal/model"
)

// Aggregate folds all HostingEvents belonging to a family into running
// counts, last-hosted dates and the derived status. Dates are YYYY-MM-DD
// strings, so lexicographic max is the latest date.
func Aggregate(familyID string, events []model.HostingEvent, overdueThresholdDays int, now time.Time) model.FamilyHostingStats {
	s := model.FamilyHostingStats{FamilyID: familyID}

	for _, ev := range events {
		if ev.FamilyID != familyID {
			continue
		}
		switch ev.Category {
		case model.CategoryTheyHosted:
			s.TheyHostedCount++
			if ev.Date > s.LastTheyHosted {
				s.LastTheyHosted = ev.Date
			}
		case model.CategoryWeHosted:
			s.WeHostedCount++
			if ev.Date > s.LastWeHosted {
				s.LastWeHosted = ev.Date
			}
		case model.CategoryNeutral:
			s.NeutralCount++
		}
	}

	if s.LastTheyHosted != "" {
		if days, ok := DaysSince(s.LastTheyHosted, now); ok {
			s.DaysSinceTheyHosted = &days
		}
	}

	s.Status = ComputeStatus(s.TheyHostedCount, s.WeHostedCount, s.DaysSinceTheyHosted, overdueThresholdDays)
	s.IsOverdue = s.Status == model.StatusOverdue

	return s
}

// DaysSince returns floor((now - date) / 1 day) in now's calendar.
// Returns ok=false for an unparseable date.
func DaysSince(date string, now time.Time) (int, bool) {
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return 0, false
	}
	return int(now.Sub(d) / (24 * time.Hour)), true
}

// ComputeStatus derives the hosting-balance status. The checks run in
// strict order: overdue takes precedence over count balance, so a family
// with even counts that has not hosted in a long time is still overdue.
func ComputeStatus(theyHosted, weHosted int, daysSinceTheyHosted *int, overdueThresholdDays int) model.HostingStatus {
	if daysSinceTheyHosted != nil && *daysSinceTheyHosted > overdueThresholdDays {
		return model.StatusOverdue
	}

	diff := theyHosted - weHosted
	switch {
	case diff >= -1 && diff <= 1:
		return model.StatusBalanced
	case diff > 1:
		// They have hosted disproportionately more; we owe a turn.
		return model.StatusWeOwe
	default:
		return model.StatusTheyOwe
	}
}
