package stats

import (
	"testing"
	"time"

	"github.com/hosttab/hosttab/internal/model"
)

func intPtr(n int) *int { return &n }

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name      string
		they      int
		we        int
		daysSince *int
		threshold int
		want      model.HostingStatus
	}{
		{"overdue beats balanced counts", 5, 5, intPtr(200), 180, model.StatusOverdue},
		{"they hosted more, we owe", 3, 0, intPtr(10), 180, model.StatusWeOwe},
		{"we hosted more, they owe", 0, 3, nil, 180, model.StatusTheyOwe},
		{"diff of one is balanced", 2, 1, intPtr(30), 180, model.StatusBalanced},
		{"diff of minus one is balanced", 1, 2, intPtr(30), 180, model.StatusBalanced},
		{"zero counts balanced", 0, 0, nil, 180, model.StatusBalanced},
		{"never hosted is not overdue", 0, 4, nil, 180, model.StatusTheyOwe},
		{"exactly at threshold is not overdue", 5, 5, intPtr(180), 180, model.StatusBalanced},
		{"one past threshold is overdue", 0, 5, intPtr(181), 180, model.StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.they, tt.we, tt.daysSince, tt.threshold)
			if got != tt.want {
				t.Errorf("ComputeStatus(%d, %d, %v, %d) = %s, want %s",
					tt.they, tt.we, tt.daysSince, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	days, ok := DaysSince("2026-08-18", now)
	if !ok || days != 10 {
		t.Errorf("DaysSince = %d, %v; want 10, true", days, ok)
	}

	// Same day: partial day floors to zero.
	days, ok = DaysSince("2026-08-28", now)
	if !ok || days != 0 {
		t.Errorf("DaysSince same day = %d, %v; want 0, true", days, ok)
	}

	if _, ok := DaysSince("not-a-date", now); ok {
		t.Error("expected ok=false for unparseable date")
	}
}

func hostingEvent(familyID string, category model.HostingCategory, date string) model.HostingEvent {
	return model.HostingEvent{
		ID:       "he-" + date + string(category),
		FamilyID: familyID,
		Category: category,
		Date:     date,
		Method:   model.MethodAutoRule,
	}
}

func TestAggregate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	events := []model.HostingEvent{
		hostingEvent("fam-1", model.CategoryTheyHosted, "2026-05-01"),
		hostingEvent("fam-1", model.CategoryTheyHosted, "2026-08-20"),
		hostingEvent("fam-1", model.CategoryWeHosted, "2026-07-04"),
		hostingEvent("fam-1", model.CategoryNeutral, "2026-06-15"),
		hostingEvent("fam-2", model.CategoryTheyHosted, "2026-08-25"), // other family, ignored
	}

	s := Aggregate("fam-1", events, 180, now)

	if s.TheyHostedCount != 2 || s.WeHostedCount != 1 || s.NeutralCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", s.TheyHostedCount, s.WeHostedCount, s.NeutralCount)
	}
	if s.LastTheyHosted != "2026-08-20" {
		t.Errorf("LastTheyHosted = %s, want 2026-08-20", s.LastTheyHosted)
	}
	if s.LastWeHosted != "2026-07-04" {
		t.Errorf("LastWeHosted = %s, want 2026-07-04", s.LastWeHosted)
	}
	if s.DaysSinceTheyHosted == nil || *s.DaysSinceTheyHosted != 8 {
		t.Errorf("DaysSinceTheyHosted = %v, want 8", s.DaysSinceTheyHosted)
	}
	if s.Status != model.StatusBalanced {
		t.Errorf("Status = %s, want balanced", s.Status)
	}
	if s.IsOverdue {
		t.Error("IsOverdue should be false")
	}
}

func TestAggregate_NeverHosted(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	events := []model.HostingEvent{
		hostingEvent("fam-1", model.CategoryWeHosted, "2026-01-10"),
		hostingEvent("fam-1", model.CategoryWeHosted, "2026-03-10"),
		hostingEvent("fam-1", model.CategoryWeHosted, "2026-05-10"),
	}

	s := Aggregate("fam-1", events, 180, now)

	if s.DaysSinceTheyHosted != nil {
		t.Errorf("DaysSinceTheyHosted = %v, want nil when they never hosted", s.DaysSinceTheyHosted)
	}
	if s.LastTheyHosted != "" {
		t.Errorf("LastTheyHosted = %q, want empty", s.LastTheyHosted)
	}
	if s.Status != model.StatusTheyOwe {
		t.Errorf("Status = %s, want they-owe", s.Status)
	}
}

func TestAggregate_OverdueDespiteBalancedCounts(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	events := []model.HostingEvent{
		hostingEvent("fam-1", model.CategoryTheyHosted, "2025-01-01"),
		hostingEvent("fam-1", model.CategoryWeHosted, "2026-08-01"),
	}

	s := Aggregate("fam-1", events, 180, now)

	if s.Status != model.StatusOverdue {
		t.Errorf("Status = %s, want overdue", s.Status)
	}
	if !s.IsOverdue {
		t.Error("IsOverdue should be true")
	}
}

func TestAggregate_EmptyEventStream(t *testing.T) {
	s := Aggregate("fam-1", nil, 180, time.Now())

	if s.TheyHostedCount != 0 || s.WeHostedCount != 0 || s.NeutralCount != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if s.Status != model.StatusBalanced {
		t.Errorf("Status = %s, want balanced", s.Status)
	}
}
