package timestats

import (
	"context"
	"testing"

	"github.com/JONIJAIN/bms/domain"
)

func TestCompanyStats(t *testing.T) {
	store := &mockStore{
		company: domain.Company{ID: "company-1", MVOT: 4348},
		captures: []domain.CapturedTask{
			{ID: "c1", Category: "Emails", Priority: domain.PriorityHigh, Status: domain.CaptureToProcess},
			{ID: "c2", Status: domain.CaptureToProcess},
			{ID: "c3", Category: "Emails", Status: domain.CaptureCompleted},
		},
		scheduled: []domain.ScheduledTask{
			// Clock week is 2026-08-24 .. 2026-08-30.
			{ID: "s1", Date: "2026-08-24", Status: domain.ScheduleCompleted, PlannedDuration: "2 hours",
				ActualStart: "2026-08-24T09:00:00Z", ActualEnd: "2026-08-24T11:30:00Z"},
			{ID: "s2", Date: "2026-08-26", Status: domain.SchedulePlanned, PlannedDuration: "1 hour"},
			{ID: "s3", Date: "2026-08-10", Status: domain.SchedulePlanned, PlannedDuration: "1 hour"},
		},
		waiting: []domain.WaitingItem{
			{ID: "w1", Status: domain.WaitingOpen, ExpectedDate: "2026-08-20"},
			{ID: "w2", Status: domain.WaitingOpen, ExpectedDate: "2026-08-30"},
			{ID: "w3", Status: domain.WaitingResolved, ExpectedDate: "2026-08-01"},
		},
		someday: []domain.SomedayItem{
			{ID: "d1", Status: domain.SomedayOpen, ReviewDate: "2026-08-01"},
			{ID: "d2", Status: domain.SomedayOpen, ReviewDate: "2026-12-01"},
		},
		entries: []domain.TimeEntry{
			{Date: "2026-08-25", Category: "Emails", ActualHours: 2, MVOTCost: 8696},
			{Date: "2026-08-05", Category: "Meetings", ActualHours: 3, MVOTCost: 13044},
		},
	}

	stats, err := newTestService(store).CompanyStats(context.Background(), "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.QuickCapture.Total != 3 || stats.QuickCapture.ToProcess != 2 {
		t.Fatalf("unexpected capture stats: %+v", stats.QuickCapture)
	}
	if stats.QuickCapture.ByCategory["Uncategorized"] != 1 {
		t.Fatalf("an empty category counts as Uncategorized: %+v", stats.QuickCapture.ByCategory)
	}

	if stats.WeeklyTasks.ThisWeek != 2 {
		t.Fatalf("only this week's rows count, got %d", stats.WeeklyTasks.ThisWeek)
	}
	if stats.WeeklyTasks.CompletionRate != 50 {
		t.Fatalf("expected 50%% completion, got %d", stats.WeeklyTasks.CompletionRate)
	}
	if stats.WeeklyTasks.TotalActualHours != 2.5 {
		t.Fatalf("expected 2.5 tracked hours, got %g", stats.WeeklyTasks.TotalActualHours)
	}

	if stats.WaitingList.Total != 2 || stats.WaitingList.Overdue != 1 || stats.WaitingList.ThisWeek != 1 {
		t.Fatalf("unexpected waiting stats: %+v", stats.WaitingList)
	}
	if stats.SomedayList.Total != 2 || stats.SomedayList.NeedReview != 1 {
		t.Fatalf("unexpected someday stats: %+v", stats.SomedayList)
	}

	if stats.Productivity.WeeklyHours != 2 || stats.Productivity.MonthlyHours != 5 {
		t.Fatalf("unexpected productivity hours: %+v", stats.Productivity)
	}
	if stats.MVOTSummary.MonthlyTargetHours != domain.WorkingHoursPerMonth {
		t.Fatalf("expected the 200-hour target, got %d", stats.MVOTSummary.MonthlyTargetHours)
	}
	if stats.MVOTSummary.Efficiency != 3 {
		t.Fatalf("5 of 200 hours rounds to 3%%, got %d", stats.MVOTSummary.Efficiency)
	}
}

func TestDashboard(t *testing.T) {
	store := &mockStore{
		company: domain.Company{ID: "company-1"},
		scheduled: []domain.ScheduledTask{
			{ID: "s1", Name: "Upcoming", Date: "2026-08-29", Status: domain.SchedulePlanned},
			{ID: "s2", Name: "Too far", Date: "2026-10-01", Status: domain.SchedulePlanned},
			{ID: "s3", Name: "Done", Date: "2026-08-25", Status: domain.ScheduleCompleted},
		},
		captures: []domain.CapturedTask{
			{ID: "c1", Name: "Fresh idea", CreatedAt: "2026-08-26", Status: domain.CaptureToProcess},
			{ID: "c2", Name: "Old idea", CreatedAt: "2026-07-01", Status: domain.CaptureToProcess},
		},
	}

	dashboard, err := newTestService(store).Dashboard(context.Background(), "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dashboard.UpcomingTasks) != 1 || dashboard.UpcomingTasks[0].ID != "s1" {
		t.Fatalf("expected only the 7-day planned task, got %+v", dashboard.UpcomingTasks)
	}
	if len(dashboard.RecentActivity) != 2 {
		t.Fatalf("expected a capture and a completion, got %+v", dashboard.RecentActivity)
	}
	if dashboard.RecentActivity[0].Description != "Fresh idea" {
		t.Fatalf("activity must sort newest first, got %+v", dashboard.RecentActivity)
	}
	if dashboard.LastUpdated == "" {
		t.Fatal("expected a lastUpdated timestamp")
	}
}
