package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/JONIJAIN/bms/domain"
)

func TestWeekScheduleGroupsAndSorts(t *testing.T) {
	store := newMockStore()
	store.scheduled["s1"] = domain.ScheduledTask{
		ID: "s1", CompanyID: "c", Date: "2026-08-24", Day: "Monday",
		TimeBlock: "14:00-15:00", Status: domain.SchedulePlanned,
	}
	store.scheduled["s2"] = domain.ScheduledTask{
		ID: "s2", CompanyID: "c", Date: "2026-08-24", Day: "Monday",
		TimeBlock: "08:00-09:00", Status: domain.SchedulePlanned,
	}
	store.scheduled["s3"] = domain.ScheduledTask{
		ID: "s3", CompanyID: "c", Date: "2026-09-10", Day: "Thursday",
		TimeBlock: "08:00-09:00", Status: domain.SchedulePlanned,
	}

	week, err := newTestService(store).WeekSchedule(context.Background(), "c", "2026-08-24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(week) != 7 {
		t.Fatalf("every day of the week must be present, got %d", len(week))
	}
	monday := week["Monday"]
	if len(monday.Tasks) != 2 {
		t.Fatalf("expected two Monday tasks, got %d", len(monday.Tasks))
	}
	if monday.Tasks[0].ID != "s2" {
		t.Fatalf("tasks must sort by time block, got %s first", monday.Tasks[0].ID)
	}
	if len(week["Thursday"].Tasks) != 0 {
		t.Fatal("a task outside the week must not appear")
	}
	if week["Sunday"].Date != "2026-08-30" {
		t.Fatalf("unexpected Sunday date %s", week["Sunday"].Date)
	}
}

func TestStartAndStopTrackingLogsTimeEntry(t *testing.T) {
	store := newMockStore()
	store.companies["c"] = domain.Company{ID: "c", MVOT: 4348}
	store.scheduled["s1"] = domain.ScheduledTask{
		ID: "s1", CompanyID: "c", Date: "2026-08-27", Day: "Thursday",
		TimeBlock: "10:00-12:00", Name: "Supplier review", Category: "Meetings",
		PlannedDuration: "2 hours", Status: domain.SchedulePlanned,
	}
	svc := newTestService(store)

	started, err := svc.StartTracking(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started.Status != domain.ScheduleInProgress {
		t.Fatalf("expected In Progress, got %q", started.Status)
	}
	if started.ActualStart != "2026-08-27T10:00:00Z" {
		t.Fatalf("expected timestamped start, got %q", started.ActualStart)
	}

	stopped, err := svc.StopTracking(context.Background(), "s1", "2026-08-27T12:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stopped.Status != domain.ScheduleCompleted {
		t.Fatalf("expected Completed, got %q", stopped.Status)
	}

	if len(store.entries) != 1 {
		t.Fatalf("stopping must log exactly one time entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.ActualHours != 2.5 {
		t.Fatalf("expected 2.5 tracked hours, got %g", entry.ActualHours)
	}
	if entry.MVOTCost != 2.5*4348 {
		t.Fatalf("cost must value hours at the MVOT rate, got %g", entry.MVOTCost)
	}
	if entry.PlannedHours != 2 {
		t.Fatalf("planned hours parse from the duration text, got %g", entry.PlannedHours)
	}
}

func TestStopTrackingAcrossMidnight(t *testing.T) {
	store := newMockStore()
	store.companies["c"] = domain.Company{ID: "c", MVOT: 4348}
	store.scheduled["s1"] = domain.ScheduledTask{
		ID: "s1", CompanyID: "c", Date: "2026-08-27", Day: "Thursday",
		Name: "Month-end close", Status: domain.ScheduleInProgress,
		ActualStart: "2026-08-27T23:30:00Z",
	}

	if _, err := newTestService(store).StopTracking(context.Background(), "s1", "2026-08-28T00:15:00Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one time entry, got %d", len(store.entries))
	}
	if store.entries[0].ActualHours != 0.75 {
		t.Fatalf("a session over midnight is 0.75 hours, got %g", store.entries[0].ActualHours)
	}
	if store.entries[0].MVOTCost != 0.75*4348 {
		t.Fatalf("unexpected cost %g", store.entries[0].MVOTCost)
	}
}

func TestStopTrackingRejectsEndBeforeStart(t *testing.T) {
	store := newMockStore()
	store.companies["c"] = domain.Company{ID: "c", MVOT: 4348}
	store.scheduled["s1"] = domain.ScheduledTask{
		ID: "s1", CompanyID: "c", Status: domain.ScheduleInProgress,
		ActualStart: "2026-08-27T10:00:00Z",
	}

	_, err := newTestService(store).StopTracking(context.Background(), "s1", "2026-08-27T09:00:00Z")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("no time entry may be written, got %d", len(store.entries))
	}
	if store.scheduled["s1"].ActualEnd != "" {
		t.Fatalf("rejected end must not persist, got %q", store.scheduled["s1"].ActualEnd)
	}
}

func TestUpdateScheduledRejectsMalformedTimestamps(t *testing.T) {
	store := newMockStore()
	store.companies["c"] = domain.Company{ID: "c", MVOT: 4348}
	store.scheduled["s1"] = domain.ScheduledTask{
		ID: "s1", CompanyID: "c", Status: domain.ScheduleInProgress,
		ActualStart: "10:00",
	}

	if _, err := newTestService(store).UpdateScheduled(context.Background(), "s1",
		ScheduledUpdate{ActualEnd: "2026-08-27T12:30:00Z"}); err == nil {
		t.Fatal("a bare clock start must be rejected, not valued at zero")
	}
	if len(store.entries) != 0 {
		t.Fatalf("no time entry may be written, got %d", len(store.entries))
	}
}

func TestStopTrackingWithoutStart(t *testing.T) {
	store := newMockStore()
	store.scheduled["s1"] = domain.ScheduledTask{ID: "s1", CompanyID: "c", Status: domain.SchedulePlanned}

	if _, err := newTestService(store).StopTracking(context.Background(), "s1", ""); err == nil {
		t.Fatal("stopping an unstarted task must fail")
	}
	if len(store.entries) != 0 {
		t.Fatalf("no time entry may be written, got %d", len(store.entries))
	}
}

func TestUpdateScheduledAppendsNotes(t *testing.T) {
	store := newMockStore()
	store.scheduled["s1"] = domain.ScheduledTask{
		ID: "s1", CompanyID: "c", Notes: "first", Status: domain.SchedulePlanned,
	}

	updated, err := newTestService(store).UpdateScheduled(context.Background(), "s1",
		ScheduledUpdate{Notes: "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Notes != "first\nsecond" {
		t.Fatalf("notes must append, got %q", updated.Notes)
	}
}

func TestCreateWeekTemplate(t *testing.T) {
	store := newMockStore()

	created, err := newTestService(store).CreateWeekTemplate(context.Background(), "c", "2026-08-24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 7 {
		t.Fatalf("the standing template has seven blocks, got %d", created)
	}

	var tuesdayMagic bool
	for _, task := range store.scheduled {
		if task.Category == "Business Development" && task.Day == "Tuesday" {
			tuesdayMagic = true
			if task.Date != "2026-08-25" {
				t.Fatalf("Tuesday block must land on the week's Tuesday, got %s", task.Date)
			}
			if task.TimeBlock != "08:00-12:00" {
				t.Fatalf("unexpected Tuesday Magic slot %s", task.TimeBlock)
			}
		}
	}
	if !tuesdayMagic {
		t.Fatal("the template must include the Tuesday Magic block")
	}
}

func TestScheduleTuesdayMagicUsesSetting(t *testing.T) {
	store := newMockStore()
	store.settings[domain.SettingTuesdayMagicTime] = "07:00-11:00"

	task, err := newTestService(store).ScheduleTuesdayMagic(context.Background(), "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.TimeBlock != "07:00-11:00" {
		t.Fatalf("time block must come from settings, got %s", task.TimeBlock)
	}
	// Clock is Thursday 2026-08-27; the next Tuesday is 2026-09-01.
	if task.Date != "2026-09-01" {
		t.Fatalf("expected next Tuesday, got %s", task.Date)
	}
	if task.Day != "Tuesday" || task.Status != domain.SchedulePlanned {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestBatchedTasks(t *testing.T) {
	store := newMockStore()
	store.scheduled["s1"] = domain.ScheduledTask{ID: "s1", CompanyID: "c", Date: "2026-08-24", Category: "Emails"}
	store.scheduled["s2"] = domain.ScheduledTask{ID: "s2", CompanyID: "c", Date: "2026-08-25", Category: "Business Development"}

	batches, err := newTestService(store).BatchedTasks(context.Background(), "c", "2026-08-24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches["Emails"]) != 1 {
		t.Fatalf("expected the email task in its batch, got %+v", batches)
	}
	if _, ok := batches["Business Development"]; ok {
		t.Fatal("only the four standing batch categories are grouped")
	}
}
