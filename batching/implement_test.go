package batching

import (
	"context"
	"strings"
	"testing"

	"github.com/JONIJAIN/bms/domain"
)

func emailBatchRecommendation(tasks int) Recommendation {
	return Recommendation{
		Type:        "Email Batch",
		Priority:    domain.PriorityMedium,
		Category:    "Emails",
		Description: "Batch all email processing",
		Tasks:       tasks,
		TimeBlocked: "1 hour",
	}
}

func TestImplementCreatesSessionAndMovesTasks(t *testing.T) {
	store := newMockStore()
	store.captured = capturedTasks("Emails", 3)
	store.week = []domain.ScheduledTask{
		{ID: "s1", Name: "Reply to supplier", Category: "Emails", Status: domain.SchedulePlanned},
	}

	result, err := newTestAnalyzer(store).Implement(context.Background(), "company-1", "2026-08-24", []Recommendation{emailBatchRecommendation(4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Implemented != 1 {
		t.Fatalf("expected 1 implemented recommendation, got %d", result.Implemented)
	}
	if result.TimeBlocksCreated != 1 {
		t.Fatalf("expected 1 created block, got %d", result.TimeBlocksCreated)
	}
	if result.TasksMovedToBatches != 4 {
		t.Fatalf("expected 4 tasks moved, got %d", result.TasksMovedToBatches)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected one session row, got %d", len(store.inserted))
	}
	session := store.inserted[0]
	if session.Day != "Friday" || session.TimeBlock != "14:00-15:00" {
		t.Fatalf("email batch must land in the Friday slot, got %s %s", session.Day, session.TimeBlock)
	}
	if session.Date != "2026-08-28" {
		t.Fatalf("expected batch date 2026-08-28, got %s", session.Date)
	}
	if !strings.HasSuffix(session.Name, " - Batch Session") {
		t.Fatalf("session name must carry the batch suffix, got %q", session.Name)
	}

	for _, c := range store.captured {
		if store.capturedMoves[c.ID] != domain.CaptureMovedToBatch {
			t.Fatalf("captured task %s was not moved to batch: %v", c.ID, store.capturedMoves)
		}
	}
	if _, ok := store.batchedNotes["s1"]; !ok {
		t.Fatal("scheduled email task must be marked batched, never deleted")
	}
	if len(store.notes[session.ID]) != 3 {
		t.Fatalf("expected one session note per captured task, got %v", store.notes[session.ID])
	}
}

func TestImplementMergesIntoExistingSession(t *testing.T) {
	store := newMockStore()
	store.week = []domain.ScheduledTask{
		{
			ID:        "session-1",
			Name:      "Email Batch - Batch Session",
			Category:  "Emails",
			Day:       "Friday",
			TimeBlock: "14:00-15:00",
			Status:    domain.SchedulePlanned,
		},
	}
	store.captured = capturedTasks("Emails", 2)

	result, err := newTestAnalyzer(store).Implement(context.Background(), "company-1", "2026-08-24", []Recommendation{emailBatchRecommendation(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TimeBlocksCreated != 0 {
		t.Fatalf("a repeat run must reuse the existing session, created %d", result.TimeBlocksCreated)
	}
	if result.TasksMovedToBatches != 2 {
		t.Fatalf("expected 2 tasks merged into the session, got %d", result.TasksMovedToBatches)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("no new rows expected, got %v", store.inserted)
	}
	if len(store.notes["session-1"]) != 2 {
		t.Fatalf("notes must append to the existing session, got %v", store.notes)
	}
}

func TestImplementIdempotentWhenNothingPending(t *testing.T) {
	store := newMockStore()
	store.week = []domain.ScheduledTask{
		{
			ID:        "session-1",
			Name:      "Email Batch - Batch Session",
			Category:  "Emails",
			Day:       "Friday",
			TimeBlock: "14:00-15:00",
			Status:    domain.SchedulePlanned,
		},
		{ID: "s2", Name: "Old email task", Category: "Emails", Status: domain.ScheduleBatched},
	}

	result, err := newTestAnalyzer(store).Implement(context.Background(), "company-1", "2026-08-24", []Recommendation{emailBatchRecommendation(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TimeBlocksCreated != 0 || result.TasksMovedToBatches != 0 {
		t.Fatalf("nothing pending must change nothing, got %+v", result)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("no session rows expected, got %v", store.inserted)
	}
}

func TestImplementCollectsPerRecommendationErrors(t *testing.T) {
	store := newMockStore()
	store.captured = capturedTasks("Emails", 3)

	recs := []Recommendation{
		{Type: TypeCommunicationBatch, Category: "Communication", Tasks: 3},
		emailBatchRecommendation(3),
	}
	result, err := newTestAnalyzer(store).Implement(context.Background(), "company-1", "2026-08-24", recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error for the unknown category, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Communication") {
		t.Fatalf("error must name the failing category, got %q", result.Errors[0])
	}
	if result.Implemented != 1 {
		t.Fatalf("the valid recommendation must still run, got %d", result.Implemented)
	}
}
