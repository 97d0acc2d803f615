package batching

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// ImplementResult reports what a batch implementation run changed. Errors are
// per recommendation; one failure never blocks the others.
type ImplementResult struct {
	Implemented         int      `json:"implemented"`
	TasksMovedToBatches int      `json:"tasksMovedToBatches"`
	TimeBlocksCreated   int      `json:"timeBlocksCreated"`
	Errors              []string `json:"errors"`
}

// Implement materializes accepted recommendations: one batch-session schedule
// row per recommendation on its category's recommended day, with every
// matching task either moved out of capture or marked Batched in place.
//
// Re-running for the same week merges into the existing session block instead
// of duplicating it, and skips tasks that are already batched, so a repeat
// invocation with nothing new to move reports zero blocks and zero tasks.
func (a *Analyzer) Implement(ctx context.Context, companyID, weekStart string, recs []Recommendation) (ImplementResult, error) {
	result := ImplementResult{Errors: []string{}}

	week, err := a.store.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		return result, fmt.Errorf("implement batching: %w", err)
	}
	captured, err := a.store.CapturedToProcess(ctx, companyID)
	if err != nil {
		return result, fmt.Errorf("implement batching: %w", err)
	}

	for _, rec := range recs {
		moved, created, err := a.implementOne(ctx, companyID, weekStart, rec, week, captured)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", rec.Type, err.Error()))
			continue
		}
		result.Implemented++
		result.TasksMovedToBatches += moved
		result.TimeBlocksCreated += created
	}

	a.log.WithFields(log.Fields{
		"company":        companyID,
		"week_start":     weekStart,
		"implemented":    result.Implemented,
		"tasks_moved":    result.TasksMovedToBatches,
		"blocks_created": result.TimeBlocksCreated,
		"errors":         len(result.Errors),
	}).Info("batching implementation completed")
	return result, nil
}

func (a *Analyzer) implementOne(ctx context.Context, companyID, weekStart string, rec Recommendation, week []domain.ScheduledTask, captured []domain.CapturedTask) (moved, created int, err error) {
	cfg, ok := a.cfg.Categories[rec.Category]
	if !ok {
		return 0, 0, &domain.ValidationError{Message: "unknown batch category: " + rec.Category}
	}

	var pendingCaptured []domain.CapturedTask
	for _, t := range captured {
		if t.Category == rec.Category {
			pendingCaptured = append(pendingCaptured, t)
		}
	}
	var pendingScheduled []domain.ScheduledTask
	var session *domain.ScheduledTask
	for i, t := range week {
		if t.Category != rec.Category {
			continue
		}
		if session == nil && isBatchSession(t, cfg) {
			session = &week[i]
			continue
		}
		if t.Status != domain.ScheduleBatched {
			pendingScheduled = append(pendingScheduled, t)
		}
	}

	if len(pendingCaptured)+len(pendingScheduled) == 0 {
		return 0, 0, nil
	}

	batchDate, err := domain.DateForWeekday(weekStart, cfg.RecommendedDay)
	if err != nil {
		return 0, 0, err
	}

	sessionID := ""
	if session != nil {
		sessionID = session.ID
	} else {
		sessionID = uuid.NewString()
		duration := rec.TimeBlocked
		if duration == "" {
			duration = "2 hours"
		}
		err = a.store.InsertScheduled(ctx, domain.ScheduledTask{
			ID:              sessionID,
			CompanyID:       companyID,
			Date:            batchDate,
			Day:             cfg.RecommendedDay,
			TimeBlock:       cfg.RecommendedTimeBlock,
			Name:            rec.Type + " - Batch Session",
			Category:        rec.Category,
			Priority:        domain.PriorityHigh,
			PlannedDuration: duration,
			Notes:           fmt.Sprintf("Batch processing: %s. Tasks: %d", rec.Description, rec.Tasks),
			Status:          domain.SchedulePlanned,
		})
		if err != nil {
			return 0, 0, err
		}
		created = 1
	}

	for _, t := range pendingCaptured {
		if err := a.store.AppendScheduleNote(ctx, sessionID, "• "+t.Name); err != nil {
			a.log.Warnf("append batch session note for %s: %v", t.ID, err)
		}
		if err := a.store.MarkCapturedMoved(ctx, t.ID, domain.CaptureMovedToBatch); err != nil {
			return moved, created, err
		}
		moved++
	}
	for _, t := range pendingScheduled {
		note := fmt.Sprintf("Moved to batch session %s for improved efficiency", sessionID)
		if err := a.store.MarkScheduledBatched(ctx, t.ID, note); err != nil {
			return moved, created, err
		}
		moved++
	}
	return moved, created, nil
}

// isBatchSession recognizes a previously created session block for the
// category's recommended slot.
func isBatchSession(t domain.ScheduledTask, cfg CategoryConfig) bool {
	return t.Day == cfg.RecommendedDay &&
		t.TimeBlock == cfg.RecommendedTimeBlock &&
		t.Status == domain.SchedulePlanned &&
		hasBatchSessionName(t.Name)
}

func hasBatchSessionName(name string) bool {
	const suffix = " - Batch Session"
	return len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix
}
