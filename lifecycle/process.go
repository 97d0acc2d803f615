package lifecycle

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// Decision actions accepted by ProcessTasks.
const (
	ActionSchedule = "schedule"
	ActionWaiting  = "waiting"
	ActionSomeday  = "someday"
	ActionComplete = "complete"
)

// ScheduleData places a task into the weekly schedule.
type ScheduleData struct {
	Date            string `json:"date"`
	Day             string `json:"day,omitempty"`
	TimeBlock       string `json:"timeBlock"`
	PlannedDuration string `json:"plannedDuration,omitempty"`
}

// WaitingData parks a task on an external dependency.
type WaitingData struct {
	WaitingFor    string `json:"waitingFor"`
	ContactPerson string `json:"contactPerson,omitempty"`
	ExpectedDate  string `json:"expectedDate,omitempty"`
}

// SomedayData defers a task for later review.
type SomedayData struct {
	Reason     string `json:"reason,omitempty"`
	ReviewDate string `json:"reviewDate,omitempty"`
}

// Decision is one weekly-review choice for a captured task.
type Decision struct {
	Action       string        `json:"action"`
	ScheduleData *ScheduleData `json:"scheduleData,omitempty"`
	WaitingData  *WaitingData  `json:"waitingData,omitempty"`
	SomedayData  *SomedayData  `json:"somedayData,omitempty"`
}

// ProcessResult counts the outcomes of one ProcessTasks call. Errors are
// per task; one failure never blocks the rest of the batch.
type ProcessResult struct {
	Scheduled int      `json:"scheduled"`
	Waiting   int      `json:"waiting"`
	Someday   int      `json:"someday"`
	Completed int      `json:"completed"`
	Errors    []string `json:"errors"`
}

// ProcessTasks applies one decision per task id, pairing taskIDs[i] with
// decisions[i].
func (s *Service) ProcessTasks(ctx context.Context, taskIDs []string, decisions []Decision) (ProcessResult, error) {
	if len(taskIDs) != len(decisions) {
		return ProcessResult{}, &domain.ValidationError{Message: "taskIds and decisions must have equal length"}
	}
	result := ProcessResult{Errors: []string{}}
	for i, taskID := range taskIDs {
		decision := decisions[i]
		var err error
		switch decision.Action {
		case ActionSchedule:
			_, err = s.MoveToSchedule(ctx, taskID, decision.ScheduleData)
			if err == nil {
				result.Scheduled++
			}
		case ActionWaiting:
			_, err = s.MoveToWaiting(ctx, taskID, decision.WaitingData)
			if err == nil {
				result.Waiting++
			}
		case ActionSomeday:
			_, err = s.MoveToSomeday(ctx, taskID, decision.SomedayData)
			if err == nil {
				result.Someday++
			}
		case ActionComplete:
			err = s.MarkCompleted(ctx, taskID)
			if err == nil {
				result.Completed++
			}
		default:
			err = &domain.ValidationError{Message: "invalid action: " + decision.Action}
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Task %s: %s", taskID, err.Error()))
		}
	}
	s.log.WithFields(log.Fields{
		"scheduled": result.Scheduled,
		"waiting":   result.Waiting,
		"someday":   result.Someday,
		"completed": result.Completed,
		"errors":    len(result.Errors),
	}).Info("weekly review processing completed")
	return result, nil
}

// MoveToSchedule turns a captured task into a schedule row and marks the
// capture moved.
func (s *Service) MoveToSchedule(ctx context.Context, taskID string, data *ScheduleData) (domain.ScheduledTask, error) {
	if data == nil || data.Date == "" || data.TimeBlock == "" {
		return domain.ScheduledTask{}, &domain.ValidationError{Message: "schedule date and time block are required"}
	}
	task, err := s.store.CapturedTask(ctx, taskID)
	if err != nil {
		return domain.ScheduledTask{}, err
	}
	day := data.Day
	if day == "" {
		day = domain.DayName(data.Date)
	}
	duration := data.PlannedDuration
	if duration == "" {
		duration = "1 hour"
	}
	scheduled := domain.ScheduledTask{
		ID:              uuid.NewString(),
		CompanyID:       task.CompanyID,
		Date:            data.Date,
		Day:             day,
		TimeBlock:       data.TimeBlock,
		Name:            task.Name,
		Category:        task.Category,
		Priority:        task.Priority,
		PlannedDuration: duration,
		Notes:           task.Notes,
		Status:          domain.SchedulePlanned,
	}
	if err := s.store.InsertScheduled(ctx, scheduled); err != nil {
		return domain.ScheduledTask{}, err
	}
	if err := s.store.MarkCapturedMoved(ctx, taskID, domain.CaptureMovedToSchedule); err != nil {
		return domain.ScheduledTask{}, err
	}
	return scheduled, nil
}

// MoveToWaiting parks a captured task on an external dependency.
func (s *Service) MoveToWaiting(ctx context.Context, taskID string, data *WaitingData) (domain.WaitingItem, error) {
	if data == nil || data.WaitingFor == "" {
		return domain.WaitingItem{}, &domain.ValidationError{Message: "waitingFor is required"}
	}
	task, err := s.store.CapturedTask(ctx, taskID)
	if err != nil {
		return domain.WaitingItem{}, err
	}
	item := domain.WaitingItem{
		ID:            uuid.NewString(),
		CompanyID:     task.CompanyID,
		Name:          task.Name,
		Category:      task.Category,
		Priority:      task.Priority,
		WaitingFor:    data.WaitingFor,
		ContactPerson: data.ContactPerson,
		ExpectedDate:  data.ExpectedDate,
		Notes:         task.Notes,
		Status:        domain.WaitingOpen,
		CreatedAt:     s.now(),
	}
	if err := s.store.InsertWaiting(ctx, item); err != nil {
		return domain.WaitingItem{}, err
	}
	if err := s.store.MarkCapturedMoved(ctx, taskID, domain.CaptureMovedToWaiting); err != nil {
		return domain.WaitingItem{}, err
	}
	return item, nil
}

// MoveToSomeday defers a captured task. The review date defaults to three
// months out.
func (s *Service) MoveToSomeday(ctx context.Context, taskID string, data *SomedayData) (domain.SomedayItem, error) {
	task, err := s.store.CapturedTask(ctx, taskID)
	if err != nil {
		return domain.SomedayItem{}, err
	}
	reason := "Future consideration"
	reviewDate := s.clock().UTC().AddDate(0, 3, 0).Format(domain.DateLayout)
	if data != nil {
		if data.Reason != "" {
			reason = data.Reason
		}
		if data.ReviewDate != "" {
			reviewDate = data.ReviewDate
		}
	}
	item := domain.SomedayItem{
		ID:         uuid.NewString(),
		CompanyID:  task.CompanyID,
		Name:       task.Name,
		Category:   task.Category,
		Priority:   task.Priority,
		Reason:     reason,
		ReviewDate: reviewDate,
		Notes:      task.Notes,
		Status:     domain.SomedayOpen,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertSomeday(ctx, item); err != nil {
		return domain.SomedayItem{}, err
	}
	if err := s.store.MarkCapturedMoved(ctx, taskID, domain.CaptureMovedToSomeday); err != nil {
		return domain.SomedayItem{}, err
	}
	return item, nil
}

// MarkCompleted closes a captured task without scheduling it.
func (s *Service) MarkCompleted(ctx context.Context, taskID string) error {
	if _, err := s.store.CapturedTask(ctx, taskID); err != nil {
		return err
	}
	return s.store.MarkCapturedMoved(ctx, taskID, domain.CaptureCompleted)
}

// WaitingList returns the company's open waiting items, soonest expected
// first. Items without an expected date sort last.
func (s *Service) WaitingList(ctx context.Context, companyID string) ([]domain.WaitingItem, error) {
	items, err := s.store.WaitingItems(ctx, companyID)
	if err != nil {
		return nil, err
	}
	open := []domain.WaitingItem{}
	for _, item := range items {
		if item.Status != domain.WaitingResolved {
			open = append(open, item)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i].ExpectedDate, open[j].ExpectedDate
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})
	return open, nil
}

// SomedayList returns the company's parked items ordered by review date.
func (s *Service) SomedayList(ctx context.Context, companyID string) ([]domain.SomedayItem, error) {
	items, err := s.store.SomedayItems(ctx, companyID)
	if err != nil {
		return nil, err
	}
	open := []domain.SomedayItem{}
	for _, item := range items {
		if item.Status != domain.SomedayActivated {
			open = append(open, item)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].ReviewDate < open[j].ReviewDate
	})
	return open, nil
}

// ResolveWaiting schedules a waiting item once its dependency clears. The
// waiting row is marked Resolved, never deleted.
func (s *Service) ResolveWaiting(ctx context.Context, waitingID string, data *ScheduleData) (domain.ScheduledTask, error) {
	if data == nil || data.Date == "" || data.TimeBlock == "" {
		return domain.ScheduledTask{}, &domain.ValidationError{Message: "schedule date and time block are required"}
	}
	item, err := s.store.WaitingItem(ctx, waitingID)
	if err != nil {
		return domain.ScheduledTask{}, err
	}
	day := data.Day
	if day == "" {
		day = domain.DayName(data.Date)
	}
	duration := data.PlannedDuration
	if duration == "" {
		duration = "1 hour"
	}
	scheduled := domain.ScheduledTask{
		ID:              uuid.NewString(),
		CompanyID:       item.CompanyID,
		Date:            data.Date,
		Day:             day,
		TimeBlock:       data.TimeBlock,
		Name:            item.Name,
		Category:        item.Category,
		Priority:        item.Priority,
		PlannedDuration: duration,
		Notes:           item.Notes + " (Resolved from waiting list)",
		Status:          domain.SchedulePlanned,
	}
	if err := s.store.MarkWaitingResolved(ctx, waitingID); err != nil {
		return domain.ScheduledTask{}, err
	}
	if err := s.store.InsertScheduled(ctx, scheduled); err != nil {
		return domain.ScheduledTask{}, err
	}
	return scheduled, nil
}

// ActivateSomeday sends a parked item back through quick capture for the
// next weekly review. The someday row is marked Activated.
func (s *Service) ActivateSomeday(ctx context.Context, somedayID string) (domain.CapturedTask, error) {
	item, err := s.store.SomedayItem(ctx, somedayID)
	if err != nil {
		return domain.CapturedTask{}, err
	}
	if err := s.store.MarkSomedayActivated(ctx, somedayID); err != nil {
		return domain.CapturedTask{}, err
	}
	return s.Capture(ctx, domain.CapturedTask{
		CompanyID: item.CompanyID,
		Name:      item.Name + " (From Someday)",
		Category:  item.Category,
		Priority:  item.Priority,
		Notes:     item.Notes + " (Activated from someday list)",
	})
}
