package lifecycle

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// DaySchedule is one day's slice of the weekly schedule.
type DaySchedule struct {
	Date  string                 `json:"date"`
	Tasks []domain.ScheduledTask `json:"tasks"`
}

// WeekSchedule groups the week's tasks by day name, each day sorted by time
// block. Every day of the week is present even when empty.
func (s *Service) WeekSchedule(ctx context.Context, companyID, weekStart string) (map[string]DaySchedule, error) {
	dates, err := domain.WeekDates(weekStart)
	if err != nil {
		return nil, &domain.ValidationError{Message: "invalid week start date: " + weekStart}
	}
	tasks, err := s.store.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		return nil, err
	}

	week := make(map[string]DaySchedule, 7)
	for _, date := range dates {
		week[domain.DayName(date)] = DaySchedule{Date: date, Tasks: []domain.ScheduledTask{}}
	}
	for _, t := range tasks {
		day, ok := week[t.Day]
		if !ok {
			continue
		}
		day.Tasks = append(day.Tasks, t)
		week[t.Day] = day
	}
	for name, day := range week {
		sort.SliceStable(day.Tasks, func(i, j int) bool {
			return blockStart(day.Tasks[i].TimeBlock) < blockStart(day.Tasks[j].TimeBlock)
		})
		week[name] = day
	}
	return week, nil
}

func blockStart(timeBlock string) string {
	return strings.SplitN(timeBlock, "-", 2)[0]
}

// ScheduledUpdate carries the mutable fields of a schedule row. Notes are
// appended, not replaced.
type ScheduledUpdate struct {
	Status      string `json:"status,omitempty"`
	ActualStart string `json:"actualStart,omitempty"`
	ActualEnd   string `json:"actualEnd,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// UpdateScheduled applies the update. Setting an actual end against a known
// start closes the loop: elapsed hours are valued at the company's MVOT rate
// and appended to the time log.
func (s *Service) UpdateScheduled(ctx context.Context, taskID string, update ScheduledUpdate) (domain.ScheduledTask, error) {
	task, err := s.store.ScheduledTask(ctx, taskID)
	if err != nil {
		return domain.ScheduledTask{}, err
	}

	if update.ActualStart != "" {
		task.ActualStart = update.ActualStart
	}
	logEntry := false
	if update.ActualEnd != "" {
		task.ActualEnd = update.ActualEnd
		logEntry = task.ActualStart != ""
	}
	if update.Status != "" {
		task.Status = update.Status
	}
	if update.Notes != "" {
		if task.Notes != "" {
			task.Notes += "\n" + update.Notes
		} else {
			task.Notes = update.Notes
		}
	}

	var actualHours float64
	if logEntry {
		actualHours, err = domain.ElapsedHours(task.ActualStart, task.ActualEnd)
		if err != nil {
			return domain.ScheduledTask{}, err
		}
	}

	if err := s.store.SaveScheduled(ctx, task); err != nil {
		return domain.ScheduledTask{}, err
	}

	if logEntry {
		if err := s.logTrackedTime(ctx, task, actualHours); err != nil {
			s.log.Warnf("time entry for task %s: %v", task.ID, err)
		}
	}
	return task, nil
}

func (s *Service) logTrackedTime(ctx context.Context, task domain.ScheduledTask, actualHours float64) error {
	company, err := s.store.Company(ctx, task.CompanyID)
	if err != nil {
		return err
	}
	return s.store.InsertTimeEntry(ctx, domain.TimeEntry{
		ID:           uuid.NewString(),
		CompanyID:    task.CompanyID,
		Date:         task.Date,
		TaskName:     task.Name,
		Category:     task.Category,
		PlannedHours: task.PlannedHours(),
		ActualHours:  actualHours,
		StartTime:    task.ActualStart,
		EndTime:      task.ActualEnd,
		MVOTCost:     actualHours * company.MVOT,
	})
}

// StartTracking stamps the start timestamp and moves the task to In Progress.
func (s *Service) StartTracking(ctx context.Context, taskID string) (domain.ScheduledTask, error) {
	return s.UpdateScheduled(ctx, taskID, ScheduledUpdate{
		Status:      domain.ScheduleInProgress,
		ActualStart: s.clock().UTC().Format(time.RFC3339),
	})
}

// StopTracking stamps the end time and completes the task, which also logs
// the time entry. Stopping a task that was never started is an error; no
// entry can be valued without a start time.
func (s *Service) StopTracking(ctx context.Context, taskID, endTime string) (domain.ScheduledTask, error) {
	task, err := s.store.ScheduledTask(ctx, taskID)
	if err != nil {
		return domain.ScheduledTask{}, err
	}
	if task.ActualStart == "" {
		return domain.ScheduledTask{}, &domain.ValidationError{Message: "task has no recorded start time"}
	}
	if endTime == "" {
		endTime = s.clock().UTC().Format(time.RFC3339)
	}
	return s.UpdateScheduled(ctx, taskID, ScheduledUpdate{
		Status:    domain.ScheduleCompleted,
		ActualEnd: endTime,
	})
}

// recurringBlock is one slot of the standing weekly template.
type recurringBlock struct {
	day       string
	timeBlock string
	name      string
	category  string
	priority  string
	duration  string
}

var weeklyTemplate = []recurringBlock{
	{"Monday", "08:00-09:00", "Weekly Planning & Review", "Documentation", domain.PriorityHigh, "1 hour"},
	{"Monday", "09:00-12:00", "Documentation Batch - Approvals, Reports, Admin", "Documentation", domain.PriorityHigh, "3 hours"},
	{"Tuesday", "08:00-12:00", "Tuesday Magic - Auto-Pilot Systems", "Business Development", domain.PriorityHigh, "4 hours"},
	{"Wednesday", "14:00-16:00", "Meetings Batch - Vendors, Clients, Staff", "Meetings", domain.PriorityMedium, "2 hours"},
	{"Thursday", "14:00-15:30", "Follow-ups & Coordination Batch", "Follow-ups", domain.PriorityMedium, "1.5 hours"},
	{"Friday", "14:00-15:00", "Email & Communication Batch", "Emails", domain.PriorityMedium, "1 hour"},
	{"Friday", "15:00-16:00", "Weekly Review & Next Week Planning", "Documentation", domain.PriorityHigh, "1 hour"},
}

// CreateWeekTemplate seeds the standing batching blocks for the week.
func (s *Service) CreateWeekTemplate(ctx context.Context, companyID, weekStart string) (int, error) {
	if _, err := domain.WeekDates(weekStart); err != nil {
		return 0, &domain.ValidationError{Message: "invalid week start date: " + weekStart}
	}
	created := 0
	for _, block := range weeklyTemplate {
		date, err := domain.DateForWeekday(weekStart, block.day)
		if err != nil {
			return created, err
		}
		err = s.store.InsertScheduled(ctx, domain.ScheduledTask{
			ID:              uuid.NewString(),
			CompanyID:       companyID,
			Date:            date,
			Day:             block.day,
			TimeBlock:       block.timeBlock,
			Name:            block.name,
			Category:        block.category,
			Priority:        block.priority,
			PlannedDuration: block.duration,
			Notes:           "Weekly recurring task",
			Status:          domain.SchedulePlanned,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	s.log.WithFields(log.Fields{"company": companyID, "week_start": weekStart, "created": created}).
		Info("weekly schedule template created")
	return created, nil
}

// ScheduleTuesdayMagic books the next Tuesday's auto-pilot block. The time
// slot comes from settings, defaulting to the canonical morning block.
func (s *Service) ScheduleTuesdayMagic(ctx context.Context, companyID string) (domain.ScheduledTask, error) {
	timeBlock, err := s.store.Setting(ctx, domain.SettingTuesdayMagicTime)
	if err != nil || timeBlock == "" {
		timeBlock = "08:00-12:00"
	}
	task := domain.ScheduledTask{
		ID:              uuid.NewString(),
		CompanyID:       companyID,
		Date:            domain.NextTuesday(s.clock()),
		Day:             "Tuesday",
		TimeBlock:       timeBlock,
		Name:            "Tuesday Magic - Auto-Pilot Work",
		Category:        "Business Development",
		Priority:        domain.PriorityHigh,
		PlannedDuration: "4 hours",
		Notes:           "4 hours dedicated to building auto-pilot systems for business",
		Status:          domain.SchedulePlanned,
	}
	if err := s.store.InsertScheduled(ctx, task); err != nil {
		return domain.ScheduledTask{}, err
	}
	return task, nil
}

// BatchedTasks groups the week's tasks for the four standing batch
// categories.
func (s *Service) BatchedTasks(ctx context.Context, companyID, weekStart string) (map[string][]domain.ScheduledTask, error) {
	tasks, err := s.store.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		return nil, err
	}
	batches := map[string][]domain.ScheduledTask{
		"Meetings":      {},
		"Documentation": {},
		"Follow-ups":    {},
		"Emails":        {},
	}
	for _, t := range tasks {
		if _, ok := batches[t.Category]; ok {
			batches[t.Category] = append(batches[t.Category], t)
		}
	}
	return batches, nil
}
