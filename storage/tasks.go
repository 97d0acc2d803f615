package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/JONIJAIN/bms/domain"
)

type capturedEntity struct {
	aztables.Entity
	Name       string `json:"Name"`
	Category   string `json:"Category"`
	Priority   string `json:"Priority"`
	Notes      string `json:"Notes"`
	Status     string `json:"Status"`
	CreatedAt  string `json:"CreatedAt"`
	ModifiedAt string `json:"ModifiedAt"`
}

func capturedFromEntity(raw []byte) (domain.CapturedTask, error) {
	var ent capturedEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.CapturedTask{}, err
	}
	return domain.CapturedTask{
		ID:         ent.RowKey,
		CompanyID:  ent.PartitionKey,
		Name:       ent.Name,
		Category:   ent.Category,
		Priority:   ent.Priority,
		Notes:      ent.Notes,
		Status:     ent.Status,
		CreatedAt:  ent.CreatedAt,
		ModifiedAt: ent.ModifiedAt,
	}, nil
}

// InsertCaptured appends a quick-capture row.
func (s *Storage) InsertCaptured(ctx context.Context, t domain.CapturedTask) error {
	return insert(ctx, s.captures, capturedEntity{
		Entity:     aztables.Entity{PartitionKey: t.CompanyID, RowKey: t.ID},
		Name:       t.Name,
		Category:   t.Category,
		Priority:   t.Priority,
		Notes:      t.Notes,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
		ModifiedAt: t.ModifiedAt,
	})
}

// CapturedTask fetches one capture row by id, scanning on the row key since
// callers address rows without knowing the company.
func (s *Storage) CapturedTask(ctx context.Context, id string) (domain.CapturedTask, error) {
	var found *domain.CapturedTask
	err := scan(ctx, s.captures, rowFilter(id), func(raw []byte) error {
		t, err := capturedFromEntity(raw)
		if err != nil {
			return err
		}
		found = &t
		return nil
	})
	if err != nil {
		return domain.CapturedTask{}, err
	}
	if found == nil {
		return domain.CapturedTask{}, &domain.NotFoundError{Entity: "captured task", ID: id}
	}
	return *found, nil
}

// CapturedTasks lists every capture row of the company, whatever its status.
func (s *Storage) CapturedTasks(ctx context.Context, companyID string) ([]domain.CapturedTask, error) {
	tasks := []domain.CapturedTask{}
	err := scan(ctx, s.captures, partitionFilter(companyID), func(raw []byte) error {
		t, err := capturedFromEntity(raw)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CapturedToProcess lists the company's unprocessed inbox.
func (s *Storage) CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error) {
	all, err := s.CapturedTasks(ctx, companyID)
	if err != nil {
		return nil, err
	}
	pending := []domain.CapturedTask{}
	for _, t := range all {
		if t.Status == domain.CaptureToProcess {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// MarkCapturedMoved advances a capture row's status in place. The row itself
// is an audit record and is never deleted.
func (s *Storage) MarkCapturedMoved(ctx context.Context, id, status string) error {
	t, err := s.CapturedTask(ctx, id)
	if err != nil {
		return err
	}
	return merge(ctx, s.captures, struct {
		aztables.Entity
		Status     string `json:"Status"`
		ModifiedAt string `json:"ModifiedAt"`
	}{
		Entity:     aztables.Entity{PartitionKey: t.CompanyID, RowKey: id},
		Status:     status,
		ModifiedAt: s.now(),
	})
}

type scheduledEntity struct {
	aztables.Entity
	Date            string `json:"Date"`
	Day             string `json:"Day"`
	TimeBlock       string `json:"TimeBlock"`
	Name            string `json:"Name"`
	Category        string `json:"Category"`
	Priority        string `json:"Priority"`
	PlannedDuration string `json:"PlannedDuration"`
	ActualStart     string `json:"ActualStart"`
	ActualEnd       string `json:"ActualEnd"`
	Notes           string `json:"Notes"`
	Status          string `json:"Status"`
}

func scheduledFromEntity(raw []byte) (domain.ScheduledTask, error) {
	var ent scheduledEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.ScheduledTask{}, err
	}
	return domain.ScheduledTask{
		ID:              ent.RowKey,
		CompanyID:       ent.PartitionKey,
		Date:            ent.Date,
		Day:             ent.Day,
		TimeBlock:       ent.TimeBlock,
		Name:            ent.Name,
		Category:        ent.Category,
		Priority:        ent.Priority,
		PlannedDuration: ent.PlannedDuration,
		ActualStart:     ent.ActualStart,
		ActualEnd:       ent.ActualEnd,
		Notes:           ent.Notes,
		Status:          ent.Status,
	}, nil
}

func scheduledToEntity(t domain.ScheduledTask) scheduledEntity {
	return scheduledEntity{
		Entity:          aztables.Entity{PartitionKey: t.CompanyID, RowKey: t.ID},
		Date:            t.Date,
		Day:             t.Day,
		TimeBlock:       t.TimeBlock,
		Name:            t.Name,
		Category:        t.Category,
		Priority:        t.Priority,
		PlannedDuration: t.PlannedDuration,
		ActualStart:     t.ActualStart,
		ActualEnd:       t.ActualEnd,
		Notes:           t.Notes,
		Status:          t.Status,
	}
}

// InsertScheduled appends a schedule row.
func (s *Storage) InsertScheduled(ctx context.Context, t domain.ScheduledTask) error {
	return insert(ctx, s.schedule, scheduledToEntity(t))
}

// ScheduledTask fetches one schedule row by id.
func (s *Storage) ScheduledTask(ctx context.Context, id string) (domain.ScheduledTask, error) {
	var found *domain.ScheduledTask
	err := scan(ctx, s.schedule, rowFilter(id), func(raw []byte) error {
		t, err := scheduledFromEntity(raw)
		if err != nil {
			return err
		}
		found = &t
		return nil
	})
	if err != nil {
		return domain.ScheduledTask{}, err
	}
	if found == nil {
		return domain.ScheduledTask{}, &domain.NotFoundError{Entity: "scheduled task", ID: id}
	}
	return *found, nil
}

// SaveScheduled replaces a schedule row with the given state.
func (s *Storage) SaveScheduled(ctx context.Context, t domain.ScheduledTask) error {
	return upsert(ctx, s.schedule, scheduledToEntity(t))
}

// ScheduledTasks lists every schedule row of the company.
func (s *Storage) ScheduledTasks(ctx context.Context, companyID string) ([]domain.ScheduledTask, error) {
	tasks := []domain.ScheduledTask{}
	err := scan(ctx, s.schedule, partitionFilter(companyID), func(raw []byte) error {
		t, err := scheduledFromEntity(raw)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// WeekSchedule lists the company's schedule rows for the seven days from
// weekStart.
func (s *Storage) WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error) {
	all, err := s.ScheduledTasks(ctx, companyID)
	if err != nil {
		return nil, err
	}
	week := []domain.ScheduledTask{}
	for _, t := range all {
		if domain.InWeek(t.Date, weekStart) {
			week = append(week, t)
		}
	}
	return week, nil
}

// MarkScheduledBatched moves a schedule row into its batch session, keeping
// the row with a pointer note instead of deleting it.
func (s *Storage) MarkScheduledBatched(ctx context.Context, id, note string) error {
	t, err := s.ScheduledTask(ctx, id)
	if err != nil {
		return err
	}
	notes := t.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += note
	return merge(ctx, s.schedule, struct {
		aztables.Entity
		Status string `json:"Status"`
		Notes  string `json:"Notes"`
	}{
		Entity: aztables.Entity{PartitionKey: t.CompanyID, RowKey: id},
		Status: domain.ScheduleBatched,
		Notes:  notes,
	})
}

// AppendScheduleNote adds one line to a schedule row's notes.
func (s *Storage) AppendScheduleNote(ctx context.Context, id, line string) error {
	t, err := s.ScheduledTask(ctx, id)
	if err != nil {
		return err
	}
	notes := t.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += line
	return merge(ctx, s.schedule, struct {
		aztables.Entity
		Notes string `json:"Notes"`
	}{
		Entity: aztables.Entity{PartitionKey: t.CompanyID, RowKey: id},
		Notes:  notes,
	})
}
