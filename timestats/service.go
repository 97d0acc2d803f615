// Package timestats derives daily, weekly and MVOT analytics from the
// append-only time-entry log. All computations are pure re-scans of stored
// rows; nothing here mutates task state.
package timestats

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// scanLimit bounds how many entries a single analytics scan pulls.
const scanLimit = 10000

// Store is the slice of persistence the analytics need.
type Store interface {
	Company(ctx context.Context, id string) (domain.Company, error)
	TimeEntries(ctx context.Context, companyID string, limit, offset int) ([]domain.TimeEntry, error)
	InsertTimeEntry(ctx context.Context, entry domain.TimeEntry) error
	CapturedTasks(ctx context.Context, companyID string) ([]domain.CapturedTask, error)
	ScheduledTasks(ctx context.Context, companyID string) ([]domain.ScheduledTask, error)
	WaitingItems(ctx context.Context, companyID string) ([]domain.WaitingItem, error)
	SomedayItems(ctx context.Context, companyID string) ([]domain.SomedayItem, error)
}

// Service computes time and MVOT analytics for one store.
type Service struct {
	store Store
	clock domain.Clock
	log   *log.Logger
}

// NewService builds the analytics service. A nil clock falls back to the
// system clock.
func NewService(store Store, clock domain.Clock, logger *log.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{store: store, clock: clock, log: logger}
}

// Entries returns the company's time entries, most recent first.
func (s *Service) Entries(ctx context.Context, companyID string, limit, offset int) ([]domain.TimeEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.TimeEntries(ctx, companyID, limit, offset)
}

// LogManualEntry appends a hand-entered time record. The MVOT cost is
// recomputed from the company's current rate when the caller left it unset.
func (s *Service) LogManualEntry(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	if entry.CompanyID == "" {
		return domain.TimeEntry{}, &domain.ValidationError{Message: "companyId is required"}
	}
	if entry.TaskName == "" {
		return domain.TimeEntry{}, &domain.ValidationError{Message: "taskName is required"}
	}
	if entry.Date == "" {
		entry.Date = s.clock().UTC().Format(domain.DateLayout)
	}
	if entry.MVOTCost == 0 && entry.ActualHours > 0 {
		company, err := s.store.Company(ctx, entry.CompanyID)
		if err != nil {
			return domain.TimeEntry{}, err
		}
		entry.MVOTCost = entry.ActualHours * company.MVOT
	}
	entry.ID = uuid.NewString()
	if err := s.store.InsertTimeEntry(ctx, entry); err != nil {
		return domain.TimeEntry{}, err
	}
	s.log.WithFields(log.Fields{
		"company": entry.CompanyID,
		"task":    entry.TaskName,
		"hours":   entry.ActualHours,
	}).Info("manual time entry logged")
	return entry, nil
}

func (s *Service) entriesForDate(ctx context.Context, companyID, date string) ([]domain.TimeEntry, error) {
	all, err := s.store.TimeEntries(ctx, companyID, scanLimit, 0)
	if err != nil {
		return nil, err
	}
	var matched []domain.TimeEntry
	for _, e := range all {
		if e.Date == date {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (s *Service) entriesForPeriod(ctx context.Context, companyID, start, end string) ([]domain.TimeEntry, error) {
	all, err := s.store.TimeEntries(ctx, companyID, scanLimit, 0)
	if err != nil {
		return nil, err
	}
	var matched []domain.TimeEntry
	for _, e := range all {
		if e.Date >= start && e.Date <= end {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
