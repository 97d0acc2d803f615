// Package lifecycle implements the task workflow: capture, weekly-review
// processing, scheduling, tracking, and the waiting and someday lists.
// List rows are audit records and are never deleted, only moved through
// statuses.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// Store is the persistence surface the workflow drives.
type Store interface {
	Companies(ctx context.Context) ([]domain.Company, error)
	Company(ctx context.Context, id string) (domain.Company, error)
	InsertCompany(ctx context.Context, c domain.Company) error
	SaveCompany(ctx context.Context, c domain.Company) error
	DeleteCompany(ctx context.Context, id string) error
	CompanyHasData(ctx context.Context, id string) (bool, error)

	InsertCaptured(ctx context.Context, t domain.CapturedTask) error
	CapturedTask(ctx context.Context, id string) (domain.CapturedTask, error)
	CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error)
	MarkCapturedMoved(ctx context.Context, id, status string) error

	InsertScheduled(ctx context.Context, t domain.ScheduledTask) error
	ScheduledTask(ctx context.Context, id string) (domain.ScheduledTask, error)
	SaveScheduled(ctx context.Context, t domain.ScheduledTask) error
	WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error)

	InsertWaiting(ctx context.Context, w domain.WaitingItem) error
	WaitingItem(ctx context.Context, id string) (domain.WaitingItem, error)
	WaitingItems(ctx context.Context, companyID string) ([]domain.WaitingItem, error)
	MarkWaitingResolved(ctx context.Context, id string) error

	InsertSomeday(ctx context.Context, item domain.SomedayItem) error
	SomedayItem(ctx context.Context, id string) (domain.SomedayItem, error)
	SomedayItems(ctx context.Context, companyID string) ([]domain.SomedayItem, error)
	MarkSomedayActivated(ctx context.Context, id string) error

	InsertTimeEntry(ctx context.Context, e domain.TimeEntry) error

	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Service runs the task workflow against one store.
type Service struct {
	store Store
	clock domain.Clock
	log   *log.Logger
}

// NewService builds the workflow service. A nil clock falls back to the
// system clock.
func NewService(store Store, clock domain.Clock, logger *log.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{store: store, clock: clock, log: logger}
}

// Companies lists all registered companies.
func (s *Service) Companies(ctx context.Context) ([]domain.Company, error) {
	return s.store.Companies(ctx)
}

// Company returns one company by id.
func (s *Service) Company(ctx context.Context, id string) (domain.Company, error) {
	return s.store.Company(ctx, id)
}

// CreateCompany registers a company and derives its MVOT rate from annual
// turnover.
func (s *Service) CreateCompany(ctx context.Context, c domain.Company) (domain.Company, error) {
	if c.Name == "" {
		return domain.Company{}, &domain.ValidationError{Message: "company name is required"}
	}
	now := s.clock().UTC().Format(time.RFC3339)
	c.ID = uuid.NewString()
	c.MVOT = domain.CalculateMVOT(c.AnnualTurnover)
	c.CreatedAt = now
	c.ModifiedAt = now
	if err := s.store.InsertCompany(ctx, c); err != nil {
		return domain.Company{}, err
	}
	s.log.WithFields(log.Fields{"company": c.ID, "mvot": c.MVOT}).Info("company created")
	return c, nil
}

// CompanyUpdate carries the mutable company fields. Nil means unchanged.
type CompanyUpdate struct {
	Name           *string  `json:"name,omitempty"`
	AnnualTurnover *float64 `json:"annualTurnover,omitempty"`
	BusinessType   *string  `json:"businessType,omitempty"`
}

// UpdateCompany applies the provided fields and recomputes MVOT when
// turnover changes.
func (s *Service) UpdateCompany(ctx context.Context, id string, update CompanyUpdate) (domain.Company, error) {
	c, err := s.store.Company(ctx, id)
	if err != nil {
		return domain.Company{}, err
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.AnnualTurnover != nil {
		c.AnnualTurnover = *update.AnnualTurnover
		c.MVOT = domain.CalculateMVOT(c.AnnualTurnover)
	}
	if update.BusinessType != nil {
		c.BusinessType = *update.BusinessType
	}
	c.ModifiedAt = s.clock().UTC().Format(time.RFC3339)
	if err := s.store.SaveCompany(ctx, c); err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

// DeleteCompany removes a company row. A company with any task data cannot
// be deleted.
func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	hasData, err := s.store.CompanyHasData(ctx, id)
	if err != nil {
		return err
	}
	if hasData {
		return &domain.ValidationError{Message: "cannot delete company with existing data, archive it instead"}
	}
	return s.store.DeleteCompany(ctx, id)
}

// SwitchCompany marks the company as the active default and returns it.
func (s *Service) SwitchCompany(ctx context.Context, id string) (domain.Company, error) {
	c, err := s.store.Company(ctx, id)
	if err != nil {
		return domain.Company{}, err
	}
	if err := s.store.SetSetting(ctx, domain.SettingDefaultCompany, id); err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

func (s *Service) now() string {
	return s.clock().UTC().Format(time.RFC3339)
}

func (s *Service) today() string {
	return s.clock().UTC().Format(domain.DateLayout)
}
