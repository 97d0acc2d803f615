package api

import (
	"context"
	"time"

	"github.com/JONIJAIN/bms/batching"
	"github.com/JONIJAIN/bms/domain"
	"github.com/JONIJAIN/bms/lifecycle"
	"github.com/JONIJAIN/bms/timestats"
)

// Lifecycle covers company and task lifecycle operations.
type Lifecycle interface {
	Companies(ctx context.Context) ([]domain.Company, error)
	Company(ctx context.Context, id string) (domain.Company, error)
	CreateCompany(ctx context.Context, c domain.Company) (domain.Company, error)
	UpdateCompany(ctx context.Context, id string, update lifecycle.CompanyUpdate) (domain.Company, error)
	DeleteCompany(ctx context.Context, id string) error
	SwitchCompany(ctx context.Context, id string) (domain.Company, error)

	Capture(ctx context.Context, t domain.CapturedTask) (domain.CapturedTask, error)
	CapturedTasks(ctx context.Context, companyID string) ([]domain.CapturedTask, error)
	ProcessTasks(ctx context.Context, taskIDs []string, decisions []lifecycle.Decision) (lifecycle.ProcessResult, error)

	WeekSchedule(ctx context.Context, companyID, weekStart string) (map[string]lifecycle.DaySchedule, error)
	UpdateScheduled(ctx context.Context, taskID string, update lifecycle.ScheduledUpdate) (domain.ScheduledTask, error)
	StartTracking(ctx context.Context, taskID string) (domain.ScheduledTask, error)
	StopTracking(ctx context.Context, taskID, endTime string) (domain.ScheduledTask, error)
	CreateWeekTemplate(ctx context.Context, companyID, weekStart string) (int, error)
	ScheduleTuesdayMagic(ctx context.Context, companyID string) (domain.ScheduledTask, error)

	WaitingList(ctx context.Context, companyID string) ([]domain.WaitingItem, error)
	ResolveWaiting(ctx context.Context, waitingID string, data *lifecycle.ScheduleData) (domain.ScheduledTask, error)
	SomedayList(ctx context.Context, companyID string) ([]domain.SomedayItem, error)
	ActivateSomeday(ctx context.Context, somedayID string) (domain.CapturedTask, error)
}

// Batching covers analysis and implementation of batch recommendations.
type Batching interface {
	Analyze(ctx context.Context, companyID, weekStart string) (batching.Analysis, error)
	Implement(ctx context.Context, companyID, weekStart string, recs []batching.Recommendation) (batching.ImplementResult, error)
	Insights(ctx context.Context, companyID, weekStart string) batching.Insights
	Report(ctx context.Context, companyID, weekStart string, now time.Time) (batching.Report, error)
}

// TimeStats covers the analytics read side.
type TimeStats interface {
	Entries(ctx context.Context, companyID string, limit, offset int) ([]domain.TimeEntry, error)
	LogManualEntry(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error)
	Daily(ctx context.Context, companyID, date string) (timestats.DailyStats, error)
	Weekly(ctx context.Context, companyID, weekStart string) (timestats.WeeklyAnalytics, error)
	MVOT(ctx context.Context, companyID string, periodDays int) (timestats.MVOTAnalysis, error)
	CompanyStats(ctx context.Context, companyID string) (timestats.CompanyStats, error)
	Dashboard(ctx context.Context, companyID string) (timestats.Dashboard, error)
}

// Settings is the flat key/value configuration table.
type Settings interface {
	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of duplicate mutating requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}

// Services bundles the handler dependencies.
type Services struct {
	Lifecycle Lifecycle
	Batching  Batching
	Stats     TimeStats
	Settings  Settings
	Clock     domain.Clock
}
