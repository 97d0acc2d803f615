package main

import (
	"context"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/config"
	"github.com/JONIJAIN/bms/domain"
	"github.com/JONIJAIN/bms/lifecycle"
	"github.com/JONIJAIN/bms/storage"
)

type seedSetting struct {
	key         string
	value       string
	description string
}

var defaultSettings = []seedSetting{
	{domain.SettingTuesdayMagicTime, "08:00-12:00", "Protected weekly deep-work block"},
	{domain.SettingMinBatchSize, "3", "Minimum tasks in a category before batching is recommended"},
	{domain.SettingDataRetentionMonths, "12", "Completed captures older than this are archived"},
	{domain.SettingWeeklyReviewDay, "Sunday", "Day the weekly review email goes out"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	logger.Info("storage init starting")

	ctx := context.Background()
	connStr := cfg.Storage.ConnectionString

	if err := createTables(ctx, connStr, []string{
		cfg.Storage.CompaniesTable,
		cfg.Storage.CapturesTable,
		cfg.Storage.ScheduleTable,
		cfg.Storage.WaitingTable,
		cfg.Storage.SomedayTable,
		cfg.Storage.TimeTable,
		cfg.Storage.SettingsTable,
	}); err != nil {
		logger.Fatalf("create tables: %v", err)
	}
	if err := createQueue(ctx, connStr, cfg.Storage.NotifyQueue); err != nil {
		logger.Fatalf("create queue: %v", err)
	}

	store, err := storage.New(connStr, storage.Tables{
		Companies:   cfg.Storage.CompaniesTable,
		Captures:    cfg.Storage.CapturesTable,
		Schedule:    cfg.Storage.ScheduleTable,
		Waiting:     cfg.Storage.WaitingTable,
		Someday:     cfg.Storage.SomedayTable,
		TimeEntries: cfg.Storage.TimeTable,
		Settings:    cfg.Storage.SettingsTable,
		NotifyQueue: cfg.Storage.NotifyQueue,
	}, domain.SystemClock)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}

	if err := seed(ctx, store, logger); err != nil {
		logger.Fatalf("seed: %v", err)
	}

	logger.Info("storage init complete")
}

// seed writes the standing settings and, on a fresh deployment, a sample
// company so the dashboard has something to show.
func seed(ctx context.Context, store *storage.Storage, logger *log.Logger) error {
	for _, s := range defaultSettings {
		existing, err := store.Setting(ctx, s.key)
		if err != nil {
			return err
		}
		if existing != "" {
			continue
		}
		if err := store.SetSettingDescribed(ctx, s.key, s.value, s.description); err != nil {
			return err
		}
		logger.WithField("key", s.key).Info("setting seeded")
	}

	companies, err := store.Companies(ctx)
	if err != nil {
		return err
	}
	if len(companies) > 0 {
		return nil
	}

	lc := lifecycle.NewService(store, domain.SystemClock, logger)
	company, err := lc.CreateCompany(ctx, domain.Company{
		Name:           "Sample Trading Co",
		AnnualTurnover: 10000000,
		BusinessType:   "Trading",
	})
	if err != nil {
		return err
	}
	return store.SetSettingDescribed(ctx, domain.SettingDefaultCompany, company.ID, "Company used when a request names none")
}

func createTables(ctx context.Context, connStr string, names []string) error {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		c := svc.NewClient(name)
		if _, err := c.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
		}
	}
	return nil
}

func createQueue(ctx context.Context, connStr, name string) error {
	if name == "" {
		return nil
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
	if err != nil {
		return err
	}
	if _, err := q.Create(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return err
		}
	}
	return nil
}
