package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/config"
	"github.com/JONIJAIN/bms/domain"
	"github.com/JONIJAIN/bms/notify"
	"github.com/JONIJAIN/bms/storage"
	"github.com/JONIJAIN/bms/timestats"
)

const (
	pollInterval          = time.Hour
	defaultRetentionMonth = 12
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	logger.Info("maintenance service starting")

	store, err := storage.New(cfg.Storage.ConnectionString, storage.Tables{
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

	notifier := notify.NewNotifier(store, logger)
	notifier.DashboardURL = cfg.Notify.DashboardURL
	dispatcher := notify.NewDispatcher(notifier, notify.DispatcherConfig{}, logger)
	defer dispatcher.Shutdown()

	r := &runner{
		store:      store,
		stats:      timestats.NewService(store, domain.SystemClock, logger),
		notifier:   notifier,
		dispatcher: dispatcher,
		ownerEmail: cfg.Notify.OwnerEmail,
		reviewDay:  cfg.Notify.WeeklyReviewDay,
		clock:      domain.SystemClock,
		log:        logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.runOnce(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance service stopping")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// runner executes the recurring housekeeping jobs. Every job is guarded by a
// settings row so reruns within the same period are no-ops.
type runner struct {
	store      *storage.Storage
	stats      *timestats.Service
	notifier   *notify.Notifier
	dispatcher *notify.Dispatcher
	ownerEmail string
	reviewDay  string
	clock      domain.Clock
	log        *log.Logger
}

func (r *runner) runOnce(ctx context.Context) {
	now := r.clock().UTC()

	companies, err := r.store.Companies(ctx)
	if err != nil {
		r.log.Errorf("list companies: %v", err)
		return
	}

	for _, company := range companies {
		if err := r.snapshotDailyMetrics(ctx, company, now); err != nil {
			r.log.WithField("company", company.ID).Errorf("daily snapshot: %v", err)
		}
		if err := r.archiveOldCaptures(ctx, company, now); err != nil {
			r.log.WithField("company", company.ID).Errorf("archive captures: %v", err)
		}
		if err := r.sendWeeklyReview(ctx, company, now); err != nil {
			r.log.WithField("company", company.ID).Errorf("weekly review: %v", err)
		}
	}

	if err := r.sendTuesdayReminder(ctx, now); err != nil {
		r.log.Errorf("tuesday reminder: %v", err)
	}
}

// snapshotDailyMetrics stores yesterday's computed stats as a settings row so
// history survives the capture retention window.
func (r *runner) snapshotDailyMetrics(ctx context.Context, company domain.Company, now time.Time) error {
	date := now.AddDate(0, 0, -1).Format(domain.DateLayout)
	key := "DAILY_METRICS_" + company.ID + "_" + date

	existing, err := r.store.Setting(ctx, key)
	if err != nil || existing != "" {
		return err
	}

	stats, err := r.stats.Daily(ctx, company.ID, date)
	if err != nil {
		return err
	}
	payload, err := sonic.ConfigStd.Marshal(stats)
	if err != nil {
		return err
	}
	if err := r.store.SetSettingDescribed(ctx, key, string(payload), "Daily metrics snapshot"); err != nil {
		return err
	}
	r.log.WithFields(log.Fields{"company": company.ID, "date": date}).Info("daily metrics snapshot stored")
	return nil
}

// archiveOldCaptures marks completed captures older than the retention
// window as archived. Rows are never deleted.
func (r *runner) archiveOldCaptures(ctx context.Context, company domain.Company, now time.Time) error {
	months := defaultRetentionMonth
	if v, err := r.store.Setting(ctx, domain.SettingDataRetentionMonths); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			months = n
		}
	}
	cutoff := now.AddDate(0, -months, 0).Format(domain.DateLayout)

	tasks, err := r.store.CapturedTasks(ctx, company.ID)
	if err != nil {
		return err
	}
	archived := 0
	for _, t := range tasks {
		if t.Status != domain.CaptureCompleted || t.CreatedAt == "" {
			continue
		}
		if t.CreatedAt[:min(len(t.CreatedAt), len(cutoff))] >= cutoff {
			continue
		}
		if err := r.store.MarkCapturedMoved(ctx, t.ID, domain.CaptureArchived); err != nil {
			return err
		}
		archived++
	}
	if archived > 0 {
		r.log.WithFields(log.Fields{"company": company.ID, "count": archived}).Info("old captures archived")
	}
	return nil
}

func (r *runner) sendWeeklyReview(ctx context.Context, company domain.Company, now time.Time) error {
	if r.ownerEmail == "" {
		return nil
	}
	reviewDay := r.reviewDay
	if v, err := r.store.Setting(ctx, domain.SettingWeeklyReviewDay); err == nil && v != "" {
		reviewDay = v
	}
	today := now.Format(domain.DateLayout)
	if domain.DayName(today) != reviewDay {
		return nil
	}

	weekStart := domain.WeekStart(now)
	key := "WEEKLY_REVIEW_SENT_" + company.ID + "_" + weekStart
	existing, err := r.store.Setting(ctx, key)
	if err != nil || existing != "" {
		return err
	}

	analytics, err := r.stats.Weekly(ctx, company.ID, weekStart)
	if err != nil {
		return err
	}
	env := r.notifier.WeeklyReviewEmail(r.ownerEmail, company.Name, analytics)
	if err := r.dispatcher.Dispatch(ctx, env); err != nil {
		return err
	}
	return r.store.SetSettingDescribed(ctx, key, today, "Weekly review email marker")
}

func (r *runner) sendTuesdayReminder(ctx context.Context, now time.Time) error {
	if r.ownerEmail == "" {
		return nil
	}
	today := now.Format(domain.DateLayout)
	if domain.DayName(today) != "Tuesday" {
		return nil
	}

	key := "TUESDAY_REMINDER_SENT_" + today
	existing, err := r.store.Setting(ctx, key)
	if err != nil || existing != "" {
		return err
	}

	env := r.notifier.TuesdayMagicEmail(r.ownerEmail)
	if err := r.dispatcher.Dispatch(ctx, env); err != nil {
		return err
	}
	return r.store.SetSettingDescribed(ctx, key, today, "Tuesday reminder marker")
}
