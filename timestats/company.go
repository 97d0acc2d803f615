package timestats

import (
	"context"
	"sort"
	"time"

	"github.com/JONIJAIN/bms/domain"
)

// CaptureStats counts the quick-capture inbox by dimension.
type CaptureStats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	ByPriority map[string]int `json:"byPriority"`
	ByStatus   map[string]int `json:"byStatus"`
	ToProcess  int            `json:"toProcess"`
}

// WeeklyTaskStats summarizes the current week's schedule.
type WeeklyTaskStats struct {
	ThisWeek          int     `json:"thisWeek"`
	Completed         int     `json:"completed"`
	Planned           int     `json:"planned"`
	TotalPlannedHours float64 `json:"totalPlannedHours"`
	TotalActualHours  float64 `json:"totalActualHours"`
	CompletionRate    int     `json:"completionRate"`
}

// WaitingStats counts unresolved waiting items.
type WaitingStats struct {
	Total    int `json:"total"`
	Overdue  int `json:"overdue"`
	ThisWeek int `json:"thisWeek"`
}

// SomedayStats counts parked items and those due for review.
type SomedayStats struct {
	Total      int `json:"total"`
	NeedReview int `json:"needReview"`
}

// ProductivityStats aggregates tracked hours and cost for the current week
// and month.
type ProductivityStats struct {
	WeeklyHours       float64            `json:"weeklyHours"`
	MonthlyHours      float64            `json:"monthlyHours"`
	WeeklyMVOTCost    int                `json:"weeklyMVOTCost"`
	MonthlyMVOTCost   int                `json:"monthlyMVOTCost"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
}

// MonthlyMVOTSummary values the month against the working-hours target.
type MonthlyMVOTSummary struct {
	MVOT                  float64 `json:"mvot"`
	MonthlyTargetHours    int     `json:"monthlyTargetHours"`
	ActualMonthlyHours    float64 `json:"actualMonthlyHours"`
	Efficiency            int     `json:"efficiency"`
	PotentialMonthlyValue int     `json:"potentialMonthlyValue"`
	ActualMonthlyValue    int     `json:"actualMonthlyValue"`
	ValueGap              int     `json:"valueGap"`
	MVOTCostSpent         int     `json:"mvotCostSpent"`
}

// CompanyStats is the full statistics block for one company.
type CompanyStats struct {
	Company      domain.Company     `json:"company"`
	QuickCapture CaptureStats       `json:"quickCapture"`
	WeeklyTasks  WeeklyTaskStats    `json:"weeklyTasks"`
	WaitingList  WaitingStats       `json:"waitingList"`
	SomedayList  SomedayStats       `json:"somedayList"`
	Productivity ProductivityStats  `json:"productivity"`
	MVOTSummary  MonthlyMVOTSummary `json:"mvotAnalysis"`
}

// Activity is one recent event on the company's lists.
type Activity struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Category    string `json:"category,omitempty"`
}

// Dashboard is the stats block plus upcoming work and recent activity.
type Dashboard struct {
	Stats          CompanyStats           `json:"stats"`
	UpcomingTasks  []domain.ScheduledTask `json:"upcomingTasks"`
	RecentActivity []Activity             `json:"recentActivity"`
	LastUpdated    string                 `json:"lastUpdated"`
}

// CompanyStats assembles all per-list statistics. Individual list failures
// degrade to zeroed sections so one broken table never hides the rest.
func (s *Service) CompanyStats(ctx context.Context, companyID string) (CompanyStats, error) {
	company, err := s.store.Company(ctx, companyID)
	if err != nil {
		return CompanyStats{}, err
	}

	stats := CompanyStats{
		Company:      company,
		QuickCapture: s.captureStats(ctx, companyID),
		WeeklyTasks:  s.weeklyTaskStats(ctx, companyID),
		WaitingList:  s.waitingStats(ctx, companyID),
		SomedayList:  s.somedayStats(ctx, companyID),
		Productivity: s.productivityStats(ctx, companyID),
	}
	stats.MVOTSummary = monthlySummary(company, stats.Productivity)
	return stats, nil
}

// Dashboard is the stats block with a 7-day lookahead and lookback.
func (s *Service) Dashboard(ctx context.Context, companyID string) (Dashboard, error) {
	stats, err := s.CompanyStats(ctx, companyID)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Stats:          stats,
		UpcomingTasks:  s.upcomingTasks(ctx, companyID, 7),
		RecentActivity: s.recentActivity(ctx, companyID, 7),
		LastUpdated:    s.clock().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) captureStats(ctx context.Context, companyID string) CaptureStats {
	stats := CaptureStats{
		ByCategory: map[string]int{},
		ByPriority: map[string]int{},
		ByStatus:   map[string]int{},
	}
	captures, err := s.store.CapturedTasks(ctx, companyID)
	if err != nil {
		s.log.Warnf("capture stats for %s: %v", companyID, err)
		return stats
	}
	for _, c := range captures {
		stats.Total++
		category := c.Category
		if category == "" {
			category = "Uncategorized"
		}
		stats.ByCategory[category]++
		priority := c.Priority
		if priority == "" {
			priority = domain.PriorityMedium
		}
		stats.ByPriority[priority]++
		stats.ByStatus[c.Status]++
	}
	stats.ToProcess = stats.ByStatus[domain.CaptureToProcess]
	return stats
}

func (s *Service) weeklyTaskStats(ctx context.Context, companyID string) WeeklyTaskStats {
	stats := WeeklyTaskStats{}
	tasks, err := s.store.ScheduledTasks(ctx, companyID)
	if err != nil {
		s.log.Warnf("weekly task stats for %s: %v", companyID, err)
		return stats
	}
	weekStart := domain.WeekStart(s.clock())
	for _, t := range tasks {
		if !domain.InWeek(t.Date, weekStart) {
			continue
		}
		stats.ThisWeek++
		switch t.Status {
		case domain.ScheduleCompleted:
			stats.Completed++
		case domain.SchedulePlanned:
			stats.Planned++
		}
		stats.TotalPlannedHours += t.PlannedHours()
		if t.ActualStart != "" && t.ActualEnd != "" {
			if hours, err := domain.ElapsedHours(t.ActualStart, t.ActualEnd); err == nil {
				stats.TotalActualHours += hours
			}
		}
	}
	stats.TotalPlannedHours = domain.Round1(stats.TotalPlannedHours)
	stats.TotalActualHours = domain.Round1(stats.TotalActualHours)
	if stats.ThisWeek > 0 {
		stats.CompletionRate = domain.RoundInt(float64(stats.Completed) / float64(stats.ThisWeek) * 100)
	}
	return stats
}

func (s *Service) waitingStats(ctx context.Context, companyID string) WaitingStats {
	stats := WaitingStats{}
	items, err := s.store.WaitingItems(ctx, companyID)
	if err != nil {
		s.log.Warnf("waiting stats for %s: %v", companyID, err)
		return stats
	}
	today := s.clock().UTC().Format(domain.DateLayout)
	weekAhead := s.clock().UTC().AddDate(0, 0, 7).Format(domain.DateLayout)
	for _, item := range items {
		if item.Status == domain.WaitingResolved {
			continue
		}
		stats.Total++
		if item.ExpectedDate == "" {
			continue
		}
		if item.ExpectedDate < today {
			stats.Overdue++
		} else if item.ExpectedDate <= weekAhead {
			stats.ThisWeek++
		}
	}
	return stats
}

func (s *Service) somedayStats(ctx context.Context, companyID string) SomedayStats {
	stats := SomedayStats{}
	items, err := s.store.SomedayItems(ctx, companyID)
	if err != nil {
		s.log.Warnf("someday stats for %s: %v", companyID, err)
		return stats
	}
	today := s.clock().UTC().Format(domain.DateLayout)
	for _, item := range items {
		if item.Status == domain.SomedayActivated {
			continue
		}
		stats.Total++
		if item.ReviewDate != "" && item.ReviewDate <= today {
			stats.NeedReview++
		}
	}
	return stats
}

func (s *Service) productivityStats(ctx context.Context, companyID string) ProductivityStats {
	stats := ProductivityStats{CategoryBreakdown: map[string]float64{}}
	entries, err := s.store.TimeEntries(ctx, companyID, scanLimit, 0)
	if err != nil {
		s.log.Warnf("productivity stats for %s: %v", companyID, err)
		return stats
	}
	now := s.clock().UTC()
	weekStart := domain.WeekStart(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format(domain.DateLayout)

	weeklyCost := 0.0
	monthlyCost := 0.0
	for _, e := range entries {
		if e.Date >= weekStart {
			stats.WeeklyHours += e.ActualHours
			weeklyCost += e.MVOTCost
		}
		if e.Date >= monthStart {
			stats.MonthlyHours += e.ActualHours
			monthlyCost += e.MVOTCost
			category := e.Category
			if category == "" {
				category = "Uncategorized"
			}
			stats.CategoryBreakdown[category] += e.ActualHours
		}
	}
	stats.WeeklyHours = domain.Round1(stats.WeeklyHours)
	stats.MonthlyHours = domain.Round1(stats.MonthlyHours)
	stats.WeeklyMVOTCost = domain.RoundInt(weeklyCost)
	stats.MonthlyMVOTCost = domain.RoundInt(monthlyCost)
	return stats
}

func monthlySummary(company domain.Company, productivity ProductivityStats) MonthlyMVOTSummary {
	summary := MonthlyMVOTSummary{
		MVOT:               company.MVOT,
		MonthlyTargetHours: domain.WorkingHoursPerMonth,
		ActualMonthlyHours: productivity.MonthlyHours,
		MVOTCostSpent:      productivity.MonthlyMVOTCost,
	}
	if productivity.MonthlyHours > 0 {
		summary.Efficiency = domain.RoundInt(productivity.MonthlyHours / domain.WorkingHoursPerMonth * 100)
	}
	potential := company.MVOT * domain.WorkingHoursPerMonth
	actual := company.MVOT * productivity.MonthlyHours
	summary.PotentialMonthlyValue = domain.RoundInt(potential)
	summary.ActualMonthlyValue = domain.RoundInt(actual)
	summary.ValueGap = domain.RoundInt(potential - actual)
	return summary
}

func (s *Service) upcomingTasks(ctx context.Context, companyID string, days int) []domain.ScheduledTask {
	tasks, err := s.store.ScheduledTasks(ctx, companyID)
	if err != nil {
		s.log.Warnf("upcoming tasks for %s: %v", companyID, err)
		return []domain.ScheduledTask{}
	}
	today := s.clock().UTC().Format(domain.DateLayout)
	horizon := s.clock().UTC().AddDate(0, 0, days).Format(domain.DateLayout)

	upcoming := []domain.ScheduledTask{}
	for _, t := range tasks {
		if t.Status == domain.SchedulePlanned && t.Date >= today && t.Date <= horizon {
			upcoming = append(upcoming, t)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Date < upcoming[j].Date })
	return upcoming
}

func (s *Service) recentActivity(ctx context.Context, companyID string, days int) []Activity {
	cutoff := s.clock().UTC().AddDate(0, 0, -days).Format(domain.DateLayout)
	activity := []Activity{}

	captures, err := s.store.CapturedTasks(ctx, companyID)
	if err != nil {
		s.log.Warnf("recent activity for %s: %v", companyID, err)
	} else {
		for _, c := range captures {
			if c.CreatedAt >= cutoff {
				activity = append(activity, Activity{
					Type:        "Task Captured",
					Description: c.Name,
					Timestamp:   c.CreatedAt,
					Category:    c.Category,
				})
			}
		}
	}

	tasks, err := s.store.ScheduledTasks(ctx, companyID)
	if err != nil {
		s.log.Warnf("recent activity for %s: %v", companyID, err)
	} else {
		for _, t := range tasks {
			if t.Status == domain.ScheduleCompleted && t.Date >= cutoff {
				activity = append(activity, Activity{
					Type:        "Task Completed",
					Description: t.Name,
					Timestamp:   t.Date,
					Category:    t.Category,
				})
			}
		}
	}

	sort.Slice(activity, func(i, j int) bool { return activity[i].Timestamp > activity[j].Timestamp })
	if len(activity) > 20 {
		activity = activity[:20]
	}
	return activity
}
