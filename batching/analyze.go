package batching

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// Store is the slice of persistence the analyzer needs.
type Store interface {
	Company(ctx context.Context, id string) (domain.Company, error)
	WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error)
	CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error)
	InsertScheduled(ctx context.Context, task domain.ScheduledTask) error
	MarkCapturedMoved(ctx context.Context, id, status string) error
	MarkScheduledBatched(ctx context.Context, id, note string) error
	AppendScheduleNote(ctx context.Context, id, line string) error
}

// Analyzer inspects a company's week and proposes batches.
type Analyzer struct {
	store Store
	cfg   Config
	log   *log.Logger
}

// NewAnalyzer builds an analyzer around the given store and configuration.
func NewAnalyzer(store Store, cfg Config, logger *log.Logger) *Analyzer {
	return &Analyzer{store: store, cfg: cfg, log: logger}
}

// task is the merged view of scheduled-week rows and unscheduled captures the
// analysis runs over.
type task struct {
	id        string
	name      string
	category  string
	status    string
	duration  string
	scheduled bool
}

// Opportunity summarizes one batchable category.
type Opportunity struct {
	TaskCount          int        `json:"taskCount"`
	EstimatedTimeSpent float64    `json:"estimatedTimeSpent"`
	CurrentlyScheduled int        `json:"currentlyScheduled"`
	Recommendation     *BatchPlan `json:"batchRecommendation,omitempty"`
}

// BatchPlan is the concrete slot proposal for an opportunity.
type BatchPlan struct {
	RecommendedDay        string             `json:"recommendedDay"`
	RecommendedTime       string             `json:"recommendedTime"`
	BatchDuration         float64            `json:"batchDuration"`
	TaskCount             int                `json:"taskCount"`
	Efficiency            int                `json:"efficiency"`
	ContextSwitchingSaved float64            `json:"contextSwitchingSaved"`
	Implementation        ImplementationPlan `json:"implementation"`
}

// ImplementationPlan carries the human-readable steps for running a batch.
type ImplementationPlan struct {
	Phases      []string `json:"phases"`
	Tools       []string `json:"tools"`
	Preparation []string `json:"preparation"`
}

// Recommendation is a named, prioritized suggestion shown to the user and
// accepted back into Implement.
type Recommendation struct {
	Type           string `json:"type"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Implementation string `json:"implementation"`
	Tasks          int    `json:"tasks"`
	TimeBlocked    string `json:"timeBlocked"`
	Benefit        string `json:"benefit"`
}

// TimeWastePrevention quantifies avoidable switching and setup time for one
// category.
type TimeWastePrevention struct {
	Category              string  `json:"category"`
	ContextSwitchingSaved float64 `json:"contextSwitchingSaved"`
	SetupTimeSaved        float64 `json:"setupTimeSaved"`
	TotalTimeSaved        float64 `json:"totalTimeSaved"`
	Tasks                 int     `json:"tasks"`
}

// EfficiencyGains aggregates savings across all qualifying categories.
type EfficiencyGains struct {
	TasksInBatches int     `json:"tasksInBatches"`
	TimeSavedHours float64 `json:"timeSavedHours"`
	EfficiencyGain int     `json:"efficiencyGain"`
	HoursPerWeek   float64 `json:"hoursPerWeek"`
	HoursPerMonth  float64 `json:"hoursPerMonth"`
	HoursPerYear   float64 `json:"hoursPerYear"`
}

// Analysis is the full batching picture for one company week.
type Analysis struct {
	TotalTasks           int                    `json:"totalTasks"`
	Opportunities        map[string]Opportunity `json:"batchingOpportunities"`
	Recommendations      []Recommendation       `json:"recommendations"`
	TimeWastePreventions []TimeWastePrevention  `json:"timeWastePreventions"`
	EfficiencyGains      EfficiencyGains        `json:"efficiencyGains"`
}

// Analyze merges the scheduled week with unscheduled captures and works out
// where batching pays off.
func (a *Analyzer) Analyze(ctx context.Context, companyID, weekStart string) (Analysis, error) {
	week, err := a.store.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		return Analysis{}, fmt.Errorf("batching analysis: %w", err)
	}
	captured, err := a.store.CapturedToProcess(ctx, companyID)
	if err != nil {
		return Analysis{}, fmt.Errorf("batching analysis: %w", err)
	}

	tasks := mergeTasks(week, captured)
	byCategory := groupByCategory(tasks)

	analysis := Analysis{
		TotalTasks:    len(tasks),
		Opportunities: map[string]Opportunity{},
	}
	for category, categoryTasks := range byCategory {
		cfg, known := a.cfg.Categories[category]
		if !known || len(categoryTasks) < a.cfg.Rules.MinBatchSize {
			continue
		}
		plan := a.batchPlan(category, categoryTasks, cfg)
		analysis.Opportunities[category] = Opportunity{
			TaskCount:          len(categoryTasks),
			EstimatedTimeSpent: estimatedTime(categoryTasks),
			CurrentlyScheduled: countWithStatus(categoryTasks, domain.SchedulePlanned),
			Recommendation:     &plan,
		}
	}
	analysis.Recommendations = a.recommendations(byCategory)
	analysis.TimeWastePreventions = a.timeWastePreventions(byCategory)
	analysis.EfficiencyGains = a.efficiencyGains(byCategory)

	a.log.WithFields(log.Fields{
		"company":    companyID,
		"week_start": weekStart,
		"tasks":      analysis.TotalTasks,
		"batchable":  len(analysis.Opportunities),
	}).Debug("batching analysis completed")
	return analysis, nil
}

func mergeTasks(week []domain.ScheduledTask, captured []domain.CapturedTask) []task {
	tasks := make([]task, 0, len(week)+len(captured))
	for _, t := range week {
		tasks = append(tasks, task{
			id:        t.ID,
			name:      t.Name,
			category:  t.Category,
			status:    t.Status,
			duration:  t.PlannedDuration,
			scheduled: true,
		})
	}
	for _, t := range captured {
		tasks = append(tasks, task{
			id:       t.ID,
			name:     t.Name,
			category: t.Category,
			status:   t.Status,
		})
	}
	return tasks
}

func groupByCategory(tasks []task) map[string][]task {
	grouped := map[string][]task{}
	for _, t := range tasks {
		category := t.category
		if category == "" {
			category = Uncategorized
		}
		grouped[category] = append(grouped[category], t)
	}
	return grouped
}

// estimatedTime sums lenient-parsed planned durations, one hour per
// unestimated task, rounded to one decimal.
func estimatedTime(tasks []task) float64 {
	total := 0.0
	for _, t := range tasks {
		total += domain.ParseHours(t.duration)
	}
	return domain.Round1(total)
}

func countWithStatus(tasks []task, status string) int {
	n := 0
	for _, t := range tasks {
		if t.status == status {
			n++
		}
	}
	return n
}

func (a *Analyzer) batchPlan(category string, tasks []task, cfg CategoryConfig) BatchPlan {
	total := estimatedTime(tasks)
	duration := total + a.cfg.Rules.BufferTime
	if duration > a.cfg.Rules.MaxBatchDuration {
		duration = a.cfg.Rules.MaxBatchDuration
	}
	return BatchPlan{
		RecommendedDay:        cfg.RecommendedDay,
		RecommendedTime:       cfg.RecommendedTimeBlock,
		BatchDuration:         duration,
		TaskCount:             len(tasks),
		Efficiency:            a.BatchEfficiency(len(tasks), total),
		ContextSwitchingSaved: a.ContextSwitchingSaved(len(tasks)),
		Implementation: ImplementationPlan{
			Phases: []string{
				fmt.Sprintf("Block %s on %s for %s", cfg.RecommendedTimeBlock, cfg.RecommendedDay, category),
				fmt.Sprintf("Move all %d %s tasks to this time block", len(tasks), category),
				"Prepare all materials needed for batch processing before the session",
				"Execute all tasks in sequence without interruption",
				"Review completed work and plan next batch",
			},
			Tools:       ToolsForCategory(category),
			Preparation: PreparationSteps(category),
		},
	}
}

// BatchEfficiency is the percentage of unbatched time that batching
// eliminates: overhead / (time + overhead), where overhead is one context
// switch per additional task.
func (a *Analyzer) BatchEfficiency(taskCount int, totalTime float64) int {
	if taskCount <= 0 {
		return 0
	}
	overhead := float64(taskCount-1) * a.cfg.Rules.ContextSwitch
	unbatched := totalTime + overhead
	if unbatched <= 0 {
		return 0
	}
	return domain.RoundInt(overhead / unbatched * 100)
}

// ContextSwitchingSaved is the hours of switching cost avoided by batching
// taskCount tasks, zero for a single task.
func (a *Analyzer) ContextSwitchingSaved(taskCount int) float64 {
	if taskCount <= 1 {
		return 0
	}
	return domain.Round1(float64(taskCount-1) * a.cfg.Rules.ContextSwitch)
}

// recommendations applies the methodology's fixed thresholds: documentation
// always earns a Monday File, business development a Tuesday Magic block,
// meetings batch at three or more, and emails plus follow-ups batch at a
// combined three.
func (a *Analyzer) recommendations(byCategory map[string][]task) []Recommendation {
	recs := []Recommendation{}

	if docs := byCategory["Documentation"]; len(docs) > 0 {
		recs = append(recs, Recommendation{
			Type:           TypeMondayFile,
			Priority:       domain.PriorityHigh,
			Category:       "Documentation",
			Description:    "Create a Monday File system - All documents of the week should come to you at the beginning of the week",
			Implementation: "Schedule all approval tasks, report reviews, and administrative work for Monday 9:00-12:00",
			Tasks:          len(docs),
			TimeBlocked:    "3 hours",
			Benefit:        "Eliminates daily administrative interruptions and follows \"Eat the Frog\" principle",
		})
	}
	if bd := byCategory["Business Development"]; len(bd) > 0 {
		recs = append(recs, Recommendation{
			Type:           TypeTuesdayMagic,
			Priority:       "Critical",
			Category:       "Business Development",
			Description:    "Dedicate 4 hours every Tuesday 8am-12pm for auto-pilot systems development",
			Implementation: "Block Tuesday morning in a coffee shop without mobile phone for deep work",
			Tasks:          len(bd),
			TimeBlocked:    "4 hours",
			Benefit:        "Builds systems that create freedom for the rest of your life",
		})
	}
	if meetings := byCategory["Meetings"]; len(meetings) >= 3 {
		recs = append(recs, Recommendation{
			Type:           TypeMeetingBatch,
			Priority:       domain.PriorityHigh,
			Category:       "Meetings",
			Description:    "Batch all vendor, client, and staff meetings into specific time blocks",
			Implementation: "Schedule all meetings for Wednesday 2:00-4:00 PM or designated meeting blocks",
			Tasks:          len(meetings),
			TimeBlocked:    "2-3 hours",
			Benefit:        fmt.Sprintf("Eliminates %g hours of context switching", a.ContextSwitchingSaved(len(meetings))),
		})
	}
	if communication := len(byCategory["Emails"]) + len(byCategory["Follow-ups"]); communication >= 3 {
		recs = append(recs, Recommendation{
			Type:           TypeCommunicationBatch,
			Priority:       domain.PriorityMedium,
			Category:       "Communication",
			Description:    "Batch all emails, calls, and follow-ups into dedicated communication blocks",
			Implementation: "Process all emails and communications 2-3 times per day at scheduled intervals",
			Tasks:          communication,
			TimeBlocked:    "1-2 hours",
			Benefit:        "Prevents constant interruption and improves focus on deep work",
		})
	}
	return recs
}

func (a *Analyzer) timeWastePreventions(byCategory map[string][]task) []TimeWastePrevention {
	preventions := []TimeWastePrevention{}
	for category, tasks := range byCategory {
		if len(tasks) < a.cfg.Rules.MinBatchSize {
			continue
		}
		switching := a.ContextSwitchingSaved(len(tasks))
		setup := domain.Round1(float64(len(tasks)-1) * a.cfg.Rules.SetupTimePerTask)
		preventions = append(preventions, TimeWastePrevention{
			Category:              category,
			ContextSwitchingSaved: switching,
			SetupTimeSaved:        setup,
			TotalTimeSaved:        domain.Round1(switching + setup),
			Tasks:                 len(tasks),
		})
	}
	return preventions
}

func (a *Analyzer) efficiencyGains(byCategory map[string][]task) EfficiencyGains {
	gains := EfficiencyGains{}
	originalTime := 0.0
	saved := 0.0
	for _, tasks := range byCategory {
		if len(tasks) < a.cfg.Rules.MinBatchSize {
			continue
		}
		gains.TasksInBatches += len(tasks)
		originalTime += estimatedTime(tasks)
		saved += a.ContextSwitchingSaved(len(tasks))
	}
	if originalTime > 0 {
		gains.EfficiencyGain = domain.RoundInt(saved / originalTime * 100)
	}
	gains.TimeSavedHours = domain.Round1(saved)
	gains.HoursPerWeek = domain.Round1(saved)
	gains.HoursPerMonth = domain.Round1(saved * 4.33)
	gains.HoursPerYear = domain.Round1(saved * 52)
	return gains
}
