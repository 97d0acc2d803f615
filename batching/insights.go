package batching

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JONIJAIN/bms/domain"
)

// ImplementationStatus flags which standing batch slots the week's schedule
// already honors.
type ImplementationStatus struct {
	MondayDocumentation bool `json:"mondayDocumentation"`
	TuesdayMagic        bool `json:"tuesdayMagic"`
	WednesdayMeetings   bool `json:"wednesdayMeetings"`
	ThursdayFollowups   bool `json:"thursdayFollowups"`
	FridayEmails        bool `json:"fridayEmails"`
}

// QuickWin is a high-impact, low-effort batching move.
type QuickWin struct {
	Category  string  `json:"category"`
	Impact    string  `json:"impact"`
	Effort    string  `json:"effort"`
	TimeSaved float64 `json:"timeSaved"`
	Action    string  `json:"action"`
}

// Insights is the dashboard view of the analysis.
type Insights struct {
	PotentialTimeSaved   float64              `json:"potentialTimeSaved"`
	BatchableCategories  int                  `json:"batchableCategories"`
	ImplementationStatus ImplementationStatus `json:"implementationStatus"`
	QuickWins            []QuickWin           `json:"quickWins"`
	WeeklyEfficiency     int                  `json:"weeklyEfficiency"`
}

// FinancialImpact monetizes saved hours at the company MVOT rate.
type FinancialImpact struct {
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
	Annual  int `json:"annual"`
}

// NextStep is one prioritized follow-up action in a report.
type NextStep struct {
	Priority    int    `json:"priority"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Timeframe   string `json:"timeframe"`
}

// ReportSummary is the headline block of a report.
type ReportSummary struct {
	TotalTasks          int     `json:"totalTasks"`
	BatchableCategories int     `json:"batchableCategories"`
	PotentialTimeSaved  float64 `json:"potentialTimeSaved"`
	CurrentEfficiency   int     `json:"currentEfficiency"`
}

// Report is the full weekly batching report for a company.
type Report struct {
	Company         domain.Company         `json:"company"`
	ReportDate      string                 `json:"reportDate"`
	WeekAnalyzed    string                 `json:"weekAnalyzed"`
	Summary         ReportSummary          `json:"summary"`
	Opportunities   map[string]Opportunity `json:"opportunities"`
	Recommendations []Recommendation       `json:"recommendations"`
	Implementation  ImplementationStatus   `json:"implementation"`
	QuickWins       []QuickWin             `json:"quickWins"`
	FinancialImpact FinancialImpact        `json:"financialImpact"`
	NextSteps       []NextStep             `json:"nextSteps"`
}

// Insights composes the analysis into dashboard figures. Storage failures
// degrade to a zeroed result so the dashboard stays renderable.
func (a *Analyzer) Insights(ctx context.Context, companyID, weekStart string) Insights {
	analysis, err := a.Analyze(ctx, companyID, weekStart)
	if err != nil {
		a.log.Errorf("batching insights for %s: %v", companyID, err)
		return Insights{QuickWins: []QuickWin{}}
	}
	week, err := a.store.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		a.log.Errorf("batching insights for %s: %v", companyID, err)
		return Insights{QuickWins: []QuickWin{}}
	}

	return Insights{
		PotentialTimeSaved:   analysis.EfficiencyGains.TimeSavedHours,
		BatchableCategories:  len(analysis.Opportunities),
		ImplementationStatus: a.implementationStatus(week),
		QuickWins:            quickWins(analysis),
		WeeklyEfficiency:     a.weeklyEfficiency(week),
	}
}

// Report assembles analysis, insights and the financial impact at the
// company's MVOT rate.
func (a *Analyzer) Report(ctx context.Context, companyID, weekStart string, now time.Time) (Report, error) {
	company, err := a.store.Company(ctx, companyID)
	if err != nil {
		return Report{}, err
	}
	analysis, err := a.Analyze(ctx, companyID, weekStart)
	if err != nil {
		return Report{}, err
	}
	insights := a.Insights(ctx, companyID, weekStart)

	return Report{
		Company:      company,
		ReportDate:   now.UTC().Format(time.RFC3339),
		WeekAnalyzed: weekStart,
		Summary: ReportSummary{
			TotalTasks:          analysis.TotalTasks,
			BatchableCategories: len(analysis.Opportunities),
			PotentialTimeSaved:  insights.PotentialTimeSaved,
			CurrentEfficiency:   insights.WeeklyEfficiency,
		},
		Opportunities:   analysis.Opportunities,
		Recommendations: analysis.Recommendations,
		Implementation:  insights.ImplementationStatus,
		QuickWins:       insights.QuickWins,
		FinancialImpact: FinancialImpact{
			Weekly:  domain.RoundInt(analysis.EfficiencyGains.HoursPerWeek * company.MVOT),
			Monthly: domain.RoundInt(analysis.EfficiencyGains.HoursPerMonth * company.MVOT),
			Annual:  domain.RoundInt(analysis.EfficiencyGains.HoursPerYear * company.MVOT),
		},
		NextSteps: nextSteps(analysis, insights),
	}, nil
}

func (a *Analyzer) implementationStatus(week []domain.ScheduledTask) ImplementationStatus {
	status := ImplementationStatus{}
	for _, t := range week {
		switch {
		case t.Day == "Monday" && t.Category == "Documentation":
			status.MondayDocumentation = true
		case t.Day == "Tuesday" && t.Category == "Business Development":
			status.TuesdayMagic = true
		case t.Day == "Wednesday" && t.Category == "Meetings":
			status.WednesdayMeetings = true
		case t.Day == "Thursday" && t.Category == "Follow-ups":
			status.ThursdayFollowups = true
		case t.Day == "Friday" && t.Category == "Emails":
			status.FridayEmails = true
		}
	}
	return status
}

// weeklyEfficiency is the share of scheduled tasks that sit in a batch or in
// their category's recommended slot.
func (a *Analyzer) weeklyEfficiency(week []domain.ScheduledTask) int {
	if len(week) == 0 {
		return 0
	}
	batched := 0
	for _, t := range week {
		if t.Status == domain.ScheduleBatched ||
			strings.Contains(strings.ToLower(t.Notes), "batch") ||
			a.inRecommendedSlot(t) {
			batched++
		}
	}
	return domain.RoundInt(float64(batched) / float64(len(week)) * 100)
}

func (a *Analyzer) inRecommendedSlot(t domain.ScheduledTask) bool {
	cfg, ok := a.cfg.Categories[t.Category]
	if !ok {
		return false
	}
	slotStart := strings.SplitN(cfg.RecommendedTimeBlock, "-", 2)[0]
	return t.Day == cfg.RecommendedDay && strings.Contains(t.TimeBlock, slotStart)
}

// quickWins surfaces up to three categories with enough tasks to batch and
// nothing scheduled yet.
func quickWins(analysis Analysis) []QuickWin {
	wins := []QuickWin{}
	for category, opp := range analysis.Opportunities {
		if opp.TaskCount >= 3 && opp.CurrentlyScheduled == 0 && opp.Recommendation != nil {
			wins = append(wins, QuickWin{
				Category:  category,
				Impact:    domain.PriorityHigh,
				Effort:    domain.PriorityLow,
				TimeSaved: opp.Recommendation.ContextSwitchingSaved,
				Action:    actionFor(category, opp.TaskCount),
			})
		}
	}
	sort.Slice(wins, func(i, j int) bool {
		if wins[i].TimeSaved != wins[j].TimeSaved {
			return wins[i].TimeSaved > wins[j].TimeSaved
		}
		return wins[i].Category < wins[j].Category
	})
	if len(wins) > 3 {
		wins = wins[:3]
	}
	return wins
}

func actionFor(category string, count int) string {
	return fmt.Sprintf("Batch all %d %s tasks together", count, category)
}

func nextSteps(analysis Analysis, insights Insights) []NextStep {
	steps := []NextStep{}
	if !insights.ImplementationStatus.TuesdayMagic {
		steps = append(steps, NextStep{
			Priority:    1,
			Action:      "Implement Tuesday Magic",
			Description: "Block 4 hours every Tuesday 8am-12pm for auto-pilot systems",
			Impact:      "High - Creates freedom for rest of life",
			Timeframe:   "This week",
		})
	}
	if _, ok := analysis.Opportunities["Documentation"]; ok && !insights.ImplementationStatus.MondayDocumentation {
		steps = append(steps, NextStep{
			Priority:    2,
			Action:      "Create Monday File System",
			Description: "Move all weekly documentation to Monday morning batch",
			Impact:      "High - Eliminates daily administrative interruptions",
			Timeframe:   "This week",
		})
	}
	for i, win := range insights.QuickWins {
		steps = append(steps, NextStep{
			Priority:    3 + i,
			Action:      "Batch " + win.Category + " tasks",
			Description: win.Action,
			Impact:      "Medium - Saves " + formatHours(win.TimeSaved) + " hours per week",
			Timeframe:   "Next 2 weeks",
		})
	}
	return steps
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
