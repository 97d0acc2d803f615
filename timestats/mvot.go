package timestats

import (
	"context"
	"fmt"
	"sort"

	"github.com/JONIJAIN/bms/domain"
)

// maxDailyHours is the productive-capacity ceiling behind the utilization
// figures.
const maxDailyHours = 8

// CategoryCost aggregates one category's tracked time and cost.
type CategoryCost struct {
	Hours      float64 `json:"hours"`
	Cost       float64 `json:"cost"`
	Efficiency int     `json:"efficiency"`
	TaskCount  int     `json:"taskCount"`
}

// MVOTPeriod describes the analyzed window.
type MVOTPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// MVOTTotals are the period's headline figures.
type MVOTTotals struct {
	ActualHours        float64 `json:"actualHours"`
	PlannedHours       float64 `json:"plannedHours"`
	MVOTCost           int     `json:"mvotCost"`
	AverageHoursPerDay float64 `json:"averageHoursPerDay"`
}

// MVOTPotential is what the period could have yielded at full capacity.
type MVOTPotential struct {
	MaxDailyHours   int     `json:"maxDailyHours"`
	MaxPeriodHours  int     `json:"maxPeriodHours"`
	MaxPeriodValue  float64 `json:"maxPeriodValue"`
	UtilizationRate int     `json:"utilizationRate"`
}

// MVOTGaps are the distances between actual and potential.
type MVOTGaps struct {
	HourGap  float64 `json:"hourGap"`
	ValueGap float64 `json:"valueGap"`
}

// MVOTRecommendation flags a category or the overall utilization as below
// par.
type MVOTRecommendation struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Action      string `json:"action"`
}

// MVOTAnalysis values the tracked period against the company's money value
// of time.
type MVOTAnalysis struct {
	Company          domain.Company          `json:"company"`
	Period           MVOTPeriod              `json:"period"`
	MVOT             float64                 `json:"mvot"`
	Totals           MVOTTotals              `json:"totals"`
	Potential        MVOTPotential           `json:"potential"`
	Gaps             MVOTGaps                `json:"gaps"`
	CategoryAnalysis map[string]CategoryCost `json:"categoryAnalysis"`
	Recommendations  []MVOTRecommendation    `json:"recommendations"`
}

// MVOT analyzes the trailing periodDays of time entries at the company's
// MVOT rate. Zero or negative periodDays means the 30-day default.
func (s *Service) MVOT(ctx context.Context, companyID string, periodDays int) (MVOTAnalysis, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	company, err := s.store.Company(ctx, companyID)
	if err != nil {
		return MVOTAnalysis{}, err
	}

	end := s.clock().UTC()
	start := end.AddDate(0, 0, -periodDays)
	entries, err := s.entriesForPeriod(ctx, companyID,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	if err != nil {
		return MVOTAnalysis{}, err
	}

	analysis := MVOTAnalysis{
		Company: company,
		Period: MVOTPeriod{
			Start: start.Format(domain.DateLayout),
			End:   end.Format(domain.DateLayout),
			Days:  periodDays,
		},
		MVOT:             company.MVOT,
		CategoryAnalysis: map[string]CategoryCost{},
	}

	totalActual := 0.0
	totalPlanned := 0.0
	totalCost := 0.0
	for _, e := range entries {
		totalActual += e.ActualHours
		totalPlanned += e.PlannedHours
		totalCost += e.MVOTCost

		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		c := analysis.CategoryAnalysis[category]
		c.Hours += e.ActualHours
		c.Cost += e.MVOTCost
		c.TaskCount++
		analysis.CategoryAnalysis[category] = c
	}
	for category, c := range analysis.CategoryAnalysis {
		if c.Hours > 0 && company.MVOT > 0 {
			c.Efficiency = domain.RoundInt(c.Cost / (c.Hours * company.MVOT) * 100)
		}
		analysis.CategoryAnalysis[category] = c
	}

	maxHours := float64(maxDailyHours * periodDays)
	analysis.Totals = MVOTTotals{
		ActualHours:        domain.Round1(totalActual),
		PlannedHours:       domain.Round1(totalPlanned),
		MVOTCost:           domain.RoundInt(totalCost),
		AverageHoursPerDay: domain.Round1(totalActual / float64(periodDays)),
	}
	analysis.Potential = MVOTPotential{
		MaxDailyHours:   maxDailyHours,
		MaxPeriodHours:  maxDailyHours * periodDays,
		MaxPeriodValue:  maxHours * company.MVOT,
		UtilizationRate: domain.RoundInt(totalActual / maxHours * 100),
	}
	analysis.Gaps = MVOTGaps{
		HourGap:  maxHours - totalActual,
		ValueGap: maxHours*company.MVOT - totalCost,
	}
	analysis.Recommendations = mvotRecommendations(analysis.CategoryAnalysis, totalActual, maxHours, company.MVOT)
	return analysis, nil
}

// mvotRecommendations flags the three costliest categories that run below
// 70% of the MVOT rate, and low overall utilization against an 80%-of-capacity
// optimum.
func mvotRecommendations(byCategory map[string]CategoryCost, totalHours, maxHours, mvotRate float64) []MVOTRecommendation {
	recs := []MVOTRecommendation{}

	type ranked struct {
		category string
		CategoryCost
	}
	costly := make([]ranked, 0, len(byCategory))
	for category, c := range byCategory {
		costly = append(costly, ranked{category, c})
	}
	sort.Slice(costly, func(i, j int) bool {
		if costly[i].Cost != costly[j].Cost {
			return costly[i].Cost > costly[j].Cost
		}
		return costly[i].category < costly[j].category
	})
	if len(costly) > 3 {
		costly = costly[:3]
	}
	for i, c := range costly {
		if c.Hours <= 0 {
			continue
		}
		if c.Cost/c.Hours < mvotRate*0.7 {
			savings := domain.RoundInt(c.Cost - c.Hours*mvotRate*0.8)
			recs = append(recs, MVOTRecommendation{
				Type:        "low_efficiency",
				Category:    c.category,
				Priority:    i + 1,
				Description: fmt.Sprintf("%s tasks are running below optimal MVOT efficiency", c.category),
				Impact:      fmt.Sprintf("₹%d potential savings", savings),
				Action:      "Consider batching, automation, or delegation for this category",
			})
		}
	}

	// 80% utilization is the working optimum.
	optimalHours := maxHours * 0.8
	if totalHours < optimalHours*0.6 {
		recs = append(recs, MVOTRecommendation{
			Type:        "low_utilization",
			Category:    "Overall",
			Priority:    1,
			Description: "Low overall time utilization detected",
			Impact:      fmt.Sprintf("₹%d opportunity cost", domain.RoundInt((optimalHours-totalHours)*mvotRate)),
			Action:      "Increase productive hours or review time tracking accuracy",
		})
	}
	return recs
}
