package timestats

import (
	"context"
	"fmt"

	"github.com/JONIJAIN/bms/domain"
)

// WeeklyTotals aggregates the week's daily stats. Averages run over days
// with recorded work only, so an empty Saturday never drags them down.
type WeeklyTotals struct {
	PlannedTime    float64 `json:"plannedTime"`
	ActualTime     float64 `json:"actualTime"`
	MVOTCost       float64 `json:"mvotCost"`
	TasksCompleted int     `json:"tasksCompleted"`
	AvgEfficiency  int     `json:"avgEfficiency"`
	AvgAccuracy    int     `json:"avgAccuracy"`
}

// Insight is one observation derived from the week's numbers.
type Insight struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

// WeeklyAnalytics is seven dailies plus totals, trend and insights.
type WeeklyAnalytics struct {
	WeekStart    string       `json:"weekStart"`
	DailyStats   []DailyStats `json:"dailyStats"`
	WeeklyTotals WeeklyTotals `json:"weeklyTotals"`
	Insights     []Insight    `json:"insights"`
}

// Weekly computes per-day stats for the seven days from weekStart and derives
// week-level insights.
func (s *Service) Weekly(ctx context.Context, companyID, weekStart string) (WeeklyAnalytics, error) {
	dates, err := domain.WeekDates(weekStart)
	if err != nil {
		return WeeklyAnalytics{}, &domain.ValidationError{Message: "invalid week start date: " + weekStart}
	}

	analytics := WeeklyAnalytics{WeekStart: weekStart, Insights: []Insight{}}
	for _, date := range dates {
		day, err := s.Daily(ctx, companyID, date)
		if err != nil {
			return WeeklyAnalytics{}, err
		}
		day.DayName = domain.DayName(date)
		analytics.DailyStats = append(analytics.DailyStats, day)

		analytics.WeeklyTotals.PlannedTime += day.PlannedTime
		analytics.WeeklyTotals.ActualTime += day.ActualTime
		analytics.WeeklyTotals.MVOTCost += day.MVOTCost
		analytics.WeeklyTotals.TasksCompleted += day.TasksCompleted
	}

	workedDays := 0
	efficiencySum := 0
	accuracySum := 0
	for _, day := range analytics.DailyStats {
		if day.ActualTime > 0 {
			workedDays++
		}
		efficiencySum += day.Efficiency
		accuracySum += day.EstimationAccuracy
	}
	if workedDays > 0 {
		analytics.WeeklyTotals.AvgEfficiency = domain.RoundInt(float64(efficiencySum) / float64(workedDays))
		analytics.WeeklyTotals.AvgAccuracy = domain.RoundInt(float64(accuracySum) / float64(workedDays))
	}

	analytics.Insights = s.weeklyInsights(ctx, companyID, analytics)
	return analytics, nil
}

func (s *Service) weeklyInsights(ctx context.Context, companyID string, analytics WeeklyAnalytics) []Insight {
	insights := []Insight{}

	if analytics.WeeklyTotals.MVOTCost > 0 {
		company, err := s.store.Company(ctx, companyID)
		if err != nil {
			s.log.Warnf("weekly insights: company %s lookup: %v", companyID, err)
		} else {
			// 40-hour baseline week.
			valueGap := company.MVOT*40 - company.MVOT*analytics.WeeklyTotals.ActualTime
			if valueGap > 0 {
				insights = append(insights, Insight{
					Type:           "mvot_gap",
					Title:          "MVOT Value Gap Identified",
					Description:    fmt.Sprintf("You have a potential value gap of ₹%d this week", domain.RoundInt(valueGap)),
					Impact:         "High",
					Recommendation: "Focus on increasing productive hours or optimizing time allocation",
				})
			}
		}
	}

	efficiencies := make([]float64, 0, len(analytics.DailyStats))
	for _, day := range analytics.DailyStats {
		efficiencies = append(efficiencies, float64(day.Efficiency))
	}
	switch trend := Trend(efficiencies); {
	case trend < -10:
		insights = append(insights, Insight{
			Type:           "efficiency_decline",
			Title:          "Declining Efficiency Trend",
			Description:    "Your efficiency has decreased over the week",
			Impact:         "Medium",
			Recommendation: "Review task planning and eliminate distractions",
		})
	case trend > 10:
		insights = append(insights, Insight{
			Type:           "efficiency_improvement",
			Title:          "Improving Efficiency",
			Description:    "Your efficiency is trending upward this week",
			Impact:         "Positive",
			Recommendation: "Continue current practices and identify what's working well",
		})
	}

	if analytics.WeeklyTotals.AvgAccuracy < 70 && analytics.WeeklyTotals.TasksCompleted > 0 {
		insights = append(insights, Insight{
			Type:           "estimation_accuracy",
			Title:          "Low Time Estimation Accuracy",
			Description:    fmt.Sprintf("Your average estimation accuracy is %d%%", analytics.WeeklyTotals.AvgAccuracy),
			Impact:         "Medium",
			Recommendation: "Track more detailed time data to improve future estimates",
		})
	}

	if best := bestDay(analytics.DailyStats); best.Productivity > 0 {
		insights = append(insights, Insight{
			Type:           "best_day",
			Title:          fmt.Sprintf("%s was your most productive day", best.DayName),
			Description:    fmt.Sprintf("Productivity score: %d%%, Tasks completed: %d", best.Productivity, best.TasksCompleted),
			Impact:         "Positive",
			Recommendation: "Analyze what made this day successful and replicate the pattern",
		})
	}
	return insights
}

func bestDay(days []DailyStats) DailyStats {
	best := DailyStats{}
	for _, day := range days {
		if day.Productivity > best.Productivity {
			best = day
		}
	}
	return best
}

// Trend compares the average of the first half of the positive values with
// the second half, as a percentage change. Fewer than two positive values
// mean no trend.
func Trend(values []float64) float64 {
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) < 2 {
		return 0
	}
	mid := len(positive) / 2
	firstAvg := avg(positive[:mid])
	secondAvg := avg(positive[mid:])
	return (secondAvg - firstAvg) / firstAvg * 100
}

func avg(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
