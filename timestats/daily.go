package timestats

import (
	"context"
	"math"

	"github.com/JONIJAIN/bms/domain"
)

// DailyStats summarizes one day of tracked work.
type DailyStats struct {
	Date               string             `json:"date"`
	DayName            string             `json:"dayName,omitempty"`
	PlannedTime        float64            `json:"plannedTime"`
	ActualTime         float64            `json:"actualTime"`
	HoursWorked        float64            `json:"hoursWorked"`
	MVOTCost           float64            `json:"mvotCost"`
	TasksCompleted     int                `json:"tasksCompleted"`
	Efficiency         int                `json:"efficiency"`
	EstimationAccuracy int                `json:"estimationAccuracy"`
	CategoryBreakdown  map[string]float64 `json:"categoryBreakdown"`
	Productivity       int                `json:"productivity"`
}

// Daily computes the day's totals, efficiency and estimation accuracy from
// that day's time entries.
func (s *Service) Daily(ctx context.Context, companyID, date string) (DailyStats, error) {
	entries, err := s.entriesForDate(ctx, companyID, date)
	if err != nil {
		return DailyStats{}, err
	}

	stats := DailyStats{Date: date, CategoryBreakdown: map[string]float64{}}
	accuracySum := 0
	accuracyCount := 0
	for _, e := range entries {
		stats.PlannedTime += e.PlannedHours
		stats.ActualTime += e.ActualHours
		stats.MVOTCost += e.MVOTCost
		stats.TasksCompleted++
		if e.PlannedHours > 0 {
			accuracySum += Accuracy(e.PlannedHours, e.ActualHours)
			accuracyCount++
		}
		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		stats.CategoryBreakdown[category] += e.ActualHours
	}

	if stats.PlannedTime > 0 {
		stats.Efficiency = domain.RoundInt(stats.ActualTime / stats.PlannedTime * 100)
		if stats.Efficiency > 100 {
			stats.Efficiency = 100
		}
	}
	if accuracyCount > 0 {
		stats.EstimationAccuracy = domain.RoundInt(float64(accuracySum) / float64(accuracyCount))
	}
	stats.Productivity = ProductivityScore(stats.PlannedTime, stats.ActualTime, stats.TasksCompleted)
	stats.PlannedTime = domain.Round1(stats.PlannedTime)
	stats.ActualTime = domain.Round1(stats.ActualTime)
	stats.HoursWorked = stats.ActualTime
	return stats, nil
}

// Accuracy scores how close an estimate was to reality, 100 for a perfect
// estimate and 100 again when nothing was planned.
func Accuracy(plannedHours, actualHours float64) int {
	if plannedHours == 0 {
		return 100
	}
	diff := math.Abs(plannedHours - actualHours)
	return domain.RoundInt(math.Max(0, 100-diff/plannedHours*100))
}

// ProductivityScore blends estimation accuracy with a completed-task bonus of
// two points per task, capped at twenty. A day with nothing planned or
// nothing done scores zero.
func ProductivityScore(plannedTime, actualTime float64, tasksCompleted int) int {
	if plannedTime == 0 || actualTime == 0 {
		return 0
	}
	timeEfficiency := math.Max(0, 100-math.Abs(plannedTime-actualTime)/plannedTime*100)
	bonus := math.Min(20, float64(tasksCompleted)*2)
	return domain.RoundInt(math.Min(100, timeEfficiency+bonus))
}
