package domain

import "math"

// Working-time assumptions behind the MVOT rate: six working days a week,
// four weeks a month, eight hours a day.
const (
	WorkingHoursPerYear  = 2300
	WorkingHoursPerMonth = 200
)

// Company is a tenant of the system. Every task-like entity is scoped to one
// company via its CompanyID.
type Company struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	AnnualTurnover float64 `json:"annualTurnover"`
	BusinessType   string  `json:"businessType,omitempty"`
	MVOT           float64 `json:"mvot"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	ModifiedAt     string  `json:"modifiedAt,omitempty"`
}

// CalculateMVOT derives the hourly money value of time from annual turnover.
// The result is never negative.
func CalculateMVOT(annualTurnover float64) float64 {
	if annualTurnover <= 0 {
		return 0
	}
	return math.Round(annualTurnover / WorkingHoursPerYear)
}
