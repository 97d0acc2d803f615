package domain

// TimeEntry is an append-only audit record of tracked work. MVOTCost is
// ActualHours multiplied by the company's MVOT rate at the time of logging.
type TimeEntry struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"companyId"`
	Date         string  `json:"date"`
	TaskName     string  `json:"taskName"`
	Category     string  `json:"category,omitempty"`
	PlannedHours float64 `json:"plannedHours"`
	ActualHours  float64 `json:"actualHours"`
	StartTime    string  `json:"startTime,omitempty"`
	EndTime      string  `json:"endTime,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	MVOTCost     float64 `json:"mvotCost"`
}
