package domain

// Capture statuses. A capture row is an audit record: it is never deleted,
// only moved through these states.
const (
	CaptureToProcess       = "To Process"
	CaptureMovedToSchedule = "Moved to Schedule"
	CaptureMovedToWaiting  = "Moved to Waiting"
	CaptureMovedToSomeday  = "Moved to Someday"
	CaptureMovedToBatch    = "Moved to Batch"
	CaptureCompleted       = "Completed"
	CaptureArchived        = "Archived"
)

// Schedule statuses.
const (
	SchedulePlanned    = "Planned"
	ScheduleInProgress = "In Progress"
	ScheduleCompleted  = "Completed"
	ScheduleBatched    = "Batched"
)

// Priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// CapturedTask is a quick-capture inbox item awaiting a weekly-review
// decision.
type CapturedTask struct {
	ID         string `json:"id"`
	CompanyID  string `json:"companyId"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt,omitempty"`
	ModifiedAt string `json:"modifiedAt,omitempty"`
}

// ScheduledTask is a row of the weekly schedule. Day is derived from Date and
// kept consistent with it. PlannedDuration keeps the free-text form the user
// typed ("1 hour"); PlannedHours carries its lenient-parsed value.
type ScheduledTask struct {
	ID              string `json:"id"`
	CompanyID       string `json:"companyId"`
	Date            string `json:"date"`
	Day             string `json:"day"`
	TimeBlock       string `json:"timeBlock"`
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	Priority        string `json:"priority,omitempty"`
	PlannedDuration string `json:"plannedDuration,omitempty"`
	ActualStart     string `json:"actualStart,omitempty"`
	ActualEnd       string `json:"actualEnd,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
}

// PlannedHours is the lenient-parsed planned duration, defaulting to one hour.
func (t ScheduledTask) PlannedHours() float64 {
	return ParseHours(t.PlannedDuration)
}
