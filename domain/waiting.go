package domain

// Waiting statuses.
const (
	WaitingOpen     = "Waiting"
	WaitingResolved = "Resolved"
)

// WaitingItem is a task blocked on an external dependency. Resolution creates
// a new scheduled task; the waiting row itself is only marked Resolved.
type WaitingItem struct {
	ID            string `json:"id"`
	CompanyID     string `json:"companyId"`
	Name          string `json:"name"`
	Category      string `json:"category,omitempty"`
	Priority      string `json:"priority,omitempty"`
	WaitingFor    string `json:"waitingFor"`
	ContactPerson string `json:"contactPerson,omitempty"`
	ExpectedDate  string `json:"expectedDate,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt,omitempty"`
}
