package domain

// Someday statuses.
const (
	SomedayOpen      = "Someday"
	SomedayActivated = "Activated"
)

// SomedayItem is a parked idea reviewed at ReviewDate. Activation sends it
// back through quick capture; the someday row is only marked Activated.
type SomedayItem struct {
	ID         string `json:"id"`
	CompanyID  string `json:"companyId"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Reason     string `json:"reason,omitempty"`
	ReviewDate string `json:"reviewDate,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt,omitempty"`
}
