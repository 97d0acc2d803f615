// Package batching groups same-category tasks into shared time blocks and
// estimates the context-switching cost avoided by doing so.
package batching

// CategoryConfig describes the standing weekly slot a category batches into.
type CategoryConfig struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	RecommendedDay       string `json:"recommendedDay"`
	RecommendedTimeBlock string `json:"recommendedTimeBlock"`
	BatchSize            string `json:"batchSize"`
}

// Rules are the numeric knobs of the batching methodology, in hours.
type Rules struct {
	MinBatchSize     int     `json:"minBatchSize"`
	MaxBatchDuration float64 `json:"maxBatchDuration"`
	BufferTime       float64 `json:"bufferTime"`
	ContextSwitch    float64 `json:"contextSwitch"`
	SetupTimePerTask float64 `json:"setupTimePerTask"`
}

// Config is passed into every analyzer call rather than read from a global,
// so tenants can override slots and tests can pin them.
type Config struct {
	Categories map[string]CategoryConfig `json:"categories"`
	Rules      Rules                     `json:"rules"`
}

// Uncategorized collects tasks without a category. It never qualifies for
// batching.
const Uncategorized = "Uncategorized"

// Well-known recommendation types.
const (
	TypeMondayFile         = "Monday File"
	TypeTuesdayMagic       = "Tuesday Magic"
	TypeMeetingBatch       = "Meeting Batch"
	TypeCommunicationBatch = "Communication Batch"
)

// DefaultConfig returns the standing batching slots of the methodology:
// documentation on Monday morning, four magic hours on Tuesday, meetings on
// Wednesday afternoon, follow-ups Thursday, email Friday.
func DefaultConfig() Config {
	return Config{
		Categories: map[string]CategoryConfig{
			"Meetings": {
				Name:                 "Meetings",
				Description:          "Vendor, Clients, Staff meetings",
				RecommendedDay:       "Wednesday",
				RecommendedTimeBlock: "14:00-16:00",
				BatchSize:            "All weekly meetings",
			},
			"Documentation": {
				Name:                 "Documentation",
				Description:          "Signing of cheques, All Approvals, Reports",
				RecommendedDay:       "Monday",
				RecommendedTimeBlock: "09:00-12:00",
				BatchSize:            "Monday File - All weekly docs",
			},
			"Follow-ups": {
				Name:                 "Follow ups & Coordination",
				Description:          "All coordination and follow-up tasks",
				RecommendedDay:       "Thursday",
				RecommendedTimeBlock: "14:00-15:30",
				BatchSize:            "1.5 hours batch",
			},
			"Emails": {
				Name:                 "Emails & Others",
				Description:          "All communication and miscellaneous tasks",
				RecommendedDay:       "Friday",
				RecommendedTimeBlock: "14:00-15:00",
				BatchSize:            "1 hour batch",
			},
			"Business Development": {
				Name:                 "Tuesday Magic",
				Description:          "Auto-pilot systems development",
				RecommendedDay:       "Tuesday",
				RecommendedTimeBlock: "08:00-12:00",
				BatchSize:            "4 hours dedicated",
			},
		},
		Rules: Rules{
			MinBatchSize:     3,
			MaxBatchDuration: 4,
			BufferTime:       0.5,
			ContextSwitch:    0.25,
			SetupTimePerTask: 0.1,
		},
	}
}

// batchingTools lists the per-category tool checklist attached to
// implementation plans. Unknown categories get a single generic step.
var batchingTools = map[string][]string{
	"Meetings": {
		"Block calendar for back-to-back meetings",
		"Prepare agenda templates",
		"Set up video conference room",
		"Prepare meeting materials in advance",
	},
	"Documentation": {
		"Create Monday File system",
		"Digital signature setup",
		"Document review checklist",
		"Approval workflow template",
	},
	"Follow-ups": {
		"Contact list preparation",
		"Call script templates",
		"Follow-up email templates",
		"CRM system update",
	},
	"Emails": {
		"Email templates library",
		"Unsubscribe from unnecessary lists",
		"Email filtering rules",
		"Response templates for common queries",
	},
	"Business Development": {
		"Project planning tools",
		"System design templates",
		"Process documentation",
		"Automation tools research",
	},
}

var basePreparationSteps = []string{
	"Gather all materials needed for the batch",
	"Set phone to Do Not Disturb mode",
	"Close unnecessary browser tabs and applications",
	"Prepare workspace for optimal productivity",
}

var categoryPreparationSteps = map[string][]string{
	"Meetings": {
		"Send agenda to all participants 24 hours in advance",
		"Book meeting rooms/video conferences",
		"Prepare presentation materials",
		"Review previous meeting notes",
	},
	"Documentation": {
		"Collect all documents requiring approval",
		"Prepare signing materials",
		"Review company policies if needed",
		"Set up document filing system",
	},
	"Follow-ups": {
		"Prepare list of contacts to reach",
		"Review previous communication history",
		"Prepare talking points for each contact",
		"Set up call logging system",
	},
	"Emails": {
		"Sort emails by priority and type",
		"Prepare response templates",
		"Set up email signatures",
		"Review email backlog",
	},
}

// ToolsForCategory returns the tool checklist for a category.
func ToolsForCategory(category string) []string {
	if tools, ok := batchingTools[category]; ok {
		return tools
	}
	return []string{"General batching preparation"}
}

// PreparationSteps returns the generic preparation steps plus any
// category-specific ones.
func PreparationSteps(category string) []string {
	steps := make([]string, 0, len(basePreparationSteps)+4)
	steps = append(steps, basePreparationSteps...)
	steps = append(steps, categoryPreparationSteps[category]...)
	return steps
}
