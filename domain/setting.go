package domain

// Setting is one key of the flat configuration table. Writes upsert.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	ModifiedAt  string `json:"modifiedAt,omitempty"`
}

// Setting keys the system itself reads.
const (
	SettingDefaultCompany      = "DEFAULT_COMPANY"
	SettingTuesdayMagicTime    = "TUESDAY_MAGIC_TIME"
	SettingMinBatchSize        = "MIN_BATCH_SIZE"
	SettingDataRetentionMonths = "DATA_RETENTION_MONTHS"
	SettingWeeklyReviewDay     = "WEEKLY_REVIEW_DAY"
)
