package model

import "time"

// Chore frequencies as they appear in the spreadsheet.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Chore is a recurring household task backed by a spreadsheet row.
// The whole table is replaced on every sheet sync; Completed and
// CompletedDate are the only fields carried forward across a replace,
// correlated by Name.
type Chore struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:100;not null;index" json:"name"`
	AssignedTo    string     `gorm:"size:50;not null" json:"assigned_to"`
	Frequency     string     `gorm:"size:20;not null" json:"frequency"`
	DayOfWeek     string     `gorm:"size:10" json:"day_of_week"` // Su, M, Tu, W, Th, F, Sa
	IconName      string     `gorm:"size:100" json:"icon_name"`
	Completed     bool       `gorm:"default:false" json:"completed"`
	CompletedDate *time.Time `json:"completed_date"`
	LastReset     time.Time  `json:"last_reset"`
	SheetRow      int        `json:"sheet_row"`
	CreatedDate   time.Time  `json:"created_date"`
}
