package model

import "time"

// DefaultTodoPriority is used when the sheet cell is missing or not numeric.
const DefaultTodoPriority = 5

// Todo is a one-off task. Rows synced from the spreadsheet follow the
// same full-replace-with-carry-forward semantics as Chore, correlated by
// Title; rows created directly through the API have SheetRow == 0.
type Todo struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null;index" json:"title"`
	Priority      int        `gorm:"not null;default:5" json:"priority"` // 1-10
	AssignedTo    string     `gorm:"size:50" json:"assigned_to"`
	DueDate       *time.Time `json:"due_date"`
	Completed     bool       `gorm:"default:false" json:"completed"`
	CompletedDate *time.Time `json:"completed_date"`
	SheetRow      int        `json:"sheet_row"`
	CreatedDate   time.Time  `json:"created_date"`
}
