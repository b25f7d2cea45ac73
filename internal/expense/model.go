package expense

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Report is a travel expense report (nota de despesa). At most one report is
// open per user at a time.
type Report struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_reports_user_number;not null" json:"user_id"`
	Number        string    `gorm:"uniqueIndex:idx_reports_user_number;not null" json:"number"`
	Description   string    `json:"description"`
	Status        string    `gorm:"not null;default:open" json:"status"`
	AdvanceAmount float64   `gorm:"not null;default:0" json:"advance_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

// Expense is one receipt-backed launch inside a report.
type Expense struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ReportID      uuid.UUID `gorm:"type:uuid;index;not null" json:"report_id"`
	ExpenseDate   time.Time `gorm:"not null" json:"expense_date"`
	Value         float64   `gorm:"not null" json:"value"`
	Description   string    `json:"description"`
	Category      string    `gorm:"index;not null" json:"category"`
	Establishment string    `json:"establishment"`
	ReceiptURL    string    `json:"receipt_url"`
	Confidence    int       `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Expense) TableName() string {
	return "expenses"
}

// CategoryTotal is one row of a report summary.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}
