package ndexpress

import "time"

// User is the public view of an account.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CPF       string     `json:"cpf"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Session describes an authenticated session.
type Session struct {
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ExpiresIn int64  `json:"expires_in"`
}

// TokenInfo carries the token timestamps returned by verify.
type TokenInfo struct {
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	TimeRemaining int64     `json:"time_remaining"`
}

// VerifyResult is the verify endpoint payload.
type VerifyResult struct {
	User    *User `json:"user"`
	Session struct {
		ID        string    `json:"id"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"session"`
	TokenInfo TokenInfo `json:"token_info"`
}

// Report is one expense report.
type Report struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	AdvanceAmount float64   `json:"advance_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Expense is one launch inside a report.
type Expense struct {
	ID            string    `json:"id"`
	ReportID      string    `json:"report_id"`
	ExpenseDate   time.Time `json:"expense_date"`
	Value         float64   `json:"value"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Establishment string    `json:"establishment"`
	ReceiptURL    string    `json:"receipt_url"`
	Confidence    int       `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

// CategoryTotal is one row of a report summary.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// Summary totals a report's launches against its advance.
type Summary struct {
	Report     *Report         `json:"report"`
	Categories []CategoryTotal `json:"categories"`
	Total      float64         `json:"total"`
	Balance    float64         `json:"balance"`
}

// Receipt is a stored receipt image.
type Receipt struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Extraction is the structured data read from a receipt image.
type Extraction struct {
	Description   string  `json:"description"`
	Value         float64 `json:"value"`
	Date          string  `json:"date"`
	Establishment string  `json:"establishment"`
	Category      string  `json:"category"`
	Confidence    int     `json:"confidence"`
}

// LaunchRequest adds one expense to a report.
type LaunchRequest struct {
	Date          string  `json:"date,omitempty"`
	Value         float64 `json:"value"`
	Description   string  `json:"description,omitempty"`
	Category      string  `json:"category,omitempty"`
	Establishment string  `json:"establishment,omitempty"`
	ReceiptURL    string  `json:"receipt_url,omitempty"`
	Confidence    int     `json:"confidence,omitempty"`
}

// envelope is the standard success wrapper around response payloads.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
