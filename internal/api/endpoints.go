package api

// Authentication endpoints
const (
	AuthRegister = "/auth/register"
	AuthLogin    = "/auth/login"
	AuthLogout   = "/auth/logout"
	AuthVerify   = "/auth/verify"
	AuthProfile  = "/auth/profile"
)

// Expense report endpoints
const (
	Reports        = "/reports"
	ReportOpen     = "/reports/open"
	ReportClose    = "/reports/:id/close"
	ReportAdvance  = "/reports/:id/advance"
	ReportExpenses = "/reports/:id/expenses"
	ReportSummary  = "/reports/:id/summary"
	Expense        = "/expenses/:id"
)

// Upload and extraction endpoints
const (
	Receipts      = "/receipts"
	VisionAnalyze = "/vision/analyze"
)

// PublicEndpoints defines endpoints that don't require a Bearer token.
// Logout and verify read the token themselves so they can report precise
// failure kinds instead of being cut off by middleware.
var PublicEndpoints = map[string]bool{
	AuthRegister: true,
	AuthLogin:    true,
	AuthLogout:   true,
	AuthVerify:   true,
}
