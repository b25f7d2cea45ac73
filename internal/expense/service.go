package expense

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryCapError reports a launch over its meal-window ceiling.
type CategoryCapError struct {
	Category string
	Cap      float64
	Value    float64
}

func (e *CategoryCapError) Error() string {
	return fmt.Sprintf("%s launch of %.2f exceeds the %.2f cap", e.Category, e.Value, e.Cap)
}

var ErrInvalidLaunch = errors.New("invalid launch")

// InvalidLaunchError carries the boundary-validation reason.
type InvalidLaunchError struct {
	Reason string
}

func (e *InvalidLaunchError) Error() string {
	return e.Reason
}

func (e *InvalidLaunchError) Is(target error) bool {
	return target == ErrInvalidLaunch
}

type Service struct {
	log        *zap.Logger
	repository Repository
}

func NewService(log *zap.Logger, repo Repository) *Service {
	return &Service{
		log:        log,
		repository: repo,
	}
}

// OpenReport creates a new open report for the user, numbered sequentially
// (ND001, ND002, ...). Only one report may be open at a time.
func (s *Service) OpenReport(userID uuid.UUID, description string) (*Report, error) {
	if _, err := s.repository.GetOpenReport(userID); err == nil {
		return nil, ErrOpenReportExists
	}

	count, err := s.repository.CountReports(userID)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = "Nova Nota de Despesa"
	}
	report := &Report{
		UserID:      userID,
		Number:      fmt.Sprintf("ND%03d", count+1),
		Description: description,
		Status:      StatusOpen,
	}
	if err := s.repository.CreateReport(report); err != nil {
		return nil, err
	}

	s.log.Info("report opened",
		zap.String("report_id", report.ID.String()),
		zap.String("number", report.Number))
	return report, nil
}

func (s *Service) OpenReportFor(userID uuid.UUID) (*Report, error) {
	return s.repository.GetOpenReport(userID)
}

// CloseReport finalizes the report with its closing description.
func (s *Service) CloseReport(userID, reportID uuid.UUID, description string) (*Report, error) {
	report, err := s.ownedReport(userID, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == StatusClosed {
		return nil, ErrReportClosed
	}

	if description != "" {
		report.Description = description
	}
	report.Status = StatusClosed
	if err := s.repository.UpdateReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

// SetAdvance records the travel advance paid out for the report.
func (s *Service) SetAdvance(userID, reportID uuid.UUID, amount float64) (*Report, error) {
	if amount < 0 {
		return nil, &InvalidLaunchError{Reason: "advance amount cannot be negative"}
	}

	report, err := s.ownedReport(userID, reportID)
	if err != nil {
		return nil, err
	}

	report.AdvanceAmount = amount
	if err := s.repository.UpdateReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

type LaunchInput struct {
	Date          time.Time
	Value         float64
	Description   string
	Category      string
	Establishment string
	ReceiptURL    string
	Confidence    int
}

// AddLaunch validates and records one expense. An absent category is
// auto-suggested from the description; Alimentação launches are refused above
// their meal-window cap.
func (s *Service) AddLaunch(userID, reportID uuid.UUID, in LaunchInput) (*Expense, error) {
	report, err := s.ownedReport(userID, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == StatusClosed {
		return nil, ErrReportClosed
	}

	if in.Value < MinValue || in.Value > MaxValue {
		return nil, &InvalidLaunchError{
			Reason: fmt.Sprintf("value must be between %.2f and %d", MinValue, MaxValue),
		}
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, &InvalidLaunchError{
			Reason: fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength),
		}
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	category := in.Category
	if category == "" {
		category = SuggestCategory(in.Description, in.Date)
	}

	if cap := CapFor(category, in.Description, in.Date); cap > 0 && in.Value > cap {
		return nil, &CategoryCapError{Category: category, Cap: cap, Value: in.Value}
	}

	confidence := in.Confidence
	if confidence == 0 {
		confidence = ConfidenceScore(in.Description, category)
	}

	description := in.Description
	if description == "" {
		description = "Não informado"
	}
	establishment := in.Establishment
	if establishment == "" {
		establishment = "Não informado"
	}

	expense := &Expense{
		ReportID:      report.ID,
		ExpenseDate:   in.Date,
		Value:         in.Value,
		Description:   description,
		Category:      category,
		Establishment: establishment,
		ReceiptURL:    in.ReceiptURL,
		Confidence:    confidence,
	}
	if err := s.repository.CreateExpense(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *Service) ListLaunches(userID, reportID uuid.UUID) ([]Expense, error) {
	if _, err := s.ownedReport(userID, reportID); err != nil {
		return nil, err
	}
	return s.repository.ListExpenses(reportID)
}

// DeleteLaunch removes an expense after checking the report belongs to the
// caller.
func (s *Service) DeleteLaunch(userID, expenseID uuid.UUID) error {
	expense, err := s.repository.GetExpense(expenseID)
	if err != nil {
		return err
	}
	if _, err := s.ownedReport(userID, expense.ReportID); err != nil {
		return err
	}
	return s.repository.DeleteExpense(expenseID)
}

type Summary struct {
	Report     *Report         `json:"report"`
	Categories []CategoryTotal `json:"categories"`
	Total      float64         `json:"total"`
	Balance    float64         `json:"balance"`
}

// Summarize totals launches per category and computes the balance against the
// advance (positive means the traveler is owed money).
func (s *Service) Summarize(userID, reportID uuid.UUID) (*Summary, error) {
	report, err := s.ownedReport(userID, reportID)
	if err != nil {
		return nil, err
	}

	totals, err := s.repository.SummarizeByCategory(reportID)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, t := range totals {
		total += t.Total
	}

	return &Summary{
		Report:     report,
		Categories: totals,
		Total:      total,
		Balance:    total - report.AdvanceAmount,
	}, nil
}

func (s *Service) ownedReport(userID, reportID uuid.UUID) (*Report, error) {
	report, err := s.repository.GetReport(reportID)
	if err != nil {
		return nil, err
	}
	if report.UserID != userID {
		return nil, ErrReportNotFound
	}
	return report, nil
}
