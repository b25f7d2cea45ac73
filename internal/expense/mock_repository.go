package expense

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRepository struct {
	mu       sync.RWMutex
	reports  map[uuid.UUID]*Report
	expenses map[uuid.UUID]*Expense
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		reports:  make(map[uuid.UUID]*Report),
		expenses: make(map[uuid.UUID]*Expense),
	}
}

func (r *mockRepository) CreateReport(report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	clone := *report
	r.reports[report.ID] = &clone
	return nil
}

func (r *mockRepository) GetReport(id uuid.UUID) (*Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, exists := r.reports[id]
	if !exists {
		return nil, ErrReportNotFound
	}
	clone := *report
	return &clone, nil
}

func (r *mockRepository) GetOpenReport(userID uuid.UUID) (*Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rep := range r.reports {
		if rep.UserID == userID && rep.Status == StatusOpen {
			clone := *rep
			return &clone, nil
		}
	}
	return nil, ErrReportNotFound
}

func (r *mockRepository) CountReports(userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, rep := range r.reports {
		if rep.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *mockRepository) UpdateReport(report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[report.ID]; !exists {
		return ErrReportNotFound
	}
	report.UpdatedAt = time.Now()
	clone := *report
	r.reports[report.ID] = &clone
	return nil
}

func (r *mockRepository) CreateExpense(expense *Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	expense.CreatedAt = time.Now()
	clone := *expense
	r.expenses[expense.ID] = &clone
	return nil
}

func (r *mockRepository) GetExpense(id uuid.UUID) (*Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expense, exists := r.expenses[id]
	if !exists {
		return nil, ErrExpenseNotFound
	}
	clone := *expense
	return &clone, nil
}

func (r *mockRepository) ListExpenses(reportID uuid.UUID) ([]Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Expense
	for _, e := range r.expenses {
		if e.ReportID == reportID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *mockRepository) DeleteExpense(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.expenses[id]; !exists {
		return ErrExpenseNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *mockRepository) SummarizeByCategory(reportID uuid.UUID) ([]CategoryTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCategory := make(map[string]*CategoryTotal)
	for _, e := range r.expenses {
		if e.ReportID != reportID {
			continue
		}
		total, exists := byCategory[e.Category]
		if !exists {
			total = &CategoryTotal{Category: e.Category}
			byCategory[e.Category] = total
		}
		total.Total += e.Value
		total.Count++
	}

	var out []CategoryTotal
	for _, t := range byCategory {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out, nil
}
