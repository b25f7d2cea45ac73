package expense

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrReportClosed    = errors.New("report is closed")
	ErrOpenReportExists = errors.New("an open report already exists")
)

type Repository interface {
	CreateReport(report *Report) error
	GetReport(id uuid.UUID) (*Report, error)
	GetOpenReport(userID uuid.UUID) (*Report, error)
	CountReports(userID uuid.UUID) (int64, error)
	UpdateReport(report *Report) error

	CreateExpense(expense *Expense) error
	GetExpense(id uuid.UUID) (*Expense, error)
	ListExpenses(reportID uuid.UUID) ([]Expense, error)
	DeleteExpense(id uuid.UUID) error
	SummarizeByCategory(reportID uuid.UUID) ([]CategoryTotal, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateReport(report *Report) error {
	return r.db.Create(report).Error
}

func (r *repository) GetReport(id uuid.UUID) (*Report, error) {
	var report Report
	if err := r.db.Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *repository) GetOpenReport(userID uuid.UUID) (*Report, error) {
	var report Report
	err := r.db.Where("user_id = ? AND status = ?", userID, StatusOpen).
		Order("created_at desc").First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *repository) CountReports(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&Report{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *repository) UpdateReport(report *Report) error {
	return r.db.Save(report).Error
}

func (r *repository) CreateExpense(expense *Expense) error {
	return r.db.Create(expense).Error
}

func (r *repository) GetExpense(id uuid.UUID) (*Expense, error) {
	var expense Expense
	if err := r.db.Where("id = ?", id).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return &expense, nil
}

func (r *repository) ListExpenses(reportID uuid.UUID) ([]Expense, error) {
	var expenses []Expense
	err := r.db.Where("report_id = ?", reportID).
		Order("created_at desc").Find(&expenses).Error
	return expenses, err
}

func (r *repository) DeleteExpense(id uuid.UUID) error {
	res := r.db.Where("id = ?", id).Delete(&Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *repository) SummarizeByCategory(reportID uuid.UUID) ([]CategoryTotal, error) {
	var totals []CategoryTotal
	err := r.db.Model(&Expense{}).
		Select("category, sum(value) as total, count(*) as count").
		Where("report_id = ?", reportID).
		Group("category").
		Order("category").
		Scan(&totals).Error
	return totals, err
}
