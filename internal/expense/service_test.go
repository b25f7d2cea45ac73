package expense

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(zap.NewNop(), repo), repo
}

func TestOpenReportNumbering(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	first, err := svc.OpenReport(userID, "Viagem SP")
	require.NoError(t, err)
	assert.Equal(t, "ND001", first.Number)
	assert.Equal(t, StatusOpen, first.Status)

	_, err = svc.CloseReport(userID, first.ID, "")
	require.NoError(t, err)

	second, err := svc.OpenReport(userID, "")
	require.NoError(t, err)
	assert.Equal(t, "ND002", second.Number)
	assert.Equal(t, "Nova Nota de Despesa", second.Description)
}

func TestOpenReportRejectsSecondOpen(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	_, err := svc.OpenReport(userID, "primeira")
	require.NoError(t, err)

	_, err = svc.OpenReport(userID, "segunda")
	assert.ErrorIs(t, err, ErrOpenReportExists)
}

func TestCloseReportTwice(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	closed, err := svc.CloseReport(userID, report.ID, "encerrada")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	assert.Equal(t, "encerrada", closed.Description)

	_, err = svc.CloseReport(userID, report.ID, "de novo")
	assert.ErrorIs(t, err, ErrReportClosed)
}

func TestReportOwnership(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	intruder := uuid.New()

	report, err := svc.OpenReport(owner, "viagem")
	require.NoError(t, err)

	_, err = svc.CloseReport(intruder, report.ID, "")
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = svc.AddLaunch(intruder, report.ID, LaunchInput{Value: 10, Description: "uber"})
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestAddLaunchValidation(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input LaunchInput
	}{
		{"zero value", LaunchInput{Value: 0, Description: "uber"}},
		{"negative value", LaunchInput{Value: -5, Description: "uber"}},
		{"value above ceiling", LaunchInput{Value: 1_000_000, Description: "uber"}},
		{"description too long", LaunchInput{Value: 10, Description: string(make([]byte, 101))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddLaunch(userID, report.ID, tt.input)
			assert.ErrorIs(t, err, ErrInvalidLaunch)
		})
	}
}

func TestAddLaunchEnforcesBreakfastCap(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	breakfast := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	_, err = svc.AddLaunch(userID, report.ID, LaunchInput{
		Date:        breakfast,
		Value:       45.00,
		Description: "padaria central",
	})
	var capErr *CategoryCapError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, BreakfastCap, capErr.Cap)
	assert.Equal(t, CategoryFood, capErr.Category)

	// same value is fine at lunch
	lunch := time.Date(2026, 3, 12, 12, 30, 0, 0, time.UTC)
	expense, err := svc.AddLaunch(userID, report.ID, LaunchInput{
		Date:        lunch,
		Value:       45.00,
		Description: "restaurante central",
	})
	require.NoError(t, err)
	assert.Equal(t, CategoryFood, expense.Category)
}

func TestAddLaunchAutoCategorizes(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	expense, err := svc.AddLaunch(userID, report.ID, LaunchInput{
		Date:        time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
		Value:       32.50,
		Description: "Uber centro",
	})
	require.NoError(t, err)
	assert.Equal(t, CategoryTransport, expense.Category)
	assert.Greater(t, expense.Confidence, 0)

	// explicit category wins over the suggestion
	expense, err = svc.AddLaunch(userID, report.ID, LaunchInput{
		Date:        time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
		Value:       32.50,
		Description: "Uber centro",
		Category:    CategoryOther,
	})
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, expense.Category)
}

func TestAddLaunchToClosedReport(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)
	_, err = svc.CloseReport(userID, report.ID, "")
	require.NoError(t, err)

	_, err = svc.AddLaunch(userID, report.ID, LaunchInput{Value: 10, Description: "uber"})
	assert.ErrorIs(t, err, ErrReportClosed)
}

func TestDeleteLaunch(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	expense, err := svc.AddLaunch(userID, report.ID, LaunchInput{
		Value:       22.00,
		Description: "estacionamento",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLaunch(userID, expense.ID))
	assert.ErrorIs(t, svc.DeleteLaunch(userID, expense.ID), ErrExpenseNotFound)

	launches, err := svc.ListLaunches(userID, report.ID)
	require.NoError(t, err)
	assert.Empty(t, launches)
}

func TestSummarize(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	_, err = svc.SetAdvance(userID, report.ID, 100.00)
	require.NoError(t, err)

	lunch := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	launches := []LaunchInput{
		{Date: lunch, Value: 55.00, Description: "restaurante"},
		{Date: lunch, Value: 28.00, Description: "uber aeroporto"},
		{Date: lunch, Value: 12.00, Description: "pedágio"},
	}
	for _, in := range launches {
		_, err := svc.AddLaunch(userID, report.ID, in)
		require.NoError(t, err)
	}

	summary, err := svc.Summarize(userID, report.ID)
	require.NoError(t, err)
	assert.InDelta(t, 95.00, summary.Total, 0.001)
	assert.InDelta(t, -5.00, summary.Balance, 0.001)
	assert.Len(t, summary.Categories, 2)

	for _, ct := range summary.Categories {
		switch ct.Category {
		case CategoryFood:
			assert.InDelta(t, 55.00, ct.Total, 0.001)
			assert.Equal(t, 1, ct.Count)
		case CategoryTransport:
			assert.InDelta(t, 40.00, ct.Total, 0.001)
			assert.Equal(t, 2, ct.Count)
		default:
			t.Fatalf("unexpected category %q", ct.Category)
		}
	}
}

func TestSetAdvanceRejectsNegative(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	report, err := svc.OpenReport(userID, "viagem")
	require.NoError(t, err)

	_, err = svc.SetAdvance(userID, report.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidLaunch)
}
