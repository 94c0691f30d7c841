package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finplan/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finplan.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleHousehold() core.Household {
	return core.Household{
		Name: "Rossi",
		Settings: core.ProjectionSettings{
			IncomeGrowthRate:  3,
			ExpenseGrowthRate: 2,
			SavingsGoal:       50000,
		},
		LumpSums: []core.LumpSumEvent{
			{Month: 24, Amount: -15000, Description: "Car"},
			{Month: 6, Amount: 5000, Description: "Bonus"},
		},
		People: []core.Person{
			{
				Name: "Anna",
				Incomes: []core.IncomeRecord{
					{Description: "Salary", Amount: 4000, Frequency: core.Monthly},
				},
				Expenses: []core.ExpenseRecord{
					{Description: "Rent", Amount: 1200, Frequency: core.Monthly, Category: "Housing"},
					{Description: "Insurance", Amount: 600, Frequency: core.Yearly, Category: "Insurance"},
				},
				SavingsAccounts: []core.SavingsAccount{
					{Name: "Emergency", Balance: 10000, InterestRate: 4.5, MonthlyContribution: 100},
				},
				Loans: []core.Loan{
					{Name: "Car loan", Balance: 8000, InterestRate: 6, Payment: 300, Frequency: core.Monthly},
				},
			},
			{
				Name: "Marco",
				Incomes: []core.IncomeRecord{
					{Description: "Freelance", Amount: 500, Frequency: core.Weekly},
				},
				BrokerageAccounts: []core.BrokerageAccount{
					{Name: "ETF", Balance: 20000, ExpectedReturn: 7},
				},
			},
		},
	}
}

func TestImportAndGetHousehold(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.ImportHousehold(ctx, sampleHousehold())
	if err != nil {
		t.Fatalf("ImportHousehold() error = %v", err)
	}

	h, err := repo.GetHousehold(ctx, id)
	if err != nil {
		t.Fatalf("GetHousehold() error = %v", err)
	}

	if h.ID != id || h.Name != "Rossi" {
		t.Errorf("household = %d %q, want %d Rossi", h.ID, h.Name, id)
	}
	if h.Settings.SavingsGoal != 50000 || h.Settings.IncomeGrowthRate != 3 {
		t.Errorf("settings = %+v", h.Settings)
	}
	if len(h.LumpSums) != 2 || h.LumpSums[0].Month != 6 {
		t.Errorf("lump sums = %+v, want two ordered by month", h.LumpSums)
	}
	if len(h.People) != 2 {
		t.Fatalf("people = %d, want 2", len(h.People))
	}

	anna := h.People[0]
	if anna.Name != "Anna" || len(anna.Incomes) != 1 || len(anna.Expenses) != 2 {
		t.Errorf("anna = %+v", anna)
	}
	if anna.Expenses[1].Frequency != core.Yearly || anna.Expenses[0].Category != "Housing" {
		t.Errorf("expenses = %+v", anna.Expenses)
	}
	if len(anna.Loans) != 1 || anna.Loans[0].Payment != 300 {
		t.Errorf("loans = %+v", anna.Loans)
	}
	if len(anna.SavingsAccounts) != 1 || anna.SavingsAccounts[0].InterestRate != 4.5 {
		t.Errorf("savings accounts = %+v", anna.SavingsAccounts)
	}

	marco := h.People[1]
	if marco.Incomes[0].Frequency != core.Weekly {
		t.Errorf("marco income frequency = %q, want weekly", marco.Incomes[0].Frequency)
	}
	if len(marco.BrokerageAccounts) != 1 || marco.BrokerageAccounts[0].Balance != 20000 {
		t.Errorf("brokerage accounts = %+v", marco.BrokerageAccounts)
	}
}

func TestImportHouseholdRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	h := sampleHousehold()
	h.LumpSums = append(h.LumpSums, core.LumpSumEvent{Month: 500, Amount: 1, Description: "Out of range"})

	if _, err := repo.ImportHousehold(ctx, h); err == nil {
		t.Fatal("ImportHousehold() expected error for out of range lump sum month")
	}

	ids, err := repo.ListHouseholdIDs(ctx)
	if err != nil {
		t.Fatalf("ListHouseholdIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListHouseholdIDs() = %v, want none after rollback", ids)
	}
}

func TestImportHouseholdRejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.ImportHousehold(context.Background(), core.Household{Name: " "}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("ImportHousehold() error = %v, want ErrEmptyName", err)
	}
}

func TestAddRecordsIncrementally(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	hid, err := repo.CreateHousehold(ctx, "Bianchi")
	if err != nil {
		t.Fatalf("CreateHousehold() error = %v", err)
	}
	pid, err := repo.AddPerson(ctx, hid, "Luca")
	if err != nil {
		t.Fatalf("AddPerson() error = %v", err)
	}
	if _, err := repo.AddIncome(ctx, pid, core.IncomeRecord{Description: "Salary", Amount: 3000}); err != nil {
		t.Fatalf("AddIncome() error = %v", err)
	}
	if _, err := repo.AddExpense(ctx, pid, core.ExpenseRecord{Description: "Food", Amount: 100, Frequency: core.Weekly}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if _, err := repo.AddSavingsAccount(ctx, pid, core.SavingsAccount{Name: "Bank", Balance: 1000}); err != nil {
		t.Fatalf("AddSavingsAccount() error = %v", err)
	}
	if _, err := repo.AddLoan(ctx, pid, core.Loan{Name: "Student", Balance: 5000, Payment: 200}); err != nil {
		t.Fatalf("AddLoan() error = %v", err)
	}
	if _, err := repo.AddBrokerageAccount(ctx, pid, core.BrokerageAccount{Name: "Stocks", Balance: 2000, ExpectedReturn: 6}); err != nil {
		t.Fatalf("AddBrokerageAccount() error = %v", err)
	}
	if err := repo.SaveSettings(ctx, hid, core.ProjectionSettings{IncomeGrowthRate: 2}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	if err := repo.SaveSettings(ctx, hid, core.ProjectionSettings{IncomeGrowthRate: 4}); err != nil {
		t.Fatalf("SaveSettings() second call error = %v", err)
	}
	if _, err := repo.AddLumpSum(ctx, hid, core.LumpSumEvent{Month: 12, Amount: 1000, Description: "Gift"}); err != nil {
		t.Fatalf("AddLumpSum() error = %v", err)
	}

	h, err := repo.GetHousehold(ctx, hid)
	if err != nil {
		t.Fatalf("GetHousehold() error = %v", err)
	}
	if h.Settings.IncomeGrowthRate != 4 {
		t.Errorf("IncomeGrowthRate = %v, want 4 after upsert", h.Settings.IncomeGrowthRate)
	}
	p := h.People[0]
	if p.Incomes[0].Frequency != core.Monthly {
		t.Errorf("empty frequency stored as %q, want monthly", p.Incomes[0].Frequency)
	}
	if len(p.Expenses) != 1 || len(p.SavingsAccounts) != 1 || len(p.Loans) != 1 || len(p.BrokerageAccounts) != 1 {
		t.Errorf("person records = %+v", p)
	}
	if len(h.LumpSums) != 1 {
		t.Errorf("lump sums = %+v", h.LumpSums)
	}
}

func TestAddRecordErrors(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.AddPerson(ctx, 999, "Ghost"); err == nil {
		t.Error("AddPerson() expected foreign key error for unknown household")
	}

	hid, _ := repo.CreateHousehold(ctx, "Verdi")
	pid, _ := repo.AddPerson(ctx, hid, "Sara")
	if _, err := repo.AddIncome(ctx, pid, core.IncomeRecord{Description: "X", Amount: 1, Frequency: "hourly"}); !errors.Is(err, core.ErrUnknownFrequency) {
		t.Errorf("AddIncome() error = %v, want ErrUnknownFrequency", err)
	}
	if _, err := repo.AddLoan(ctx, pid, core.Loan{Name: "Bad", Balance: -1}); !errors.Is(err, core.ErrNegativeBalance) {
		t.Errorf("AddLoan() error = %v, want ErrNegativeBalance", err)
	}
}

func TestGetHouseholdNotFound(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.GetHousehold(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHousehold() error = %v, want ErrNotFound", err)
	}
}

func TestProjectionRuns(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	repo.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	hid, err := repo.CreateHousehold(ctx, "Neri")
	if err != nil {
		t.Fatalf("CreateHousehold() error = %v", err)
	}

	if _, err := repo.LatestProjectionRun(ctx, hid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LatestProjectionRun() error = %v, want ErrNotFound", err)
	}

	amount := 50000.0
	first := core.FinancialProjection{
		DataPoints: []core.ProjectionDataPoint{{Month: 0, NetWorth: 1000}},
		Milestones: []core.ProjectionMilestone{},
		Summary:    core.ProjectionSummary{StartNetWorth: 1000, EndNetWorth: 2000},
	}
	second := core.FinancialProjection{
		DataPoints: []core.ProjectionDataPoint{{Month: 0, NetWorth: 1000}, {Month: 1, NetWorth: 60000}},
		Milestones: []core.ProjectionMilestone{{Month: 1, Type: core.MilestoneNetWorth, Title: "$50K Net Worth", Amount: &amount}},
		Summary:    core.ProjectionSummary{StartNetWorth: 1000, EndNetWorth: 60000},
	}

	if _, err := repo.SaveProjectionRun(ctx, hid, first); err != nil {
		t.Fatalf("SaveProjectionRun() error = %v", err)
	}
	saved, err := repo.SaveProjectionRun(ctx, hid, second)
	if err != nil {
		t.Fatalf("SaveProjectionRun() error = %v", err)
	}

	latest, err := repo.LatestProjectionRun(ctx, hid)
	if err != nil {
		t.Fatalf("LatestProjectionRun() error = %v", err)
	}
	if latest.ID != saved.ID {
		t.Errorf("latest ID = %d, want %d", latest.ID, saved.ID)
	}
	if latest.EndNetWorth != 60000 || latest.StartNetWorth != 1000 {
		t.Errorf("latest net worth = %v..%v", latest.StartNetWorth, latest.EndNetWorth)
	}
	if !latest.CreatedAt.Equal(repo.now()) {
		t.Errorf("CreatedAt = %v, want %v", latest.CreatedAt, repo.now())
	}
	if len(latest.Projection.DataPoints) != 2 || len(latest.Projection.Milestones) != 1 {
		t.Errorf("payload = %+v", latest.Projection)
	}
	if got := latest.Projection.Milestones[0].Amount; got == nil || *got != 50000 {
		t.Errorf("milestone amount = %v, want 50000", got)
	}
}
