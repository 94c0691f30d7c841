package storage

import (
	"context"
	"database/sql"
)

const createHousehold = `INSERT INTO households (name, created_at) VALUES (?, ?)`

func (q *Queries) CreateHousehold(ctx context.Context, name, createdAt string) (int64, error) {
	return q.insert(ctx, createHousehold, name, createdAt)
}

const getHousehold = `SELECT id, name FROM households WHERE id = ?`

func (q *Queries) GetHousehold(ctx context.Context, id int64) (HouseholdRow, error) {
	var h HouseholdRow
	err := q.db.QueryRowContext(ctx, getHousehold, id).Scan(&h.ID, &h.Name)
	return h, err
}

const listHouseholdIDs = `SELECT id FROM households ORDER BY id`

func (q *Queries) ListHouseholdIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listHouseholdIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const createPerson = `INSERT INTO persons (household_id, name) VALUES (?, ?)`

func (q *Queries) CreatePerson(ctx context.Context, householdID int64, name string) (int64, error) {
	return q.insert(ctx, createPerson, householdID, name)
}

const listPersons = `SELECT id, name FROM persons WHERE household_id = ? ORDER BY id`

func (q *Queries) ListPersons(ctx context.Context, householdID int64) ([]PersonRow, error) {
	rows, err := q.db.QueryContext(ctx, listPersons, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PersonRow
	for rows.Next() {
		var p PersonRow
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const createIncome = `INSERT INTO incomes (person_id, description, amount, frequency) VALUES (?, ?, ?, ?)`

type CreateIncomeParams struct {
	PersonID    int64
	Description string
	Amount      float64
	Frequency   string
}

func (q *Queries) CreateIncome(ctx context.Context, arg CreateIncomeParams) (int64, error) {
	return q.insert(ctx, createIncome, arg.PersonID, arg.Description, arg.Amount, arg.Frequency)
}

const listIncomes = `SELECT description, amount, frequency FROM incomes WHERE person_id = ? ORDER BY id`

func (q *Queries) ListIncomes(ctx context.Context, personID int64) ([]IncomeRow, error) {
	rows, err := q.db.QueryContext(ctx, listIncomes, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IncomeRow
	for rows.Next() {
		var r IncomeRow
		if err := rows.Scan(&r.Description, &r.Amount, &r.Frequency); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createExpense = `INSERT INTO expenses (person_id, description, amount, frequency, category) VALUES (?, ?, ?, ?, ?)`

type CreateExpenseParams struct {
	PersonID    int64
	Description string
	Amount      float64
	Frequency   string
	Category    string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	return q.insert(ctx, createExpense, arg.PersonID, arg.Description, arg.Amount, arg.Frequency, arg.Category)
}

const listExpenses = `SELECT description, amount, frequency, category FROM expenses WHERE person_id = ? ORDER BY id`

func (q *Queries) ListExpenses(ctx context.Context, personID int64) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExpenseRow
	for rows.Next() {
		var r ExpenseRow
		if err := rows.Scan(&r.Description, &r.Amount, &r.Frequency, &r.Category); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createSavingsAccount = `INSERT INTO savings_accounts (person_id, name, balance, interest_rate, monthly_contribution) VALUES (?, ?, ?, ?, ?)`

type CreateSavingsAccountParams struct {
	PersonID            int64
	Name                string
	Balance             float64
	InterestRate        float64
	MonthlyContribution float64
}

func (q *Queries) CreateSavingsAccount(ctx context.Context, arg CreateSavingsAccountParams) (int64, error) {
	return q.insert(ctx, createSavingsAccount, arg.PersonID, arg.Name, arg.Balance, arg.InterestRate, arg.MonthlyContribution)
}

const listSavingsAccounts = `SELECT name, balance, interest_rate, monthly_contribution FROM savings_accounts WHERE person_id = ? ORDER BY id`

func (q *Queries) ListSavingsAccounts(ctx context.Context, personID int64) ([]SavingsAccountRow, error) {
	rows, err := q.db.QueryContext(ctx, listSavingsAccounts, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SavingsAccountRow
	for rows.Next() {
		var r SavingsAccountRow
		if err := rows.Scan(&r.Name, &r.Balance, &r.InterestRate, &r.MonthlyContribution); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createLoan = `INSERT INTO loans (person_id, name, balance, interest_rate, payment, frequency) VALUES (?, ?, ?, ?, ?, ?)`

type CreateLoanParams struct {
	PersonID     int64
	Name         string
	Balance      float64
	InterestRate float64
	Payment      float64
	Frequency    string
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) (int64, error) {
	return q.insert(ctx, createLoan, arg.PersonID, arg.Name, arg.Balance, arg.InterestRate, arg.Payment, arg.Frequency)
}

const listLoans = `SELECT name, balance, interest_rate, payment, frequency FROM loans WHERE person_id = ? ORDER BY id`

func (q *Queries) ListLoans(ctx context.Context, personID int64) ([]LoanRow, error) {
	rows, err := q.db.QueryContext(ctx, listLoans, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LoanRow
	for rows.Next() {
		var r LoanRow
		if err := rows.Scan(&r.Name, &r.Balance, &r.InterestRate, &r.Payment, &r.Frequency); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createBrokerageAccount = `INSERT INTO brokerage_accounts (person_id, name, balance, expected_return) VALUES (?, ?, ?, ?)`

type CreateBrokerageAccountParams struct {
	PersonID       int64
	Name           string
	Balance        float64
	ExpectedReturn float64
}

func (q *Queries) CreateBrokerageAccount(ctx context.Context, arg CreateBrokerageAccountParams) (int64, error) {
	return q.insert(ctx, createBrokerageAccount, arg.PersonID, arg.Name, arg.Balance, arg.ExpectedReturn)
}

const listBrokerageAccounts = `SELECT name, balance, expected_return FROM brokerage_accounts WHERE person_id = ? ORDER BY id`

func (q *Queries) ListBrokerageAccounts(ctx context.Context, personID int64) ([]BrokerageAccountRow, error) {
	rows, err := q.db.QueryContext(ctx, listBrokerageAccounts, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BrokerageAccountRow
	for rows.Next() {
		var r BrokerageAccountRow
		if err := rows.Scan(&r.Name, &r.Balance, &r.ExpectedReturn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const upsertSettings = `INSERT INTO projection_settings (household_id, income_growth_rate, expense_growth_rate, savings_goal)
VALUES (?, ?, ?, ?)
ON CONFLICT(household_id) DO UPDATE SET
    income_growth_rate = excluded.income_growth_rate,
    expense_growth_rate = excluded.expense_growth_rate,
    savings_goal = excluded.savings_goal`

type UpsertSettingsParams struct {
	HouseholdID       int64
	IncomeGrowthRate  float64
	ExpenseGrowthRate float64
	SavingsGoal       float64
}

func (q *Queries) UpsertSettings(ctx context.Context, arg UpsertSettingsParams) error {
	_, err := q.db.ExecContext(ctx, upsertSettings, arg.HouseholdID, arg.IncomeGrowthRate, arg.ExpenseGrowthRate, arg.SavingsGoal)
	return err
}

const getSettings = `SELECT income_growth_rate, expense_growth_rate, savings_goal FROM projection_settings WHERE household_id = ?`

func (q *Queries) GetSettings(ctx context.Context, householdID int64) (SettingsRow, error) {
	var s SettingsRow
	err := q.db.QueryRowContext(ctx, getSettings, householdID).Scan(&s.IncomeGrowthRate, &s.ExpenseGrowthRate, &s.SavingsGoal)
	return s, err
}

const createLumpSum = `INSERT INTO lump_sum_events (household_id, month, amount, description) VALUES (?, ?, ?, ?)`

type CreateLumpSumParams struct {
	HouseholdID int64
	Month       int64
	Amount      float64
	Description string
}

func (q *Queries) CreateLumpSum(ctx context.Context, arg CreateLumpSumParams) (int64, error) {
	return q.insert(ctx, createLumpSum, arg.HouseholdID, arg.Month, arg.Amount, arg.Description)
}

const listLumpSums = `SELECT month, amount, description FROM lump_sum_events WHERE household_id = ? ORDER BY month, id`

func (q *Queries) ListLumpSums(ctx context.Context, householdID int64) ([]LumpSumRow, error) {
	rows, err := q.db.QueryContext(ctx, listLumpSums, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LumpSumRow
	for rows.Next() {
		var r LumpSumRow
		if err := rows.Scan(&r.Month, &r.Amount, &r.Description); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createProjectionRun = `INSERT INTO projection_runs (household_id, created_at, start_net_worth, end_net_worth, payload) VALUES (?, ?, ?, ?, ?)`

type CreateProjectionRunParams struct {
	HouseholdID   int64
	CreatedAt     string
	StartNetWorth float64
	EndNetWorth   float64
	Payload       string
}

func (q *Queries) CreateProjectionRun(ctx context.Context, arg CreateProjectionRunParams) (int64, error) {
	return q.insert(ctx, createProjectionRun, arg.HouseholdID, arg.CreatedAt, arg.StartNetWorth, arg.EndNetWorth, arg.Payload)
}

const getLatestProjectionRun = `SELECT id, household_id, created_at, start_net_worth, end_net_worth, payload
FROM projection_runs WHERE household_id = ? ORDER BY id DESC LIMIT 1`

func (q *Queries) GetLatestProjectionRun(ctx context.Context, householdID int64) (ProjectionRunRow, error) {
	var r ProjectionRunRow
	err := q.db.QueryRowContext(ctx, getLatestProjectionRun, householdID).Scan(
		&r.ID, &r.HouseholdID, &r.CreatedAt, &r.StartNetWorth, &r.EndNetWorth, &r.Payload)
	return r, err
}

func (q *Queries) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var _ DBTX = (*sql.DB)(nil)
