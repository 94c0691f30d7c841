package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finplan/internal/core"
	"finplan/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a household or projection run does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateHousehold(ctx context.Context, name string) (int64, error) {
	id, err := r.queries.CreateHousehold(ctx, name, r.timestamp())
	if err != nil {
		return 0, fmt.Errorf("create household: %w", err)
	}
	logger(ctx).InfoContext(ctx, "Household created", log.FieldHouseholdID, id, "name", name)
	return id, nil
}

func (r *SQLiteRepository) AddPerson(ctx context.Context, householdID int64, name string) (int64, error) {
	id, err := r.queries.CreatePerson(ctx, householdID, name)
	if err != nil {
		return 0, fmt.Errorf("add person to household %d: %w", householdID, err)
	}
	return id, nil
}

func (r *SQLiteRepository) AddIncome(ctx context.Context, personID int64, in core.IncomeRecord) (int64, error) {
	return addIncome(ctx, r.queries, personID, in)
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, personID int64, ex core.ExpenseRecord) (int64, error) {
	return addExpense(ctx, r.queries, personID, ex)
}

func (r *SQLiteRepository) AddSavingsAccount(ctx context.Context, personID int64, a core.SavingsAccount) (int64, error) {
	return addSavingsAccount(ctx, r.queries, personID, a)
}

func (r *SQLiteRepository) AddLoan(ctx context.Context, personID int64, l core.Loan) (int64, error) {
	return addLoan(ctx, r.queries, personID, l)
}

func (r *SQLiteRepository) AddBrokerageAccount(ctx context.Context, personID int64, b core.BrokerageAccount) (int64, error) {
	return addBrokerageAccount(ctx, r.queries, personID, b)
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, householdID int64, s core.ProjectionSettings) error {
	return saveSettings(ctx, r.queries, householdID, s)
}

func (r *SQLiteRepository) AddLumpSum(ctx context.Context, householdID int64, ev core.LumpSumEvent) (int64, error) {
	return addLumpSum(ctx, r.queries, householdID, ev)
}

// ImportHousehold stores a complete household in one transaction and returns its new ID.
func (r *SQLiteRepository) ImportHousehold(ctx context.Context, h core.Household) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, fmt.Errorf("import household: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	id, err := q.CreateHousehold(ctx, h.Name, r.timestamp())
	if err != nil {
		return 0, fmt.Errorf("create household: %w", err)
	}
	if err := saveSettings(ctx, q, id, h.Settings); err != nil {
		return 0, err
	}
	for _, ev := range h.LumpSums {
		if _, err := addLumpSum(ctx, q, id, ev); err != nil {
			return 0, err
		}
	}
	for _, p := range h.People {
		if err := importPerson(ctx, q, id, p); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import transaction: %w", err)
	}

	logger(ctx).InfoContext(ctx, "Household imported",
		log.FieldHouseholdID, id,
		"people", len(h.People),
		"lump_sums", len(h.LumpSums))
	return id, nil
}

func importPerson(ctx context.Context, q *Queries, householdID int64, p core.Person) error {
	personID, err := q.CreatePerson(ctx, householdID, p.Name)
	if err != nil {
		return fmt.Errorf("create person %q: %w", p.Name, err)
	}
	for _, in := range p.Incomes {
		if _, err := addIncome(ctx, q, personID, in); err != nil {
			return err
		}
	}
	for _, ex := range p.Expenses {
		if _, err := addExpense(ctx, q, personID, ex); err != nil {
			return err
		}
	}
	for _, a := range p.SavingsAccounts {
		if _, err := addSavingsAccount(ctx, q, personID, a); err != nil {
			return err
		}
	}
	for _, l := range p.Loans {
		if _, err := addLoan(ctx, q, personID, l); err != nil {
			return err
		}
	}
	for _, b := range p.BrokerageAccounts {
		if _, err := addBrokerageAccount(ctx, q, personID, b); err != nil {
			return err
		}
	}
	return nil
}

// GetHousehold assembles a household with all of its people and records.
func (r *SQLiteRepository) GetHousehold(ctx context.Context, id int64) (core.Household, error) {
	row, err := r.queries.GetHousehold(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Household{}, fmt.Errorf("household %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Household{}, fmt.Errorf("get household %d: %w", id, err)
	}

	h := core.Household{ID: row.ID, Name: row.Name}

	settings, err := r.queries.GetSettings(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return core.Household{}, fmt.Errorf("get settings for household %d: %w", id, err)
	default:
		h.Settings = core.ProjectionSettings{
			IncomeGrowthRate:  settings.IncomeGrowthRate,
			ExpenseGrowthRate: settings.ExpenseGrowthRate,
			SavingsGoal:       settings.SavingsGoal,
		}
	}

	lumpSums, err := r.queries.ListLumpSums(ctx, id)
	if err != nil {
		return core.Household{}, fmt.Errorf("list lump sums for household %d: %w", id, err)
	}
	for _, ls := range lumpSums {
		h.LumpSums = append(h.LumpSums, core.LumpSumEvent{
			Month:       int(ls.Month),
			Amount:      ls.Amount,
			Description: ls.Description,
		})
	}

	persons, err := r.queries.ListPersons(ctx, id)
	if err != nil {
		return core.Household{}, fmt.Errorf("list persons for household %d: %w", id, err)
	}
	for _, pr := range persons {
		p, err := r.loadPerson(ctx, pr)
		if err != nil {
			return core.Household{}, err
		}
		h.People = append(h.People, p)
	}

	return h, nil
}

func (r *SQLiteRepository) loadPerson(ctx context.Context, pr PersonRow) (core.Person, error) {
	p := core.Person{ID: pr.ID, Name: pr.Name}

	incomes, err := r.queries.ListIncomes(ctx, pr.ID)
	if err != nil {
		return p, fmt.Errorf("list incomes for person %d: %w", pr.ID, err)
	}
	for _, in := range incomes {
		f, err := core.ParseFrequency(in.Frequency)
		if err != nil {
			return p, fmt.Errorf("income %q: %w", in.Description, err)
		}
		p.Incomes = append(p.Incomes, core.IncomeRecord{Description: in.Description, Amount: in.Amount, Frequency: f})
	}

	expenses, err := r.queries.ListExpenses(ctx, pr.ID)
	if err != nil {
		return p, fmt.Errorf("list expenses for person %d: %w", pr.ID, err)
	}
	for _, ex := range expenses {
		f, err := core.ParseFrequency(ex.Frequency)
		if err != nil {
			return p, fmt.Errorf("expense %q: %w", ex.Description, err)
		}
		p.Expenses = append(p.Expenses, core.ExpenseRecord{
			Description: ex.Description,
			Amount:      ex.Amount,
			Frequency:   f,
			Category:    ex.Category,
		})
	}

	accounts, err := r.queries.ListSavingsAccounts(ctx, pr.ID)
	if err != nil {
		return p, fmt.Errorf("list savings accounts for person %d: %w", pr.ID, err)
	}
	for _, a := range accounts {
		p.SavingsAccounts = append(p.SavingsAccounts, core.SavingsAccount(a))
	}

	loans, err := r.queries.ListLoans(ctx, pr.ID)
	if err != nil {
		return p, fmt.Errorf("list loans for person %d: %w", pr.ID, err)
	}
	for _, l := range loans {
		f, err := core.ParseFrequency(l.Frequency)
		if err != nil {
			return p, fmt.Errorf("loan %q: %w", l.Name, err)
		}
		p.Loans = append(p.Loans, core.Loan{
			Name:         l.Name,
			Balance:      l.Balance,
			InterestRate: l.InterestRate,
			Payment:      l.Payment,
			Frequency:    f,
		})
	}

	brokerage, err := r.queries.ListBrokerageAccounts(ctx, pr.ID)
	if err != nil {
		return p, fmt.Errorf("list brokerage accounts for person %d: %w", pr.ID, err)
	}
	for _, b := range brokerage {
		p.BrokerageAccounts = append(p.BrokerageAccounts, core.BrokerageAccount(b))
	}

	return p, nil
}

func (r *SQLiteRepository) ListHouseholdIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.queries.ListHouseholdIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	return ids, nil
}

// SaveProjectionRun persists an unadjusted projection and returns the stored run.
func (r *SQLiteRepository) SaveProjectionRun(ctx context.Context, householdID int64, p core.FinancialProjection) (core.ProjectionRun, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return core.ProjectionRun{}, fmt.Errorf("marshal projection: %w", err)
	}

	createdAt := r.now().UTC()
	run := core.ProjectionRun{
		HouseholdID:   householdID,
		CreatedAt:     createdAt,
		StartNetWorth: p.Summary.StartNetWorth,
		EndNetWorth:   p.Summary.EndNetWorth,
		Projection:    p,
	}
	run.ID, err = r.queries.CreateProjectionRun(ctx, CreateProjectionRunParams{
		HouseholdID:   householdID,
		CreatedAt:     createdAt.Format(time.RFC3339Nano),
		StartNetWorth: run.StartNetWorth,
		EndNetWorth:   run.EndNetWorth,
		Payload:       string(payload),
	})
	if err != nil {
		return core.ProjectionRun{}, fmt.Errorf("save projection run for household %d: %w", householdID, err)
	}

	logger(ctx).InfoContext(ctx, "Projection run saved",
		log.FieldHouseholdID, householdID,
		log.FieldRunID, run.ID)
	return run, nil
}

func (r *SQLiteRepository) LatestProjectionRun(ctx context.Context, householdID int64) (core.ProjectionRun, error) {
	row, err := r.queries.GetLatestProjectionRun(ctx, householdID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProjectionRun{}, fmt.Errorf("projection run for household %d: %w", householdID, ErrNotFound)
	}
	if err != nil {
		return core.ProjectionRun{}, fmt.Errorf("get latest projection run: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.ProjectionRun{}, fmt.Errorf("parse run timestamp %q: %w", row.CreatedAt, err)
	}
	run := core.ProjectionRun{
		ID:            row.ID,
		HouseholdID:   row.HouseholdID,
		CreatedAt:     createdAt,
		StartNetWorth: row.StartNetWorth,
		EndNetWorth:   row.EndNetWorth,
	}
	if err := json.Unmarshal([]byte(row.Payload), &run.Projection); err != nil {
		return core.ProjectionRun{}, fmt.Errorf("unmarshal projection run %d: %w", row.ID, err)
	}
	return run, nil
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func addIncome(ctx context.Context, q *Queries, personID int64, in core.IncomeRecord) (int64, error) {
	f, err := normalizeFrequency(in.Frequency)
	if err != nil {
		return 0, fmt.Errorf("income %q: %w", in.Description, err)
	}
	id, err := q.CreateIncome(ctx, CreateIncomeParams{
		PersonID:    personID,
		Description: in.Description,
		Amount:      in.Amount,
		Frequency:   f,
	})
	if err != nil {
		return 0, fmt.Errorf("add income %q: %w", in.Description, err)
	}
	return id, nil
}

func addExpense(ctx context.Context, q *Queries, personID int64, ex core.ExpenseRecord) (int64, error) {
	f, err := normalizeFrequency(ex.Frequency)
	if err != nil {
		return 0, fmt.Errorf("expense %q: %w", ex.Description, err)
	}
	id, err := q.CreateExpense(ctx, CreateExpenseParams{
		PersonID:    personID,
		Description: ex.Description,
		Amount:      ex.Amount,
		Frequency:   f,
		Category:    ex.Category,
	})
	if err != nil {
		return 0, fmt.Errorf("add expense %q: %w", ex.Description, err)
	}
	return id, nil
}

func addSavingsAccount(ctx context.Context, q *Queries, personID int64, a core.SavingsAccount) (int64, error) {
	id, err := q.CreateSavingsAccount(ctx, CreateSavingsAccountParams{
		PersonID:            personID,
		Name:                a.Name,
		Balance:             a.Balance,
		InterestRate:        a.InterestRate,
		MonthlyContribution: a.MonthlyContribution,
	})
	if err != nil {
		return 0, fmt.Errorf("add savings account %q: %w", a.Name, err)
	}
	return id, nil
}

func addLoan(ctx context.Context, q *Queries, personID int64, l core.Loan) (int64, error) {
	if l.Balance < 0 {
		return 0, fmt.Errorf("loan %q: %w", l.Name, core.ErrNegativeBalance)
	}
	f, err := normalizeFrequency(l.Frequency)
	if err != nil {
		return 0, fmt.Errorf("loan %q: %w", l.Name, err)
	}
	id, err := q.CreateLoan(ctx, CreateLoanParams{
		PersonID:     personID,
		Name:         l.Name,
		Balance:      l.Balance,
		InterestRate: l.InterestRate,
		Payment:      l.Payment,
		Frequency:    f,
	})
	if err != nil {
		return 0, fmt.Errorf("add loan %q: %w", l.Name, err)
	}
	return id, nil
}

func addBrokerageAccount(ctx context.Context, q *Queries, personID int64, b core.BrokerageAccount) (int64, error) {
	id, err := q.CreateBrokerageAccount(ctx, CreateBrokerageAccountParams{
		PersonID:       personID,
		Name:           b.Name,
		Balance:        b.Balance,
		ExpectedReturn: b.ExpectedReturn,
	})
	if err != nil {
		return 0, fmt.Errorf("add brokerage account %q: %w", b.Name, err)
	}
	return id, nil
}

func saveSettings(ctx context.Context, q *Queries, householdID int64, s core.ProjectionSettings) error {
	err := q.UpsertSettings(ctx, UpsertSettingsParams{
		HouseholdID:       householdID,
		IncomeGrowthRate:  s.IncomeGrowthRate,
		ExpenseGrowthRate: s.ExpenseGrowthRate,
		SavingsGoal:       s.SavingsGoal,
	})
	if err != nil {
		return fmt.Errorf("save settings for household %d: %w", householdID, err)
	}
	return nil
}

func addLumpSum(ctx context.Context, q *Queries, householdID int64, ev core.LumpSumEvent) (int64, error) {
	id, err := q.CreateLumpSum(ctx, CreateLumpSumParams{
		HouseholdID: householdID,
		Month:       int64(ev.Month),
		Amount:      ev.Amount,
		Description: ev.Description,
	})
	if err != nil {
		return 0, fmt.Errorf("add lump sum %q in month %d: %w", ev.Description, ev.Month, err)
	}
	return id, nil
}

func normalizeFrequency(f core.Frequency) (string, error) {
	parsed, err := core.ParseFrequency(string(f))
	if err != nil {
		return "", err
	}
	return string(parsed), nil
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentStorage)
}
