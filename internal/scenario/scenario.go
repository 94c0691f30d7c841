// Package scenario reads household snapshots from TOML files.
//
// A scenario either states the flat projection inputs directly
// ([snapshot], [flows], [rates], [goals]) or describes a household with its
// people and accounts ([household], [[person]]), which is aggregated the
// same way stored households are. Rates are written as percentages.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"finplan/internal/core"
	"finplan/internal/household"
)

var (
	ErrNoHousehold    = errors.New("scenario has no [household] table")
	ErrUnknownKeys    = errors.New("unknown scenario keys")
	ErrLumpSumMonth   = errors.New("lump sum month out of range")
	ErrNegativeAmount = errors.New("negative balance or debt")
)

// Scenario is the decoded form of a scenario file.
type Scenario struct {
	Title    string        `toml:"title"`
	Snapshot Snapshot      `toml:"snapshot"`
	Flows    Flows         `toml:"flows"`
	Rates    Rates         `toml:"rates"`
	Goals    Goals         `toml:"goals"`
	LumpSums []LumpSum     `toml:"lump_sum"`
	House    *HouseholdDef `toml:"household"`
	People   []PersonDef   `toml:"person"`
}

type Snapshot struct {
	// NetWorth defaults to savings + investments - debt.
	NetWorth    *float64 `toml:"net_worth"`
	Savings     float64  `toml:"savings"`
	Investments float64  `toml:"investments"`
	Debt        float64  `toml:"debt"`
}

type Flows struct {
	MonthlyIncome            float64 `toml:"monthly_income"`
	MonthlyExpenses          float64 `toml:"monthly_expenses"`
	MonthlyDebtPayment       float64 `toml:"monthly_debt_payment"`
	AdditionalMonthlySavings float64 `toml:"additional_monthly_savings"`
}

// Rates are annual percentages (3 = 3%).
type Rates struct {
	IncomeGrowth     float64 `toml:"income_growth"`
	ExpenseGrowth    float64 `toml:"expense_growth"`
	SavingsInterest  float64 `toml:"savings_interest"`
	InvestmentReturn float64 `toml:"investment_return"`
}

type Goals struct {
	SavingsGoal float64 `toml:"savings_goal"`
}

type LumpSum struct {
	Month       int     `toml:"month"`
	Amount      float64 `toml:"amount"`
	Description string  `toml:"description"`
}

type HouseholdDef struct {
	Name          string  `toml:"name"`
	IncomeGrowth  float64 `toml:"income_growth"`
	ExpenseGrowth float64 `toml:"expense_growth"`
	SavingsGoal   float64 `toml:"savings_goal"`
}

type PersonDef struct {
	Name      string         `toml:"name"`
	Incomes   []FlowDef      `toml:"income"`
	Expenses  []FlowDef      `toml:"expense"`
	Savings   []SavingsDef   `toml:"savings"`
	Loans     []LoanDef      `toml:"loan"`
	Brokerage []BrokerageDef `toml:"brokerage"`
}

type FlowDef struct {
	Description string  `toml:"description"`
	Amount      float64 `toml:"amount"`
	Frequency   string  `toml:"frequency"`
	Category    string  `toml:"category"`
}

type SavingsDef struct {
	Name                string  `toml:"name"`
	Balance             float64 `toml:"balance"`
	InterestRate        float64 `toml:"interest_rate"`
	MonthlyContribution float64 `toml:"monthly_contribution"`
}

type LoanDef struct {
	Name         string  `toml:"name"`
	Balance      float64 `toml:"balance"`
	InterestRate float64 `toml:"interest_rate"`
	Payment      float64 `toml:"payment"`
	Frequency    string  `toml:"frequency"`
}

type BrokerageDef struct {
	Name           string  `toml:"name"`
	Balance        float64 `toml:"balance"`
	ExpectedReturn float64 `toml:"expected_return"`
}

// Load reads and validates the scenario file at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Decode parses a scenario and rejects keys it does not know about, so a
// misspelled field is reported instead of silently read as zero.
func Decode(r io.Reader) (*Scenario, error) {
	var s Scenario
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(keys, ", "))
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	for i, ls := range s.LumpSums {
		if ls.Month < 1 || ls.Month > 120 {
			return fmt.Errorf("lump_sum[%d]: %w: %d", i, ErrLumpSumMonth, ls.Month)
		}
	}
	if s.Snapshot.Savings < 0 || s.Snapshot.Investments < 0 || s.Snapshot.Debt < 0 {
		return fmt.Errorf("snapshot: %w", ErrNegativeAmount)
	}
	if len(s.People) > 0 {
		if _, err := s.household(); err != nil {
			return err
		}
	}
	return nil
}

// HasHousehold reports whether the scenario describes people and accounts.
func (s *Scenario) HasHousehold() bool {
	return len(s.People) > 0
}

// Name returns the title, falling back to the household name.
func (s *Scenario) Name() string {
	if s.Title != "" {
		return s.Title
	}
	if s.House != nil && s.House.Name != "" {
		return s.House.Name
	}
	return "Scenario"
}

// Inputs returns the projection inputs. When the scenario lists people, the
// household is aggregated and the flat sections are ignored.
func (s *Scenario) Inputs() (core.ProjectionInputs, error) {
	if s.HasHousehold() {
		h, err := s.household()
		if err != nil {
			return core.ProjectionInputs{}, err
		}
		in, err := household.Aggregate(h)
		if err != nil {
			return core.ProjectionInputs{}, fmt.Errorf("aggregate scenario household: %w", err)
		}
		return in, nil
	}

	snap := s.Snapshot
	netWorth := snap.Savings + snap.Investments - snap.Debt
	if snap.NetWorth != nil {
		netWorth = *snap.NetWorth
	}
	return core.ProjectionInputs{
		CurrentNetWorth:          netWorth,
		CurrentSavings:           snap.Savings,
		CurrentInvestments:       snap.Investments,
		CurrentDebt:              snap.Debt,
		MonthlyIncome:            s.Flows.MonthlyIncome,
		MonthlyExpenses:          s.Flows.MonthlyExpenses,
		MonthlyDebtPayment:       s.Flows.MonthlyDebtPayment,
		AdditionalMonthlySavings: s.Flows.AdditionalMonthlySavings,
		IncomeGrowthRate:         core.PercentToRate(s.Rates.IncomeGrowth),
		ExpenseGrowthRate:        core.PercentToRate(s.Rates.ExpenseGrowth),
		SavingsInterestRate:      core.PercentToRate(s.Rates.SavingsInterest),
		InvestmentReturnRate:     core.PercentToRate(s.Rates.InvestmentReturn),
		SavingsGoal:              s.Goals.SavingsGoal,
		LumpSumEvents:            s.lumpSums(),
	}, nil
}

// Household builds the household described by [household] and [[person]],
// ready to be imported.
func (s *Scenario) Household() (core.Household, error) {
	return s.household()
}

func (s *Scenario) household() (core.Household, error) {
	if s.House == nil {
		return core.Household{}, ErrNoHousehold
	}
	h := core.Household{
		Name: s.House.Name,
		Settings: core.ProjectionSettings{
			IncomeGrowthRate:  s.House.IncomeGrowth,
			ExpenseGrowthRate: s.House.ExpenseGrowth,
			SavingsGoal:       s.House.SavingsGoal,
		},
		LumpSums: s.lumpSums(),
	}
	for _, pd := range s.People {
		p, err := pd.person()
		if err != nil {
			return core.Household{}, fmt.Errorf("person %q: %w", pd.Name, err)
		}
		h.People = append(h.People, p)
	}
	if err := h.Validate(); err != nil {
		return core.Household{}, fmt.Errorf("household: %w", err)
	}
	return h, nil
}

func (pd PersonDef) person() (core.Person, error) {
	p := core.Person{Name: pd.Name}
	for _, in := range pd.Incomes {
		freq, err := core.ParseFrequency(in.Frequency)
		if err != nil {
			return core.Person{}, fmt.Errorf("income %q: %w", in.Description, err)
		}
		p.Incomes = append(p.Incomes, core.IncomeRecord{Description: in.Description, Amount: in.Amount, Frequency: freq})
	}
	for _, ex := range pd.Expenses {
		freq, err := core.ParseFrequency(ex.Frequency)
		if err != nil {
			return core.Person{}, fmt.Errorf("expense %q: %w", ex.Description, err)
		}
		p.Expenses = append(p.Expenses, core.ExpenseRecord{
			Description: ex.Description,
			Amount:      ex.Amount,
			Frequency:   freq,
			Category:    ex.Category,
		})
	}
	for _, sv := range pd.Savings {
		p.SavingsAccounts = append(p.SavingsAccounts, core.SavingsAccount(sv))
	}
	for _, l := range pd.Loans {
		freq, err := core.ParseFrequency(l.Frequency)
		if err != nil {
			return core.Person{}, fmt.Errorf("loan %q: %w", l.Name, err)
		}
		p.Loans = append(p.Loans, core.Loan{
			Name:         l.Name,
			Balance:      l.Balance,
			InterestRate: l.InterestRate,
			Payment:      l.Payment,
			Frequency:    freq,
		})
	}
	for _, b := range pd.Brokerage {
		p.BrokerageAccounts = append(p.BrokerageAccounts, core.BrokerageAccount(b))
	}
	return p, nil
}

func (s *Scenario) lumpSums() []core.LumpSumEvent {
	if len(s.LumpSums) == 0 {
		return nil
	}
	out := make([]core.LumpSumEvent, 0, len(s.LumpSums))
	for _, ls := range s.LumpSums {
		out = append(out, core.LumpSumEvent(ls))
	}
	return out
}
