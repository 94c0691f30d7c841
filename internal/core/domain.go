package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

type (
	// Frequency is how often a recurring amount is paid or received.
	Frequency string

	Household struct {
		ID       int64
		Name     string
		People   []Person
		Settings ProjectionSettings
		LumpSums []LumpSumEvent
	}

	Person struct {
		ID                int64
		Name              string
		Incomes           []IncomeRecord
		Expenses          []ExpenseRecord
		SavingsAccounts   []SavingsAccount
		Loans             []Loan
		BrokerageAccounts []BrokerageAccount
	}

	IncomeRecord struct {
		Description string
		Amount      float64
		Frequency   Frequency
	}

	ExpenseRecord struct {
		Description string
		Amount      float64
		Frequency   Frequency
		Category    string
	}

	SavingsAccount struct {
		Name                string
		Balance             float64
		InterestRate        float64 // percent, 4.5 = 4.5%
		MonthlyContribution float64
	}

	Loan struct {
		Name         string
		Balance      float64
		InterestRate float64 // percent
		Payment      float64
		Frequency    Frequency
	}

	BrokerageAccount struct {
		Name           string
		Balance        float64
		ExpectedReturn float64 // percent
	}

	// ProjectionSettings are the household-level assumptions, stored as percentages.
	ProjectionSettings struct {
		IncomeGrowthRate  float64
		ExpenseGrowthRate float64
		SavingsGoal       float64
	}
)

var (
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrEmptyName        = errors.New("empty name")
	ErrNegativeBalance  = errors.New("negative balance")
)

// ParseFrequency normalizes a frequency string; empty means monthly.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return Monthly, nil
	}
	if err := f.Validate(); err != nil {
		return "", err
	}
	return f, nil
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFrequency, string(f))
}

func (h Household) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	for _, p := range h.People {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("person %q: %w", p.Name, err)
		}
	}
	return nil
}

func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	for _, in := range p.Incomes {
		if err := in.Frequency.Validate(); err != nil {
			return fmt.Errorf("income %q: %w", in.Description, err)
		}
	}
	for _, ex := range p.Expenses {
		if err := ex.Frequency.Validate(); err != nil {
			return fmt.Errorf("expense %q: %w", ex.Description, err)
		}
	}
	for _, l := range p.Loans {
		if err := l.Frequency.Validate(); err != nil {
			return fmt.Errorf("loan %q: %w", l.Name, err)
		}
		if l.Balance < 0 {
			return fmt.Errorf("loan %q: %w", l.Name, ErrNegativeBalance)
		}
	}
	return nil
}
