package storage

type HouseholdRow struct {
	ID   int64
	Name string
}

type PersonRow struct {
	ID   int64
	Name string
}

type IncomeRow struct {
	Description string
	Amount      float64
	Frequency   string
}

type ExpenseRow struct {
	Description string
	Amount      float64
	Frequency   string
	Category    string
}

type SavingsAccountRow struct {
	Name                string
	Balance             float64
	InterestRate        float64
	MonthlyContribution float64
}

type LoanRow struct {
	Name         string
	Balance      float64
	InterestRate float64
	Payment      float64
	Frequency    string
}

type BrokerageAccountRow struct {
	Name           string
	Balance        float64
	ExpectedReturn float64
}

type SettingsRow struct {
	IncomeGrowthRate  float64
	ExpenseGrowthRate float64
	SavingsGoal       float64
}

type LumpSumRow struct {
	Month       int64
	Amount      float64
	Description string
}

type ProjectionRunRow struct {
	ID            int64
	HouseholdID   int64
	CreatedAt     string
	StartNetWorth float64
	EndNetWorth   float64
	Payload       string
}
