package core

import "time"

// ProjectionRun is a persisted, unadjusted projection of a household.
type ProjectionRun struct {
	ID            int64               `json:"id"`
	HouseholdID   int64               `json:"householdId"`
	CreatedAt     time.Time           `json:"createdAt"`
	StartNetWorth float64             `json:"startNetWorth"`
	EndNetWorth   float64             `json:"endNetWorth"`
	Projection    FinancialProjection `json:"projection"`
}
