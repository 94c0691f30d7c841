package sheets

import (
	"context"

	"finplan/internal/core"
)

// Ports for outbound adapters.
type (
	// ProjectionExporter publishes a generated projection somewhere a person can read it.
	ProjectionExporter interface {
		// Export replaces any previous export of the household and returns a reference to it.
		Export(ctx context.Context, householdID int64, p core.FinancialProjection) (ref string, err error)
	}
)
