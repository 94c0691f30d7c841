package worker

import (
	"context"
	"errors"
	"fmt"

	"finplan/internal/amqp"
	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/sheets"
	"finplan/internal/storage"
)

// Projector is the part of the projection service the worker drives
type Projector interface {
	Project(ctx context.Context, householdID int64, patch core.InputsPatch) (core.FinancialProjection, error)
	Refresh(ctx context.Context, householdID int64) (core.ProjectionRun, error)
}

// ProjectionWorker turns projection requests from AMQP into persisted runs and exports
type ProjectionWorker struct {
	projector Projector
	exporter  sheets.ProjectionExporter
	logger    *log.Logger
}

// NewProjectionWorker creates a worker. exporter may be nil to skip exporting.
func NewProjectionWorker(projector Projector, exporter sheets.ProjectionExporter, logger *log.Logger) *ProjectionWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &ProjectionWorker{
		projector: projector,
		exporter:  exporter,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRequest processes a single projection request message. Requests that can
// never succeed are reported as amqp.ErrMalformedMessage so they are not requeued.
func (w *ProjectionWorker) HandleRequest(ctx context.Context, msg *amqp.ProjectionRequestMessage) error {
	w.logger.InfoContext(ctx, "Processing projection request",
		log.FieldHouseholdID, msg.HouseholdID,
		"adjusted", msg.Adjustments != nil)

	var (
		p   core.FinancialProjection
		err error
	)
	if msg.Adjustments != nil && !msg.Adjustments.IsEmpty() {
		p, err = w.projector.Project(ctx, msg.HouseholdID, *msg.Adjustments)
	} else {
		var run core.ProjectionRun
		run, err = w.projector.Refresh(ctx, msg.HouseholdID)
		p = run.Projection
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, projection.ErrInvalidInput) || errors.Is(err, core.ErrUnknownFrequency) {
			return fmt.Errorf("%w: %w", amqp.ErrMalformedMessage, err)
		}
		return fmt.Errorf("project household %d: %w", msg.HouseholdID, err)
	}

	if w.exporter == nil {
		w.logger.WarnContext(ctx, "No projection exporter configured, skipping export",
			log.FieldHouseholdID, msg.HouseholdID)
		return nil
	}

	ref, err := w.exporter.Export(ctx, msg.HouseholdID, p)
	if err != nil {
		return fmt.Errorf("export projection: %w", err)
	}

	w.logger.InfoContext(ctx, "Projection exported",
		log.FieldOperation, log.OpExport,
		log.FieldHouseholdID, msg.HouseholdID,
		log.FieldExportRef, ref)
	return nil
}
