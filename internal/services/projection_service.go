package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finplan/internal/amqp"
	"finplan/internal/cache"
	"finplan/internal/core"
	"finplan/internal/household"
	"finplan/internal/log"
	"finplan/internal/projection"
)

// ErrMessagingUnavailable is returned when an async request is made without a broker.
var ErrMessagingUnavailable = errors.New("messaging unavailable")

// HouseholdStore is the persistence the projection service needs
type HouseholdStore interface {
	GetHousehold(ctx context.Context, id int64) (core.Household, error)
	ListHouseholdIDs(ctx context.Context) ([]int64, error)
	SaveProjectionRun(ctx context.Context, householdID int64, p core.FinancialProjection) (core.ProjectionRun, error)
	LatestProjectionRun(ctx context.Context, householdID int64) (core.ProjectionRun, error)
}

// Publisher sends projection messages to the broker
type Publisher interface {
	PublishProjectionRequest(ctx context.Context, msg *amqp.ProjectionRequestMessage) error
	PublishProjectionGenerated(ctx context.Context, msg *amqp.ProjectionGeneratedMessage) error
}

// ProjectionServiceConfig holds tuning for the projection service
type ProjectionServiceConfig struct {
	// CacheSize is the max number of cached projections (default: 100)
	CacheSize int

	// CacheTTL is how long a cached projection is served (default: 5m)
	CacheTTL time.Duration

	// RefreshConcurrency bounds RefreshAll fan-out (default: 4)
	RefreshConcurrency int

	// Clock drives month labels; nil means time.Now
	Clock func() time.Time
}

func DefaultProjectionServiceConfig() ProjectionServiceConfig {
	return ProjectionServiceConfig{
		CacheSize:          100,
		CacheTTL:           5 * time.Minute,
		RefreshConcurrency: 4,
	}
}

// ProjectionService loads households, runs the engine and fans results out to
// storage, cache and the broker.
type ProjectionService struct {
	store     HouseholdStore
	publisher Publisher
	cache     *cache.LRUCache[core.FinancialProjection]
	config    ProjectionServiceConfig
	logger    *log.Logger
}

// NewProjectionService wires the service. publisher may be nil, in which case
// generated runs are not announced and RequestRefresh fails.
func NewProjectionService(store HouseholdStore, publisher Publisher, config ProjectionServiceConfig, logger *log.Logger) *ProjectionService {
	defaults := DefaultProjectionServiceConfig()
	if config.CacheSize < 1 {
		config.CacheSize = defaults.CacheSize
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RefreshConcurrency < 1 {
		config.RefreshConcurrency = defaults.RefreshConcurrency
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &ProjectionService{
		store:     store,
		publisher: publisher,
		cache:     cache.NewLRUCache[core.FinancialProjection](config.CacheSize, config.CacheTTL),
		config:    config,
		logger:    logger.WithComponent(log.ComponentProjection),
	}
}

// Cache exposes the projection cache so it can be registered with a cache.Manager.
func (s *ProjectionService) Cache() *cache.LRUCache[core.FinancialProjection] {
	return s.cache
}

// Project returns the projection of a stored household with the patch applied.
// Results are cached per household and patch; callers get their own copy.
func (s *ProjectionService) Project(ctx context.Context, householdID int64, patch core.InputsPatch) (core.FinancialProjection, error) {
	// Non-finite adjustments have no fingerprint; they fail validation below.
	key, keyErr := cacheKey(householdID, patch)
	if keyErr == nil {
		if p, ok := s.cache.Get(key); ok {
			s.logGenerated(ctx, householdID, p, true)
			return p.Clone(), nil
		}
	}

	p, err := s.generate(ctx, householdID, patch)
	if err != nil {
		return core.FinancialProjection{}, err
	}
	if keyErr == nil {
		s.cache.Set(key, p.Clone())
	}
	s.logGenerated(ctx, householdID, p, false)
	return p, nil
}

// ProjectInputs runs the engine on caller-supplied inputs without touching storage.
func (s *ProjectionService) ProjectInputs(ctx context.Context, inputs core.ProjectionInputs, patch core.InputsPatch) (core.FinancialProjection, error) {
	p, err := s.run(inputs, patch)
	if err != nil {
		return core.FinancialProjection{}, err
	}
	s.logGenerated(ctx, 0, p, false)
	return p, nil
}

// Refresh regenerates the unadjusted projection, persists it and announces the new run.
func (s *ProjectionService) Refresh(ctx context.Context, householdID int64) (core.ProjectionRun, error) {
	p, err := s.generate(ctx, householdID, core.InputsPatch{})
	if err != nil {
		return core.ProjectionRun{}, err
	}

	run, err := s.store.SaveProjectionRun(ctx, householdID, p)
	if err != nil {
		return core.ProjectionRun{}, fmt.Errorf("save projection run: %w", err)
	}

	s.cache.DeletePrefix(householdPrefix(householdID))
	if key, err := cacheKey(householdID, core.InputsPatch{}); err == nil {
		s.cache.Set(key, p.Clone())
	}

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping generated message",
			log.FieldHouseholdID, householdID)
	} else if err := s.publisher.PublishProjectionGenerated(ctx, amqp.NewProjectionGeneratedMessage(run)); err != nil {
		// The run is stored; a missed announcement is not fatal.
		s.logger.ErrorContext(ctx, "Failed to publish generated message",
			log.FieldHouseholdID, householdID,
			log.FieldRunID, run.ID,
			log.FieldError, err)
	}

	s.logger.InfoContext(ctx, "Projection refreshed",
		log.FieldOperation, log.OpRefresh,
		log.FieldHouseholdID, householdID,
		log.FieldRunID, run.ID,
		log.FieldEndNW, run.EndNetWorth)
	return run, nil
}

// RefreshAll refreshes every household with bounded concurrency. It returns the
// number of successful refreshes and the joined failures.
func (s *ProjectionService) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.store.ListHouseholdIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list households: %w", err)
	}

	var (
		mu        sync.Mutex
		refreshed int
		failures  []error
	)

	var g errgroup.Group
	g.SetLimit(s.config.RefreshConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("household %d: %w", id, err))
				mu.Unlock()
				return nil
			}
			_, err := s.Refresh(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Errorf("household %d: %w", id, err))
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()

	s.logger.InfoContext(ctx, "Refresh cycle complete",
		"households", len(ids),
		"refreshed", refreshed,
		"failed", len(failures))
	return refreshed, errors.Join(failures...)
}

// RequestRefresh queues an asynchronous projection for the worker.
func (s *ProjectionService) RequestRefresh(ctx context.Context, householdID int64, patch *core.InputsPatch) error {
	if s.publisher == nil {
		return ErrMessagingUnavailable
	}
	if _, err := s.store.GetHousehold(ctx, householdID); err != nil {
		return err
	}
	if err := s.publisher.PublishProjectionRequest(ctx, amqp.NewProjectionRequestMessage(householdID, patch)); err != nil {
		return fmt.Errorf("publish projection request: %w", err)
	}
	return nil
}

// LatestRun returns the most recent persisted run of a household.
func (s *ProjectionService) LatestRun(ctx context.Context, householdID int64) (core.ProjectionRun, error) {
	return s.store.LatestProjectionRun(ctx, householdID)
}

func (s *ProjectionService) generate(ctx context.Context, householdID int64, patch core.InputsPatch) (core.FinancialProjection, error) {
	h, err := s.store.GetHousehold(ctx, householdID)
	if err != nil {
		return core.FinancialProjection{}, err
	}
	inputs, err := household.Aggregate(h)
	if err != nil {
		return core.FinancialProjection{}, fmt.Errorf("aggregate household %d: %w", householdID, err)
	}
	return s.run(inputs, patch)
}

func (s *ProjectionService) run(inputs core.ProjectionInputs, patch core.InputsPatch) (core.FinancialProjection, error) {
	engine := projection.New(inputs, projection.WithClock(s.config.Clock))
	if !patch.IsEmpty() {
		if err := engine.UpdateInputs(patch); err != nil {
			return core.FinancialProjection{}, err
		}
	}
	return engine.Generate()
}

func (s *ProjectionService) logGenerated(ctx context.Context, householdID int64, p core.FinancialProjection, cacheHit bool) {
	log.LogProjectionGenerated(ctx, s.logger, householdID,
		len(p.DataPoints), len(p.Milestones),
		p.Summary.StartNetWorth, p.Summary.EndNetWorth, cacheHit)
}

func householdPrefix(householdID int64) string {
	return fmt.Sprintf("household:%d:", householdID)
}

func cacheKey(householdID int64, patch core.InputsPatch) (string, error) {
	if patch.IsEmpty() {
		return householdPrefix(householdID) + "base", nil
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return "", fmt.Errorf("fingerprint adjustments: %w", err)
	}
	return householdPrefix(householdID) + string(b), nil
}
