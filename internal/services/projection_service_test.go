package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/storage"
)

type fakeStore struct {
	mu         sync.Mutex
	households map[int64]core.Household
	runs       map[int64][]core.ProjectionRun
	loads      int
	saveErr    error
}

func newFakeStore(households ...core.Household) *fakeStore {
	s := &fakeStore{
		households: make(map[int64]core.Household),
		runs:       make(map[int64][]core.ProjectionRun),
	}
	for _, h := range households {
		s.households[h.ID] = h
	}
	return s
}

func (s *fakeStore) GetHousehold(ctx context.Context, id int64) (core.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	h, ok := s.households[id]
	if !ok {
		return core.Household{}, fmt.Errorf("household %d: %w", id, storage.ErrNotFound)
	}
	return h, nil
}

func (s *fakeStore) ListHouseholdIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.households {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) SaveProjectionRun(ctx context.Context, householdID int64, p core.FinancialProjection) (core.ProjectionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return core.ProjectionRun{}, s.saveErr
	}
	run := core.ProjectionRun{
		ID:            int64(len(s.runs[householdID]) + 1),
		HouseholdID:   householdID,
		StartNetWorth: p.Summary.StartNetWorth,
		EndNetWorth:   p.Summary.EndNetWorth,
		Projection:    p,
	}
	s.runs[householdID] = append(s.runs[householdID], run)
	return run, nil
}

func (s *fakeStore) LatestProjectionRun(ctx context.Context, householdID int64) (core.ProjectionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := s.runs[householdID]
	if len(runs) == 0 {
		return core.ProjectionRun{}, storage.ErrNotFound
	}
	return runs[len(runs)-1], nil
}

type fakePublisher struct {
	mu        sync.Mutex
	requests  []*amqp.ProjectionRequestMessage
	generated []*amqp.ProjectionGeneratedMessage
	err       error
}

func (p *fakePublisher) PublishProjectionRequest(ctx context.Context, msg *amqp.ProjectionRequestMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.requests = append(p.requests, msg)
	return nil
}

func (p *fakePublisher) PublishProjectionGenerated(ctx context.Context, msg *amqp.ProjectionGeneratedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.generated = append(p.generated, msg)
	return nil
}

func testHousehold(id int64) core.Household {
	return core.Household{
		ID:   id,
		Name: fmt.Sprintf("household-%d", id),
		People: []core.Person{{
			Name:            "Alex",
			Incomes:         []core.IncomeRecord{{Description: "Salary", Amount: 5000, Frequency: core.Monthly}},
			Expenses:        []core.ExpenseRecord{{Description: "Rent", Amount: 3000, Frequency: core.Monthly}},
			SavingsAccounts: []core.SavingsAccount{{Name: "Bank", Balance: 10000}},
		}},
	}
}

func newTestService(store HouseholdStore, pub Publisher) *ProjectionService {
	cfg := DefaultProjectionServiceConfig()
	cfg.Clock = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }
	logger := log.New(log.Config{Output: io.Discard})
	return NewProjectionService(store, pub, cfg, logger)
}

func TestProjectionService_ProjectCaches(t *testing.T) {
	store := newFakeStore(testHousehold(1))
	svc := newTestService(store, nil)
	ctx := context.Background()

	first, err := svc.Project(ctx, 1, core.InputsPatch{})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(first.DataPoints) != projection.HorizonMonths+1 {
		t.Fatalf("data points = %d", len(first.DataPoints))
	}
	if first.DataPoints[0].MonthLabel != "Jan 2026" {
		t.Errorf("month 0 label = %q, want Jan 2026", first.DataPoints[0].MonthLabel)
	}

	if _, err := svc.Project(ctx, 1, core.InputsPatch{}); err != nil {
		t.Fatalf("Project() second call error = %v", err)
	}
	if store.loads != 1 {
		t.Errorf("household loaded %d times, want 1 (cached)", store.loads)
	}
	if hits := svc.Cache().Stats().Hits; hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestProjectionService_ProjectAppliesPatch(t *testing.T) {
	store := newFakeStore(testHousehold(1))
	svc := newTestService(store, nil)
	ctx := context.Background()

	base, err := svc.Project(ctx, 1, core.InputsPatch{})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	extra := 500.0
	adjusted, err := svc.Project(ctx, 1, core.InputsPatch{AdditionalMonthlySavings: &extra})
	if err != nil {
		t.Fatalf("Project() adjusted error = %v", err)
	}

	if store.loads != 2 {
		t.Errorf("household loaded %d times, want 2 (distinct cache keys)", store.loads)
	}
	// Extra savings moves money from the 70/30 split into savings only.
	if adjusted.DataPoints[1].Savings <= base.DataPoints[1].Savings {
		t.Errorf("adjusted savings %v should exceed base %v", adjusted.DataPoints[1].Savings, base.DataPoints[1].Savings)
	}
}

func TestProjectionService_ProjectErrors(t *testing.T) {
	svc := newTestService(newFakeStore(testHousehold(1)), nil)
	ctx := context.Background()

	if _, err := svc.Project(ctx, 99, core.InputsPatch{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Project() unknown household error = %v, want ErrNotFound", err)
	}

	inf := math.Inf(1)
	if _, err := svc.Project(ctx, 1, core.InputsPatch{MonthlyIncome: &inf}); !errors.Is(err, projection.ErrInvalidInput) {
		t.Errorf("Project() infinite income error = %v, want ErrInvalidInput", err)
	}
}

func TestProjectionService_CachedResultIsIsolated(t *testing.T) {
	svc := newTestService(newFakeStore(testHousehold(1)), nil)
	ctx := context.Background()

	first, err := svc.Project(ctx, 1, core.InputsPatch{})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if len(first.Milestones) == 0 {
		t.Fatalf("expected milestones for the test household")
	}
	want := first.DataPoints[5].NetWorth
	title := first.Milestones[0].Title
	first.DataPoints[5].NetWorth = -1
	first.Milestones[0].Title = "edited"

	second, err := svc.Project(ctx, 1, core.InputsPatch{})
	if err != nil {
		t.Fatalf("Project() second call error = %v", err)
	}
	if second.DataPoints[5].NetWorth != want || second.Milestones[0].Title != title {
		t.Fatalf("cached projection changed by caller edits: %v %q", second.DataPoints[5].NetWorth, second.Milestones[0].Title)
	}
	if hits := svc.Cache().Stats().Hits; hits != 1 {
		t.Fatalf("cache hits = %d, want 1", hits)
	}
}

func TestProjectionService_OverflowIsInvalidAndNotCached(t *testing.T) {
	h := testHousehold(1)
	h.People[0].BrokerageAccounts = []core.BrokerageAccount{{Name: "Fund", Balance: 1, ExpectedReturn: 1e307}}
	store := newFakeStore(h)
	svc := newTestService(store, nil)
	ctx := context.Background()

	if _, err := svc.Project(ctx, 1, core.InputsPatch{}); !errors.Is(err, projection.ErrInvalidInput) {
		t.Fatalf("Project() error = %v, want ErrInvalidInput", err)
	}
	if size := svc.Cache().Size(); size != 0 {
		t.Fatalf("cache size = %d, want 0", size)
	}
	if _, err := svc.Refresh(ctx, 1); !errors.Is(err, projection.ErrInvalidInput) {
		t.Fatalf("Refresh() error = %v, want ErrInvalidInput", err)
	}
	if len(store.runs[1]) != 0 {
		t.Fatalf("runs stored = %d, want 0", len(store.runs[1]))
	}

	rate := 1e305
	in := core.ProjectionInputs{CurrentInvestments: 1000, MonthlyIncome: 1}
	if _, err := svc.ProjectInputs(ctx, in, core.InputsPatch{InvestmentReturnRate: &rate}); !errors.Is(err, projection.ErrInvalidInput) {
		t.Fatalf("ProjectInputs() error = %v, want ErrInvalidInput", err)
	}
}

func TestProjectionService_ProjectInputs(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	growth := 0.1
	p, err := svc.ProjectInputs(context.Background(), core.ProjectionInputs{MonthlyIncome: 1000}, core.InputsPatch{IncomeGrowthRate: &growth})
	if err != nil {
		t.Fatalf("ProjectInputs() error = %v", err)
	}
	if got := p.DataPoints[12].MonthlyIncome; got != 1100 {
		t.Errorf("month 12 income = %v, want 1100", got)
	}
}

func TestProjectionService_Refresh(t *testing.T) {
	store := newFakeStore(testHousehold(1))
	pub := &fakePublisher{}
	svc := newTestService(store, pub)
	ctx := context.Background()

	extra := 100.0
	if _, err := svc.Project(ctx, 1, core.InputsPatch{AdditionalMonthlySavings: &extra}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	run, err := svc.Refresh(ctx, 1)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if run.ID != 1 || run.HouseholdID != 1 {
		t.Errorf("run = %d/%d, want 1/1", run.ID, run.HouseholdID)
	}
	if len(pub.generated) != 1 || pub.generated[0].RunID != run.ID {
		t.Errorf("generated messages = %+v", pub.generated)
	}
	// Adjusted entry is invalidated, the fresh base projection is cached.
	if size := svc.Cache().Size(); size != 1 {
		t.Errorf("cache size = %d, want 1", size)
	}

	latest, err := svc.LatestRun(ctx, 1)
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest.ID != run.ID {
		t.Errorf("LatestRun() ID = %d, want %d", latest.ID, run.ID)
	}
}

func TestProjectionService_RefreshSurvivesPublishFailure(t *testing.T) {
	store := newFakeStore(testHousehold(1))
	svc := newTestService(store, &fakePublisher{err: errors.New("broker down")})

	if _, err := svc.Refresh(context.Background(), 1); err != nil {
		t.Fatalf("Refresh() error = %v, want nil when only the announcement fails", err)
	}
	if len(store.runs[1]) != 1 {
		t.Errorf("runs stored = %d, want 1", len(store.runs[1]))
	}
}

func TestProjectionService_RefreshAll(t *testing.T) {
	store := newFakeStore(testHousehold(1), testHousehold(2), testHousehold(3))
	bad := testHousehold(4)
	bad.People[0].Incomes[0].Frequency = "hourly"
	store.households[4] = bad
	svc := newTestService(store, &fakePublisher{})

	refreshed, err := svc.RefreshAll(context.Background())
	if refreshed != 3 {
		t.Errorf("RefreshAll() refreshed = %d, want 3", refreshed)
	}
	if !errors.Is(err, core.ErrUnknownFrequency) {
		t.Errorf("RefreshAll() error = %v, want joined ErrUnknownFrequency", err)
	}
	for _, id := range []int64{1, 2, 3} {
		if len(store.runs[id]) != 1 {
			t.Errorf("household %d runs = %d, want 1", id, len(store.runs[id]))
		}
	}
}

func TestProjectionService_RequestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("without publisher", func(t *testing.T) {
		svc := newTestService(newFakeStore(testHousehold(1)), nil)
		if err := svc.RequestRefresh(ctx, 1, nil); !errors.Is(err, ErrMessagingUnavailable) {
			t.Errorf("RequestRefresh() error = %v, want ErrMessagingUnavailable", err)
		}
	})

	t.Run("unknown household", func(t *testing.T) {
		svc := newTestService(newFakeStore(), &fakePublisher{})
		if err := svc.RequestRefresh(ctx, 5, nil); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("RequestRefresh() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("publishes request", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := newTestService(newFakeStore(testHousehold(1)), pub)
		rate := 0.02
		if err := svc.RequestRefresh(ctx, 1, &core.InputsPatch{ExpenseGrowthRate: &rate}); err != nil {
			t.Fatalf("RequestRefresh() error = %v", err)
		}
		if len(pub.requests) != 1 || pub.requests[0].HouseholdID != 1 || pub.requests[0].Adjustments == nil {
			t.Errorf("requests = %+v", pub.requests)
		}
	})
}
