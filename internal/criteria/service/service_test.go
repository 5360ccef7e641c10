package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/criteria/transport"
	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
	"nexus_crm_backend/platform/validator"
)

type fakeRepo struct {
	criteria map[uuid.UUID]repository.Criterion
	byName   map[string]uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		criteria: make(map[uuid.UUID]repository.Criterion),
		byName:   make(map[string]uuid.UUID),
	}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Criterion, error) {
	crit, ok := f.criteria[id]
	if !ok {
		return repository.Criterion{}, apperr.NotFound("scoring criterion not found")
	}
	return crit, nil
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Criterion, error) {
	var out []repository.Criterion
	for _, c := range f.criteria {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) ListActive(_ context.Context, category *string) ([]repository.Criterion, error) {
	var out []repository.Criterion
	for _, c := range f.criteria {
		if !c.IsActive {
			continue
		}
		if category != nil && c.Category != *category {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) Upsert(_ context.Context, params repository.UpsertParams) (repository.Criterion, error) {
	id := uuid.New()
	if params.ID != nil {
		if _, ok := f.criteria[*params.ID]; !ok {
			return repository.Criterion{}, apperr.NotFound("scoring criterion not found")
		}
		id = *params.ID
	}
	crit := repository.Criterion{
		ID:        id,
		Name:      params.Name,
		Category:  params.Category,
		Weight:    params.Weight,
		Condition: params.Condition,
		IsActive:  params.IsActive,
	}
	f.criteria[id] = crit
	f.byName[params.Name] = id
	return crit, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id uuid.UUID, isActive bool) (repository.Criterion, error) {
	crit, ok := f.criteria[id]
	if !ok {
		return repository.Criterion{}, apperr.NotFound("scoring criterion not found")
	}
	crit.IsActive = isActive
	f.criteria[id] = crit
	return crit, nil
}

func (f *fakeRepo) SeedInsert(ctx context.Context, params repository.UpsertParams) (bool, error) {
	if _, ok := f.byName[params.Name]; ok {
		return false, nil
	}
	_, err := f.Upsert(ctx, params)
	return err == nil, err
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *fakeRepo, *recordingBus) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	return New(repo, bus, validator.New(), logger.New("test")), repo, bus
}

func validRequest() transport.UpsertCriterionRequest {
	return transport.UpsertCriterionRequest{
		Name:     "budget-over-10k",
		Category: repository.CategoryBudget,
		Weight:   30,
		Condition: transport.ConditionDTO{
			Field:    "budget_amount",
			Operator: repository.OpGte,
			Value:    10000,
		},
		IsActive: true,
	}
}

func TestUpsert_PublishesCriteriaChanged(t *testing.T) {
	svc, _, bus := newTestService()

	crit, err := svc.Upsert(context.Background(), nil, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crit.Weight != 30 {
		t.Fatalf("expected weight 30, got %d", crit.Weight)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	changed, ok := bus.published[0].(events.ScoringCriteriaChanged)
	if !ok {
		t.Fatalf("expected ScoringCriteriaChanged, got %T", bus.published[0])
	}
	if changed.CriterionID != crit.ID {
		t.Fatalf("expected event criterion ID %s, got %s", crit.ID, changed.CriterionID)
	}
}

func TestUpsert_WeightExceedsCategoryCap(t *testing.T) {
	svc, _, bus := newTestService()

	req := validRequest()
	req.Category = repository.CategoryTimeline
	req.Weight = 21 // timeline cap is 20

	_, err := svc.Upsert(context.Background(), nil, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events on rejection, got %d", len(bus.published))
	}
}

func TestUpsert_WeightAtCategoryCapAccepted(t *testing.T) {
	svc, _, _ := newTestService()

	req := validRequest()
	req.Category = repository.CategoryEngagement
	req.Weight = 25

	if _, err := svc.Upsert(context.Background(), nil, req); err != nil {
		t.Fatalf("unexpected error at cap: %v", err)
	}
}

func TestUpsert_UnknownOperatorRejected(t *testing.T) {
	svc, _, _ := newTestService()

	req := validRequest()
	req.Condition.Operator = "matches"

	_, err := svc.Upsert(context.Background(), nil, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsert_PresentOperatorNeedsNoValue(t *testing.T) {
	svc, _, _ := newTestService()

	req := validRequest()
	req.Condition = transport.ConditionDTO{Field: "phone", Operator: repository.OpPresent}

	if _, err := svc.Upsert(context.Background(), nil, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsert_MissingValueRejectedForComparisons(t *testing.T) {
	svc, _, _ := newTestService()

	req := validRequest()
	req.Condition.Value = nil

	_, err := svc.Upsert(context.Background(), nil, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivate_PublishesCriteriaChanged(t *testing.T) {
	svc, _, bus := newTestService()

	crit, err := svc.Upsert(context.Background(), nil, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deactivated, err := svc.Deactivate(context.Background(), crit.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deactivated.IsActive {
		t.Fatalf("expected criterion to be inactive")
	}
	if len(bus.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(bus.published))
	}
}

func TestSeed_InsertsOnceAndSkipsExisting(t *testing.T) {
	svc, _, _ := newTestService()

	seed := []byte(`
criteria:
  - name: timeline-asap
    category: timeline
    weight: 20
    condition: { field: timeline, operator: eq, value: asap }
  - name: phone-provided
    category: engagement
    weight: 8
    condition: { field: phone, operator: present }
`)

	first, err := svc.Seed(context.Background(), seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Inserted != 2 || first.Skipped != 0 {
		t.Fatalf("expected 2 inserted / 0 skipped, got %d/%d", first.Inserted, first.Skipped)
	}

	second, err := svc.Seed(context.Background(), seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Inserted != 0 || second.Skipped != 2 {
		t.Fatalf("expected 0 inserted / 2 skipped, got %d/%d", second.Inserted, second.Skipped)
	}
}

func TestSeed_MalformedYAMLRejected(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Seed(context.Background(), []byte("criteria: [not: valid"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSeed_OverweightEntryRejected(t *testing.T) {
	svc, _, _ := newTestService()

	seed := []byte(`
criteria:
  - name: budget-huge
    category: budget
    weight: 31
    condition: { field: budget_amount, operator: gte, value: 1 }
`)

	if _, err := svc.Seed(context.Background(), seed); err == nil {
		t.Fatalf("expected error for weight above category cap")
	}
}
