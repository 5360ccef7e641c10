package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	critrepo "nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/events"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/scoring/engine"
	"nexus_crm_backend/internal/scoring/repository"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
)

type fakeScoreRepo struct {
	mu     sync.Mutex
	scores map[uuid.UUID]repository.LeadScore
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[uuid.UUID]repository.LeadScore)}
}

func (f *fakeScoreRepo) GetByLead(_ context.Context, leadID uuid.UUID) (repository.LeadScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	score, ok := f.scores[leadID]
	if !ok {
		return repository.LeadScore{}, apperr.NotFound("lead has not been scored yet")
	}
	return score, nil
}

func (f *fakeScoreRepo) ListByQuality(_ context.Context, quality string, _, _ int) ([]repository.LeadScore, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.LeadScore
	for _, s := range f.scores {
		if s.Quality == quality {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (f *fakeScoreRepo) CountsByQuality(_ context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, s := range f.scores {
		counts[s.Quality]++
	}
	return counts, nil
}

func (f *fakeScoreRepo) Upsert(_ context.Context, params repository.UpsertParams) (repository.LeadScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	score := repository.LeadScore{
		LeadID:          params.LeadID,
		BudgetScore:     params.BudgetScore,
		TimelineScore:   params.TimelineScore,
		EngagementScore: params.EngagementScore,
		FitScore:        params.FitScore,
		CompositeScore:  params.CompositeScore,
		Quality:         params.Quality,
		ScoredAt:        time.Now(),
	}
	f.scores[params.LeadID] = score
	return score, nil
}

type fakeLeadReader struct {
	mu    sync.Mutex
	leads map[uuid.UUID]leadrepo.Lead
}

func newFakeLeadReader(leads ...leadrepo.Lead) *fakeLeadReader {
	f := &fakeLeadReader{leads: make(map[uuid.UUID]leadrepo.Lead)}
	for _, l := range leads {
		f.leads[l.ID] = l
	}
	return f
}

func (f *fakeLeadReader) GetByID(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeLeadReader) List(_ context.Context, _ leadrepo.ListParams) ([]leadrepo.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeLeadReader) ListIDsAfter(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id := range f.leads {
		if id.String() > after.String() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeCriteriaReader struct {
	criteria []critrepo.Criterion
}

func (f *fakeCriteriaReader) GetByID(_ context.Context, _ uuid.UUID) (critrepo.Criterion, error) {
	return critrepo.Criterion{}, apperr.NotFound("scoring criterion not found")
}

func (f *fakeCriteriaReader) List(_ context.Context) ([]critrepo.Criterion, error) {
	return f.criteria, nil
}

func (f *fakeCriteriaReader) ListActive(_ context.Context, _ *string) ([]critrepo.Criterion, error) {
	return f.criteria, nil
}

type fakeStatsReader struct {
	stats map[uuid.UUID]engine.ActivityStats
}

func (f *fakeStatsReader) StatsForLead(_ context.Context, leadID uuid.UUID) (engine.ActivityStats, error) {
	return f.stats[leadID], nil
}

type fakeScheduler struct {
	mu           sync.Mutex
	leadRescores []uuid.UUID
	batches      int
}

func (f *fakeScheduler) ScheduleLeadRescore(_ context.Context, leadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leadRescores = append(f.leadRescores, leadID)
	return nil
}

func (f *fakeScheduler) ScheduleBatchRescore(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	return nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

type testConfig struct{}

func (testConfig) GetRescorePageSize() int           { return 2 }
func (testConfig) GetRescoreWorkers() int            { return 2 }
func (testConfig) GetRescoreDebounce() time.Duration { return time.Second }

func budgetLead() leadrepo.Lead {
	amount := int64(1200000)
	return leadrepo.Lead{
		ID:                uuid.New(),
		FirstName:         "Julien",
		LastName:          "Perrin",
		Email:             "julien@example.fr",
		Phone:             "+33612345678",
		Services:          []string{"web_development"},
		BudgetBand:        "over_10000",
		BudgetAmountCents: &amount,
		Timeline:          "asap",
		Status:            leadrepo.StatusNew,
	}
}

func defaultCriteria() []critrepo.Criterion {
	return []critrepo.Criterion{
		{
			ID: uuid.New(), Name: "budget-over-10k", Category: critrepo.CategoryBudget, Weight: 30,
			Condition: critrepo.Condition{Field: "budget_amount", Operator: critrepo.OpGte, Value: float64(10000)},
			IsActive:  true,
		},
		{
			ID: uuid.New(), Name: "timeline-asap", Category: critrepo.CategoryTimeline, Weight: 20,
			Condition: critrepo.Condition{Field: "timeline", Operator: critrepo.OpEq, Value: "asap"},
			IsActive:  true,
		},
	}
}

func newTestService(leads *fakeLeadReader, criteria []critrepo.Criterion) (*Service, *fakeScoreRepo, *fakeScheduler, *recordingBus) {
	scores := newFakeScoreRepo()
	scheduler := &fakeScheduler{}
	bus := &recordingBus{}
	svc := New(scores, leads, &fakeCriteriaReader{criteria: criteria},
		&fakeStatsReader{stats: map[uuid.UUID]engine.ActivityStats{}},
		scheduler, bus, testConfig{}, logger.New("test"))
	return svc, scores, scheduler, bus
}

func TestRescore_PersistsBreakdownAndPublishes(t *testing.T) {
	lead := budgetLead()
	svc, scores, _, bus := newTestService(newFakeLeadReader(lead), defaultCriteria())

	score, err := svc.Rescore(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.BudgetScore != 30 || score.TimelineScore != 20 {
		t.Fatalf("expected budget 30 / timeline 20, got %d/%d", score.BudgetScore, score.TimelineScore)
	}
	if score.CompositeScore != 50 {
		t.Fatalf("expected composite 50, got %d", score.CompositeScore)
	}
	if score.Quality != engine.QualityWarm {
		t.Fatalf("expected quality warm, got %s", score.Quality)
	}

	persisted, err := scores.GetByLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("expected persisted score: %v", err)
	}
	if persisted.CompositeScore != 50 {
		t.Fatalf("expected persisted composite 50, got %d", persisted.CompositeScore)
	}

	published := bus.events()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	scored, ok := published[0].(events.LeadScored)
	if !ok {
		t.Fatalf("expected LeadScored, got %T", published[0])
	}
	if scored.CompositeScore != 50 || scored.Quality != engine.QualityWarm {
		t.Fatalf("expected event 50/warm, got %d/%s", scored.CompositeScore, scored.Quality)
	}
}

func TestRescore_ReplacesPreviousScore(t *testing.T) {
	lead := budgetLead()
	leads := newFakeLeadReader(lead)
	svc, scores, _, _ := newTestService(leads, defaultCriteria())

	if _, err := svc.Rescore(context.Background(), lead.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Lead loses its declared budget; the next pass must fully replace the row.
	lead.BudgetAmountCents = nil
	lead.BudgetBand = "unknown"
	leads.leads[lead.ID] = lead

	score, err := svc.Rescore(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.BudgetScore != 0 || score.CompositeScore != 20 {
		t.Fatalf("expected budget 0 / composite 20, got %d/%d", score.BudgetScore, score.CompositeScore)
	}

	persisted, _ := scores.GetByLead(context.Background(), lead.ID)
	if persisted.CompositeScore != 20 {
		t.Fatalf("expected replaced composite 20, got %d", persisted.CompositeScore)
	}
}

func TestRescore_UnknownLead(t *testing.T) {
	svc, _, _, _ := newTestService(newFakeLeadReader(), defaultCriteria())

	if _, err := svc.Rescore(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected error for unknown lead")
	}
}

func TestRescoreAll_PagesThroughEveryLead(t *testing.T) {
	leads := []leadrepo.Lead{budgetLead(), budgetLead(), budgetLead(), budgetLead(), budgetLead()}
	svc, scores, _, _ := newTestService(newFakeLeadReader(leads...), defaultCriteria())

	// Page size 2 forces three pages over five leads.
	scored, err := svc.RescoreAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored != 5 {
		t.Fatalf("expected 5 leads scored, got %d", scored)
	}
	for _, lead := range leads {
		if _, err := scores.GetByLead(context.Background(), lead.ID); err != nil {
			t.Fatalf("expected score for lead %s: %v", lead.ID, err)
		}
	}
}

func TestRescoreAll_EmptyLeadBase(t *testing.T) {
	svc, _, _, _ := newTestService(newFakeLeadReader(), defaultCriteria())

	scored, err := svc.RescoreAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored != 0 {
		t.Fatalf("expected 0 leads scored, got %d", scored)
	}
}

func TestOnActivityCompleted_SchedulesDebouncedRescore(t *testing.T) {
	lead := budgetLead()
	svc, _, scheduler, _ := newTestService(newFakeLeadReader(lead), defaultCriteria())

	err := svc.onActivityCompleted(context.Background(), events.ActivityCompleted{
		BaseEvent:  events.NewBaseEvent(),
		ActivityID: uuid.New(),
		LeadID:     &lead.ID,
		Type:       "call",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scheduler.leadRescores) != 1 || scheduler.leadRescores[0] != lead.ID {
		t.Fatalf("expected one scheduled rescore for the lead, got %v", scheduler.leadRescores)
	}
}

func TestOnActivityCompleted_IgnoresActivitiesWithoutLead(t *testing.T) {
	svc, _, scheduler, _ := newTestService(newFakeLeadReader(), defaultCriteria())

	err := svc.onActivityCompleted(context.Background(), events.ActivityCompleted{
		BaseEvent:  events.NewBaseEvent(),
		ActivityID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scheduler.leadRescores) != 0 {
		t.Fatalf("expected no scheduled rescores, got %d", len(scheduler.leadRescores))
	}
}

func TestOnCriteriaChanged_SchedulesBatchRescore(t *testing.T) {
	svc, _, scheduler, _ := newTestService(newFakeLeadReader(), defaultCriteria())

	err := svc.onCriteriaChanged(context.Background(), events.ScoringCriteriaChanged{
		BaseEvent: events.NewBaseEvent(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scheduler.batches != 1 {
		t.Fatalf("expected one scheduled batch, got %d", scheduler.batches)
	}
}
