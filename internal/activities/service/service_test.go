package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/activities/repository"
	"nexus_crm_backend/internal/activities/transport"
	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]repository.Activity
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[uuid.UUID]repository.Activity)}
}

func (f *fakeRepo) Record(_ context.Context, params repository.RecordParams) (repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	activity := repository.Activity{
		ID:            uuid.New(),
		OpportunityID: params.OpportunityID,
		LeadID:        params.LeadID,
		Type:          params.Type,
		Subject:       params.Subject,
		Notes:         params.Notes,
		DueAt:         params.DueAt,
		AmendsID:      params.AmendsID,
		CreatedBy:     params.CreatedBy,
		CreatedAt:     time.Now(),
	}
	f.entries[activity.ID] = activity
	return activity, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	activity, ok := f.entries[id]
	if !ok {
		return repository.Activity{}, apperr.NotFound("activity not found")
	}
	return activity, nil
}

func (f *fakeRepo) ListForOpportunity(_ context.Context, opportunityID uuid.UUID) ([]repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Activity
	for _, a := range f.entries {
		if a.OpportunityID == opportunityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForLead(_ context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Activity
	for _, a := range f.entries {
		if a.LeadID != nil && *a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) StatsForLead(_ context.Context, leadID uuid.UUID) (repository.LeadStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats repository.LeadStats
	for _, a := range f.entries {
		if a.LeadID == nil || *a.LeadID != leadID || a.CompletedAt == nil || a.AmendsID != nil {
			continue
		}
		stats.CompletedCount++
		if stats.LastCompleted == nil || a.CompletedAt.After(*stats.LastCompleted) {
			stats.LastCompleted = a.CompletedAt
		}
	}
	return stats, nil
}

func (f *fakeRepo) Complete(_ context.Context, id uuid.UUID) (repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	activity, ok := f.entries[id]
	if !ok {
		return repository.Activity{}, apperr.NotFound("activity not found")
	}
	if activity.CompletedAt != nil {
		return repository.Activity{}, apperr.AlreadyCompleted("activity is already completed")
	}
	now := time.Now()
	activity.CompletedAt = &now
	f.entries[id] = activity
	return activity, nil
}

type fakeResolver struct {
	leads map[uuid.UUID]*uuid.UUID
}

func (f *fakeResolver) LeadForOpportunity(_ context.Context, opportunityID uuid.UUID) (*uuid.UUID, error) {
	leadID, ok := f.leads[opportunityID]
	if !ok {
		return nil, apperr.NotFound("opportunity not found")
	}
	return leadID, nil
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

func newTestService(resolver *fakeResolver) (*Service, *fakeRepo, *recordingBus) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	return New(repo, resolver, bus, logger.New("test")), repo, bus
}

func TestRecord_LinksActivityToLead(t *testing.T) {
	opportunityID := uuid.New()
	leadID := uuid.New()
	svc, _, _ := newTestService(&fakeResolver{leads: map[uuid.UUID]*uuid.UUID{opportunityID: &leadID}})

	activity, err := svc.Record(context.Background(), opportunityID, transport.RecordActivityRequest{
		Type:    repository.TypeCall,
		Subject: "intro call",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activity.LeadID == nil || *activity.LeadID != leadID {
		t.Fatalf("expected activity linked to lead %s", leadID)
	}
	if activity.CompletedAt != nil {
		t.Fatalf("expected fresh activity to be open")
	}
}

func TestRecord_UnknownOpportunity(t *testing.T) {
	svc, _, _ := newTestService(&fakeResolver{leads: map[uuid.UUID]*uuid.UUID{}})

	_, err := svc.Record(context.Background(), uuid.New(), transport.RecordActivityRequest{
		Type:    repository.TypeCall,
		Subject: "intro call",
	}, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComplete_OneShotAndPublishes(t *testing.T) {
	opportunityID := uuid.New()
	leadID := uuid.New()
	svc, _, bus := newTestService(&fakeResolver{leads: map[uuid.UUID]*uuid.UUID{opportunityID: &leadID}})

	activity, err := svc.Record(context.Background(), opportunityID, transport.RecordActivityRequest{
		Type:    repository.TypeMeeting,
		Subject: "kickoff",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completed, err := svc.Complete(context.Background(), activity.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("expected completed_at stamped")
	}

	// The second completion must fail, not overwrite the timestamp.
	_, err = svc.Complete(context.Background(), activity.ID)
	if !apperr.Is(err, apperr.KindAlreadyCompleted) {
		t.Fatalf("expected already completed error, got %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected exactly 1 published event, got %d", len(bus.published))
	}
	event, ok := bus.published[0].(events.ActivityCompleted)
	if !ok {
		t.Fatalf("expected ActivityCompleted, got %T", bus.published[0])
	}
	if event.LeadID == nil || *event.LeadID != leadID {
		t.Fatalf("expected event to carry the lead ID")
	}
}

func TestAmend_AppendsLinkedEntry(t *testing.T) {
	opportunityID := uuid.New()
	leadID := uuid.New()
	svc, repo, _ := newTestService(&fakeResolver{leads: map[uuid.UUID]*uuid.UUID{opportunityID: &leadID}})

	original, err := svc.Record(context.Background(), opportunityID, transport.RecordActivityRequest{
		Type:    repository.TypeNote,
		Subject: "called the wrong number",
		Notes:   "no answer",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amendment, err := svc.Amend(context.Background(), original.ID, transport.AmendActivityRequest{
		Subject: "called the right number",
		Notes:   "spoke with the owner",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amendment.AmendsID == nil || *amendment.AmendsID != original.ID {
		t.Fatalf("expected amendment linked to original")
	}
	if amendment.Type != original.Type {
		t.Fatalf("expected amendment to keep the original type")
	}

	// The original entry is untouched.
	stored, _ := repo.GetByID(context.Background(), original.ID)
	if stored.Subject != "called the wrong number" {
		t.Fatalf("expected original entry unchanged, got %q", stored.Subject)
	}

	entries, _ := svc.ListForOpportunity(context.Background(), opportunityID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
}

func TestAmend_AmendmentOfAmendmentRejected(t *testing.T) {
	opportunityID := uuid.New()
	leadID := uuid.New()
	svc, _, _ := newTestService(&fakeResolver{leads: map[uuid.UUID]*uuid.UUID{opportunityID: &leadID}})

	original, _ := svc.Record(context.Background(), opportunityID, transport.RecordActivityRequest{
		Type:    repository.TypeNote,
		Subject: "first",
	}, nil)
	amendment, _ := svc.Amend(context.Background(), original.ID, transport.AmendActivityRequest{Subject: "second"}, nil)

	_, err := svc.Amend(context.Background(), amendment.ID, transport.AmendActivityRequest{Subject: "third"}, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStatsForLead_ExcludesOpenAndAmendedEntries(t *testing.T) {
	opportunityID := uuid.New()
	leadID := uuid.New()
	svc, repo, _ := newTestService(&fakeResolver{leads: map[uuid.UUID]*uuid.UUID{opportunityID: &leadID}})

	open, _ := svc.Record(context.Background(), opportunityID, transport.RecordActivityRequest{
		Type: repository.TypeCall, Subject: "open call",
	}, nil)
	done, _ := svc.Record(context.Background(), opportunityID, transport.RecordActivityRequest{
		Type: repository.TypeMeeting, Subject: "done meeting",
	}, nil)
	if _, err := svc.Complete(context.Background(), done.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = open

	stats, err := repo.StatsForLead(context.Background(), leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CompletedCount != 1 {
		t.Fatalf("expected 1 completed activity, got %d", stats.CompletedCount)
	}
	if stats.LastCompleted == nil {
		t.Fatalf("expected last completed timestamp")
	}
}
