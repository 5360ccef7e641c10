package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/leads/transport"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
)

type fakeRepo struct {
	leads map[uuid.UUID]repository.Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	var out []repository.Lead
	for _, l := range f.leads {
		if params.Status != nil && l.Status != *params.Status {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListIDsAfter(_ context.Context, _ uuid.UUID, _ int) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:                uuid.New(),
		FirstName:         params.FirstName,
		LastName:          params.LastName,
		Email:             params.Email,
		Phone:             params.Phone,
		Services:          params.Services,
		BudgetBand:        params.BudgetBand,
		BudgetAmountCents: params.BudgetAmountCents,
		Timeline:          params.Timeline,
		Description:       params.Description,
		Source:            params.Source,
		Status:            repository.StatusNew,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, expected time.Time) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if !lead.UpdatedAt.Equal(expected) {
		return repository.Lead{}, apperr.ConcurrentUpdate("lead was modified by another request")
	}
	lead.Status = status
	lead.UpdatedAt = lead.UpdatedAt.Add(time.Nanosecond)
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) IncrementFollowupCalls(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	lead.FollowupCalls++
	f.leads[id] = lead
	return lead, nil
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
	return New(repo, bus, logger.New("test")), repo, bus
}

func TestCapture_NormalizesAndPublishes(t *testing.T) {
	svc, _, bus := newTestService()

	lead, err := svc.Capture(context.Background(), transport.CaptureLeadRequest{
		FirstName:   "  Marie ",
		LastName:    "Dupont",
		Email:       "Marie.Dupont@Example.COM",
		Services:    []string{" Web_Development ", "", "SEO"},
		Timeline:    "asap",
		Description: " Need a new site. ",
		Source:      "referral",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.FirstName != "Marie" {
		t.Fatalf("expected trimmed first name, got %q", lead.FirstName)
	}
	if lead.Email != "marie.dupont@example.com" {
		t.Fatalf("expected lowercased email, got %q", lead.Email)
	}
	if len(lead.Services) != 2 || lead.Services[0] != "web_development" || lead.Services[1] != "seo" {
		t.Fatalf("expected normalized services, got %v", lead.Services)
	}
	if lead.BudgetBand != "unknown" {
		t.Fatalf("expected missing budget band to default to unknown, got %q", lead.BudgetBand)
	}
	if lead.Status != repository.StatusNew {
		t.Fatalf("expected new lead status, got %q", lead.Status)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	captured, ok := bus.published[0].(events.LeadCaptured)
	if !ok {
		t.Fatalf("expected LeadCaptured, got %T", bus.published[0])
	}
	if captured.LeadID != lead.ID || captured.Source != "referral" {
		t.Fatalf("unexpected event payload: %+v", captured)
	}
}

func TestAnnotate_StaleReadRejected(t *testing.T) {
	svc, repo, bus := newTestService()

	lead, err := repo.Create(context.Background(), repository.CreateParams{
		FirstName: "Jean", LastName: "Martin", Email: "jean@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Annotate(context.Background(), lead.ID, repository.StatusContacted, lead.UpdatedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != repository.StatusContacted {
		t.Fatalf("expected contacted status, got %q", updated.Status)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected LeadUpdated event, got %d events", len(bus.published))
	}

	// Second annotation with the original read must lose.
	_, err = svc.Annotate(context.Background(), lead.ID, repository.StatusArchived, lead.UpdatedAt)
	if !apperr.Is(err, apperr.KindConcurrentUpdate) {
		t.Fatalf("expected concurrent update error, got %v", err)
	}
}

func TestRecordFollowUpCall_IncrementsAndPublishes(t *testing.T) {
	svc, repo, bus := newTestService()

	lead, err := repo.Create(context.Background(), repository.CreateParams{
		FirstName: "Jean", LastName: "Martin", Email: "jean@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.RecordFollowUpCall(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.FollowupCalls != 1 {
		t.Fatalf("expected 1 follow-up call, got %d", updated.FollowupCalls)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.LeadUpdated); !ok {
		t.Fatalf("expected LeadUpdated, got %T", bus.published[0])
	}
}
