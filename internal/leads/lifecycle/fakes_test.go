package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// fakeRepo keeps leads in memory and records the order of calls.
type fakeRepo struct {
	leads     map[uuid.UUID]repository.LeadChain
	calls     *[]string
	chainErr  error
	statusErr error
	lookupErr error
}

func newFakeRepo(calls *[]string) *fakeRepo {
	return &fakeRepo{leads: map[uuid.UUID]repository.LeadChain{}, calls: calls}
}

func (f *fakeRepo) record(call string) {
	if f.calls != nil {
		*f.calls = append(*f.calls, call)
	}
}

func (f *fakeRepo) seed(franchiseID uuid.UUID, status string) uuid.UUID {
	id := uuid.New()
	f.leads[id] = repository.LeadChain{Lead: repository.Lead{ID: id, FranchiseID: franchiseID, Status: status}}
	return id
}

func (f *fakeRepo) CreateLeadChain(_ context.Context, p repository.CreateLeadChainParams) (repository.LeadChain, error) {
	f.record("create_chain")
	if f.chainErr != nil {
		return repository.LeadChain{}, f.chainErr
	}
	lead := repository.Lead{ID: uuid.New(), FranchiseID: p.FranchiseID, Status: "new", Source: p.Source, Notes: p.Notes}
	g := p.Guardian
	g.ID = uuid.New()
	g.LeadID = lead.ID
	students := make([]repository.Student, 0, len(p.Students))
	for _, s := range p.Students {
		s.ID = uuid.New()
		s.GuardianID = g.ID
		s.CurrentBelt = "White"
		students = append(students, s)
	}
	chain := repository.LeadChain{Lead: lead, Guardian: &g, Students: students}
	f.leads[lead.ID] = chain
	return chain, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id, franchiseID uuid.UUID) (repository.Lead, error) {
	chain, ok := f.leads[id]
	if !ok || chain.Lead.FranchiseID != franchiseID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return chain.Lead, nil
}

func (f *fakeRepo) GetChain(_ context.Context, id uuid.UUID, franchiseID *uuid.UUID) (repository.LeadChain, error) {
	chain, ok := f.leads[id]
	if !ok || (franchiseID != nil && chain.Lead.FranchiseID != *franchiseID) {
		return repository.LeadChain{}, repository.ErrNotFound
	}
	return chain, nil
}

func (f *fakeRepo) GetLeadFranchiseID(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	f.record("get_franchise")
	if f.lookupErr != nil {
		return uuid.UUID{}, f.lookupErr
	}
	chain, ok := f.leads[id]
	if !ok {
		return uuid.UUID{}, repository.ErrNotFound
	}
	return chain.Lead.FranchiseID, nil
}

func (f *fakeRepo) UpdateLeadStatus(_ context.Context, id uuid.UUID, status string) error {
	f.record("update_status")
	if f.statusErr != nil {
		return f.statusErr
	}
	chain, ok := f.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	chain.Lead.Status = status
	f.leads[id] = chain
	return nil
}

func (f *fakeRepo) Update(_ context.Context, id, franchiseID uuid.UUID, p repository.UpdateLeadParams) (repository.Lead, error) {
	chain, ok := f.leads[id]
	if !ok || chain.Lead.FranchiseID != franchiseID {
		return repository.Lead{}, repository.ErrNotFound
	}
	if p.Source != nil {
		chain.Lead.Source = p.Source
	}
	if p.Notes != nil {
		chain.Lead.Notes = p.Notes
	}
	f.leads[id] = chain
	return chain.Lead, nil
}

func (f *fakeRepo) Delete(_ context.Context, id, franchiseID uuid.UUID) error {
	chain, ok := f.leads[id]
	if !ok || chain.Lead.FranchiseID != franchiseID {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, p repository.ListParams) ([]repository.ListItem, int, error) {
	items := []repository.ListItem{}
	for _, chain := range f.leads {
		if chain.Lead.FranchiseID != p.FranchiseID {
			continue
		}
		if p.Status != nil && chain.Lead.Status != *p.Status {
			continue
		}
		items = append(items, repository.ListItem{Lead: chain.Lead})
	}
	total := len(items)
	if p.Offset >= len(items) {
		return []repository.ListItem{}, total, nil
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end], total, nil
}

type fakeTasks struct {
	calls     *[]string
	created   []NewTask
	pending   map[uuid.UUID]int
	insertErr error
	deleteErr error
}

func (f *fakeTasks) InsertTask(_ context.Context, task NewTask) error {
	if f.calls != nil {
		*f.calls = append(*f.calls, "insert_task:"+task.Title)
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	f.created = append(f.created, task)
	return nil
}

func (f *fakeTasks) DeletePendingTasksForLead(_ context.Context, leadID uuid.UUID) error {
	if f.calls != nil {
		*f.calls = append(*f.calls, "delete_pending")
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.pending, leadID)
	return nil
}

type fakeAutomations struct {
	calls *[]string
	runs  []AutomationRun
}

func (f *fakeAutomations) RunAutomations(_ context.Context, run AutomationRun) {
	if f.calls != nil {
		*f.calls = append(*f.calls, "automations:"+run.Trigger)
	}
	f.runs = append(f.runs, run)
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

var errBoom = errors.New("boom")

var fixedNow = time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
