package service

import (
	"context"
	"sync"
	"time"

	"address_lookup_backend/internal/addresslookup/mapping"
	"address_lookup_backend/internal/events"
	"address_lookup_backend/internal/lookup/transport"
	"address_lookup_backend/platform/apperr"
	"address_lookup_backend/platform/logger"
	"address_lookup_backend/platform/validator"
)

type fakeLookup struct {
	mu           sync.Mutex
	searchFn     func(ctx context.Context, query string) transport.Result[[]transport.Candidate]
	resolveFn    func(ctx context.Context, id string) transport.Result[transport.AddressDetail]
	searchCalls  []string
	resolveCalls []string
}

func (f *fakeLookup) Search(ctx context.Context, query string) transport.Result[[]transport.Candidate] {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return transport.OK([]transport.Candidate{})
	}
	return fn(ctx, query)
}

func (f *fakeLookup) Resolve(ctx context.Context, id string) transport.Result[transport.AddressDetail] {
	f.mu.Lock()
	f.resolveCalls = append(f.resolveCalls, id)
	fn := f.resolveFn
	f.mu.Unlock()
	if fn == nil {
		return transport.OK(transport.AddressDetail{})
	}
	return fn(ctx, id)
}

func (f *fakeLookup) searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchCalls...)
}

func (f *fakeLookup) resolves() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resolveCalls...)
}

type fakeStore struct {
	mu        sync.Mutex
	fields    map[string]string
	fetchErr  error
	updateErr error
	fetched   [][]string
	updates   []map[string]string
}

func (f *fakeStore) FetchFields(_ context.Context, _ string, fields []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, append([]string(nil), fields...))
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make(map[string]string)
	for _, name := range fields {
		if v, ok := f.fields[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateFields(_ context.Context, _ string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	return f.updateErr
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []events.Event
	batches int
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	p.batches++
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

func (p *recordingPublisher) find(name string) (events.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.EventName() == name {
			return e, true
		}
	}
	return nil, false
}

type recordingRecorder struct {
	mu       sync.Mutex
	searches []string
	resolves []string
	saves    []string
}

func (r *recordingRecorder) ObserveSearch(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, outcome)
}

func (r *recordingRecorder) ObserveResolve(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolves = append(r.resolves, outcome)
}

func (r *recordingRecorder) ObserveSave(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, outcome)
}

type harness struct {
	lookup    *fakeLookup
	store     *fakeStore
	publisher *recordingPublisher
	recorder  *recordingRecorder
}

func newHarness() *harness {
	return &harness{
		lookup:    &fakeLookup{},
		store:     &fakeStore{fields: map[string]string{}},
		publisher: &recordingPublisher{},
		recorder:  &recordingRecorder{},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Lookup:    h.lookup,
		Store:     h.store,
		Validator: validator.New(),
		Publisher: h.publisher,
		Recorder:  h.recorder,
		Logger:    logger.Discard(),
	}
}

func fullBinding() mapping.Binding {
	return mapping.NewBinding(map[mapping.Role]string{
		mapping.RolePostcode: "BillingPostalCode",
		mapping.RoleStreet:   "BillingStreet",
		mapping.RoleCity:     "BillingCity",
		mapping.RoleCounty:   "BillingState",
		mapping.RoleCountry:  "BillingCountry",
	})
}

func strPtr(s string) *string { return &s }

var errStoreDown = apperr.Unavailable("record store unreachable")
