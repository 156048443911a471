// Package service implements the address lookup controller: the per-widget
// state machine that searches, resolves, and saves addresses, plus the
// session registry that hosts one controller per open widget.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"address_lookup_backend/internal/addresslookup/mapping"
	"address_lookup_backend/internal/events"
	"address_lookup_backend/internal/lookup"
	"address_lookup_backend/internal/lookup/transport"
	"address_lookup_backend/internal/records"
	"address_lookup_backend/platform/apperr"
	"address_lookup_backend/platform/logger"

	"github.com/google/uuid"
)

// FieldValidator checks one value against a rule in validator tag syntax.
type FieldValidator interface {
	Var(field interface{}, tag string) error
}

// Recorder observes operation outcomes. Implemented by telemetry.
type Recorder interface {
	ObserveSearch(outcome string, elapsed time.Duration)
	ObserveResolve(outcome string, elapsed time.Duration)
	ObserveSave(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSearch(string, time.Duration)  {}
func (nopRecorder) ObserveResolve(string, time.Duration) {}
func (nopRecorder) ObserveSave(string)                   {}

// Outcome labels reported to the Recorder besides ResultKind names.
const (
	outcomeRateLimited = "rate_limited"
	outcomeStale       = "stale"
)

// Config describes one widget instance bound to one host record.
type Config struct {
	RecordID   string
	ObjectType string
	Title      string
	Binding    mapping.Binding
	// Rules holds optional validation rules per role, in validator tag syntax.
	Rules map[mapping.Role]string
	// AllowStaleResponses lets an older call that completes last overwrite
	// state. By default only the latest search or select is applied.
	AllowStaleResponses bool
}

// Deps are the collaborators a controller calls out to.
type Deps struct {
	Lookup    lookup.Service
	Store     records.Store
	Validator FieldValidator
	Publisher events.Publisher
	Recorder  Recorder
	Logger    *logger.Logger
}

// SaveStatus tells how a save attempt ended.
type SaveStatus int

const (
	// SaveInvalid means validation failed and nothing was written.
	SaveInvalid SaveStatus = iota
	// SaveSkipped means validation passed but no field had a value to write.
	SaveSkipped
	// SavePersisted means the record store accepted the update.
	SavePersisted
	// SaveFailed means the record store rejected the update.
	SaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveInvalid:
		return "invalid"
	case SaveSkipped:
		return "skipped"
	case SavePersisted:
		return "persisted"
	default:
		return "failed"
	}
}

// SaveResult reports what a save did.
type SaveResult struct {
	Status        SaveStatus
	FieldUpdates  map[string]string
	InvalidFields []string
	Err           error
	// Detail is the failure message including the store-reported cause.
	Detail        string
}

// Controller drives one widget instance. Operations may be called from
// multiple goroutines; the mutex covers state transitions only and is never
// held across remote calls.
type Controller struct {
	id        uuid.UUID
	cfg       Config
	lookup    lookup.Service
	store     records.Store
	validator FieldValidator
	publisher events.Publisher
	recorder  Recorder
	log       *logger.Logger

	mu        sync.Mutex
	state     State
	searchSeq uint64
	selectSeq uint64
	inFlight  int
}

// New creates a controller and seeds the address from the host record's
// bound fields. A failed read is logged and leaves the address empty.
func New(ctx context.Context, cfg Config, deps Deps) (*Controller, error) {
	if strings.TrimSpace(cfg.RecordID) == "" {
		return nil, apperr.Validation("record id is required")
	}
	if deps.Lookup == nil || deps.Store == nil {
		return nil, apperr.Internal("address lookup controller requires a lookup service and a record store")
	}

	c := &Controller{
		id:        uuid.New(),
		cfg:       cfg,
		lookup:    deps.Lookup,
		store:     deps.Store,
		validator: deps.Validator,
		publisher: deps.Publisher,
		recorder:  deps.Recorder,
		log:       deps.Logger,
		state:     State{Candidates: []transport.Candidate{}},
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	c.log = c.log.WithSessionID(c.id.String())

	c.seed(ctx)
	return c, nil
}

func (c *Controller) seed(ctx context.Context) {
	fields := c.cfg.Binding.Fields()
	if len(fields) == 0 {
		return
	}

	values, err := c.store.FetchFields(ctx, c.cfg.RecordID, fields)
	if err != nil {
		c.log.WithContext(ctx).RecordStoreError("fetch", c.cfg.RecordID, err)
		return
	}

	addr := ResolvedAddress{}
	for _, role := range c.cfg.Binding.Bound() {
		field, _ := c.cfg.Binding.Field(role)
		if v, ok := values[field]; ok {
			addr = addr.With(role, v)
		}
	}

	c.mu.Lock()
	c.state.Address = addr
	c.mu.Unlock()
}

// ID returns the controller's session identifier.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Config returns the widget configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// TriggerSearch runs a search for the committed input. Blank input clears
// the candidates without calling out. Loading stays set while any search is
// in flight and is released however the call ends.
func (c *Controller) TriggerSearch(ctx context.Context, raw string) (out State) {
	query := strings.TrimSpace(raw)

	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	next := c.state.clone()
	next.Query = query
	next.SelectedID = ""
	next.Resolved = nil
	next.ErrorMessage = ""
	if query == "" {
		next.Candidates = []transport.Candidate{}
		c.state = next
		c.mu.Unlock()
		return next.clone()
	}
	c.inFlight++
	next.Loading = true
	c.state = next
	c.mu.Unlock()

	start := time.Now()
	result := transport.Failure[[]transport.Candidate](errCallAborted)
	defer func() {
		out = c.completeSearch(ctx, seq, result, time.Since(start))
	}()

	result = c.callSearch(ctx, query)
	return out
}

var errCallAborted = errors.New("lookup call aborted")

func (c *Controller) callSearch(ctx context.Context, query string) (result transport.Result[[]transport.Candidate]) {
	defer func() {
		if r := recover(); r != nil {
			result = transport.Failure[[]transport.Candidate](fmt.Errorf("search panicked: %v", r))
		}
	}()
	return c.lookup.Search(ctx, query)
}

func (c *Controller) completeSearch(ctx context.Context, seq uint64, result transport.Result[[]transport.Candidate], elapsed time.Duration) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight--
	next := c.state.clone()
	next.Loading = c.inFlight > 0

	if !c.cfg.AllowStaleResponses && seq != c.searchSeq {
		c.state = next
		c.recorder.ObserveSearch(outcomeStale, elapsed)
		return next.clone()
	}

	outcome := result.Kind().String()
	switch result.Kind() {
	case transport.ResultOK:
		next.Candidates = append([]transport.Candidate{}, result.Value()...)
		next.ErrorMessage = ""
	case transport.ResultServiceError:
		next.Candidates = []transport.Candidate{}
		next.ErrorMessage = result.Message()
	default:
		next.Candidates = []transport.Candidate{}
		next.ErrorMessage = searchFailureMessage(result.Err())
		if IsRateLimited(result.Err()) {
			outcome = outcomeRateLimited
		}
		c.log.WithContext(ctx).Warn("address search failed", "error", result.Err())
	}

	c.state = next
	c.recorder.ObserveSearch(outcome, elapsed)
	return next.clone()
}

// SelectCandidate resolves the chosen candidate into the address. An id that
// is not among the current candidates clears the address without calling out.
func (c *Controller) SelectCandidate(ctx context.Context, id string) State {
	c.mu.Lock()
	c.selectSeq++
	seq := c.selectSeq
	next := c.state.clone()
	next.SelectedID = id
	next.Resolved = nil
	next.ErrorMessage = ""
	candidate, ok := next.candidate(id)
	if !ok {
		next.Address = ResolvedAddress{}
		c.state = next
		c.mu.Unlock()
		return next.clone()
	}
	c.state = next
	c.mu.Unlock()

	start := time.Now()
	result := c.callResolve(ctx, candidate.ID)
	elapsed := time.Since(start)

	c.mu.Lock()
	if !c.cfg.AllowStaleResponses && seq != c.selectSeq {
		snapshot := c.state.clone()
		c.mu.Unlock()
		c.recorder.ObserveResolve(outcomeStale, elapsed)
		return snapshot
	}

	var published events.Event
	outcome := result.Kind().String()
	next = c.state.clone()
	next.Resolved = nil
	switch result.Kind() {
	case transport.ResultOK:
		detail := result.Value()
		next.Address = AddressFromDetail(detail)
		next.Resolved = detail.Raw
		published = events.SelectionResolved{
			BaseEvent:   events.NewBaseEvent(),
			SessionID:   c.id,
			RecordID:    c.cfg.RecordID,
			CandidateID: id,
			Candidate:   candidate,
			Resolved:    detail.Raw,
		}
	case transport.ResultServiceError:
		next.Address = ResolvedAddress{}
		next.ErrorMessage = result.Message()
	default:
		next.Address = ResolvedAddress{}
		next.ErrorMessage = resolveFailureMessage(result.Err())
		if IsRateLimited(result.Err()) {
			outcome = outcomeRateLimited
		}
		c.log.WithContext(ctx).Warn("address resolve failed", "candidateId", id, "error", result.Err())
	}
	c.state = next
	snapshot := next.clone()
	c.mu.Unlock()

	c.recorder.ObserveResolve(outcome, elapsed)
	c.publish(ctx, published)
	return snapshot
}

func (c *Controller) callResolve(ctx context.Context, id string) (result transport.Result[transport.AddressDetail]) {
	defer func() {
		if r := recover(); r != nil {
			result = transport.Failure[transport.AddressDetail](fmt.Errorf("resolve panicked: %v", r))
		}
	}()
	return c.lookup.Resolve(ctx, id)
}

// SetField overwrites one address component with a manually entered value.
func (c *Controller) SetField(role mapping.Role, value string) (State, error) {
	if _, err := mapping.ParseRole(string(role)); err != nil {
		return c.Snapshot(), apperr.Validation(err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state.clone()
	next.Address = next.Address.With(role, value)
	next.ErrorMessage = ""
	c.state = next
	return next.clone(), nil
}

// Save validates every bound field, writes the non-empty ones to the host
// record, and announces the outcome. Blank values are never written.
func (c *Controller) Save(ctx context.Context) (State, SaveResult) {
	c.mu.Lock()
	next := c.state.clone()
	next.ErrorMessage = ""
	c.state = next
	addr := next.Address
	c.mu.Unlock()

	if invalid := c.invalidFields(addr); len(invalid) > 0 {
		c.recorder.ObserveSave(SaveInvalid.String())
		c.log.WithContext(ctx).SaveOutcome(c.cfg.RecordID, SaveInvalid.String(), 0, len(invalid))
		c.publish(ctx, events.ValidationFailed{
			BaseEvent: events.NewBaseEvent(),
			SessionID: c.id,
			RecordID:  c.cfg.RecordID,
			Fields:    invalid,
			Message:   MsgValidationFailed,
		})
		return c.Snapshot(), SaveResult{Status: SaveInvalid, InvalidFields: invalid}
	}

	updates := c.fieldUpdates(addr)
	result := SaveResult{Status: SaveSkipped, FieldUpdates: updates}
	var outcome []events.Event

	if len(updates) > 0 {
		if err := c.callUpdate(ctx, updates); err != nil {
			c.log.WithContext(ctx).RecordStoreError("update", c.cfg.RecordID, err)
			c.mu.Lock()
			failed := c.state.clone()
			failed.ErrorMessage = MsgSaveFailed
			c.state = failed
			c.mu.Unlock()

			result.Status = SaveFailed
			result.Err = err
			result.Detail = saveFailureDetail(err)
			outcome = append(outcome, events.SaveFailed{
				BaseEvent: events.NewBaseEvent(),
				SessionID: c.id,
				RecordID:  c.cfg.RecordID,
				Message:   result.Detail,
			})
		} else {
			result.Status = SavePersisted
			outcome = append(outcome,
				events.RecordChanged{
					BaseEvent:  events.NewBaseEvent(),
					RecordID:   c.cfg.RecordID,
					ObjectType: c.cfg.ObjectType,
				},
				events.SaveSucceeded{
					BaseEvent:    events.NewBaseEvent(),
					SessionID:    c.id,
					RecordID:     c.cfg.RecordID,
					FieldUpdates: copyFields(updates),
					Message:      MsgSaveSucceeded,
				},
			)
		}
	}

	// One batch keeps the outcome ahead of saveRequested for every subscriber.
	outcome = append(outcome, events.SaveRequested{
		BaseEvent:    events.NewBaseEvent(),
		SessionID:    c.id,
		RecordID:     c.cfg.RecordID,
		ObjectType:   c.cfg.ObjectType,
		FieldUpdates: copyFields(updates),
	})
	c.publish(ctx, outcome...)
	c.recorder.ObserveSave(result.Status.String())
	written := 0
	if result.Status == SavePersisted {
		written = len(updates)
	}
	c.log.WithContext(ctx).SaveOutcome(c.cfg.RecordID, result.Status.String(), written, 0)

	return c.Snapshot(), result
}

// invalidFields runs every bound field's rule and returns the fields that
// failed, in role order. All rules run even after the first failure.
func (c *Controller) invalidFields(addr ResolvedAddress) []string {
	if c.validator == nil {
		return nil
	}

	var invalid []string
	for _, role := range c.cfg.Binding.Bound() {
		rule := strings.TrimSpace(c.cfg.Rules[role])
		if rule == "" {
			continue
		}
		if err := c.validator.Var(addr.Get(role), rule); err != nil {
			field, _ := c.cfg.Binding.Field(role)
			invalid = append(invalid, field)
		}
	}
	return invalid
}

func (c *Controller) fieldUpdates(addr ResolvedAddress) map[string]string {
	updates := make(map[string]string)
	for _, role := range c.cfg.Binding.Bound() {
		value := addr.Get(role)
		if value == "" {
			continue
		}
		field, _ := c.cfg.Binding.Field(role)
		updates[field] = value
	}
	return updates
}

func (c *Controller) callUpdate(ctx context.Context, updates map[string]string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("record update panicked: %v", r)
		}
	}()
	return c.store.UpdateFields(ctx, c.cfg.RecordID, copyFields(updates))
}

func (c *Controller) publish(ctx context.Context, evts ...events.Event) {
	if c.publisher == nil {
		return
	}
	batch := make([]events.Event, 0, len(evts))
	for _, e := range evts {
		if e != nil {
			batch = append(batch, e)
		}
	}
	if len(batch) > 0 {
		c.publisher.Publish(ctx, batch...)
	}
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
