package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"address_lookup_backend/internal/addresslookup/service"
	"address_lookup_backend/internal/addresslookup/transport"
	"address_lookup_backend/internal/events"
	lookuptransport "address_lookup_backend/internal/lookup/transport"
	"address_lookup_backend/internal/records/repository"
	"address_lookup_backend/internal/widgets"
	"address_lookup_backend/platform/logger"
	"address_lookup_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLookup struct{}

func (stubLookup) Search(_ context.Context, query string) lookuptransport.Result[[]lookuptransport.Candidate] {
	if query == "slow down" {
		return lookuptransport.Failure[[]lookuptransport.Candidate](&statusErr{status: http.StatusTooManyRequests})
	}
	return lookuptransport.OK([]lookuptransport.Candidate{{ID: "A1", Label: "10 Downing Street, London"}})
}

func (stubLookup) Resolve(context.Context, string) lookuptransport.Result[lookuptransport.AddressDetail] {
	line := "10 Downing Street"
	return lookuptransport.OK(lookuptransport.AddressDetail{
		Line1:      &line,
		Postcode:   "SW1A 2AA",
		TownOrCity: "London",
		Country:    "UK",
		Raw:        json.RawMessage(`{"postcode":"SW1A 2AA","line_1":"10 Downing Street"}`),
	})
}

type statusErr struct{ status int }

func (e *statusErr) Error() string   { return "upstream rejected" }
func (e *statusErr) StatusCode() int { return e.status }

type testServer struct {
	engine *gin.Engine
	store  *repository.Memory
	bus    *events.InMemoryBus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg, err := widgets.Parse([]byte(`
widgets:
  - name: account-billing
    objectType: Account
    title: Billing Address
    fields:
      postcode: { name: BillingPostalCode, rule: "required" }
      street: { name: BillingStreet }
      city: { name: BillingCity }
      county: { name: BillingState }
      country: { name: BillingCountry }
`))
	if err != nil {
		t.Fatalf("parse widgets: %v", err)
	}

	store := repository.NewMemory()
	store.Put("001", "Account", map[string]string{"BillingState": "Greater London"})
	log := logger.Discard()
	bus := events.NewInMemoryBus(log)
	val := validator.New()

	svc := service.NewService(reg, service.NewSessions(time.Minute), service.Deps{
		Lookup:    stubLookup{},
		Store:     store,
		Validator: val,
		Publisher: bus,
	}, false, log)

	engine := gin.New()
	New(svc, val).RegisterRoutes(engine.Group("/api/v1/address-lookup"))
	return &testServer{engine: engine, store: store, bus: bus}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/api/v1/address-lookup"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing", RecordID: "001"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	sess := decode[transport.SessionResponse](t, rec)
	if sess.State.Address.County != "Greater London" || sess.ObjectType != "Account" {
		t.Fatalf("unexpected session %+v", sess)
	}
	base := "/sessions/" + sess.SessionID.String()

	rec = s.do(t, http.MethodPost, base+"/search", transport.SearchRequest{Query: "10 Downing St"})
	state := decode[transport.StateResponse](t, rec)
	if rec.Code != http.StatusOK || len(state.Options) != 1 || state.Options[0].Value != "A1" {
		t.Fatalf("unexpected search response %d %+v", rec.Code, state)
	}

	rec = s.do(t, http.MethodPost, base+"/select", transport.SelectRequest{CandidateID: "A1"})
	state = decode[transport.StateResponse](t, rec)
	if state.Address.Street != "10 Downing Street" || state.Address.City != "London" {
		t.Fatalf("unexpected resolved address %+v", state.Address)
	}

	rec = s.do(t, http.MethodPut, base+"/fields/county", transport.SetFieldRequest{Value: "Westminster"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from set field, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, base+"/save", nil)
	saved := decode[transport.SaveResponse](t, rec)
	if rec.Code != http.StatusOK || saved.Status != "persisted" {
		t.Fatalf("unexpected save response %d %+v", rec.Code, saved)
	}
	s.bus.Wait()

	fields, _ := s.store.Fields("001")
	if fields["BillingPostalCode"] != "SW1A 2AA" || fields["BillingState"] != "Westminster" {
		t.Fatalf("expected record to be updated, got %+v", fields)
	}

	if rec := s.do(t, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on close, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after close, got %d", rec.Code)
	}
}

func TestSaveValidationFailureIsReportedInBody(t *testing.T) {
	s := newTestServer(t)
	sess := decode[transport.SessionResponse](t, s.do(t, http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing", RecordID: "001"}))

	rec := s.do(t, http.MethodPost, "/sessions/"+sess.SessionID.String()+"/save", nil)
	saved := decode[transport.SaveResponse](t, rec)

	if rec.Code != http.StatusOK || saved.Status != "invalid" {
		t.Fatalf("unexpected response %d %+v", rec.Code, saved)
	}
	if len(saved.InvalidFields) != 1 || saved.InvalidFields[0] != "BillingPostalCode" {
		t.Fatalf("expected postcode to be invalid, got %v", saved.InvalidFields)
	}
}

func TestSaveFailureCarriesStoreDetail(t *testing.T) {
	s := newTestServer(t)
	var mu sync.Mutex
	var published []events.SaveFailed
	s.bus.Subscribe(events.NameSaveFailed, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e.(events.SaveFailed))
		return nil
	}))
	sess := decode[transport.SessionResponse](t, s.do(t, http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing", RecordID: "missing"}))
	base := "/sessions/" + sess.SessionID.String()
	s.do(t, http.MethodPut, base+"/fields/postcode", transport.SetFieldRequest{Value: "SW1A 2AA"})

	rec := s.do(t, http.MethodPost, base+"/save", nil)
	saved := decode[transport.SaveResponse](t, rec)
	s.bus.Wait()

	const detail = "Failed to save address details: record not found"
	if rec.Code != http.StatusOK || saved.Status != "failed" || saved.Detail != detail {
		t.Fatalf("unexpected response %d %+v", rec.Code, saved)
	}
	if saved.State.ErrorMessage != service.MsgSaveFailed {
		t.Fatalf("expected generic state message, got %q", saved.State.ErrorMessage)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(published) != 1 || published[0].Message != detail {
		t.Fatalf("expected one save failed event with detail, got %+v", published)
	}
}

func TestSelectReturnsResolvedPayload(t *testing.T) {
	s := newTestServer(t)
	sess := decode[transport.SessionResponse](t, s.do(t, http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing", RecordID: "001"}))
	base := "/sessions/" + sess.SessionID.String()
	s.do(t, http.MethodPost, base+"/search", transport.SearchRequest{Query: "downing"})

	rec := s.do(t, http.MethodPost, base+"/select", transport.SelectRequest{CandidateID: "A1"})
	state := decode[transport.StateResponse](t, rec)

	if rec.Code != http.StatusOK || state.Address.Postcode != "SW1A 2AA" {
		t.Fatalf("unexpected response %d %+v", rec.Code, state)
	}
	var raw map[string]string
	if err := json.Unmarshal(state.Resolved, &raw); err != nil || raw["line_1"] != "10 Downing Street" {
		t.Fatalf("expected raw provider payload, got %s (%v)", state.Resolved, err)
	}
}

func TestSearchRateLimitedIsShownInState(t *testing.T) {
	s := newTestServer(t)
	sess := decode[transport.SessionResponse](t, s.do(t, http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing", RecordID: "001"}))

	rec := s.do(t, http.MethodPost, "/sessions/"+sess.SessionID.String()+"/search", transport.SearchRequest{Query: "slow down"})
	state := decode[transport.StateResponse](t, rec)

	if rec.Code != http.StatusOK || state.ErrorMessage != service.MsgRateLimited {
		t.Fatalf("unexpected response %d %+v", rec.Code, state)
	}
	if state.Loading {
		t.Fatalf("expected loading to be false")
	}
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"bad session id", http.MethodGet, "/sessions/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/sessions/6f1c1e8a-0c59-4d5e-9e44-8b0f6a0d2f10", nil, http.StatusNotFound},
		{"missing record id", http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing"}, http.StatusBadRequest},
		{"unknown widget", http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "nope", RecordID: "001"}, http.StatusNotFound},
		{"empty search body", http.MethodPost, "/sessions/6f1c1e8a-0c59-4d5e-9e44-8b0f6a0d2f10/search", nil, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := s.do(t, tc.method, tc.path, tc.body); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUnknownRoleIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	sess := decode[transport.SessionResponse](t, s.do(t, http.MethodPost, "/sessions", transport.OpenSessionRequest{Widget: "account-billing", RecordID: "001"}))

	rec := s.do(t, http.MethodPut, "/sessions/"+sess.SessionID.String()+"/fields/zip", transport.SetFieldRequest{Value: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListWidgets(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/widgets", nil)
	list := decode[transport.WidgetListResponse](t, rec)

	if rec.Code != http.StatusOK || len(list.Items) != 1 || list.Items[0].Fields["postcode"].Name != "BillingPostalCode" {
		t.Fatalf("unexpected widgets response %d %+v", rec.Code, list)
	}
}
