package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/payment"
)

type memLeads struct {
	mu    sync.Mutex
	items map[string]*entity.Lead
}

func newMemLeads() *memLeads { return &memLeads{items: map[string]*entity.Lead{}} }

func (m *memLeads) Create(_ context.Context, l *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.items[l.Token] = &cp
	return nil
}

func (m *memLeads) Update(_ context.Context, l *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[l.Token]; !ok {
		return entity.ErrLeadNotFound
	}
	cp := *l
	m.items[l.Token] = &cp
	return nil
}

func (m *memLeads) FindByToken(_ context.Context, token string) (*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[token]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLeads) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, l := range m.items {
		if l.ID == id {
			delete(m.items, token)
		}
	}
	return nil
}

func (m *memLeads) FindStaleDrafts(context.Context, time.Time, int) ([]*entity.Lead, error) {
	return nil, nil
}

func (m *memLeads) MarkReminded(context.Context, string, time.Time) error { return nil }

func (m *memLeads) CountByStatus(context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, l := range m.items {
		out[l.Status]++
	}
	return out, nil
}

type memRequests struct {
	mu    sync.Mutex
	items map[string]*entity.ServiceRequest
}

func newMemRequests() *memRequests {
	return &memRequests{items: map[string]*entity.ServiceRequest{}}
}

func (m *memRequests) Create(_ context.Context, sr *entity.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sr.ID] = sr
	return nil
}

func (m *memRequests) Update(_ context.Context, sr *entity.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[sr.ID]; !ok {
		return entity.ErrServiceRequestNotFound
	}
	m.items[sr.ID] = sr
	return nil
}

// errUUIDSyntax imita o 22P02 do Postgres quando o id não é um uuid.
var errUUIDSyntax = errors.New(`invalid input syntax for type uuid`)

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errUUIDSyntax
	}
	return nil
}

func (m *memRequests) Delete(_ context.Context, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return entity.ErrServiceRequestNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRequests) FindByID(_ context.Context, id string) (*entity.ServiceRequest, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.items[id]
	if !ok {
		return nil, entity.ErrServiceRequestNotFound
	}
	return sr, nil
}

func (m *memRequests) FindByReference(_ context.Context, ref string) (*entity.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sr := range m.items {
		if sr.ReferenceNumber == ref {
			return sr, nil
		}
	}
	return nil, entity.ErrServiceRequestNotFound
}

func (m *memRequests) FindByIDs(ctx context.Context, ids []string) ([]*entity.ServiceRequest, error) {
	var out []*entity.ServiceRequest
	for _, id := range ids {
		if sr, err := m.FindByID(ctx, id); err == nil {
			out = append(out, sr)
		}
	}
	return out, nil
}

func (m *memRequests) List(_ context.Context, f entity.ServiceRequestFilter, _ entity.Page) ([]*entity.ServiceRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ServiceRequest
	for _, sr := range m.items {
		if f.Status != "" && sr.Status != f.Status {
			continue
		}
		out = append(out, sr)
	}
	return out, len(out), nil
}

func (m *memRequests) UpdatePayment(_ context.Context, id, sessionID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.items[id]
	if !ok {
		return entity.ErrServiceRequestNotFound
	}
	sr.PaymentSessionID, sr.PaymentURL = sessionID, url
	return nil
}

func (m *memRequests) MarkPaid(_ context.Context, ref string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sr := range m.items {
		if sr.ReferenceNumber == ref {
			sr.PaymentStatus = entity.PaymentPaid
			if sr.PaidAt == nil {
				sr.PaidAt = &at
			}
			return nil
		}
	}
	return entity.ErrServiceRequestNotFound
}

func (m *memRequests) Stats(context.Context, time.Time) (*entity.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &entity.Stats{ByStatus: map[string]int{}}
	for _, sr := range m.items {
		stats.ByStatus[sr.Status]++
		stats.Total++
	}
	return stats, nil
}

type memAutomations struct {
	items map[string]*entity.AutomationSetting
}

func (m *memAutomations) List(context.Context) ([]*entity.AutomationSetting, error) {
	var out []*entity.AutomationSetting
	for _, s := range m.items {
		out = append(out, s)
	}
	return out, nil
}

func (m *memAutomations) FindByKey(_ context.Context, key string) (*entity.AutomationSetting, error) {
	s, ok := m.items[key]
	if !ok {
		return nil, entity.ErrAutomationNotFound
	}
	return s, nil
}

func (m *memAutomations) Upsert(_ context.Context, s *entity.AutomationSetting) error {
	m.items[s.Key] = s
	return nil
}

type fakeGateway struct {
	event *payment.Event
	err   error
}

func (g *fakeGateway) CreatePaymentLink(context.Context, *entity.ServiceRequest) (*entity.PaymentLink, error) {
	return &entity.PaymentLink{URL: "https://pay.example/x"}, nil
}

func (g *fakeGateway) ParseWebhook([]byte, http.Header) (*payment.Event, error) {
	return g.event, g.err
}

func withParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
