package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
)

// memStore is an in-memory ports.Repository. Route uniqueness is keyed on (collector, date)
// the same way the storage indexes are.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]model.User
	requests map[string]model.CollectionRequest
	routes   map[string]model.Route
	routeKey map[string]string
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]model.User{},
		requests: map[string]model.CollectionRequest{},
		routes:   map[string]model.Route{},
		routeKey: map[string]string{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) Ping(context.Context) error { return m.failWith }

func (m *memStore) SaveUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return model.ErrDuplicateUser
		}
	}
	if user.ID == "" {
		user.ID = m.nextID("u")
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memStore) ListUsers(_ context.Context, query ports.ListUsersQuery) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []model.User{}
	for _, u := range m.users {
		if query.Role == "" || u.Role == query.Role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memStore) SaveRequest(_ context.Context, request *model.CollectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if request.ID == "" {
		request.ID = m.nextID("q")
	}
	m.requests[request.ID] = *request
	return nil
}

func (m *memStore) UpdateRequest(_ context.Context, request *model.CollectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[request.ID]; !ok {
		return model.ErrNotFound
	}
	m.requests[request.ID] = *request
	return nil
}

func (m *memStore) GetRequest(_ context.Context, id string) (*model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) GetRequests(_ context.Context, ids []string) (map[string]model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := map[string]model.CollectionRequest{}
	for _, id := range ids {
		if r, ok := m.requests[id]; ok {
			found[id] = r
		}
	}
	return found, nil
}

func (m *memStore) ListRequests(_ context.Context, query ports.ListRequestsQuery) ([]model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := []model.CollectionRequest{}
	for _, r := range m.requests {
		if query.RequesterID != "" && r.RequesterID != query.RequesterID {
			continue
		}
		if query.CollectorID != "" && r.AssignedCollectorID != query.CollectorID {
			continue
		}
		requests = append(requests, r)
	}
	return requests, nil
}

func routeKey(collectorID string, date time.Time) string {
	return fmt.Sprintf("%s/%d", collectorID, date.UnixNano())
}

func (m *memStore) SaveRoute(_ context.Context, route *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	key := routeKey(route.CollectorID, route.Date)
	if _, ok := m.routeKey[key]; ok {
		return model.ErrDuplicateRoute
	}
	if route.ID == "" {
		route.ID = m.nextID("rt")
	}
	m.routeKey[key] = route.ID
	m.routes[route.ID] = *route.Clone()
	return nil
}

func (m *memStore) UpdateRoute(_ context.Context, route *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[route.ID]; !ok {
		return model.ErrNotFound
	}
	m.routes[route.ID] = *route.Clone()
	return nil
}

func (m *memStore) GetRoute(_ context.Context, id string) (*model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *memStore) FindRoute(_ context.Context, collectorID string, from, to time.Time) (*model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.routes {
		if r.CollectorID == collectorID && !r.Date.Before(from) && r.Date.Before(to) {
			return r.Clone(), nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memStore) ListRoutes(_ context.Context, query ports.ListRoutesQuery) ([]model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	routes := []model.Route{}
	for _, r := range m.routes {
		if query.CollectorID != "" && r.CollectorID != query.CollectorID {
			continue
		}
		if query.Status != "" && r.Status != query.Status {
			continue
		}
		if query.ContainsCollection != "" && !r.Contains(query.ContainsCollection) {
			continue
		}
		if !query.DateFrom.IsZero() && r.Date.Before(query.DateFrom) {
			continue
		}
		if !query.DateTo.IsZero() && !r.Date.Before(query.DateTo) {
			continue
		}
		routes = append(routes, *r.Clone())
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Date.Before(routes[j].Date) })
	return routes, nil
}

// seedUser stores a user directly, bypassing password hashing.
func (m *memStore) seedUser(t *testing.T, username string, role model.Role) model.User {
	t.Helper()
	user := model.User{Username: username, Email: username + "@example.com", Role: role}
	if err := m.SaveUser(context.Background(), &user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

// seedRequest stores a request directly in the given status.
func (m *memStore) seedRequest(t *testing.T, address string, status model.RequestStatus) model.CollectionRequest {
	t.Helper()
	request := model.CollectionRequest{
		WasteType:      model.WasteGeneral,
		Status:         status,
		PickupLocation: model.PickupLocation{Address: address},
	}
	if err := m.SaveRequest(context.Background(), &request); err != nil {
		t.Fatalf("seeding request: %v", err)
	}
	return request
}

// MockRouteSender records published route events.
type MockRouteSender struct {
	events    []model.RouteEvent
	SendError error
}

func (m *MockRouteSender) SendRouteEvent(_ context.Context, event model.RouteEvent) error {
	m.events = append(m.events, event)
	return m.SendError
}

// MockRequestSender records published request events.
type MockRequestSender struct {
	events    []model.RequestEvent
	SendError error
}

func (m *MockRequestSender) SendRequestEvent(_ context.Context, event model.RequestEvent) error {
	m.events = append(m.events, event)
	return m.SendError
}
