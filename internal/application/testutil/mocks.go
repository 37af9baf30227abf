// Package testutil provides in-memory repositories and ports for use case tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
)

// MockClientRepository is an in-memory client.Repository.
type MockClientRepository struct {
	mu     sync.RWMutex
	byID   map[uint]*client.Client
	nextID uint

	// Error injection for testing
	Err error
}

func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{byID: make(map[uint]*client.Client)}
}

func cloneClient(c *client.Client) *client.Client {
	return client.ReconstructClient(c.ID(), c.PlatformID(), c.Username(), c.FirstName(), c.LastName(), c.Status(), c.CreatedAt(), c.UpdatedAt())
}

// Add stores a client with the given status and returns the stored copy.
func (m *MockClientRepository) Add(platformID int64, username string, status vo.DecisionStatus) *client.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := biztime.NowUTC()
	c := client.ReconstructClient(m.nextID, platformID, username, "", "", status, now, now)
	m.byID[c.ID()] = c
	return cloneClient(c)
}

func (m *MockClientRepository) findByPlatformID(platformID int64) *client.Client {
	for _, c := range m.byID {
		if c.PlatformID() == platformID {
			return c
		}
	}
	return nil
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uint) (*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, client.ErrClientNotFound
	}
	return cloneClient(c), nil
}

func (m *MockClientRepository) GetByPlatformID(ctx context.Context, platformID int64) (*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c := m.findByPlatformID(platformID)
	if c == nil {
		return nil, client.ErrClientNotFound
	}
	return cloneClient(c), nil
}

func (m *MockClientRepository) Upsert(ctx context.Context, c *client.Client) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	now := biztime.NowUTC()
	if existing := m.findByPlatformID(c.PlatformID()); existing != nil {
		m.byID[existing.ID()] = client.ReconstructClient(existing.ID(), c.PlatformID(), c.Username(), c.FirstName(), c.LastName(), existing.Status(), existing.CreatedAt(), now)
		c.SetID(existing.ID())
		return false, nil
	}
	m.nextID++
	c.SetID(m.nextID)
	m.byID[m.nextID] = client.ReconstructClient(m.nextID, c.PlatformID(), c.Username(), c.FirstName(), c.LastName(), c.Status(), now, now)
	return true, nil
}

func (m *MockClientRepository) CompareAndSwapStatus(ctx context.Context, id uint, expected, next vo.DecisionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	c, ok := m.byID[id]
	if !ok || c.Status() != expected {
		return false, nil
	}
	m.byID[id] = client.ReconstructClient(c.ID(), c.PlatformID(), c.Username(), c.FirstName(), c.LastName(), next, c.CreatedAt(), biztime.NowUTC())
	return true, nil
}

func (m *MockClientRepository) ListByStatus(ctx context.Context, status vo.DecisionStatus) ([]*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*client.Client
	for _, c := range m.byID {
		if c.Status() == status {
			out = append(out, cloneClient(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *MockClientRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[uint]*client.Client, len(ids))
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out[id] = cloneClient(c)
		}
	}
	return out, nil
}

// MockNumberRequestRepository is an in-memory numberrequest.Repository.
type MockNumberRequestRepository struct {
	mu     sync.RWMutex
	byID   map[uint]*numberrequest.NumberRequest
	nextID uint

	// allocated reports whether a request already has an allocation.
	allocated func(requestID uint) bool

	// Error injection for testing
	Err error
}

func NewMockNumberRequestRepository() *MockNumberRequestRepository {
	return &MockNumberRequestRepository{byID: make(map[uint]*numberrequest.NumberRequest)}
}

func cloneRequest(r *numberrequest.NumberRequest) *numberrequest.NumberRequest {
	return numberrequest.ReconstructNumberRequest(r.ID(), r.SID(), r.ClientID(), r.Service(), r.Status(), r.RequestedAt(), r.DecidedAt(), r.DecidedBy())
}

// Add stores a request with the given status and returns the stored copy.
func (m *MockNumberRequestRepository) Add(clientID uint, service string, status vo.DecisionStatus) *numberrequest.NumberRequest {
	r, err := numberrequest.NewNumberRequest(clientID, service)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.SetID(m.nextID)
	if status != vo.DecisionPending {
		r.ApplyDecision(status, 1, biztime.NowUTC())
	}
	m.byID[r.ID()] = r
	return cloneRequest(r)
}

func (m *MockNumberRequestRepository) Create(ctx context.Context, r *numberrequest.NumberRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextID++
	r.SetID(m.nextID)
	m.byID[r.ID()] = cloneRequest(r)
	return nil
}

func (m *MockNumberRequestRepository) GetByID(ctx context.Context, id uint) (*numberrequest.NumberRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.byID[id]
	if !ok {
		return nil, numberrequest.ErrRequestNotFound
	}
	return cloneRequest(r), nil
}

func (m *MockNumberRequestRepository) GetBySID(ctx context.Context, sid string) (*numberrequest.NumberRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.byID {
		if r.SID() == sid {
			return cloneRequest(r), nil
		}
	}
	return nil, numberrequest.ErrRequestNotFound
}

func (m *MockNumberRequestRepository) CompareAndSwapStatus(ctx context.Context, id uint, expected, next vo.DecisionStatus, actor int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	r, ok := m.byID[id]
	if !ok || r.Status() != expected {
		return false, nil
	}
	updated := cloneRequest(r)
	updated.ApplyDecision(next, actor, at)
	m.byID[id] = updated
	return true, nil
}

func (m *MockNumberRequestRepository) list(keep func(*numberrequest.NumberRequest) bool) []*numberrequest.NumberRequest {
	var out []*numberrequest.NumberRequest
	for _, r := range m.byID {
		if keep(r) {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (m *MockNumberRequestRepository) ListByStatus(ctx context.Context, status vo.DecisionStatus) ([]*numberrequest.NumberRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.list(func(r *numberrequest.NumberRequest) bool { return r.Status() == status }), nil
}

func (m *MockNumberRequestRepository) ListByClient(ctx context.Context, clientID uint) ([]*numberrequest.NumberRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.list(func(r *numberrequest.NumberRequest) bool { return r.ClientID() == clientID }), nil
}

func (m *MockNumberRequestRepository) ListApprovedWithoutAllocation(ctx context.Context) ([]*numberrequest.NumberRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.list(func(r *numberrequest.NumberRequest) bool {
		return r.Status() == vo.DecisionApproved && (m.allocated == nil || !m.allocated(r.ID()))
	}), nil
}

// MockAllocationRepository is an in-memory allocation.Repository. It joins
// against the request and client mocks it was built with.
type MockAllocationRepository struct {
	mu     sync.RWMutex
	byID   map[uint]*allocation.Allocation
	nextID uint

	requests *MockNumberRequestRepository
	clients  *MockClientRepository
	codes    *MockDeliveredCodeRepository

	// Error injection for testing
	Err         error
	ListErr     error
	CreateCalls int
}

func NewMockAllocationRepository(requests *MockNumberRequestRepository, clients *MockClientRepository, codes *MockDeliveredCodeRepository) *MockAllocationRepository {
	m := &MockAllocationRepository{
		byID:     make(map[uint]*allocation.Allocation),
		requests: requests,
		clients:  clients,
		codes:    codes,
	}
	if requests != nil {
		requests.allocated = m.hasRequest
	}
	return m
}

func cloneAllocation(a *allocation.Allocation) *allocation.Allocation {
	var activationID *string
	if a.HasActivation() {
		v := a.ActivationID()
		activationID = &v
	}
	return allocation.ReconstructAllocation(a.ID(), a.SID(), a.RequestID(), a.Number(), a.ServiceCode(), activationID, a.PollState(), a.AssignedAt(), a.TerminalAt())
}

func (m *MockAllocationRepository) hasRequest(requestID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.byID {
		if a.RequestID() == requestID {
			return true
		}
	}
	return false
}

func (m *MockAllocationRepository) Create(ctx context.Context, a *allocation.Allocation) (*allocation.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	for _, existing := range m.byID {
		if existing.RequestID() == a.RequestID() || (a.HasActivation() && existing.ActivationID() == a.ActivationID()) {
			return cloneAllocation(existing), nil
		}
	}
	m.nextID++
	a.SetID(m.nextID)
	m.byID[a.ID()] = cloneAllocation(a)
	return cloneAllocation(a), nil
}

func (m *MockAllocationRepository) find(keep func(*allocation.Allocation) bool) (*allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.byID {
		if keep(a) {
			return cloneAllocation(a), nil
		}
	}
	return nil, allocation.ErrAllocationNotFound
}

func (m *MockAllocationRepository) GetByID(ctx context.Context, id uint) (*allocation.Allocation, error) {
	return m.find(func(a *allocation.Allocation) bool { return a.ID() == id })
}

func (m *MockAllocationRepository) GetBySID(ctx context.Context, sid string) (*allocation.Allocation, error) {
	return m.find(func(a *allocation.Allocation) bool { return a.SID() == sid })
}

func (m *MockAllocationRepository) GetByRequestID(ctx context.Context, requestID uint) (*allocation.Allocation, error) {
	return m.find(func(a *allocation.Allocation) bool { return a.RequestID() == requestID })
}

func (m *MockAllocationRepository) GetByActivationID(ctx context.Context, activationID string) (*allocation.Allocation, error) {
	return m.find(func(a *allocation.Allocation) bool { return a.HasActivation() && a.ActivationID() == activationID })
}

func (m *MockAllocationRepository) sorted(keep func(*allocation.Allocation) bool) []*allocation.Allocation {
	var out []*allocation.Allocation
	for _, a := range m.byID {
		if keep(a) {
			out = append(out, cloneAllocation(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (m *MockAllocationRepository) ListPollable(ctx context.Context) ([]*allocation.PollTarget, error) {
	m.mu.RLock()
	if m.ListErr != nil {
		m.mu.RUnlock()
		return nil, m.ListErr
	}
	list := m.sorted(func(a *allocation.Allocation) bool { return a.IsPollable() })
	m.mu.RUnlock()

	out := make([]*allocation.PollTarget, 0, len(list))
	for _, a := range list {
		target := &allocation.PollTarget{Allocation: a}
		if req, err := m.requests.GetByID(ctx, a.RequestID()); err == nil {
			target.RequestSID = req.SID()
			target.Service = req.Service()
			if c, err := m.clients.GetByID(ctx, req.ClientID()); err == nil {
				target.RecipientID = c.PlatformID()
			}
		}
		out = append(out, target)
	}
	return out, nil
}

func (m *MockAllocationRepository) ListWaitingAssignedBefore(ctx context.Context, cutoff time.Time) ([]*allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sorted(func(a *allocation.Allocation) bool {
		return a.PollState() == allocation.PollWaiting && a.AssignedAt().Before(cutoff)
	}), nil
}

func (m *MockAllocationRepository) MarkTerminal(ctx context.Context, id uint, state allocation.PollState, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	a, ok := m.byID[id]
	if !ok || a.PollState() != allocation.PollWaiting {
		return false, nil
	}
	updated := cloneAllocation(a)
	updated.ApplyTerminal(state, at)
	m.byID[id] = updated
	return true, nil
}

func (m *MockAllocationRepository) ListByClient(ctx context.Context, clientID uint) ([]*allocation.Holding, error) {
	reqs, err := m.requests.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	var out []*allocation.Holding
	for _, r := range reqs {
		a, err := m.GetByRequestID(ctx, r.ID())
		if err != nil {
			continue
		}
		h := &allocation.Holding{Allocation: a, RequestSID: r.SID(), Service: r.Service()}
		if m.codes != nil {
			list, _ := m.codes.ListByAllocation(ctx, a.ID())
			h.CodeCount = len(list)
		}
		out = append(out, h)
	}
	return out, nil
}

// All returns every stored allocation.
func (m *MockAllocationRepository) All() []*allocation.Allocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(*allocation.Allocation) bool { return true })
}

// MockDeliveredCodeRepository is an in-memory allocation.DeliveredCodeRepository.
type MockDeliveredCodeRepository struct {
	mu     sync.RWMutex
	byID   map[uint]*allocation.DeliveredCode
	nextID uint

	// Error injection for testing
	AppendErr error
	ClaimErr  error
}

func NewMockDeliveredCodeRepository() *MockDeliveredCodeRepository {
	return &MockDeliveredCodeRepository{byID: make(map[uint]*allocation.DeliveredCode)}
}

func cloneCode(d *allocation.DeliveredCode) *allocation.DeliveredCode {
	return allocation.ReconstructDeliveredCode(d.ID(), d.AllocationID(), d.Content(), d.ContentHash(), d.ReceivedAt(), d.Delivered())
}

func (m *MockDeliveredCodeRepository) Append(ctx context.Context, code *allocation.DeliveredCode) (*allocation.DeliveredCode, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return nil, false, m.AppendErr
	}
	for _, d := range m.byID {
		if d.AllocationID() == code.AllocationID() && d.ContentHash() == code.ContentHash() {
			return cloneCode(d), false, nil
		}
	}
	m.nextID++
	code.SetID(m.nextID)
	m.byID[code.ID()] = cloneCode(code)
	return cloneCode(code), true, nil
}

func (m *MockDeliveredCodeRepository) ClaimRelay(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	d, ok := m.byID[id]
	if !ok || d.Delivered() {
		return false, nil
	}
	d.MarkDelivered()
	return true, nil
}

func (m *MockDeliveredCodeRepository) ReleaseRelay(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byID[id]; ok {
		m.byID[id] = allocation.ReconstructDeliveredCode(d.ID(), d.AllocationID(), d.Content(), d.ContentHash(), d.ReceivedAt(), false)
	}
	return nil
}

func (m *MockDeliveredCodeRepository) ListByAllocation(ctx context.Context, allocationID uint) ([]*allocation.DeliveredCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*allocation.DeliveredCode
	for _, d := range m.byID {
		if d.AllocationID() == allocationID {
			out = append(out, cloneCode(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// Count returns the number of stored codes across all allocations.
func (m *MockDeliveredCodeRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
