package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
)

// AckCall records one acknowledge request.
type AckCall struct {
	ActivationID string
	Code         string
}

// MockProvider is a scriptable number provider. Unset funcs fall back to
// handing out sequential activations and answering Waiting.
type MockProvider struct {
	RequestNumberFunc func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error)
	QueryStatusFunc   func(ctx context.Context, activationID string) (allocation.ProviderStatus, error)
	AcknowledgeFunc   func(ctx context.Context, activationID, code string) error
	RetryFunc         func(ctx context.Context, activationID string) error
	CancelFunc        func(ctx context.Context, activationID string) error
	GetBalanceFunc    func(ctx context.Context) (string, error)

	requestCalls atomic.Int64
	seq          atomic.Int64

	mu      sync.Mutex
	acks    []AckCall
	retries []string
	cancels []string
	queries []string
}

func (m *MockProvider) RequestNumber(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
	m.requestCalls.Add(1)
	if m.RequestNumberFunc != nil {
		return m.RequestNumberFunc(ctx, serviceCode, country)
	}
	n := m.seq.Add(1)
	return allocation.Lease{
		ActivationID: fmt.Sprintf("A%d", n),
		Number:       fmt.Sprintf("+39%09d", n),
	}, nil
}

func (m *MockProvider) QueryStatus(ctx context.Context, activationID string) (allocation.ProviderStatus, error) {
	m.mu.Lock()
	m.queries = append(m.queries, activationID)
	m.mu.Unlock()
	if m.QueryStatusFunc != nil {
		return m.QueryStatusFunc(ctx, activationID)
	}
	return allocation.Waiting("STATUS_WAIT_CODE"), nil
}

func (m *MockProvider) Acknowledge(ctx context.Context, activationID, code string) error {
	m.mu.Lock()
	m.acks = append(m.acks, AckCall{ActivationID: activationID, Code: code})
	m.mu.Unlock()
	if m.AcknowledgeFunc != nil {
		return m.AcknowledgeFunc(ctx, activationID, code)
	}
	return nil
}

func (m *MockProvider) RequestAnotherCode(ctx context.Context, activationID string) error {
	m.mu.Lock()
	m.retries = append(m.retries, activationID)
	m.mu.Unlock()
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, activationID)
	}
	return nil
}

func (m *MockProvider) Cancel(ctx context.Context, activationID string) error {
	m.mu.Lock()
	m.cancels = append(m.cancels, activationID)
	m.mu.Unlock()
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, activationID)
	}
	return nil
}

func (m *MockProvider) GetBalance(ctx context.Context) (string, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx)
	}
	return "0.00", nil
}

func (m *MockProvider) RequestCalls() int { return int(m.requestCalls.Load()) }

func (m *MockProvider) Acks() []AckCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AckCall(nil), m.acks...)
}

// Retries returns the activations asked for another code.
func (m *MockProvider) Retries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.retries...)
}

func (m *MockProvider) Cancels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cancels...)
}

func (m *MockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Notification records one relayed message.
type Notification struct {
	Recipient int64
	Text      string
}

// MockNotifier records relayed messages and fails while Err is set.
type MockNotifier struct {
	mu    sync.Mutex
	sent  []Notification
	Err   error
	calls int
}

func (m *MockNotifier) Notify(ctx context.Context, recipient int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Notification{Recipient: recipient, Text: text})
	return nil
}

// Calls counts every attempt, failed ones included.
func (m *MockNotifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

// NewAllocation builds a waiting allocation for tests.
func NewAllocation(t testing.TB, requestID uint, serviceCode, activationID, number string) *allocation.Allocation {
	t.Helper()
	a, err := allocation.NewAllocation(requestID, serviceCode, allocation.Lease{ActivationID: activationID, Number: number})
	if err != nil {
		t.Fatalf("NewAllocation: %v", err)
	}
	return a
}
