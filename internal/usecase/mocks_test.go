//go:build !integration

package usecase_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/adapter"
	"docstore-payments/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- In-memory transaction repository ---

type MockTransactionRepo struct {
	mu       sync.Mutex
	store    map[string]*model.PendingTransaction
	SaveFunc func(ctx context.Context, qx repository.Tx, t *model.PendingTransaction) error
	SaveErr  error
}

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.PendingTransaction)}
}

func (m *MockTransactionRepo) Save(ctx context.Context, qx repository.Tx, t *model.PendingTransaction) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, qx, t); err != nil {
			return err
		}
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) Complete(ctx context.Context, qx repository.Tx, id, trackingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrOperationFailed
	}
	t.Status = model.TransactionStatusCompleted
	t.TrackingID = &trackingID
	t.ErrorMessage = nil
	return nil
}

func (m *MockTransactionRepo) MarkFailedIfPending(ctx context.Context, qx repository.Tx, id, errorMessage string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok || t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = model.TransactionStatusFailed
	t.ErrorMessage = &errorMessage
	return true, nil
}

// Get returns a copy for assertions.
func (m *MockTransactionRepo) Get(id string) *model.PendingTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (m *MockTransactionRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// --- In-memory purchase (entitlement) repository ---

type MockPurchaseRepo struct {
	mu       sync.Mutex
	owned    map[string]bool // userID|documentTypeID
	GrantErr error
}

func NewMockPurchaseRepo() *MockPurchaseRepo {
	return &MockPurchaseRepo{owned: make(map[string]bool)}
}

func (m *MockPurchaseRepo) Grant(ctx context.Context, qx repository.Tx, userID, documentTypeID string) (bool, error) {
	if m.GrantErr != nil {
		return false, m.GrantErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + documentTypeID
	if m.owned[key] {
		return true, nil
	}
	m.owned[key] = true
	return false, nil
}

func (m *MockPurchaseRepo) ListByUser(ctx context.Context, qx repository.Tx, userID string) ([]*model.Purchase, error) {
	return nil, nil
}

func (m *MockPurchaseRepo) CountOwned() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.owned)
}

// --- In-memory profile repository ---

type MockProfileRepo struct {
	mu         sync.Mutex
	profiles   map[string]*model.Profile
	UpdateErr  error
	PremiumErr error
}

func NewMockProfileRepo() *MockProfileRepo {
	return &MockProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *MockProfileRepo) put(p *model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
}

func (m *MockProfileRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProfileRepo) UpdateContact(ctx context.Context, qx repository.Tx, id, fullName, mobile string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		p = &model.Profile{ID: id}
		m.profiles[id] = p
	}
	p.FullName, p.Mobile = fullName, mobile
	return nil
}

func (m *MockProfileRepo) EnablePremiumCalendar(ctx context.Context, qx repository.Tx, id string) error {
	if m.PremiumErr != nil {
		return m.PremiumErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.HasPremiumCalendar = true
	return nil
}

// --- In-memory discount repository ---

type MockDiscountRepo struct {
	mu      sync.Mutex
	codes   map[string]*model.DiscountCode // code|productType
	FindErr error
}

func NewMockDiscountRepo() *MockDiscountRepo {
	return &MockDiscountRepo{codes: make(map[string]*model.DiscountCode)}
}

func (m *MockDiscountRepo) put(dc *model.DiscountCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *dc
	m.codes[dc.Code+"|"+string(dc.ProductType)] = &cp
}

func (m *MockDiscountRepo) FindByCode(ctx context.Context, qx repository.Tx, code string, productType model.ProductType) (*model.DiscountCode, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dc, ok := m.codes[code+"|"+string(productType)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *dc
	return &cp, nil
}

// --- Mock payment gateway ---

type MockGateway struct {
	mu          sync.Mutex
	name        model.Gateway
	CreateFunc  func(ctx context.Context, inv adapter.Invoice) (string, string, error)
	VerifyFunc  func(ctx context.Context, req adapter.VerifyRequest) (adapter.VerifyResult, error)
	CreateCalls []adapter.Invoice
	VerifyCalls []adapter.VerifyRequest
}

func NewMockGateway(name model.Gateway) *MockGateway {
	return &MockGateway{name: name}
}

func (g *MockGateway) Name() model.Gateway { return g.name }

func (g *MockGateway) CreateInvoice(ctx context.Context, inv adapter.Invoice) (string, string, error) {
	g.mu.Lock()
	g.CreateCalls = append(g.CreateCalls, inv)
	g.mu.Unlock()
	if g.CreateFunc != nil {
		return g.CreateFunc(ctx, inv)
	}
	return "track-1", "https://gateway.example/start/track-1", nil
}

func (g *MockGateway) Verify(ctx context.Context, req adapter.VerifyRequest) (adapter.VerifyResult, error) {
	g.mu.Lock()
	g.VerifyCalls = append(g.VerifyCalls, req)
	g.mu.Unlock()
	if g.VerifyFunc != nil {
		return g.VerifyFunc(ctx, req)
	}
	return adapter.VerifyResult{Settled: true, RawCode: 100}, nil
}

func (g *MockGateway) VerifyCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.VerifyCalls)
}
