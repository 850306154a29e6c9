package mocks

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"credentialsManagerAPI/internal/models"
)

// MockAccounts implements handlers.AccountStore in memory for tests
type MockAccounts struct {
	mu       sync.Mutex
	accounts map[string]models.Account

	// Forced errors, returned before touching the map
	CreateErr error
	GetErr    error
	UpdateErr error
	DeleteErr error
}

func NewMockAccounts() *MockAccounts {
	return &MockAccounts{accounts: make(map[string]models.Account)}
}

func (m *MockAccounts) Create(_ context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.accounts[username]; ok {
		return errors.AlreadyExistsf("account %q", username)
	}
	m.accounts[username] = models.Account{Username: username, Password: passwordHash}
	return nil
}

func (m *MockAccounts) Get(_ context.Context, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	account, ok := m.accounts[username]
	if !ok {
		return nil, errors.NotFoundf("account %q", username)
	}
	return &account, nil
}

func (m *MockAccounts) UpdatePassword(_ context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.accounts[username]; !ok {
		return errors.NotFoundf("account %q", username)
	}
	m.accounts[username] = models.Account{Username: username, Password: passwordHash}
	return nil
}

func (m *MockAccounts) Delete(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.accounts[username]; !ok {
		return errors.NotFoundf("account %q", username)
	}
	delete(m.accounts, username)
	return nil
}

// Has reports whether an account is stored
func (m *MockAccounts) Has(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[username]
	return ok
}
