package mocks

import "credentialsManagerAPI/internal/auth"

type MockJWTManager struct {
	Token       string
	GenerateErr error
	VerifyErr   error
	Claims      *auth.Claims
	// Generated records every username a token was issued for
	Generated []string
}

func (m *MockJWTManager) Generate(username string) (string, error) {
	m.Generated = append(m.Generated, username)
	return m.Token, m.GenerateErr
}

func (m *MockJWTManager) Verify(token string) (*auth.Claims, error) {
	return m.Claims, m.VerifyErr
}
