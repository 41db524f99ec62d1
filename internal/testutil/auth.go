package testutil

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// MockAuthClient verifies only the tokens registered with AddMockUser.
type MockAuthClient struct {
	ValidTokens map[string]*auth.Token
}

func NewMockAuthClient() *MockAuthClient {
	return &MockAuthClient{ValidTokens: make(map[string]*auth.Token)}
}

func (m *MockAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if token, ok := m.ValidTokens[idToken]; ok {
		return token, nil
	}
	return nil, fmt.Errorf("invalid mock token")
}

func (m *MockAuthClient) AddMockUser(tokenString, uid, email string) {
	m.ValidTokens[tokenString] = &auth.Token{
		UID:    uid,
		Claims: map[string]interface{}{"email": email},
	}
}
