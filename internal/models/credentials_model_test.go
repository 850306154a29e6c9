package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Absent credential types must not appear as keys in the stored JSON
func TestUserCredentials_JSONMarshal_OmitsAbsentKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    UserCredentials
		expected string
	}{
		{
			name:     "empty credentials",
			input:    UserCredentials{},
			expected: `{}`,
		},
		{
			name:     "only google",
			input:    UserCredentials{Google: &GoogleCredentials{AccessToken: "a", TokenType: "Bearer"}},
			expected: `{"google":{"access_token":"a","token_type":"Bearer"}}`,
		},
		{
			name:     "only asana",
			input:    UserCredentials{Asana: AsanaCredentials(`{"token":"t"}`)},
			expected: `{"asana":{"token":"t"}}`,
		},
		{
			name: "both",
			input: UserCredentials{
				Google: &GoogleCredentials{RefreshToken: "r"},
				Asana:  AsanaCredentials(`{"token":"t"}`),
			},
			expected: `{"google":{"refresh_token":"r"},"asana":{"token":"t"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.input)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(b))
		})
	}
}

// Asana values are carried through untouched, whatever their shape
func TestAsanaCredentials_PassThrough(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		asana   string
	}{
		{name: "object", payload: `{"asana":{"token":"t","extra":[1,2]}}`, asana: `{"token":"t","extra":[1,2]}`},
		{name: "string", payload: `{"asana":"just-a-token"}`, asana: `"just-a-token"`},
		{name: "number", payload: `{"asana":42}`, asana: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var uc UserCredentials
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &uc))
			assert.JSONEq(t, tt.asana, string(uc.Asana))

			b, err := json.Marshal(uc)
			require.NoError(t, err)
			assert.JSONEq(t, tt.payload, string(b))
		})
	}
}

func TestAsanaCredentials_NullIsEmpty(t *testing.T) {
	var uc UserCredentials
	require.NoError(t, json.Unmarshal([]byte(`{"asana":null}`), &uc))
	assert.Empty(t, uc.Asana)
}

func TestNewGoogleCredentials(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		expectNil bool
		expectErr bool
		expected  *GoogleCredentials
	}{
		{name: "absent", raw: ``, expectNil: true},
		{name: "null", raw: `null`, expectNil: true},
		{name: "not an object", raw: `"abc"`, expectErr: true},
		{
			name: "normalizes fields",
			raw:  `{"access_token":" at ","refresh_token":"rt\n","scope":"a   b\tc","expiry_date":1700000000000}`,
			expected: &GoogleCredentials{
				AccessToken:  "at",
				RefreshToken: "rt",
				Scope:        "a b c",
				TokenType:    DefaultTokenType,
				ExpiryDate:   1700000000000,
			},
		},
		{
			name:     "keeps explicit token type",
			raw:      `{"access_token":"at","token_type":"MAC"}`,
			expected: &GoogleCredentials{AccessToken: "at", TokenType: "MAC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGoogleCredentials(json.RawMessage(tt.raw))
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.expectNil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGoogleCredentials_Token(t *testing.T) {
	g := &GoogleCredentials{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "Bearer",
		IDToken:      "idt",
		ExpiryDate:   1700000000000,
	}

	tok := g.Token()
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.Type())
	assert.True(t, tok.Expiry.Equal(time.UnixMilli(1700000000000)))
	assert.Equal(t, "idt", tok.Extra("id_token"))
}

func TestGoogleCredentials_Status(t *testing.T) {
	tests := []struct {
		name       string
		creds      GoogleCredentials
		wantValid  bool
		wantExpiry bool
	}{
		{"expired", GoogleCredentials{AccessToken: "at", ExpiryDate: 1700000000000}, false, true},
		{"expires later", GoogleCredentials{AccessToken: "at", ExpiryDate: time.Now().Add(time.Hour).UnixMilli()}, true, true},
		{"no expiry", GoogleCredentials{AccessToken: "at"}, true, false},
		{"no access token", GoogleCredentials{RefreshToken: "rt", ExpiryDate: time.Now().Add(time.Hour).UnixMilli()}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.creds.Status()
			assert.Equal(t, tt.wantValid, status.Valid)
			if !tt.wantExpiry {
				assert.Nil(t, status.Expiry)
				return
			}
			require.NotNil(t, status.Expiry)
			assert.True(t, status.Expiry.Equal(time.UnixMilli(tt.creds.ExpiryDate)))
		})
	}
}

func TestNewCredentialsResponse(t *testing.T) {
	resp := NewCredentialsResponse("alice", UserCredentials{})
	assert.Nil(t, resp.GoogleToken)

	b, err := json.Marshal(NewCredentialsResponse("alice", UserCredentials{
		Google: &GoogleCredentials{AccessToken: "at", ExpiryDate: 1700000000000},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"secret-name": "alice",
		"credentials": {"google": {"access_token": "at", "expiry_date": 1700000000000}},
		"google-token": {"valid": false, "expiry": "2023-11-14T22:13:20Z"}
	}`, string(b))
}

func TestCredentialsResponse_Keys(t *testing.T) {
	b, err := json.Marshal(CredentialsResponse{SecretName: "alice"})
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "secret-name")
	assert.Contains(t, m, "credentials")
}
