package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenType is used when a stored Google credential carries no token type
const DefaultTokenType = "Bearer"

// UserCredentials is the JSON blob stored as one secret version.
// A nil field means that credential type has never been saved.
type UserCredentials struct {
	Google *GoogleCredentials `json:"google,omitempty"`
	Asana  AsanaCredentials   `json:"asana,omitempty"`
}

// GoogleCredentials holds the OAuth tokens issued by Google for a user
type GoogleCredentials struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiryDate   int64  `json:"expiry_date,omitempty"` // milliseconds since epoch
}

// NewGoogleCredentials builds a normalized GoogleCredentials value from raw JSON.
// An empty or null document yields nil.
func NewGoogleCredentials(raw json.RawMessage) (*GoogleCredentials, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var g GoogleCredentials
	if err := json.Unmarshal(trimmed, &g); err != nil {
		return nil, err
	}

	g.AccessToken = strings.TrimSpace(g.AccessToken)
	g.RefreshToken = strings.TrimSpace(g.RefreshToken)
	g.IDToken = strings.TrimSpace(g.IDToken)
	g.Scope = strings.Join(strings.Fields(g.Scope), " ")
	g.TokenType = strings.TrimSpace(g.TokenType)
	if g.TokenType == "" {
		g.TokenType = DefaultTokenType
	}

	return &g, nil
}

// Token converts the credentials into an oauth2 token
func (g *GoogleCredentials) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  g.AccessToken,
		TokenType:    g.TokenType,
		RefreshToken: g.RefreshToken,
	}
	if g.ExpiryDate > 0 {
		tok.Expiry = time.UnixMilli(g.ExpiryDate)
	}
	if g.IDToken != "" {
		tok = tok.WithExtra(map[string]any{"id_token": g.IDToken})
	}
	return tok
}

// AsanaCredentials is kept as the raw JSON value the client supplied.
// It is stored and returned without interpretation.
type AsanaCredentials json.RawMessage

// MarshalJSON returns the raw value, or null when empty
func (a AsanaCredentials) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return a, nil
}

// UnmarshalJSON copies the raw value; a JSON null leaves it empty
func (a *AsanaCredentials) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}
	*a = append((*a)[0:0], data...)
	return nil
}

// GoogleTokenStatus reports whether the stored Google access token can still be used
type GoogleTokenStatus struct {
	Valid  bool       `json:"valid"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// Status evaluates the credentials as an oauth2 token at the current time
func (g *GoogleCredentials) Status() *GoogleTokenStatus {
	tok := g.Token()
	status := &GoogleTokenStatus{Valid: tok.Valid()}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		status.Expiry = &expiry
	}
	return status
}

// CredentialsResponse is returned by GET /credentials
type CredentialsResponse struct {
	SecretName  string             `json:"secret-name"`
	Credentials UserCredentials    `json:"credentials"`
	GoogleToken *GoogleTokenStatus `json:"google-token,omitempty"` // nil when no Google credentials are stored
}

// NewCredentialsResponse wraps creds and reports the state of the Google token
func NewCredentialsResponse(secretName string, creds UserCredentials) CredentialsResponse {
	resp := CredentialsResponse{SecretName: secretName, Credentials: creds}
	if creds.Google != nil {
		resp.GoogleToken = creds.Google.Status()
	}
	return resp
}

// VersionResponse is returned after a credential has been saved
type VersionResponse struct {
	SecretName string `json:"secret-name"`
	Version    string `json:"version"`
}
