package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is stamped on tokens when no issuer is configured
const DefaultIssuer = "credentials-manager"

// JWTGenerator issues tokens; login only needs this half of JWT
type JWTGenerator interface {
	Generate(username string) (string, error)
}

// JWT issues and verifies tokens
type JWT interface {
	JWTGenerator
	Verify(token string) (*Claims, error)
}

// JWTManager handles creation and verification of JWT tokens
type JWTManager struct {
	SecretKey     string
	TokenDuration time.Duration
	Issuer        string
}

// Claims contains JWT claims. The username doubles as the name of the user's credentials secret.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWTManager
func NewJWTManager(secretKey string, duration time.Duration, issuer string) *JWTManager {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &JWTManager{
		SecretKey:     secretKey,
		TokenDuration: duration,
		Issuer:        issuer,
	}
}

// Generate creates a signed JWT for a username
func (j *JWTManager) Generate(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.SecretKey))
}

// Verify parses and validates a JWT token
func (j *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.SecretKey), nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Username == "" {
		return nil, errors.New("token has no username")
	}

	return claims, nil
}
