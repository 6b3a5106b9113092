package server

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/alignment-checker/internal/config"
	"github.com/jonathan/alignment-checker/internal/server/middleware"
)

// Claims are the session token claims issued by the hosted auth provider.
// The user ID is the standard subject claim.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GetUserID returns the user ID from the claims.
// This implements the middleware.UserIDGetter interface.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// TokenVerifier validates HS256 session tokens signed with the auth provider's JWT secret.
// Tokens are never issued here.
type TokenVerifier struct {
	config config.AuthConfig
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier for the given auth configuration
func NewTokenVerifier(cfg config.AuthConfig) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenVerifier{config: cfg, parser: jwt.NewParser(opts...)}
}

// AsTokenValidator returns a TokenValidator adapter for this verifier.
// This allows the verifier to be used with middleware without creating import cycles.
func (v *TokenVerifier) AsTokenValidator() middleware.TokenValidator {
	return &verifierAdapter{verifier: v}
}

type verifierAdapter struct {
	verifier *TokenVerifier
}

func (a *verifierAdapter) ValidateToken(tokenString string) (middleware.UserIDGetter, error) {
	claims, err := a.verifier.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateToken validates a session token and returns its claims.
func (v *TokenVerifier) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(v.config.Secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}
