package config

import "fmt"

// DefaultAudience is the audience claim the hosted auth provider puts on user session tokens
const DefaultAudience = "authenticated"

// minSecretLength rejects obviously truncated secrets
const minSecretLength = 16

// AuthConfig holds the settings for validating bearer tokens issued by the hosted auth provider.
// The service only verifies tokens; it never issues them.
type AuthConfig struct {
	Secret   string `mapstructure:"jwt_secret"`
	Audience string `mapstructure:"audience"`
	Issuer   string `mapstructure:"issuer"`
	// Disabled turns off authentication, for local development only
	Disabled bool `mapstructure:"disabled"`
}

// normalize validates the configuration.
func (c *AuthConfig) normalize() error {
	if c.Disabled {
		return nil
	}
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required unless auth is disabled")
	}
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters, got: %d", minSecretLength, len(c.Secret))
	}
	if c.Audience == "" {
		c.Audience = DefaultAudience
	}
	return nil
}
