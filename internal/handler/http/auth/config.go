// Package auth guards the mutating news routes with an HS256 admin JWT and
// issues those tokens from the configured admin credentials.
package auth

import (
	"time"
)

// RoleAdmin is the only role this service issues.
const RoleAdmin = "admin"

const defaultTokenTTL = time.Hour

// Config holds the signing secret and the single admin account.
// An empty Secret disables authentication entirely.
type Config struct {
	Secret        []byte
	AdminUser     string
	AdminPassword string
	TokenTTL      time.Duration
	// Now is the clock used for issuing and checking tokens; nil means time.Now.
	Now func() time.Time
}

// Enabled reports whether mutating routes require a token.
func (c Config) Enabled() bool {
	return len(c.Secret) > 0
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) ttl() time.Duration {
	if c.TokenTTL <= 0 {
		return defaultTokenTTL
	}
	return c.TokenTTL
}
