package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/coder4-c/survivor-support/internal/config"
)

// Validator checks bearer tokens on admin routes against a remote JWKS.
// When auth is disabled in configuration the middleware passes every request
// through, which keeps local development free of an identity provider.
type Validator struct {
	enabled bool
	issuer  string
	jwks    *keyfunc.JWKS
	log     zerolog.Logger
}

func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := &Validator{
		enabled: cfg.AuthEnabled,
		issuer:  cfg.AuthIssuer,
		log:     log.With().Str("component", "auth").Logger(),
	}
	if !cfg.AuthEnabled {
		v.log.Warn().Msg("admin authentication disabled")
		return v, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:              ctx,
		RefreshInterval:  time.Hour,
		RefreshRateLimit: 5 * time.Minute,
		RefreshErrorHandler: func(err error) {
			v.log.Error().Err(err).Msg("jwks refresh failed")
		},
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	v.jwks = jwks
	return v, nil
}

// Middleware returns the gin handler enforcing a valid bearer token.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.enabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, v.jwks.Keyfunc,
			jwt.WithIssuer(v.issuer),
			jwt.WithExpirationRequired(),
			jwt.WithValidMethods([]string{"RS256", "ES256"}),
		)
		if err != nil || !token.Valid {
			v.log.Warn().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if sub, err := claims.GetSubject(); err == nil {
			c.Set("subject", sub)
		}
		c.Next()
	}
}

// Ready reports whether the validator can verify tokens.
func (v *Validator) Ready() bool {
	return !v.enabled || v.jwks != nil
}

// Shutdown stops background JWKS refreshes.
func (v *Validator) Shutdown() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
