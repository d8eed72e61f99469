package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/deppfellow/carsales/internal/errs"
	"github.com/deppfellow/carsales/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	// APIKeyHeader carries the key required by write endpoints.
	APIKeyHeader = "X-API-Key"

	// APIClientKey holds a short fingerprint of the accepted key.
	APIClientKey = "api_client"
)

// AuthMiddleware checks the X-API-Key header against the configured keys.
type AuthMiddleware struct {
	server *server.Server
	keys   [][]byte
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	keys := make([][]byte, 0, len(s.Config.Auth.APIKeys))
	for _, k := range s.Config.Auth.APIKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return &AuthMiddleware{server: s, keys: keys}
}

// RequireAPIKey rejects requests without the header with 401 and requests
// with an unknown key with 403.
func (auth *AuthMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		provided := c.Request().Header.Get(APIKeyHeader)
		if provided == "" {
			return errs.NewUnauthorizedError("Missing X-API-Key header.", true)
		}

		if !auth.valid([]byte(provided)) {
			GetLogger(c).Warn().
				Str("function", "RequireAPIKey").
				Str("request_id", GetRequestID(c)).
				Msg("rejected invalid api key")
			return errs.NewForbiddenError("Invalid API key.", true)
		}

		c.Set(APIClientKey, fingerprint(provided))
		return next(c)
	}
}

// valid compares against every key so timing does not reveal which one
// matched.
func (auth *AuthMiddleware) valid(provided []byte) bool {
	match := 0
	for _, k := range auth.keys {
		match |= subtle.ConstantTimeCompare(provided, k)
	}
	return match == 1
}

func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// GetAPIClient returns the key fingerprint set by RequireAPIKey.
func GetAPIClient(c echo.Context) string {
	if client, ok := c.Get(APIClientKey).(string); ok {
		return client
	}
	return ""
}
