package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"outletchat/pkg/errors"
	"outletchat/pkg/response"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a Bearer ID token and stores its uid under "uid".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		return m.verify(c, parts[1], next)
	}
}

// AuthenticateQuery accepts the token as ?token= for clients that cannot set
// headers (browser websockets), falling back to the Authorization header.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return m.Authenticate(next)(c)
		}
		return m.verify(c, token, next)
	}
}

func (m *AuthMiddleware) verify(c echo.Context, token string, next echo.HandlerFunc) error {
	uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil || uid == "" {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	c.Set("uid", uid)
	return next(c)
}
