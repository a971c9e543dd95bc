package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"outletchat/internal/mocks"
)

func protectedHandler(c echo.Context) error {
	return c.String(http.StatusOK, c.Get("uid").(string))
}

func TestAuthenticate(t *testing.T) {
	verifier := &mocks.TokenVerifierMock{}
	verifier.On("VerifyToken", mock.Anything, "good").Return("u1", nil)
	verifier.On("VerifyToken", mock.Anything, "bad").Return("", errors.New("expired"))
	m := NewAuthMiddleware(verifier)
	e := echo.New()

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, m.Authenticate(protectedHandler)(c))
		assert.Equal(t, tc.status, rec.Code, tc.header)
	}
}

func TestAuthenticateQuery(t *testing.T) {
	verifier := &mocks.TokenVerifierMock{}
	verifier.On("VerifyToken", mock.Anything, "good").Return("u1", nil)
	m := NewAuthMiddleware(verifier)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	rec := httptest.NewRecorder()
	assert.NoError(t, m.AuthenticateQuery(protectedHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec = httptest.NewRecorder()
	assert.NoError(t, m.AuthenticateQuery(protectedHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
