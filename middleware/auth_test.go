package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func newRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired(enabled, secret, "fde_jwt"))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, Operator(c))
	})
	return r
}

func sign(t *testing.T, key []byte, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ops@example.com",
		"exp":   exp.Unix(),
	})
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func get(r http.Handler, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_Disabled(t *testing.T) {
	w := get(newRouter(false), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "system@fde.internal", w.Body.String())
}

func TestAuthRequired_MissingToken(t *testing.T) {
	w := get(newRouter(true), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_BearerToken(t *testing.T) {
	token := sign(t, secret, time.Now().Add(time.Hour))
	w := get(newRouter(true), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops@example.com", w.Body.String())
}

func TestAuthRequired_Cookie(t *testing.T) {
	token := sign(t, secret, time.Now().Add(time.Hour))
	w := get(newRouter(true), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "fde_jwt", Value: token})
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired_Rejects(t *testing.T) {
	r := newRouter(true)

	wrongKey := sign(t, []byte("other"), time.Now().Add(time.Hour))
	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+wrongKey) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := sign(t, secret, time.Now().Add(-time.Hour))
	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+expired) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer not-a-jwt") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
