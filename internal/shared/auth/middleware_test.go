package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

const middlewareTestUserID = "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	log := logger.NewLogger("auth_test")

	called := false
	handler := JWTMiddleware(jwtSvc, log)(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/visits", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestJWTMiddlewarePassesActor(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	log := logger.NewLogger("auth_test")

	token, err := jwtSvc.GenerateToken(middlewareTestUserID, "eng@example.com", RoleEngineer)
	require.NoError(t, err)

	var got Actor
	handler := JWTMiddleware(jwtSvc, log)(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/visits", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, middlewareTestUserID, got.ID)
	assert.Equal(t, RoleEngineer, got.Role)
	assert.False(t, got.IsAdmin())
}

func TestJWTMiddlewareRejectsGarbageToken(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	log := logger.NewLogger("auth_test")

	handler := JWTMiddleware(jwtSvc, log)(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/visits", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareRejectsWrongScheme(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	log := logger.NewLogger("auth_test")

	handler := JWTMiddleware(jwtSvc, log)(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/visits", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
