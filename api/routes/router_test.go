package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crateful-app/crateful-backend/pkg/auth"
	"github.com/crateful-app/crateful-backend/pkg/config"
	"github.com/crateful-app/crateful-backend/pkg/enums"
	"github.com/crateful-app/crateful-backend/pkg/logger"
)

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	jwtCfg := config.JWTConfig{
		Secret:            "router-test-secret",
		Issuer:            "crateful-test",
		ExpirationMinutes: 5,
	}
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = jwtCfg

	logg := logger.New(logger.Options{ServiceName: "router-test"})
	return NewRouter(cfg, logg, nil, nil, nil, nil, nil, nil, nil, nil, nil), jwtCfg
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestRouterHealthLiveIsPublic(t *testing.T) {
	router, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterLibraryRequiresToken(t *testing.T) {
	router, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/library", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterAdminReconcileRejectsBuyers(t *testing.T) {
	router, jwtCfg := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.RoleBuyer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterWebhookRouteIsRegistered(t *testing.T) {
	router, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	// nil service wiring yields 500, not chi's 404/405
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
