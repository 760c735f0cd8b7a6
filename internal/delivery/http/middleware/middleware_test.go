package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-telehealth-booking/config"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/service"
	"go-telehealth-booking/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func signToken(t *testing.T, userID uuid.UUID, roleID int, tokenID string) string {
	t.Helper()
	claims := jwt.Claims{
		UserID:    userID,
		RoleID:    roleID,
		TokenType: jwt.AccessToken,
		TokenID:   tokenID,
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthMiddleware(t *testing.T) (*AuthMiddleware, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log, _ := test.NewNullLogger()
	return NewAuthMiddleware(jwt.NewJWTService(config.JWTConfig{Secret: testSecret}), client, log), mr
}

func callerEcho(t *testing.T, got *entity.Caller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := GetCallerFromContext(r.Context())
		require.True(t, ok)
		*got = caller
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	m, mr := newAuthMiddleware(t)
	userID := uuid.New()
	require.NoError(t, mr.Set(TokenKey(userID, "tok-1"), "1"))

	var got entity.Caller
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, entity.RoleIDDoctor, "tok-1"))
	rec := httptest.NewRecorder()

	m.Authenticate(callerEcho(t, &got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID, got.UserID)
	assert.True(t, got.IsDoctor())
}

func TestAuthenticate_Rejects(t *testing.T) {
	m, mr := newAuthMiddleware(t)
	userID := uuid.New()
	require.NoError(t, mr.Set(TokenKey(userID, "live"), "1"))

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token " + signToken(t, userID, entity.RoleIDPatient, "live"),
		"bad signature":  "Bearer " + signToken(t, userID, entity.RoleIDPatient, "live") + "x",
		"revoked":        "Bearer " + signToken(t, userID, entity.RoleIDPatient, "revoked"),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler must not run")
			})).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticate_RedisDown(t *testing.T) {
	m, mr := newAuthMiddleware(t)
	userID := uuid.New()
	token := signToken(t, userID, entity.RoleIDPatient, "tok")
	mr.SetError("ERR simulated failure")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	m.Authenticate(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	withRole := func(roleID int) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(contextWithRole(req, roleID))
	}

	rec := httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, withRole(entity.RoleIDAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	RequireDoctor(ok).ServeHTTP(rec, withRole(entity.RoleIDPatient))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	RequirePatient(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	metrics := service.NewMetrics(prometheus.NewRegistry())
	r := mux.NewRouter()
	r.HandleFunc("/appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	r.Use(NewMetricsMiddleware(metrics).Handle)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString(), nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "/appointments/{id}", "4xx")))
}

func TestCORS_Preflight(t *testing.T) {
	rec := httptest.NewRecorder()
	NewCORSMiddleware().Handle(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func contextWithRole(req *http.Request, roleID int) context.Context {
	return context.WithValue(req.Context(), RoleIDKey, roleID)
}
