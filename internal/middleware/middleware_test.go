package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T) (*gin.Engine, *cache.SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.NewRedisClient(mr.Addr(), "", 0, 10, 1)
	t.Cleanup(func() { _ = client.Close() })
	sessions := cache.NewSessionStore(client, time.Hour)

	r := gin.New()
	r.Use(NewJWTAuth(&JWTConfig{Secret: testSecret, Sessions: sessions}))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c)+"/"+GetUsername(c))
	})
	return r, sessions
}

func TestJWTAuth_BearerAndCookie(t *testing.T) {
	r, _ := newAuthRouter(t)
	userID := uuid.NewString()
	token, err := GenerateToken(userID, "alice", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID+"/alice", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_Rejects(t *testing.T) {
	r, _ := newAuthRouter(t)
	expired, err := GenerateToken(uuid.NewString(), "alice", testSecret, -time.Minute)
	require.NoError(t, err)
	forged, err := GenerateToken(uuid.NewString(), "alice", "other-secret", time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing": "",
		"expired": "Bearer " + expired,
		"forged":  "Bearer " + forged,
		"garbage": "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestJWTAuth_RevokedSession(t *testing.T) {
	r, sessions := newAuthRouter(t)
	userID := uuid.New()
	token, err := GenerateToken(userID.String(), "bob", testSecret, time.Hour)
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(context.Background(), userID, time.Now().Add(time.Second)))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(RequestTimeout(50 * time.Millisecond))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
