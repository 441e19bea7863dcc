package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/dispute-backend/internal/pkg/apperror"
)

type fakeTokens struct {
	userID uuid.UUID
	role   string
	err    error
}

func (f fakeTokens) ParseAccess(string) (uuid.UUID, string, error) {
	return f.userID, f.role, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		tokens fakeTokens
		header http.Header
		want   int
	}{
		{"no header", fakeTokens{userID: userID}, nil, http.StatusUnauthorized},
		{"wrong scheme", fakeTokens{userID: userID}, http.Header{"Authorization": []string{"Basic abc"}}, http.StatusUnauthorized},
		{"invalid token", fakeTokens{err: errors.New("expired")}, bearer("x"), http.StatusUnauthorized},
		{"nil user", fakeTokens{role: "user"}, bearer("x"), http.StatusUnauthorized},
		{"valid", fakeTokens{userID: userID, role: "user"}, bearer("x"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", AuthMiddleware(tt.tokens), func(c *gin.Context) {
				got, _ := c.Get(ContextUserIDKey)
				assert.Equal(t, userID, got)
				c.Status(http.StatusOK)
			})

			w := serve(r, http.MethodGet, "/me", tt.header)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		t.Run(role, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin",
				AuthMiddleware(fakeTokens{userID: uuid.New(), role: role}),
				RequireRole("admin"),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			w := serve(r, http.MethodGet, "/admin", bearer("x"))

			assert.Equal(t, want, w.Code)
		})
	}
}

func TestIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/disputes/:id", IDValidator("id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/disputes/12", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/disputes/0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/disputes/-3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/disputes/abc", nil).Code)
}

func TestCaseNumberValidator(t *testing.T) {
	r := gin.New()
	r.GET("/number/:caseNumber", CaseNumberValidator("caseNumber"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/number/DIS-2026-00042", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/number/DIS-26-42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/number/CASE-2026-00042", nil).Code)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperror.New(apperror.ErrCodeCaseClosed, "dispute is closed"))
	})
	r.GET("/infra", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed"))
	})
	r.GET("/db", func(c *gin.Context) {
		_ = c.Error(apperror.Wrap(errors.New("deadlock"), apperror.ErrCodeDatabaseError, "db failure"))
	})

	w := serve(r, http.MethodGet, "/app", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CASE_CLOSED")

	w = serve(r, http.MethodGet, "/infra", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = serve(r, http.MethodGet, "/db", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", http.Header{"Origin": []string{"https://app.example.com"}})
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": []string{"https://evil.example.com"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/x", http.Header{"Origin": []string{"https://app.example.com"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/disputes",
		AuthMiddleware(fakeTokens{userID: uuid.New(), role: "user"}),
		RateLimitMiddleware(2, time.Minute),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)

	for i := 0; i < 2; i++ {
		w := serve(r, http.MethodPost, "/disputes", bearer("x"))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := serve(r, http.MethodPost, "/disputes", bearer("x"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}
