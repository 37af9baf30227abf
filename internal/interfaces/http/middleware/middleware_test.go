package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type rosterFunc func(int64) bool

func (f rosterFunc) IsOperator(id int64) bool { return f(id) }

func newEngine(auth *AdminAuthMiddleware) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), Logger(logger.NewNopLogger()), Recovery(logger.NewNopLogger()))
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })
	if auth != nil {
		engine.GET("/admin", auth.RequireOperator(), func(c *gin.Context) {
			id, ok := GetOperatorID(c)
			if !ok {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, gin.H{"operator": id})
		})
	}
	return engine
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	engine.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestAdminAuth(t *testing.T) {
	auth := NewAdminAuthMiddleware("s3cret", rosterFunc(func(id int64) bool { return id == 900 }), logger.NewNopLogger())
	engine := newEngine(auth)

	tests := []struct {
		name     string
		token    string
		operator string
		want     int
	}{
		{"missing token", "", "900", http.StatusUnauthorized},
		{"wrong token", "nope", "900", http.StatusUnauthorized},
		{"missing operator", "s3cret", "", http.StatusBadRequest},
		{"non numeric operator", "s3cret", "admin", http.StatusBadRequest},
		{"not an operator", "s3cret", "901", http.StatusForbidden},
		{"operator", "s3cret", "900", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.token != "" {
				req.Header.Set(AdminTokenHeader, tt.token)
			}
			if tt.operator != "" {
				req.Header.Set(OperatorIDHeader, tt.operator)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAdminAuth_EmptyTokenRejectsEverything(t *testing.T) {
	auth := NewAdminAuthMiddleware("", rosterFunc(func(int64) bool { return true }), logger.NewNopLogger())
	engine := newEngine(auth)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(OperatorIDHeader, "900")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecovery(t *testing.T) {
	engine := newEngine(nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error occurred")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
