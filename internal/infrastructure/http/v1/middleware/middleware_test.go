package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobill/internal/core/apperror"
	appctx "autobill/internal/core/context"
)

func newEngine(routes func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	routes(r)
	return r
}

func serve(t *testing.T, r http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func TestRecovery_WritesInternalError(t *testing.T) {
	r := newEngine(func(r *gin.Engine) {
		r.GET("/boom", func(c *gin.Context) { panic("nil map") })
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w, body := serve(t, r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.Equal(t, "req-1", body["details"].(map[string]any)["request_id"])
}

func TestErrorHandler(t *testing.T) {
	r := newEngine(func(r *gin.Engine) {
		r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("socket closed")) })
		r.GET("/conflict", func(c *gin.Context) {
			_ = c.Error(apperror.NewConcurrentModification("invoice", "42"))
		})
		r.GET("/internal", func(c *gin.Context) {
			_ = c.Error(apperror.NewInternal(errors.New("deadlock")))
		})
		r.GET("/written", func(c *gin.Context) {
			c.JSON(http.StatusAccepted, gin.H{"ok": true})
			_ = c.Error(errors.New("late"))
		})
	})

	w, body := serve(t, r, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "socket closed")

	w, body = serve(t, r, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeConcurrentModification, body["code"])
	assert.NotNil(t, body["details"])

	w, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")

	w, body = serve(t, r, httptest.NewRequest(http.MethodGet, "/written", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, true, body["ok"])
}

func TestTrace_GeneratesIDs(t *testing.T) {
	var seen *appctx.TraceContext
	r := newEngine(func(r *gin.Engine) {
		r.GET("/", func(c *gin.Context) {
			seen = appctx.GetTrace(c.Request.Context())
			c.Status(http.StatusNoContent)
		})
	})

	w, _ := serve(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.NotEmpty(t, seen.RequestID)
	assert.Equal(t, seen.RequestID, w.Header().Get(HeaderRequestID))
	assert.Equal(t, seen.TraceID, w.Header().Get(HeaderTraceID))
}

func TestRequireRole(t *testing.T) {
	withOperator := func(op *appctx.Operator) gin.HandlerFunc {
		return func(c *gin.Context) {
			if op != nil {
				c.Request = c.Request.WithContext(appctx.WithOperator(c.Request.Context(), op))
			}
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	tests := []struct {
		name    string
		enabled bool
		op      *appctx.Operator
		want    int
	}{
		{name: "disabled", enabled: false, want: http.StatusNoContent},
		{name: "anonymous", enabled: true, want: http.StatusUnauthorized},
		{name: "wrong role", enabled: true, op: &appctx.Operator{Roles: []string{"clerk"}}, want: http.StatusForbidden},
		{name: "admin", enabled: true, op: &appctx.Operator{Roles: []string{"clerk", "admin"}}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(func(r *gin.Engine) {
				r.GET("/", withOperator(tt.op), RequireRole(tt.enabled, "admin"), ok)
			})
			w, _ := serve(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
