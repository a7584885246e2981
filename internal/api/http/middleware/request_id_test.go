package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge-labs/webforge-backend/internal/logging"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(logging.New("error")))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c.Request.Context()))
	})
	return r
}

func TestRequestID_EchoesClientHeader(t *testing.T) {
	r := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "rid-from-client")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-from-client", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "rid-from-client", w.Body.String())
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	r := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	rid := w.Header().Get(HeaderRequestID)
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, w.Body.String())
}

func TestRequestIDFrom_UntaggedContext(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
}
