package bootstrap_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leavedesk/internal/bootstrap"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewHTTPServer_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	srv := bootstrap.NewHTTPServer(r, bootstrap.ServerConfig{
		Port:           "0",
		AllowedOrigins: []string{"https://rh.example.com"},
	})
	assert.Equal(t, ":0", srv.Addr)

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://rh.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()

		srv.Handler.ServeHTTP(w, req)

		assert.Equal(t, "https://rh.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin gets no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		srv.Handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
