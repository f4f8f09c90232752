// README: Server route smoke tests.
package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRoutes_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewServer(ServerDeps{}).Routes()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}
