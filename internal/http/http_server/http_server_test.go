package http_server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bollywoodgo/internal/services/game"
	"bollywoodgo/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestEngineRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := ws.NewHub()
	svc := game.NewGameService(hub, nil, nil, game.Options{})
	_, _ = svc.CreateRoom(context.Background(), "p1", "r1", "Asha")

	srv := NewHttpServer(3001, []string{"http://localhost:5173"},
		ws.NewWsServer(hub, svc, nil), svc, nil)
	engine := srv.Engine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","rooms":1}`, w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/r1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodOptions, "/rooms", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	cfg := corsConfig([]string{"http://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"http://a.example"}, cfg.AllowOrigins)
}
