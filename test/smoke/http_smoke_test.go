package smoke

import (
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rajasatyajit/lifesaver/internal/api"
	"github.com/rajasatyajit/lifesaver/internal/intake"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/store"
)

func TestHealthAndReportsSmoke(t *testing.T) {
	logger.Init("error", "text")
	svc := intake.NewService(store.NewInMemoryStore())
	h := api.NewHandler(svc, api.Options{Version: "dev"})
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/health", nil))
	if rec.Code != 200 {
		t.Fatalf("/v1/health %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/reports", strings.NewReader(`{"lat":47.6,"lng":-122.3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec2, req)
	if rec2.Code != 201 {
		t.Fatalf("POST /v1/reports %d", rec2.Code)
	}

	rec3 := httptest.NewRecorder()
	r.ServeHTTP(rec3, httptest.NewRequest("GET", "/v1/reports", nil))
	if rec3.Code != 200 || !strings.Contains(rec3.Body.String(), `"count":1`) {
		t.Fatalf("/v1/reports %d %s", rec3.Code, rec3.Body.String())
	}
}
