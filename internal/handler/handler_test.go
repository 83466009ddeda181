package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/medadherence/internal/repository/sqlite"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"go.uber.org/zap"
)

// newTestAPI wires every handler over a fresh SQLite store
func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	settings := service.DefaultSettings()
	medications := service.NewMedicationService(store, store, settings.Location, logger)
	adherence := service.NewAdherenceService(store, store, settings, logger)
	metrics := service.NewMetricService(store, settings, logger)
	correlations := service.NewCorrelationService(store, store, store, store, settings, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, Handlers{
		Health:      NewHealthHandler(store, "sqlite", "test", logger),
		Adherence:   NewAdherenceHandler(adherence, logger),
		Medication:  NewMedicationHandler(medications, logger),
		Metric:      NewMetricHandler(metrics, logger),
		Correlation: NewCorrelationHandler(correlations, logger),
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
