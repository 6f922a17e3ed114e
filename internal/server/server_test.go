package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/assistant"
	"github.com/xraph/blueprint/internal/config"
	"github.com/xraph/blueprint/internal/generator"
	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/pipeline"
	"github.com/xraph/blueprint/internal/project"
	"github.com/xraph/blueprint/internal/realtime"
	"github.com/xraph/blueprint/internal/template"
)

// newTestServer wires a server with real in-memory collaborators and a
// quiet logger. The registry's periodic tasks are not started; tests
// drive it directly.
func newTestServer(t *testing.T) (*Server, *realtime.Registry) {
	t.Helper()

	log := logger.NewNoop()
	rtConfig := realtime.DefaultConfig()
	registry := realtime.NewRegistry(rtConfig, log)
	t.Cleanup(func() {
		require.NoError(t, registry.Shutdown(context.Background()))
	})

	catalog := template.NewCatalog()
	projects := project.NewStore()
	runner := pipeline.NewRunner(pipeline.Config{
		MaxConcurrentBuilds: 2,
		PhaseDelay:          0,
	}, projects, generator.New(catalog), registry, log)
	t.Cleanup(func() {
		require.NoError(t, runner.Shutdown(context.Background()))
	})

	srv := New(config.ServerConfig{Addr: ":0"}, Deps{
		Logger:         log,
		Registry:       registry,
		Projects:       projects,
		Templates:      catalog,
		Runner:         runner,
		Assistant:      assistant.New(catalog),
		RealtimeConfig: rtConfig,
	})

	return srv, registry
}

// doJSON performs a request against the handler with the caller
// identity header set and the body marshaled as JSON.
func doJSON(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(identityHeader, user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	require.Equal(t, "ok", body["status"])
}

func TestServer_RequireIdentity(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/projects", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody[errorBody](t, rec)
	require.Equal(t, "UNAUTHENTICATED", body.Error.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/nope", "u1", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
