package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/testutils"
	"github.com/aretw0/weft/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	eng, err := weft.New()
	require.NoError(t, err)
	return NewHandler(eng, logging.NewNop())
}

func postFlow(t *testing.T, handler http.Handler, path string, doc any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, weft.Version, payload["version"])
}

func TestValidateEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := postFlow(t, handler, "/v1/flows/validate", testutils.ToDocument(testutils.AgentFlow()))
	require.Equal(t, http.StatusOK, rec.Code)

	var report weft.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Valid, "errors: %v", report.Errors)
	assert.False(t, report.Autofixed)
}

func TestValidateEndpointWithFix(t *testing.T) {
	handler := newTestHandler(t)

	g := testutils.LinearFlow()
	g.Nodes = append(g.Nodes, testutils.NewStep("Node1", "base.code", 500, 300))

	rec := postFlow(t, handler, "/v1/flows/validate?fix=1", testutils.ToDocument(g))
	require.Equal(t, http.StatusOK, rec.Code)

	var report weft.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Autofixed)
	assert.NotEmpty(t, report.Fixes)
	require.NotNil(t, report.Normalized)
	assert.Nil(t, report.Normalized.StepByName("Node1"))
}

func TestValidateEndpointBadJSON(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/flows/validate", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.NotEmpty(t, entries)

	req = httptest.NewRequest(http.MethodGet, "/v1/catalog/agents.agent", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entry catalog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, catalog.CategoryAgent, entry.Category)

	req = httptest.NewRequest(http.MethodGet, "/v1/catalog/vendor.unknown", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
