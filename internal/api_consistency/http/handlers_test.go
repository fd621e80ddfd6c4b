package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
)

const pingFacts = `{
  "repo": "ping-svc",
  "containers": [{"id": "api", "name": "api", "file": "src/api.js"}],
  "mounts": [],
  "endpoints": [
    {"container": "api", "method": "GET", "path": "/ping", "file": "src/api.js", "line": 3}
  ],
  "calls": [
    {"url": "` + "`${PING_BASE}/ping`" + `", "method": "GET", "file": "web/client.ts", "line": 8}
  ]
}`

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	h := NewHandler(nil, classify.Defaults(), t.TempDir(), t.TempDir(), "")
	h.Register(r.Group("/api/v1/consistency"))
	return r
}

func TestCheckRaw(t *testing.T) {
	router := setupRouter(t)

	body, err := json.Marshal(CheckRawRequest{Facts: json.RawMessage(pingFacts)})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/consistency/check-raw", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.RunID, 16)
	assert.Empty(t, resp.ReportID)
	require.NotNil(t, resp.Report)
	assert.Len(t, resp.Report.Issues, 0)
	assert.Equal(t, 100, resp.Summary.Score)
}

func TestCheckRawClassifyOverride(t *testing.T) {
	router := setupRouter(t)

	body, err := json.Marshal(CheckRawRequest{
		Facts:    json.RawMessage(pingFacts),
		Classify: "external_env_vars:\n  - PING_BASE\n",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/consistency/check-raw", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	// the call now targets an external service, leaving the endpoint orphaned
	require.Len(t, resp.Report.Issues, 1)
	assert.Equal(t, "orphaned_endpoint", string(resp.Report.Issues[0].Kind))
}

func TestCheckRawValidation(t *testing.T) {
	router := setupRouter(t)

	t.Run("rejects invalid json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/consistency/check-raw", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires facts", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/consistency/check-raw", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "facts is required")
	})

	t.Run("rejects bad classify yaml", func(t *testing.T) {
		body, _ := json.Marshal(CheckRawRequest{
			Facts:    json.RawMessage(pingFacts),
			Classify: "no_such_key:\n  - x\n",
		})
		req := httptest.NewRequest("POST", "/api/v1/consistency/check-raw", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid classify config")
	})
}

func TestCheckUpload(t *testing.T) {
	router := setupRouter(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("file", "shop-facts.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(pingFacts))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/v1/consistency/check", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.RunID, 16)
	assert.Equal(t, 100, resp.Summary.Score)
}

func TestCheckUploadRequiresFile(t *testing.T) {
	router := setupRouter(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("title", "no file"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/v1/consistency/check", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "file is required")
}

func TestGraphDOT(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/consistency/graph.dot", bytes.NewBufferString(pingFacts))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "digraph")
	assert.Contains(t, rr.Body.String(), "api")
}

func TestReportRoutesWithoutStorage(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{
		"/api/v1/consistency/reports/abc",
		"/api/v1/consistency/projects/p1/reports",
		"/api/v1/consistency/projects/p1/reports/latest",
	} {
		req := httptest.NewRequest("GET", path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/consistency/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "analyses_run")
}
