package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/api"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/metrics"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/store"
)

func newTestServer(t *testing.T, mutate func(*api.Config)) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	cfg := api.Config{
		Assessment: []assessment.Option{
			assessment.WithSeed(7),
			assessment.WithClock(func() time.Time { return time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC) }),
		},
		Store:     mem,
		Metrics:   metrics.New(),
		RateLimit: 1000,
		RateBurst: 1000,
		Version:   "test",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := api.New(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, mem
}

func postAssessment(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/assessments", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_HealthAndVersion(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(ts.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	var v map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "test", v["version"])
	assert.Equal(t, rubric.FrameworkVersion, v["framework_version"])
}

func TestServer_Dimensions(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/dimensions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var dims []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dims))
	assert.Len(t, dims, rubric.Default().Len())
}

func TestServer_CreateAndFetchAssessment(t *testing.T) {
	ts, mem := newTestServer(t, nil)

	resp := postAssessment(t, ts, `{"system_name":"Atlas","seed":42,"domain":"medical"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created api.AssessmentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "/api/v1/assessments/"+created.ID, resp.Header.Get("Location"))
	require.NotNil(t, created.Result)
	assert.Equal(t, "Atlas", created.Result.SystemName)
	require.NotNil(t, created.Validation)
	assert.Equal(t, "medical", created.Validation.Profile)

	hash, err := report.ContentHash(created.Result)
	require.NoError(t, err)
	assert.Equal(t, hash, created.ContentHash)

	// same seed, same scores
	again := postAssessment(t, ts, `{"system_name":"Atlas","seed":42}`)
	var second api.AssessmentResponse
	require.NoError(t, json.NewDecoder(again.Body).Decode(&second))
	assert.Equal(t, created.Result.DimensionScores, second.Result.DimensionScores)
	assert.NotEqual(t, created.ID, second.ID)

	get, err := http.Get(ts.URL + "/api/v1/assessments/" + created.ID)
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, http.StatusOK, get.StatusCode)
	var fetched api.AssessmentResponse
	require.NoError(t, json.NewDecoder(get.Body).Decode(&fetched))
	assert.Equal(t, created.Result.CompositeScore, fetched.Result.CompositeScore)
	assert.Equal(t, created.ContentHash, fetched.ContentHash)

	recs, err := mem.ListBySystem(context.Background(), "Atlas", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	list, err := http.Get(ts.URL + "/api/v1/systems/Atlas/assessments?limit=1")
	require.NoError(t, err)
	defer list.Body.Close()
	var summaries []api.AssessmentSummary
	require.NoError(t, json.NewDecoder(list.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, second.ID, summaries[0].ID)
}

func TestServer_BreakdownAndLatest(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	first := postAssessment(t, ts, `{"system_name":"Atlas","seed":1}`)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	second := postAssessment(t, ts, `{"system_name":"Atlas","seed":2}`)
	var created api.AssessmentResponse
	require.NoError(t, json.NewDecoder(second.Body).Decode(&created))

	resp, err := http.Get(ts.URL + "/api/v1/assessments/" + created.ID + "/breakdown")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var b api.BreakdownResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	assert.Equal(t, created.ID, b.ID)
	require.NotNil(t, b.Explanation)
	assert.Equal(t, created.Result.CompositeScore, b.Breakdown.CompositeScore)
	assert.Len(t, b.Breakdown.DimensionContributions, rubric.Default().Len())
	assert.Len(t, b.Dimensions, rubric.Default().Len())
	assert.Positive(t, b.Overall.Count)

	latest, err := http.Get(ts.URL + "/api/v1/systems/Atlas/latest")
	require.NoError(t, err)
	defer latest.Body.Close()
	require.Equal(t, http.StatusOK, latest.StatusCode)
	var got api.AssessmentResponse
	require.NoError(t, json.NewDecoder(latest.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)

	for _, path := range []string{"/api/v1/systems/Nobody/latest", "/api/v1/assessments/missing/breakdown"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestServer_DomainsIncludeProfilesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "education.yaml"), []byte("name: Education\nmin_safety_score: 80\n"), 0o600))
	ts, _ := newTestServer(t, func(c *api.Config) { c.ProfilesDir = dir })

	resp, err := http.Get(ts.URL + "/api/v1/domains")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profiles []domain.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profiles))

	var codes []string
	for _, p := range profiles {
		codes = append(codes, p.Code)
	}
	assert.Contains(t, codes, "education")
	assert.Contains(t, codes, "medical")

	created := postAssessment(t, ts, `{"system_name":"Atlas","domain":"education"}`)
	assert.Equal(t, http.StatusCreated, created.StatusCode)
}

func TestServer_CreateAssessment_Errors(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"system_name":`, http.StatusBadRequest},
		{"missing name", `{"seed":1}`, http.StatusBadRequest},
		{"blank name", `{"system_name":"   "}`, http.StatusBadRequest},
		{"unknown field", `{"system_name":"Atlas","level":3}`, http.StatusBadRequest},
		{"unknown domain", `{"system_name":"Atlas","domain":"space_exploration"}`, http.StatusUnprocessableEntity},
		{"too large", `{"system_name":"` + strings.Repeat("a", api.MaxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postAssessment(t, ts, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestServer_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/assessments/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/systems/Atlas/assessments?limit=zero")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	postAssessment(t, ts, `{"system_name":"Atlas","domain":"financial"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "agi_aef_assessments_total 1")
	assert.Contains(t, string(body), `agi_aef_assessments_by_domain{domain="financial"} 1`)
}

func TestServer_RequiresTokenWhenConfigured(t *testing.T) {
	ts, _ := newTestServer(t, func(c *api.Config) { c.JWTSecret = "s3cret" })

	resp, err := http.Get(ts.URL + "/api/v1/dimensions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/assessments",
		bytes.NewBufferString(`{"system_name":"Atlas"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s3cret", "ops", time.Now().Add(time.Hour)))
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusCreated, authed.StatusCode)

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_RejectsUnknownDefaultDomain(t *testing.T) {
	_, err := api.New(api.Config{DefaultDomain: "space_exploration"})
	assert.Error(t, err)
}

func TestServer_ListenAndServeShutsDown(t *testing.T) {
	srv, err := api.New(api.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
