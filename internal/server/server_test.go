package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/influence"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/logging"
)

type fakePipeline struct {
	report    *model.BatchReport
	err       error
	applied   bool
	strategy  influence.Strategy
	proposals []model.EmergingArchetype
}

func (f *fakePipeline) ProcessContent(ctx context.Context, items []model.ContentItem) (*model.BatchReport, error) {
	return f.report, f.err
}

func (f *fakePipeline) ApplyReport(ctx context.Context, items []model.ContentItem, report *model.BatchReport) ([]model.Archetype, error) {
	f.applied = true
	return []model.Archetype{{ID: "new", Label: "Mob Wife"}}, nil
}

func (f *fakePipeline) IdentifyEmergingArchetypes(ctx context.Context, items []model.ContentItem) ([]model.EmergingArchetype, error) {
	return f.proposals, f.err
}

func (f *fakePipeline) UpdateInfluenceScores(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{"a1": 0.4}, f.err
}

func (f *fakePipeline) ScoreContent(archetypeID string, items []model.ContentItem, strategy influence.Strategy) map[string]float64 {
	f.strategy = strategy
	out := map[string]float64{}
	for _, item := range items {
		out[item.ID] = 0.5
	}
	return out
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, p Pipeline, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	NewServer(p, logging.Discard()).SetupRouter().ServeHTTP(w, req)
	return w
}

var oneItem = map[string]any{"items": []map[string]any{{"id": "p1", "text": "hello"}}}

func TestClassify(t *testing.T) {
	p := &fakePipeline{report: &model.BatchReport{BatchID: "b1", Stage: model.StageReported}}

	w := do(t, p, http.MethodPost, "/v1/content/classify", oneItem)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, p.applied)

	var resp struct {
		Report model.BatchReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "b1", resp.Report.BatchID)
}

func TestClassify_Persist(t *testing.T) {
	p := &fakePipeline{report: &model.BatchReport{BatchID: "b1"}}

	w := do(t, p, http.MethodPost, "/v1/content/classify?persist=true", oneItem)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.applied)
	assert.Contains(t, w.Body.String(), "Mob Wife")
}

func TestClassify_BadInput(t *testing.T) {
	w := do(t, &fakePipeline{}, http.MethodPost, "/v1/content/classify", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.NewDataError("p1", "vector length %d does not match %d", 2, 3), http.StatusUnprocessableEntity},
		{&common.ProviderError{Provider: "openai", Operation: "embed", Err: errors.New("503")}, http.StatusBadGateway},
		{common.NewConfigurationError("llm.api_key", "missing"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := do(t, &fakePipeline{err: tt.err}, http.MethodPost, "/v1/archetypes/emerging", oneItem)
		assert.Equal(t, tt.want, w.Code, tt.err.Error())
	}
}

func TestEmerging(t *testing.T) {
	p := &fakePipeline{proposals: []model.EmergingArchetype{{SuggestedLabel: "Coastal Grandma"}}}
	w := do(t, p, http.MethodPost, "/v1/archetypes/emerging", oneItem)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Coastal Grandma")
}

func TestUpdateInfluence(t *testing.T) {
	w := do(t, &fakePipeline{}, http.MethodPost, "/v1/archetypes/influence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"scores": {"a1": 0.4}}`, w.Body.String())
}

func TestContentInfluence(t *testing.T) {
	p := &fakePipeline{}
	body := map[string]any{"items": oneItem["items"], "strategy": "growth"}

	w := do(t, p, http.MethodPost, "/v1/archetypes/a1/content-influence", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, influence.StrategyGrowth, p.strategy)
	assert.JSONEq(t, `{"archetype_id": "a1", "scores": {"p1": 0.5}}`, w.Body.String())

	body["strategy"] = "vibes"
	w = do(t, p, http.MethodPost, "/v1/archetypes/a1/content-influence", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	w := do(t, &fakePipeline{}, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, &fakePipeline{}, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
