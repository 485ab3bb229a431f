package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/history"
	"github.com/symptom-intake-server/internal/knowledge"
	"github.com/symptom-intake-server/internal/nlp"
	"github.com/symptom-intake-server/internal/recommendation"
	"github.com/symptom-intake-server/internal/service"
	"github.com/symptom-intake-server/pkg/external"
)

const tiredAndDizzy = "I've been feeling really tired and dizzy for the past few days"

type assessmentBody struct {
	ID       string                 `json:"id"`
	Analysis *domain.AnalysisResult `json:"analysis"`
	Plan     *domain.WellnessPlan   `json:"plan"`
	Error    *domain.ServiceError   `json:"error"`
}

func testConfig() *domain.Config {
	return &domain.Config{
		Server: domain.ServerConfig{Mode: gin.TestMode, ShutdownTimeout: time.Second},
		API: domain.APIConfig{
			MinInputLength:      10,
			MaxInputLength:      200,
			DefaultHistoryLimit: 3,
			CORSAllowedOrigins:  []string{"*"},
			WebSocketReadLimit:  64 * 1024,
			WebSocketPongWait:   5 * time.Second,
		},
		MCP: domain.MCPConfig{ServerVersion: "test"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithConfig(t, testConfig())
}

func newTestServerWithConfig(t *testing.T, cfg *domain.Config) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	caps := external.Capabilities{}
	pipeline := nlp.NewPipeline(knowledge.Default(), nil, caps, logger)
	engine := recommendation.NewEngine(nil, caps, logger)
	svc := service.NewAssessmentService(pipeline, engine, history.NewMemoryStore(10), caps, logger)

	return NewServer(cfg, svc, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *domain.ServiceError {
	t.Helper()
	var serr domain.ServiceError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &serr))
	return &serr
}

func TestHealthAndCapabilities(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = doJSON(t, s, http.MethodGet, "/api/v1/capabilities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status service.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.AdvancedNLP)
	assert.False(t, status.ChatBackend)
	assert.True(t, status.RecommendationsEnabled)
}

func TestHSTSFollowsServerConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.HSTS = true
	s := newTestServerWithConfig(t, cfg)

	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{name: "valid", body: AnalyzeRequest{Text: tiredAndDizzy}, wantCode: http.StatusOK},
		{name: "whitespace", body: AnalyzeRequest{Text: "   "}, wantCode: http.StatusBadRequest, wantErr: domain.ErrCodeEmptyInput},
		{name: "too short", body: AnalyzeRequest{Text: "tired"}, wantCode: http.StatusBadRequest, wantErr: domain.ErrCodeInvalidInput},
		{name: "too long", body: AnalyzeRequest{Text: strings.Repeat("a", 201)}, wantCode: http.StatusBadRequest, wantErr: domain.ErrCodeInvalidInput},
		{name: "malformed body", body: `{"text":`, wantCode: http.StatusBadRequest, wantErr: domain.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/v1/symptoms/analyze", tt.body)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				serr := decodeError(t, w)
				assert.Equal(t, tt.wantErr, serr.Code)
				assert.Equal(t, w.Header().Get("X-Correlation-ID"), serr.RequestID)
				return
			}

			var result domain.AnalysisResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, domain.IntentSymptomCheck, result.Intent)
			assert.Equal(t, 2, result.EntityCount)
			assert.Equal(t, domain.MethodRuleBasedFallback, result.ProcessingMethod)
		})
	}
}

func TestWellnessPlan(t *testing.T) {
	s := newTestServer(t)
	age := 70
	badAge := 0

	analysis := &domain.AnalysisResult{
		OriginalText: tiredAndDizzy,
		Intent:       domain.IntentSymptomCheck,
		MedicalEntities: []domain.MedicalEntity{
			{Text: "tired", Label: domain.LabelSymptom, Start: 20, End: 25, Confidence: 0.8},
		},
		EntityCount: 1,
		Confidence:  0.5,
	}

	w := doJSON(t, s, http.MethodPost, "/api/v1/wellness-plan", PlanRequest{
		Analysis: analysis,
		Context:  &domain.UserContext{Age: &age, Gender: "female"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var plan domain.WellnessPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.True(t, plan.Complete())
	assert.Equal(t, domain.ModelAdvancedRuleBased, plan.ModelUsed)
	assert.Equal(t, 0.5, plan.NLPConfidence)

	emergency := *analysis
	emergency.Intent = domain.IntentEmergency
	w = doJSON(t, s, http.MethodPost, "/api/v1/wellness-plan", PlanRequest{Analysis: &emergency})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, recommendation.EmergencyPrecautions, plan.Precautions)

	w = doJSON(t, s, http.MethodPost, "/api/v1/wellness-plan", PlanRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/wellness-plan", PlanRequest{
		Analysis: analysis,
		Context:  &domain.UserContext{Age: &badAge},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrCodeValidation, decodeError(t, w).Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/wellness-plan", PlanRequest{
		Analysis: analysis,
		Context:  &domain.UserContext{Gender: "unknown"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssessmentsLifecycle(t *testing.T) {
	s := newTestServer(t)

	var ids []string
	for _, text := range []string{
		tiredAndDizzy,
		"I have a terrible headache and nausea",
		"My back pain is getting worse every day",
		"I feel anxious and have trouble sleeping",
	} {
		w := doJSON(t, s, http.MethodPost, "/api/v1/assessments", AssessRequest{Text: text})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var body assessmentBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Analysis)
		require.NotNil(t, body.Plan)
		assert.Equal(t, text, body.Analysis.OriginalText)
		ids = append(ids, body.ID)
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/assessments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Assessments []*history.Record `json:"assessments"`
		Count       int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Count)
	require.Len(t, list.Assessments, 3)
	assert.Equal(t, ids[3], list.Assessments[0].ID.String())

	w = doJSON(t, s, http.MethodGet, "/api/v1/assessments?limit=10", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 4, list.Count)

	w = doJSON(t, s, http.MethodGet, "/api/v1/assessments?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/assessments/"+ids[1], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var record history.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "I have a terrible headache and nausea", record.InputText)

	w = doJSON(t, s, http.MethodGet, "/api/v1/assessments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/assessments/00000000-0000-0000-0000-000000000001", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrCodeNotFound, decodeError(t, w).Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/assessments", AssessRequest{Text: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/assessments", AssessRequest{Text: tiredAndDizzy})
	require.Equal(t, http.StatusCreated, w.Code)
	var body assessmentBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	w = doJSON(t, s, http.MethodGet, "/api/v1/assessments/"+body.ID+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="medical_analysis_`)
	assert.Contains(t, w.Body.String(), "INPUT: "+tiredAndDizzy)
	assert.Contains(t, w.Body.String(), "Assessment ID: "+body.ID)
}

func TestWebSocketAssess(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/assess"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(AssessRequest{Text: "I have chest pain and difficulty breathing"}))
	var reply assessmentBody
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Nil(t, reply.Error)
	require.NotNil(t, reply.Analysis)
	assert.Equal(t, domain.IntentEmergency, reply.Analysis.Intent)
	assert.Equal(t, recommendation.EmergencyGuidance, reply.Plan.MedicationGuidance)
	assert.NotEmpty(t, reply.ID)

	reply = assessmentBody{}
	require.NoError(t, conn.WriteJSON(AssessRequest{Text: "sick"}))
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Error)
	assert.Equal(t, domain.ErrCodeInvalidInput, reply.Error.Code)
	assert.Nil(t, reply.Analysis)

	reply = assessmentBody{}
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Error)
	assert.Equal(t, "invalid message", reply.Error.Message)

	// the connection survives a bad message
	reply = assessmentBody{}
	require.NoError(t, conn.WriteJSON(AssessRequest{Text: tiredAndDizzy}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Nil(t, reply.Error)
	assert.Equal(t, domain.IntentSymptomCheck, reply.Analysis.Intent)
}
