package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-engine/internal/domain"
	"persona-engine/internal/llm"
	"persona-engine/internal/service"
)

const mockLLMResponse = `{"traits": {"courage": {"score": 80, "confidence": 0.8, "evidence": ["salto al rio"]}}, "trait_changes": {}}`

type denyLimiter struct {
	calls int
	keys  []string
}

func (d *denyLimiter) Allow(_ context.Context, key string) bool {
	d.calls++
	d.keys = append(d.keys, key)
	return false
}

// fakeEngine devuelve siempre err; sirve para probar el mapeo de errores.
type fakeEngine struct{ err error }

func (f fakeEngine) InitializeSession(context.Context, service.InitSessionRequest) (*domain.Session, bool, error) {
	return nil, false, f.err
}

func (f fakeEngine) ScoreDecision(context.Context, string, domain.DecisionDescriptor) (domain.ScoringResult, error) {
	return domain.ScoringResult{}, f.err
}

func (f fakeEngine) GetSummary(context.Context, string) (domain.SessionSummary, error) {
	return domain.SessionSummary{}, f.err
}

func (f fakeEngine) GetReveals(context.Context, string) ([]domain.RevealPackage, error) {
	return nil, f.err
}

func (f fakeEngine) EndSession(context.Context, string) error {
	return f.err
}

func newTestRouter(t *testing.T, limiter service.DecisionRateLimiter, authSvc *service.AuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	client := &llm.MockClient{Response: mockLLMResponse}
	collab := service.NewLLMCollaborators(client, nil)
	engine := service.NewScoringEngine(nil, service.Collaborators{
		Character: collab,
		Impact:    collab,
		Assessor:  collab,
	}, service.EngineOptions{CollaboratorTimeout: 2 * time.Second}, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = engine.Close(ctx)
	})
	return NewRouter(zap.NewNop(), NewSessionHandler(zap.NewNop(), engine, limiter), authSvc)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createSessionBody(storyID string) map[string]any {
	return map[string]any{
		"story_id":     storyID,
		"character_id": "char-1",
		"character": map[string]any{
			"name":        "Aria",
			"description": "a sailor who never backs down",
			"era":         "modern",
		},
	}
}

func decisionBody() map[string]any {
	return map[string]any{
		"action":        "I jump into the river to save the child",
		"scene_context": "the bridge collapsed during the storm",
	}
}

func TestSessionHandler_Lifecycle(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	rec := doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on existing session, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/sessions/story-1/decisions", decisionBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var scored struct {
		Result domain.ScoringResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &scored); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if scored.Result.StoryID != "story-1" {
		t.Fatalf("unexpected story id %q", scored.Result.StoryID)
	}

	rec = doJSON(t, r, http.MethodGet, "/sessions/story-1/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary struct {
		Summary domain.SessionSummary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Summary.DecisionCount != 1 {
		t.Fatalf("expected 1 decision, got %d", summary.Summary.DecisionCount)
	}

	rec = doJSON(t, r, http.MethodGet, "/sessions/story-1/reveals", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/sessions/story-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodDelete, "/sessions/story-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", rec.Code)
	}
}

func TestSessionHandler_BadRequests(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	body := createSessionBody("story-2")
	body["character"] = map[string]any{"name": ""}
	if rec := doJSON(t, r, http.MethodPost, "/sessions", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid character, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/sessions", map[string]any{"character_id": "c"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing story_id, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/sessions/unknown/decisions", decisionBody()); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown story, got %d", rec.Code)
	}

	if rec := doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-2")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/sessions/story-2/decisions", map[string]any{"action": "wave"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing scene_context, got %d", rec.Code)
	}
}

func TestSessionHandler_RateLimited(t *testing.T) {
	limiter := &denyLimiter{}
	r := newTestRouter(t, limiter, nil)

	if rec := doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-3")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec := doJSON(t, r, http.MethodPost, "/sessions/story-3/decisions", decisionBody())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if limiter.calls != 1 || limiter.keys[0] != "story-3" {
		t.Fatalf("expected limiter to be consulted once for story-3, got %v", limiter.keys)
	}

	rec = doJSON(t, r, http.MethodPost, "/sessions/story-3/decisions", map[string]any{"action": "  ", "scene_context": "deck"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank action, got %d", rec.Code)
	}
	if limiter.calls != 1 {
		t.Fatalf("invalid decision must not consume rate budget, got %d calls", limiter.calls)
	}
}

func TestSessionHandler_RateKeyIncludesCaller(t *testing.T) {
	limiter := &denyLimiter{}
	authSvc := service.NewAuthService("secret", time.Hour)
	r := newTestRouter(t, limiter, authSvc)
	token, err := authSvc.IssueToken("storyteller")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	auth := []string{"Authorization", "Bearer " + token}

	if rec := doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-5"), auth...); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/sessions/story-5/decisions", decisionBody(), auth...); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "storyteller:story-5" {
		t.Fatalf("unexpected rate keys %v", limiter.keys)
	}
}

func TestSessionHandler_RequiresTokenWhenAuthEnabled(t *testing.T) {
	authSvc := service.NewAuthService("secret", time.Hour)
	r := newTestRouter(t, nil, authSvc)

	if rec := doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-4")); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := authSvc.IssueToken("storyteller")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if rec := doJSON(t, r, http.MethodPost, "/sessions", createSessionBody("story-4"), "Authorization", "Bearer "+token); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with token, got %d", rec.Code)
	}

	if rec := doJSON(t, r, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz should stay public, got %d", rec.Code)
	}
}

func TestSessionHandler_ErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "story_id", Reason: "required"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("story %q: %w", "x", domain.ErrNotFound), http.StatusNotFound},
		{"closed", domain.ErrSessionClosed, http.StatusGone},
		{"busy", domain.ErrSessionBusy, http.StatusTooManyRequests},
		{"store down", fmt.Errorf("load session: %w", domain.ErrPersistence), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter(zap.NewNop(), NewSessionHandler(zap.NewNop(), fakeEngine{err: tc.err}, nil), nil)
			rec := doJSON(t, r, http.MethodGet, "/sessions/x/summary", nil)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected error body, got %s", rec.Body.String())
			}
		})
	}
}
