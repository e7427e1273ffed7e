package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-engine/internal/domain"
	"persona-engine/internal/service"
)

// SessionEngine es lo que los handlers necesitan del motor de puntuacion.
type SessionEngine interface {
	InitializeSession(ctx context.Context, req service.InitSessionRequest) (*domain.Session, bool, error)
	ScoreDecision(ctx context.Context, storyID string, decision domain.DecisionDescriptor) (domain.ScoringResult, error)
	GetSummary(ctx context.Context, storyID string) (domain.SessionSummary, error)
	GetReveals(ctx context.Context, storyID string) ([]domain.RevealPackage, error)
	EndSession(ctx context.Context, storyID string) error
}

// SessionHandler expone las sesiones de interpretacion.
type SessionHandler struct {
	logger  *zap.Logger
	engine  SessionEngine
	limiter service.DecisionRateLimiter
}

// NewSessionHandler crea el handler; limiter puede ser nil.
func NewSessionHandler(logger *zap.Logger, engine SessionEngine, limiter service.DecisionRateLimiter) *SessionHandler {
	return &SessionHandler{
		logger:  logger,
		engine:  engine,
		limiter: limiter,
	}
}

type characterRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Background     string   `json:"background"`
	Era            string   `json:"era"`
	SpeechPatterns []string `json:"speech_patterns"`
	CoreValues     []string `json:"core_values"`
	Traits         []string `json:"traits"`
	Relationships  []string `json:"relationships"`
	Age            *int     `json:"age"`
}

// CreateSession maneja POST /sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		StoryID     string           `json:"story_id" binding:"required"`
		CharacterID string           `json:"character_id"`
		Character   characterRequest `json:"character"`
		PlayerAge   *int             `json:"player_age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, created, err := h.engine.InitializeSession(c.Request.Context(), service.InitSessionRequest{
		StoryID:     req.StoryID,
		CharacterID: req.CharacterID,
		Character: domain.CharacterDescriptor{
			Name:           req.Character.Name,
			Description:    req.Character.Description,
			Background:     req.Character.Background,
			Era:            req.Character.Era,
			SpeechPatterns: req.Character.SpeechPatterns,
			CoreValues:     req.Character.CoreValues,
			Traits:         req.Character.Traits,
			Relationships:  req.Character.Relationships,
			Age:            req.Character.Age,
		},
		PlayerAge: req.PlayerAge,
	})
	if err != nil {
		h.writeError(c, "initialize session failed", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"session": session})
}

// ScoreDecision maneja POST /sessions/:story_id/decisions.
func (h *SessionHandler) ScoreDecision(c *gin.Context) {
	storyID := c.Param("story_id")
	var req struct {
		Action             string     `json:"action"`
		SceneContext       string     `json:"scene_context"`
		Dialogue           string     `json:"dialogue"`
		EmotionalTone      string     `json:"emotional_tone"`
		InvolvedCharacters []string   `json:"involved_characters"`
		Timestamp          *time.Time `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid score decision request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	decision := domain.DecisionDescriptor{
		Action:             req.Action,
		SceneContext:       req.SceneContext,
		Dialogue:           req.Dialogue,
		EmotionalTone:      req.EmotionalTone,
		InvolvedCharacters: req.InvolvedCharacters,
	}
	if req.Timestamp != nil {
		decision.Timestamp = req.Timestamp.UTC()
	}
	// Un descriptor invalido no consume cupo del limitador.
	if err := decision.Validate(); err != nil {
		h.writeError(c, "invalid decision", err)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), h.rateKey(c, storyID)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	result, err := h.engine.ScoreDecision(c.Request.Context(), storyID, decision)
	if err != nil {
		h.writeError(c, "score decision failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetSummary maneja GET /sessions/:story_id/summary.
func (h *SessionHandler) GetSummary(c *gin.Context) {
	summary, err := h.engine.GetSummary(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		h.writeError(c, "get summary failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetReveals maneja GET /sessions/:story_id/reveals.
func (h *SessionHandler) GetReveals(c *gin.Context) {
	reveals, err := h.engine.GetReveals(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		h.writeError(c, "get reveals failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reveals": reveals})
}

// EndSession maneja DELETE /sessions/:story_id.
func (h *SessionHandler) EndSession(c *gin.Context) {
	if err := h.engine.EndSession(c.Request.Context(), c.Param("story_id")); err != nil {
		h.writeError(c, "end session failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// rateKey limita por historia y, si hay token, por cliente dentro de la historia.
func (h *SessionHandler) rateKey(c *gin.Context, storyID string) string {
	if claims, ok := CallerFromContext(c); ok && claims.Caller != "" {
		return claims.Caller + ":" + storyID
	}
	return storyID
}

// writeError traduce errores del dominio a status HTTP.
func (h *SessionHandler) writeError(c *gin.Context, msg string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "session closed"})
	case errors.Is(err, domain.ErrSessionBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "session busy"})
	case errors.Is(err, domain.ErrPersistence):
		h.logger.Warn(msg, zap.String("story_id", c.Param("story_id")), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
	default:
		h.logger.Error(msg, zap.String("story_id", c.Param("story_id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
