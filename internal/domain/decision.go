package domain

import (
	"strings"
	"time"
)

const (
	maxActionLength  = 4000
	maxContextLength = 8000
)

// DecisionDescriptor es una accion del jugador mas su contexto de escena.
type DecisionDescriptor struct {
	Action             string    `json:"action"`
	SceneContext       string    `json:"scene_context"`
	Dialogue           string    `json:"dialogue,omitempty"`
	EmotionalTone      string    `json:"emotional_tone,omitempty"`
	InvolvedCharacters []string  `json:"involved_characters,omitempty"`
	Timestamp          time.Time `json:"timestamp,omitempty"`
}

// Validate rechaza descriptores sin accion o contexto.
func (d DecisionDescriptor) Validate() error {
	action := strings.TrimSpace(d.Action)
	if action == "" {
		return &ValidationError{Field: "action", Reason: "required"}
	}
	if len(action) > maxActionLength {
		return &ValidationError{Field: "action", Reason: "too long"}
	}
	ctx := strings.TrimSpace(d.SceneContext)
	if ctx == "" {
		return &ValidationError{Field: "scene_context", Reason: "required"}
	}
	if len(ctx) > maxContextLength {
		return &ValidationError{Field: "scene_context", Reason: "too long"}
	}
	return nil
}

// Text concatena accion y dialogo, que es lo que analizan las heuristicas.
func (d DecisionDescriptor) Text() string {
	if strings.TrimSpace(d.Dialogue) == "" {
		return d.Action
	}
	return d.Action + " " + d.Dialogue
}
