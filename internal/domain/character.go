package domain

import "strings"

// CharacterDescriptor describe al personaje interpretado.
type CharacterDescriptor struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Background     string   `json:"background,omitempty"`
	Era            string   `json:"era,omitempty"` // periodo historico; vacio = sin restriccion
	SpeechPatterns []string `json:"speech_patterns,omitempty"`
	CoreValues     []string `json:"core_values,omitempty"`
	Traits         []string `json:"traits,omitempty"`
	Relationships  []string `json:"relationships,omitempty"`
	Age            *int     `json:"age,omitempty"`
}

// Validate exige nombre y descripcion.
func (c CharacterDescriptor) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "character.name", Reason: "required"}
	}
	if strings.TrimSpace(c.Description) == "" {
		return &ValidationError{Field: "character.description", Reason: "required"}
	}
	if c.Age != nil && (*c.Age < 0 || *c.Age > 150) {
		return &ValidationError{Field: "character.age", Reason: "out of range"}
	}
	return nil
}
