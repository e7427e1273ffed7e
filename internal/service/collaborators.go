package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"persona-engine/internal/domain"
	"persona-engine/internal/llm"
)

const (
	collaboratorCharacter  = "character_analyzer"
	collaboratorImpact     = "decision_impact_analyzer"
	collaboratorAssessment = "psychological_assessment"
)

var errMalformedPayload = errors.New("malformed payload")

// TraitAssessment es el juicio inicial sobre un rasgo.
type TraitAssessment struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// TraitDelta es el cambio sugerido para un rasgo tras una decision.
type TraitDelta struct {
	Delta     float64 `json:"delta"`
	Reasoning string  `json:"reasoning"`
}

// CharacterAnalyzer evalua la descripcion del personaje una vez, al iniciar la sesion.
type CharacterAnalyzer interface {
	AnalyzeCharacter(ctx context.Context, character domain.CharacterDescriptor) (map[string]TraitAssessment, error)
}

// DecisionImpactAnalyzer juzga como una decision desplaza los rasgos dominantes.
type DecisionImpactAnalyzer interface {
	AnalyzeDecisionImpact(ctx context.Context, decision domain.DecisionDescriptor, dominant []domain.DominantTrait) (map[string]TraitDelta, error)
}

// PsychologicalAssessor produce la evaluacion narrativa de cada reveal.
type PsychologicalAssessor interface {
	Assess(ctx context.Context, dominant []domain.DominantTrait, recent []domain.EvolutionRecord) (domain.PsychologicalAssessment, error)
}

// LLMCollaborators implementa los tres contratos sobre un LLMClient.
// Cada respuesta se valida contra su esquema; cualquier desvio es un CollaboratorError.
type LLMCollaborators struct {
	llmClient llm.LLMClient
	taxonomy  *domain.TraitTaxonomy
}

func NewLLMCollaborators(llmClient llm.LLMClient, taxonomy *domain.TraitTaxonomy) *LLMCollaborators {
	if taxonomy == nil {
		taxonomy = domain.DefaultTaxonomy()
	}
	return &LLMCollaborators{llmClient: llmClient, taxonomy: taxonomy}
}

const characterAnalysisPrompt = `Eres un psicologo de personajes. Analiza la descripcion del personaje y puntua los rasgos que puedas justificar.
Rasgos validos (usa exactamente estos ids): %s

Reglas:
- score entre 0 y 100 (50 = neutral), confidence entre 0 y 1.
- Incluye solo rasgos con evidencia en la descripcion; no inventes.
- Devuelve SOLO un JSON con este formato:
{"traits": {"resilience": {"score": 80, "confidence": 0.8, "evidence": ["sobrevivio al naufragio"]}}}

Personaje:
%s`

type characterAnalysisResponse struct {
	Traits map[string]TraitAssessment `json:"traits"`
}

func (c *LLMCollaborators) AnalyzeCharacter(ctx context.Context, character domain.CharacterDescriptor) (map[string]TraitAssessment, error) {
	payload, err := json.Marshal(character)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorCharacter, Err: err}
	}
	prompt := fmt.Sprintf(characterAnalysisPrompt, strings.Join(c.taxonomy.IDs(), ", "), payload)

	raw, err := c.llmClient.Generate(ctx, prompt)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorCharacter, Err: fmt.Errorf("llm generate: %w", err)}
	}
	var parsed characterAnalysisResponse
	if err := decodeLLMJSON(raw, &parsed); err != nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorCharacter, Err: err}
	}
	if parsed.Traits == nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorCharacter, Err: fmt.Errorf("%w: missing traits", errMalformedPayload)}
	}

	out := make(map[string]TraitAssessment, len(parsed.Traits))
	for rawID, a := range parsed.Traits {
		id := strings.ToLower(strings.TrimSpace(rawID))
		if !c.taxonomy.Has(id) || !isFinite(a.Score) || !isFinite(a.Confidence) {
			continue
		}
		a.Score = domain.ClampScore(a.Score)
		a.Confidence = domain.ClampConfidence(a.Confidence)
		out[id] = a
	}
	return out, nil
}

const decisionImpactPrompt = `Eres el subconsciente analitico de un personaje. Evalua como la decision desplaza sus rasgos.
Rasgos dominantes actuales (id, score 0-100):
%s

Decision:
- Accion: %s
- Contexto: %s
- Dialogo: %s
- Tono emocional: %s

Reglas:
- delta entre -25 y 25; usa valores chicos (1-5) para cambios sutiles.
- Puedes incluir rasgos no dominantes si la decision los revela (usa ids validos de la taxonomia).
- Devuelve SOLO un JSON: {"trait_changes": {"courage": {"delta": 5, "reasoning": "enfrento al guardia"}}}`

type decisionImpactResponse struct {
	TraitChanges map[string]TraitDelta `json:"trait_changes"`
}

func (c *LLMCollaborators) AnalyzeDecisionImpact(ctx context.Context, decision domain.DecisionDescriptor, dominant []domain.DominantTrait) (map[string]TraitDelta, error) {
	var lines []string
	for _, d := range dominant {
		lines = append(lines, fmt.Sprintf("- %s: %.1f", d.TraitID, d.Score))
	}
	if len(lines) == 0 {
		lines = append(lines, "- (todos los rasgos en 50)")
	}
	prompt := fmt.Sprintf(decisionImpactPrompt,
		strings.Join(lines, "\n"),
		strings.TrimSpace(decision.Action),
		strings.TrimSpace(decision.SceneContext),
		strings.TrimSpace(decision.Dialogue),
		strings.TrimSpace(decision.EmotionalTone),
	)

	raw, err := c.llmClient.Generate(ctx, prompt)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorImpact, Err: fmt.Errorf("llm generate: %w", err)}
	}
	var parsed decisionImpactResponse
	if err := decodeLLMJSON(raw, &parsed); err != nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorImpact, Err: err}
	}
	if parsed.TraitChanges == nil {
		return nil, &domain.CollaboratorError{Collaborator: collaboratorImpact, Err: fmt.Errorf("%w: missing trait_changes", errMalformedPayload)}
	}

	out := make(map[string]TraitDelta, len(parsed.TraitChanges))
	for rawID, d := range parsed.TraitChanges {
		id := strings.ToLower(strings.TrimSpace(rawID))
		if !c.taxonomy.Has(id) || !isFinite(d.Delta) {
			continue
		}
		d.Reasoning = strings.TrimSpace(d.Reasoning)
		out[id] = d
	}
	return out, nil
}

const assessmentPrompt = `Eres un psicologo evaluando la interpretacion de un personaje a lo largo de varias decisiones.
Rasgos dominantes (id, score, confianza):
%s

Evolucion reciente:
%s

Devuelve SOLO un JSON con este formato:
{
  "authenticity_score": 0-100,
  "consistency_score": 0-100,
  "overall_assessment": "texto breve",
  "strengths": ["..."],
  "improvement_areas": ["..."],
  "trait_insights": {"courage": "..."},
  "recommendations": ["..."]
}`

func (c *LLMCollaborators) Assess(ctx context.Context, dominant []domain.DominantTrait, recent []domain.EvolutionRecord) (domain.PsychologicalAssessment, error) {
	var traitLines []string
	for _, d := range dominant {
		traitLines = append(traitLines, fmt.Sprintf("- %s: %.1f (confianza %.2f)", d.TraitID, d.Score, d.Confidence))
	}
	var evoLines []string
	for _, r := range recent {
		for id, ch := range r.Changes {
			evoLines = append(evoLines, fmt.Sprintf("- decision %s: %s %.1f -> %.1f (%s)", r.DecisionID, id, ch.OldScore, ch.NewScore, ch.Reasoning))
		}
	}
	if len(evoLines) == 0 {
		evoLines = append(evoLines, "- (sin cambios registrados)")
	}
	prompt := fmt.Sprintf(assessmentPrompt, strings.Join(traitLines, "\n"), strings.Join(evoLines, "\n"))

	raw, err := c.llmClient.Generate(ctx, prompt)
	if err != nil {
		return domain.PsychologicalAssessment{}, &domain.CollaboratorError{Collaborator: collaboratorAssessment, Err: fmt.Errorf("llm generate: %w", err)}
	}
	var parsed domain.PsychologicalAssessment
	if err := decodeLLMJSON(raw, &parsed); err != nil {
		return domain.PsychologicalAssessment{}, &domain.CollaboratorError{Collaborator: collaboratorAssessment, Err: err}
	}
	if strings.TrimSpace(parsed.OverallAssessment) == "" || !isFinite(parsed.AuthenticityScore) || !isFinite(parsed.ConsistencyScore) {
		return domain.PsychologicalAssessment{}, &domain.CollaboratorError{Collaborator: collaboratorAssessment, Err: fmt.Errorf("%w: missing overall_assessment or scores", errMalformedPayload)}
	}
	parsed.AuthenticityScore = domain.ClampScore(parsed.AuthenticityScore)
	parsed.ConsistencyScore = domain.ClampScore(parsed.ConsistencyScore)
	if parsed.Strengths == nil {
		parsed.Strengths = []string{}
	}
	if parsed.ImprovementAreas == nil {
		parsed.ImprovementAreas = []string{}
	}
	if parsed.TraitInsights == nil {
		parsed.TraitInsights = map[string]string{}
	}
	if parsed.Recommendations == nil {
		parsed.Recommendations = []string{}
	}
	return parsed, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
