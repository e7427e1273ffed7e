package domain

import (
	"maps"
	"slices"
	"time"
)

// DominantTrait es un rasgo cuya desviacion de 50 supera el umbral.
type DominantTrait struct {
	TraitID       string        `json:"trait_id"`
	Score         float64       `json:"score"`
	Deviation     float64       `json:"deviation"`
	Confidence    float64       `json:"confidence"`
	Category      string        `json:"category"`
	Consciousness Consciousness `json:"consciousness"`
}

// PsychologicalAssessment es la respuesta del colaborador (o el placeholder neutro).
type PsychologicalAssessment struct {
	AuthenticityScore float64           `json:"authenticity_score"`
	ConsistencyScore  float64           `json:"consistency_score"`
	OverallAssessment string            `json:"overall_assessment"`
	Strengths         []string          `json:"strengths"`
	ImprovementAreas  []string          `json:"improvement_areas"`
	TraitInsights     map[string]string `json:"trait_insights"`
	Recommendations   []string          `json:"recommendations"`
}

func (a PsychologicalAssessment) Clone() PsychologicalAssessment {
	a.Strengths = slices.Clone(a.Strengths)
	a.ImprovementAreas = slices.Clone(a.ImprovementAreas)
	a.TraitInsights = maps.Clone(a.TraitInsights)
	a.Recommendations = slices.Clone(a.Recommendations)
	return a
}

// NeutralAssessment se usa cuando el colaborador falla; un reveal nunca se omite.
func NeutralAssessment() PsychologicalAssessment {
	return PsychologicalAssessment{
		AuthenticityScore: NeutralTraitScore,
		ConsistencyScore:  NeutralTraitScore,
		OverallAssessment: "Assessment unavailable; scores reflect local heuristics only.",
		Strengths:         []string{},
		ImprovementAreas:  []string{},
		TraitInsights:     map[string]string{},
		Recommendations:   []string{},
	}
}

// DecisionRange es el rango de decisiones cubierto por un reveal (inclusivo).
type DecisionRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// TraitMatrixSummary resume la matriz al momento del reveal.
type TraitMatrixSummary struct {
	DominantTraits    []DominantTrait `json:"dominant_traits"`
	MatrixChangeScore float64         `json:"matrix_change_score"`
	ConsistencyScore  float64         `json:"consistency_score"`
	TraitCount        int             `json:"trait_count"`
}

// RevealPackage se produce una vez por ciclo y no se modifica despues.
type RevealPackage struct {
	Number             int                            `json:"number"`
	Range              DecisionRange                  `json:"range"`
	OverallScore       float64                        `json:"overall_score"`
	ScoreLevel         string                         `json:"score_level"`
	CategoryBreakdown  map[string]CategoryAccumulator `json:"category_breakdown"`
	TraitSummary       TraitMatrixSummary             `json:"trait_summary"`
	Assessment         PsychologicalAssessment        `json:"assessment"`
	AssessmentDegraded bool                           `json:"assessment_degraded"`
	GeneratedAt        time.Time                      `json:"generated_at"`
}

func (r RevealPackage) Clone() RevealPackage {
	cats := make(map[string]CategoryAccumulator, len(r.CategoryBreakdown))
	for k, v := range r.CategoryBreakdown {
		cats[k] = v.clone()
	}
	r.CategoryBreakdown = cats
	r.TraitSummary.DominantTraits = slices.Clone(r.TraitSummary.DominantTraits)
	r.Assessment = r.Assessment.Clone()
	return r
}

// ScoringResult es lo que devuelve ScoreDecision.
type ScoringResult struct {
	StoryID           string           `json:"story_id"`
	Decision          DecisionRecord   `json:"decision"`
	TraitEvolution    *EvolutionRecord `json:"trait_evolution"`
	ConsistencyScore  float64          `json:"consistency_score"`
	MatrixChangeScore float64          `json:"matrix_change_score"`
	ShouldReveal      bool             `json:"should_reveal"`
	Reveal            *RevealPackage   `json:"reveal,omitempty"`
}

// SessionSummary es la vista resumida para la aplicacion.
type SessionSummary struct {
	StoryID           string                   `json:"story_id"`
	CharacterID       string                   `json:"character_id"`
	DecisionCount     int                      `json:"decision_count"`
	DominantTraits    []DominantTrait          `json:"dominant_traits"`
	MatrixChangeScore float64                  `json:"matrix_change_score"`
	ConsistencyScore  float64                  `json:"consistency_score"`
	LastAssessment    *PsychologicalAssessment `json:"last_assessment,omitempty"`
	RevealCount       int                      `json:"reveal_count"`
}
