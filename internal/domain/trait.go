package domain

import (
	"sort"
	"time"
)

// Consciousness indica en que capa psicologica se manifiesta un rasgo.
type Consciousness string

const (
	ConsciousnessConscious    Consciousness = "CONSCIOUS"
	ConsciousnessSubconscious Consciousness = "SUBCONSCIOUS"
	ConsciousnessBoth         Consciousness = "BOTH"
)

// IsConscious es true para CONSCIOUS y BOTH.
func (c Consciousness) IsConscious() bool {
	return c == ConsciousnessConscious || c == ConsciousnessBoth
}

// IsSubconscious es true para SUBCONSCIOUS y BOTH.
func (c Consciousness) IsSubconscious() bool {
	return c == ConsciousnessSubconscious || c == ConsciousnessBoth
}

const (
	TraitCategoryBigFive      = "BIG_FIVE"
	TraitCategoryEmotional    = "EMOTIONAL"
	TraitCategorySocial       = "SOCIAL"
	TraitCategoryCognitive    = "COGNITIVE"
	TraitCategoryMoral        = "MORAL"
	TraitCategoryMotivational = "MOTIVATIONAL"
	TraitCategoryDefense      = "DEFENSE_MECHANISM"
	TraitCategoryAttachment   = "ATTACHMENT"
	TraitCategoryShadow       = "SHADOW"
)

const (
	ValencePositive = "POSITIVE"
	ValenceNegative = "NEGATIVE"
	ValenceNeutral  = "NEUTRAL"

	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

const (
	NeutralTraitScore      = 50.0
	InitialTraitConfidence = 0.1
	MaxEvidencePerTrait    = 50
)

// TraitDefinition es inmutable; se carga una vez en el TraitTaxonomy.
type TraitDefinition struct {
	ID                   string        `json:"id"`
	Category             string        `json:"category"`
	Subcategory          string        `json:"subcategory"`
	Consciousness        Consciousness `json:"consciousness"`
	Valence              string        `json:"valence"`
	CognitiveInvolvement string        `json:"cognitive_involvement"`
	SocialImpact         string        `json:"social_impact"`
	Description          string        `json:"description"`
	// Marcadores lexicos: Positive expresa el polo alto del rasgo, Negative lo contradice.
	PositiveMarkers []string `json:"positive_markers,omitempty"`
	NegativeMarkers []string `json:"negative_markers,omitempty"`
}

// Evidence registra por que cambio un rasgo.
type Evidence struct {
	Action    string    `json:"action"`
	Delta     float64   `json:"delta"`
	Reasoning string    `json:"reasoning"`
	Timestamp time.Time `json:"timestamp"`
}

// TraitScore es mutado solo por el motor de evolucion (y la inicializacion).
type TraitScore struct {
	TraitID     string     `json:"trait_id"`
	Score       float64    `json:"score"`
	Confidence  float64    `json:"confidence"`
	Evidence    []Evidence `json:"evidence"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Deviation devuelve |score-50|.
func (s TraitScore) Deviation() float64 {
	d := s.Score - NeutralTraitScore
	if d < 0 {
		return -d
	}
	return d
}

// AddEvidence agrega evidencia y descarta la mas vieja si supera el tope.
func (s *TraitScore) AddEvidence(e Evidence) {
	s.Evidence = append(s.Evidence, e)
	if len(s.Evidence) > MaxEvidencePerTrait {
		s.Evidence = append([]Evidence(nil), s.Evidence[len(s.Evidence)-MaxEvidencePerTrait:]...)
	}
}

// TraitMatrix mapea trait_id -> TraitScore.
type TraitMatrix map[string]TraitScore

// NewNeutralMatrix crea una matriz con todos los rasgos en 50 y confianza 0.1.
func NewNeutralMatrix(tax *TraitTaxonomy, now time.Time) TraitMatrix {
	m := make(TraitMatrix, tax.Count())
	for _, id := range tax.IDs() {
		m[id] = TraitScore{
			TraitID:     id,
			Score:       NeutralTraitScore,
			Confidence:  InitialTraitConfidence,
			Evidence:    []Evidence{},
			LastUpdated: now,
		}
	}
	return m
}

// Clone es una copia profunda: la evidencia no se comparte.
func (m TraitMatrix) Clone() TraitMatrix {
	if m == nil {
		return nil
	}
	out := make(TraitMatrix, len(m))
	for id, s := range m {
		cp := s
		cp.Evidence = append([]Evidence(nil), s.Evidence...)
		out[id] = cp
	}
	return out
}

// Score devuelve el puntaje del rasgo o 50 si no existe.
func (m TraitMatrix) Score(id string) float64 {
	if s, ok := m[id]; ok {
		return s.Score
	}
	return NeutralTraitScore
}

// ClampScore limita un puntaje a [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampConfidence limita una confianza a [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RankByDeviation ordena los rasgos por |score-50| descendente (empate: id ascendente).
// Solo incluye rasgos con desviacion > minDeviation; limit <= 0 no recorta.
func RankByDeviation(m TraitMatrix, tax *TraitTaxonomy, minDeviation float64, limit int) []DominantTrait {
	out := make([]DominantTrait, 0, len(m))
	for id, s := range m {
		dev := s.Deviation()
		if dev <= minDeviation {
			continue
		}
		dt := DominantTrait{
			TraitID:    id,
			Score:      s.Score,
			Deviation:  dev,
			Confidence: s.Confidence,
		}
		if d, err := tax.GetDefinition(id); err == nil {
			dt.Category = d.Category
			dt.Consciousness = d.Consciousness
		}
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deviation != out[j].Deviation {
			return out[i].Deviation > out[j].Deviation
		}
		return out[i].TraitID < out[j].TraitID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
