package domain

import (
	"maps"
	"slices"
	"time"
)

// Categorias tradicionales (heuristicas locales sobre el texto).
const (
	CategoryDialogueAuthenticity = "dialogue_authenticity"
	CategoryActionConsistency    = "action_consistency"
	CategoryMoralAlignment       = "moral_alignment"
	CategoryEmotionalResponse    = "emotional_response"
	CategoryRelationshipHandling = "relationship_handling"
	CategoryPeriodAccuracy       = "period_accuracy"
	CategoryCharacterGrowth      = "character_growth"
	CategoryDecisionMaking       = "decision_making"
)

// Categorias mejoradas (derivadas de la matriz actual).
const (
	CategoryTraitMatrixConsistency  = "trait_matrix_consistency"
	CategoryConsciousExpression     = "conscious_expression"
	CategorySubconsciousAlignment   = "subconscious_alignment"
	CategoryPsychologicalDepth      = "psychological_depth"
	CategoryTraitEvolutionCoherence = "trait_evolution_coherence"
	CategoryDualLayerBalance        = "dual_layer_balance"
)

var TraditionalCategories = []string{
	CategoryDialogueAuthenticity,
	CategoryActionConsistency,
	CategoryMoralAlignment,
	CategoryEmotionalResponse,
	CategoryRelationshipHandling,
	CategoryPeriodAccuracy,
	CategoryCharacterGrowth,
	CategoryDecisionMaking,
}

var EnhancedCategories = []string{
	CategoryTraitMatrixConsistency,
	CategoryConsciousExpression,
	CategorySubconsciousAlignment,
	CategoryPsychologicalDepth,
	CategoryTraitEvolutionCoherence,
	CategoryDualLayerBalance,
}

const (
	RecentWindowSize      = 10
	ConsistencyBufferSize = 20
	InitialConsistency    = 100.0
)

// CategoryAccumulator lleva suma, cantidad, promedio y una ventana de los ultimos 10 valores.
type CategoryAccumulator struct {
	Sum     float64   `json:"sum"`
	Count   int       `json:"count"`
	Average float64   `json:"average"`
	Recent  []float64 `json:"recent"`
}

func (a *CategoryAccumulator) Add(v float64) {
	a.Sum += v
	a.Count++
	a.Average = a.Sum / float64(a.Count)
	a.Recent = append(a.Recent, v)
	if len(a.Recent) > RecentWindowSize {
		a.Recent = slices.Clone(a.Recent[len(a.Recent)-RecentWindowSize:])
	}
}

func (a CategoryAccumulator) clone() CategoryAccumulator {
	a.Recent = slices.Clone(a.Recent)
	return a
}

// DecisionRecord es inmutable una vez agregado al historial.
type DecisionRecord struct {
	ID                   string             `json:"id"`
	Number               int                `json:"number"`
	Timestamp            time.Time          `json:"timestamp"`
	Action               string             `json:"action"`
	SceneContext         string             `json:"scene_context"`
	TraditionalScores    map[string]float64 `json:"traditional_scores"`
	EnhancedScores       map[string]float64 `json:"enhanced_scores"`
	TraitDeltas          map[string]float64 `json:"trait_deltas"`
	OverallScore         float64            `json:"overall_score"`
	EnhancedOverallScore float64            `json:"enhanced_overall_score"`
	EvolutionDegraded    bool               `json:"evolution_degraded"`
}

func (r DecisionRecord) clone() DecisionRecord {
	r.TraditionalScores = maps.Clone(r.TraditionalScores)
	r.EnhancedScores = maps.Clone(r.EnhancedScores)
	r.TraitDeltas = maps.Clone(r.TraitDeltas)
	return r
}

// TraitChange es el antes/despues de un rasgo dentro de un EvolutionRecord.
type TraitChange struct {
	OldScore  float64 `json:"old_score"`
	NewScore  float64 `json:"new_score"`
	Delta     float64 `json:"delta"`
	Reasoning string  `json:"reasoning"`
}

// EvolutionRecord se agrega en orden y nunca se modifica.
type EvolutionRecord struct {
	Timestamp  time.Time              `json:"timestamp"`
	DecisionID string                 `json:"decision_id"`
	Changes    map[string]TraitChange `json:"changes"`
}

func (r EvolutionRecord) clone() EvolutionRecord {
	r.Changes = maps.Clone(r.Changes)
	return r
}

// ScoreSample alimenta al ConsistencyTracker.
type ScoreSample struct {
	Timestamp  time.Time          `json:"timestamp"`
	Overall    float64            `json:"overall"`
	Categories map[string]float64 `json:"categories"`
}

// Session es la unidad de estado por historia. Solo la muta el motor.
type Session struct {
	StoryID              string                         `json:"story_id"`
	CharacterID          string                         `json:"character_id"`
	Character            CharacterDescriptor            `json:"character"`
	PlayerAge            *int                           `json:"player_age,omitempty"`
	DecisionCount        int                            `json:"decision_count"`
	Categories           map[string]CategoryAccumulator `json:"categories"`
	DecisionHistory      []DecisionRecord               `json:"decision_history"`
	TraitMatrixEvolution []EvolutionRecord              `json:"trait_matrix_evolution"`
	ScoreBuffer          []ScoreSample                  `json:"score_buffer"`
	ConsistencyScore     float64                        `json:"consistency_score"`
	MatrixChangeScore    float64                        `json:"matrix_change_score"`
	RevealHistory        []RevealPackage                `json:"reveal_history"`
	LastReveal           *RevealPackage                 `json:"last_reveal,omitempty"`
	Baseline             TraitMatrix                    `json:"baseline"`
	Current              TraitMatrix                    `json:"current"`
	AgeAdjustments       map[string]float64             `json:"age_adjustments,omitempty"`
	InitDegraded         bool                           `json:"init_degraded"`
	CreatedAt            time.Time                      `json:"created_at"`
	UpdatedAt            time.Time                      `json:"updated_at"`
}

// NewSession crea una sesion vacia con los acumuladores en cero.
func NewSession(storyID, characterID string, character CharacterDescriptor, now time.Time) *Session {
	cats := make(map[string]CategoryAccumulator, len(TraditionalCategories)+len(EnhancedCategories))
	for _, c := range TraditionalCategories {
		cats[c] = CategoryAccumulator{Recent: []float64{}}
	}
	for _, c := range EnhancedCategories {
		cats[c] = CategoryAccumulator{Recent: []float64{}}
	}
	return &Session{
		StoryID:              storyID,
		CharacterID:          characterID,
		Character:            character,
		Categories:           cats,
		DecisionHistory:      []DecisionRecord{},
		TraitMatrixEvolution: []EvolutionRecord{},
		ScoreBuffer:          []ScoreSample{},
		ConsistencyScore:     InitialConsistency,
		RevealHistory:        []RevealPackage{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Clone devuelve una copia profunda; los snapshots nunca comparten memoria con la sesion viva.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Character.SpeechPatterns = slices.Clone(s.Character.SpeechPatterns)
	cp.Character.CoreValues = slices.Clone(s.Character.CoreValues)
	cp.Character.Traits = slices.Clone(s.Character.Traits)
	cp.Character.Relationships = slices.Clone(s.Character.Relationships)
	cp.Character.Age = clonePtr(s.Character.Age)
	cp.PlayerAge = clonePtr(s.PlayerAge)

	cp.Categories = make(map[string]CategoryAccumulator, len(s.Categories))
	for k, v := range s.Categories {
		cp.Categories[k] = v.clone()
	}
	cp.DecisionHistory = make([]DecisionRecord, len(s.DecisionHistory))
	for i, r := range s.DecisionHistory {
		cp.DecisionHistory[i] = r.clone()
	}
	cp.TraitMatrixEvolution = make([]EvolutionRecord, len(s.TraitMatrixEvolution))
	for i, r := range s.TraitMatrixEvolution {
		cp.TraitMatrixEvolution[i] = r.clone()
	}
	cp.ScoreBuffer = make([]ScoreSample, len(s.ScoreBuffer))
	for i, smp := range s.ScoreBuffer {
		smp.Categories = maps.Clone(smp.Categories)
		cp.ScoreBuffer[i] = smp
	}
	cp.RevealHistory = make([]RevealPackage, len(s.RevealHistory))
	for i, r := range s.RevealHistory {
		cp.RevealHistory[i] = r.Clone()
	}
	if s.LastReveal != nil {
		last := s.LastReveal.Clone()
		cp.LastReveal = &last
	}
	cp.Baseline = s.Baseline.Clone()
	cp.Current = s.Current.Clone()
	cp.AgeAdjustments = maps.Clone(s.AgeAdjustments)
	return &cp
}

// CategoryBreakdown copia los acumuladores actuales.
func (s *Session) CategoryBreakdown() map[string]CategoryAccumulator {
	out := make(map[string]CategoryAccumulator, len(s.Categories))
	for k, v := range s.Categories {
		out[k] = v.clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SessionSnapshot es el registro plano que viaja al SessionStore.
type SessionSnapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Session *Session  `json:"session"`
}

const SnapshotVersion = 1
