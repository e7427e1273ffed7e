package service

import (
	"math"
	"testing"
	"time"

	"persona-engine/internal/domain"
)

func neutralMatrix() domain.TraitMatrix {
	return domain.NewNeutralMatrix(domain.DefaultTaxonomy(), time.Now().UTC())
}

func evolutionRecord(id string, delta float64) *domain.EvolutionRecord {
	return &domain.EvolutionRecord{
		DecisionID: "d",
		Changes: map[string]domain.TraitChange{
			id: {OldScore: 50, NewScore: 50 + delta, Delta: delta},
		},
	}
}

func TestEnhancedScorer_LargeShiftDropsCoherenceBelowHalf(t *testing.T) {
	scorer := NewEnhancedScorer(domain.DefaultTaxonomy(), DefaultScoringWeights())
	current := neutralMatrix()
	setScore(current, "courage", 65)

	scores := scorer.Score(current, sampleDecision("I hold my ground."), evolutionRecord("courage", 15), nil)

	if got := scores[domain.CategoryTraitEvolutionCoherence]; got >= 50 {
		t.Fatalf("expected coherence below 50 after a 15-point shift, got %v", got)
	}
}

func TestEnhancedScorer_Coherence(t *testing.T) {
	scorer := NewEnhancedScorer(domain.DefaultTaxonomy(), DefaultScoringWeights())
	decision := sampleDecision("I hold my ground.")

	tests := []struct {
		name      string
		evolution *domain.EvolutionRecord
		history   []domain.EvolutionRecord
		want      float64
	}{
		{"no evolution", nil, nil, 75},
		{"small shift", evolutionRecord("courage", 3), nil, 75},
		{"medium shift", evolutionRecord("courage", 8), nil, 70},
		{"sign flip", evolutionRecord("courage", -3), []domain.EvolutionRecord{*evolutionRecord("courage", 5)}, 65},
		{
			"flip outside lookback",
			evolutionRecord("courage", -3),
			[]domain.EvolutionRecord{
				*evolutionRecord("courage", 5),
				*evolutionRecord("courage", -2),
				*evolutionRecord("courage", -2),
				*evolutionRecord("courage", -2),
			},
			75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := scorer.Score(neutralMatrix(), decision, tt.evolution, tt.history)
			if got := scores[domain.CategoryTraitEvolutionCoherence]; got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEnhancedScorer_TraitMatrixConsistency(t *testing.T) {
	scorer := NewEnhancedScorer(domain.DefaultTaxonomy(), DefaultScoringWeights())

	tests := []struct {
		name   string
		scores map[string]float64
		action string
		want   float64
	}{
		{"no dominant traits", nil, "I face the storm.", 50},
		{"expression", map[string]float64{"courage": 100}, "I face the storm.", 70},
		{"contradiction weighs more", map[string]float64{"courage": 100}, "I run away and hide.", 20},
		{"half strength", map[string]float64{"courage": 75}, "I face the storm.", 60},
		{"low trait expressed by negative markers", map[string]float64{"honesty": 0}, "I lie to them.", 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := neutralMatrix()
			for id, v := range tt.scores {
				setScore(current, id, v)
			}
			scores := scorer.Score(current, sampleDecision(tt.action), nil, nil)
			if got := scores[domain.CategoryTraitMatrixConsistency]; got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEnhancedScorer_ConsciousAndSubconsciousLayers(t *testing.T) {
	scorer := NewEnhancedScorer(domain.DefaultTaxonomy(), DefaultScoringWeights())
	current := neutralMatrix()
	setScore(current, "courage", 100)   // BOTH
	setScore(current, "hostility", 100) // SUBCONSCIOUS

	deliberate := scorer.Score(current, sampleDecision("I decide to face them."), nil, nil)
	if got := deliberate[domain.CategoryConsciousExpression]; got != 80 {
		t.Fatalf("expected conscious expression 80 with deliberate boost, got %v", got)
	}
	if got := deliberate[domain.CategorySubconsciousAlignment]; got != 50 {
		t.Fatalf("expected subconscious alignment 50 without expression, got %v", got)
	}

	impulsive := scorer.Score(current, sampleDecision("I attack the guard."), nil, nil)
	if got := impulsive[domain.CategorySubconsciousAlignment]; got != 80 {
		t.Fatalf("expected subconscious alignment 80 without deliberate markers, got %v", got)
	}
	if got := impulsive[domain.CategoryConsciousExpression]; got != 50 {
		t.Fatalf("expected conscious expression 50, got %v", got)
	}
}

func TestEnhancedScorer_PsychologicalDepth(t *testing.T) {
	scorer := NewEnhancedScorer(domain.DefaultTaxonomy(), DefaultScoringWeights())

	plain := scorer.Score(neutralMatrix(), sampleDecision("I wait."), nil, nil)
	if got := plain[domain.CategoryPsychologicalDepth]; got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}

	withDelta := scorer.Score(neutralMatrix(), sampleDecision("I wait."), evolutionRecord("patience", 2), nil)
	if got := withDelta[domain.CategoryPsychologicalDepth]; got != 60 {
		t.Fatalf("expected delta bonus, got %v", got)
	}

	layered := scorer.Score(neutralMatrix(), sampleDecision("I am angry but afraid."), nil, nil)
	if got := layered[domain.CategoryPsychologicalDepth]; got != 65 {
		t.Fatalf("expected emotion and conflict bonus, got %v", got)
	}
}

func TestEnhancedScorer_DualLayerBalance(t *testing.T) {
	tax := domain.DefaultTaxonomy()
	scorer := NewEnhancedScorer(tax, DefaultScoringWeights())

	none := scorer.Score(neutralMatrix(), sampleDecision("I wait."), nil, nil)
	if got := none[domain.CategoryDualLayerBalance]; got != 50 {
		t.Fatalf("expected 50 with no expressed traits, got %v", got)
	}

	current := neutralMatrix()
	setScore(current, "honesty", 100)   // CONSCIOUS
	setScore(current, "hostility", 100) // SUBCONSCIOUS
	scores := scorer.Score(current, sampleDecision("I confess, then attack."), nil, nil)

	consciousTotal, subconsciousTotal := tax.LayerSizes()
	rc := 1 / float64(consciousTotal)
	rs := 1 / float64(subconsciousTotal)
	want := 50 + (1-math.Abs(rc-rs)/(rc+rs))*50
	if got := scores[domain.CategoryDualLayerBalance]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEnhancedScorer_AllCategoriesInRange(t *testing.T) {
	scorer := NewEnhancedScorer(domain.DefaultTaxonomy(), DefaultScoringWeights())
	current := neutralMatrix()
	for _, id := range []string{"courage", "honesty", "resilience", "loyalty"} {
		setScore(current, id, 0)
	}
	evo := &domain.EvolutionRecord{Changes: map[string]domain.TraitChange{
		"courage": {Delta: -25}, "honesty": {Delta: -25}, "resilience": {Delta: -25}, "loyalty": {Delta: -25},
	}}
	scores := scorer.Score(current, sampleDecision("I confront them, admit the truth and keep going."), evo, nil)
	if len(scores) != len(domain.EnhancedCategories) {
		t.Fatalf("expected %d categories, got %d", len(domain.EnhancedCategories), len(scores))
	}
	for c, v := range scores {
		if v < 0 || v > 100 {
			t.Fatalf("category %s out of range: %v", c, v)
		}
	}
}
