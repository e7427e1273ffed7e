package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"persona-engine/internal/domain"
)

// EvolutionEngine aplica los deltas sugeridos por el DecisionImpactAnalyzer a la matriz current.
type EvolutionEngine struct {
	analyzer      DecisionImpactAnalyzer
	taxonomy      *domain.TraitTaxonomy
	weights       ScoringWeights
	dominantLimit int
	now           func() time.Time
}

func NewEvolutionEngine(analyzer DecisionImpactAnalyzer, taxonomy *domain.TraitTaxonomy, weights ScoringWeights, dominantLimit int) *EvolutionEngine {
	if dominantLimit <= 0 {
		dominantLimit = 15
	}
	return &EvolutionEngine{
		analyzer:      analyzer,
		taxonomy:      taxonomy,
		weights:       weights,
		dominantLimit: dominantLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// EvolveMatrix pide deltas para los rasgos dominantes y los aplica con clamp.
// Ante error del colaborador (o contexto cancelado) no muta nada y devuelve (nil, err).
// Devuelve (nil, nil) si la respuesta fue valida pero sin cambios aplicables.
func (e *EvolutionEngine) EvolveMatrix(ctx context.Context, session *domain.Session, decision domain.DecisionDescriptor, decisionID string) (*domain.EvolutionRecord, error) {
	dominant := domain.RankByDeviation(session.Current, e.taxonomy, -1, e.dominantLimit)

	deltas, err := e.analyzer.AnalyzeDecisionImpact(ctx, decision, dominant)
	if err != nil {
		return nil, err
	}
	// Una llamada que vuelve despues de la cancelacion no aporta nada.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := e.now()
	action := strings.TrimSpace(decision.Action)
	changes := make(map[string]domain.TraitChange, len(ids))
	for _, id := range ids {
		ts, ok := session.Current[id]
		if !ok {
			continue
		}
		d := deltas[id]
		requested := math.Max(-e.weights.MaxTraitDelta, math.Min(e.weights.MaxTraitDelta, d.Delta))
		old := ts.Score
		ts.Score = domain.ClampScore(old + requested)
		ts.Confidence = math.Min(1, ts.Confidence+e.weights.ConfidenceStep)
		applied := ts.Score - old
		ts.AddEvidence(domain.Evidence{
			Action:    action,
			Delta:     applied,
			Reasoning: d.Reasoning,
			Timestamp: now,
		})
		ts.LastUpdated = now
		session.Current[id] = ts

		changes[id] = domain.TraitChange{
			OldScore:  old,
			NewScore:  ts.Score,
			Delta:     applied,
			Reasoning: d.Reasoning,
		}
	}
	if len(changes) == 0 {
		return nil, nil
	}

	record := domain.EvolutionRecord{
		Timestamp:  now,
		DecisionID: decisionID,
		Changes:    changes,
	}
	session.TraitMatrixEvolution = append(session.TraitMatrixEvolution, record)
	return &record, nil
}
