package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"persona-engine/internal/domain"
)

// MatrixInitialization es el resultado de InitializeMatrix.
type MatrixInitialization struct {
	Baseline       domain.TraitMatrix
	Current        domain.TraitMatrix
	AgeAdjustments map[string]float64
	Degraded       bool
}

// MatrixService construye las matrices baseline y current de una sesion.
type MatrixService struct {
	analyzer CharacterAnalyzer
	taxonomy *domain.TraitTaxonomy
	logger   *zap.Logger
	now      func() time.Time
}

func NewMatrixService(analyzer CharacterAnalyzer, taxonomy *domain.TraitTaxonomy, logger *zap.Logger) *MatrixService {
	return &MatrixService{
		analyzer: analyzer,
		taxonomy: taxonomy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InitializeMatrix arranca los 67 rasgos en 50/0.1, aplica el juicio del CharacterAnalyzer
// y luego los offsets de edad. Current es una copia profunda de baseline.
// Una falla del colaborador no es fatal: la matriz queda neutra y Degraded=true.
func (s *MatrixService) InitializeMatrix(ctx context.Context, character domain.CharacterDescriptor, playerAge *int) MatrixInitialization {
	now := s.now()
	baseline := domain.NewNeutralMatrix(s.taxonomy, now)
	result := MatrixInitialization{}

	assessments, err := s.analyzer.AnalyzeCharacter(ctx, character)
	if err != nil {
		result.Degraded = true
		s.logger.Warn("character analysis failed, using neutral baseline",
			zap.String("character", character.Name),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err),
		)
	}
	for id, a := range assessments {
		ts, ok := baseline[id]
		if !ok {
			continue
		}
		ts.Score = domain.ClampScore(a.Score)
		ts.Confidence = domain.ClampConfidence(a.Confidence)
		ts.Evidence = ts.Evidence[:0]
		for _, ev := range a.Evidence {
			ev = strings.TrimSpace(ev)
			if ev == "" {
				continue
			}
			ts.AddEvidence(domain.Evidence{
				Action:    "character_analysis",
				Delta:     ts.Score - domain.NeutralTraitScore,
				Reasoning: ev,
				Timestamp: now,
			})
		}
		ts.LastUpdated = now
		baseline[id] = ts
	}

	if playerAge != nil {
		bracket, offsets := ageOffsets(*playerAge)
		if len(offsets) > 0 {
			result.AgeAdjustments = make(map[string]float64, len(offsets))
		}
		for id, off := range offsets {
			ts, ok := baseline[id]
			if !ok {
				continue
			}
			before := ts.Score
			ts.Score = domain.ClampScore(ts.Score + off)
			ts.LastUpdated = now
			baseline[id] = ts
			// Se registra el offset realmente aplicado (puede recortarse por el clamp).
			result.AgeAdjustments[id] = ts.Score - before
		}
		if bracket != "" {
			s.logger.Debug("age modifiers applied", zap.String("bracket", bracket), zap.Int("age", *playerAge))
		}
	}

	result.Baseline = baseline
	result.Current = baseline.Clone()
	return result
}
