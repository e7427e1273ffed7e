package service

import (
	"maps"

	"persona-engine/internal/domain"
)

const (
	consistencyMinSamples = 4 // se recalcula solo con mas de 3 muestras
	consistencyWindow     = 5
)

// ConsistencyTracker mide la estabilidad de la interpretacion como 100 - varianza
// de los ultimos 5 puntajes globales.
type ConsistencyTracker struct{}

// Ingest agrega la decision al buffer (max 20) y recalcula consistency_score si corresponde.
func (ConsistencyTracker) Ingest(session *domain.Session, record domain.DecisionRecord) {
	session.ScoreBuffer = append(session.ScoreBuffer, domain.ScoreSample{
		Timestamp:  record.Timestamp,
		Overall:    record.OverallScore,
		Categories: maps.Clone(record.TraditionalScores),
	})
	if over := len(session.ScoreBuffer) - domain.ConsistencyBufferSize; over > 0 {
		session.ScoreBuffer = append([]domain.ScoreSample(nil), session.ScoreBuffer[over:]...)
	}
	if len(session.ScoreBuffer) < consistencyMinSamples {
		return
	}

	window := session.ScoreBuffer
	if len(window) > consistencyWindow {
		window = window[len(window)-consistencyWindow:]
	}
	values := make([]float64, len(window))
	for i, smp := range window {
		values[i] = smp.Overall
	}
	session.ConsistencyScore = domain.ClampScore(100 - populationVariance(values))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var acc float64
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(values))
}
