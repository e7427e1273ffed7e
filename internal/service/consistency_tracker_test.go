package service

import (
	"testing"
	"time"

	"persona-engine/internal/domain"
)

func ingestOverall(tracker ConsistencyTracker, s *domain.Session, overall float64) {
	tracker.Ingest(s, domain.DecisionRecord{
		Timestamp:         time.Now().UTC(),
		OverallScore:      overall,
		TraditionalScores: map[string]float64{domain.CategoryDecisionMaking: overall},
	})
}

func TestConsistencyTracker_IdenticalScoresGiveFullConsistency(t *testing.T) {
	var tracker ConsistencyTracker
	s := newScoringSession(sampleCharacter())
	s.ConsistencyScore = 42

	for i := 0; i < 5; i++ {
		ingestOverall(tracker, s, 63)
	}
	if s.ConsistencyScore != 100 {
		t.Fatalf("expected 100 for zero variance, got %v", s.ConsistencyScore)
	}
}

func TestConsistencyTracker_WaitsForMoreThanThreeSamples(t *testing.T) {
	var tracker ConsistencyTracker
	s := newScoringSession(sampleCharacter())

	ingestOverall(tracker, s, 10)
	ingestOverall(tracker, s, 90)
	ingestOverall(tracker, s, 10)
	if s.ConsistencyScore != 100 {
		t.Fatalf("expected prior value with 3 samples, got %v", s.ConsistencyScore)
	}

	ingestOverall(tracker, s, 90)
	// varianza poblacional de {10,90,10,90} = 1600 -> clamp a 0
	if s.ConsistencyScore != 0 {
		t.Fatalf("expected clamp to 0 for high variance, got %v", s.ConsistencyScore)
	}
}

func TestConsistencyTracker_UsesLastFiveSamples(t *testing.T) {
	var tracker ConsistencyTracker
	s := newScoringSession(sampleCharacter())

	for _, v := range []float64{0, 100, 50, 52, 48, 50, 50} {
		ingestOverall(tracker, s, v)
	}
	// ultimos 5: 50,52,48,50,50 -> media 50, varianza 1.6
	if got := s.ConsistencyScore; got < 98.39 || got > 98.41 {
		t.Fatalf("expected 98.4, got %v", got)
	}
}

func TestConsistencyTracker_BufferCapped(t *testing.T) {
	var tracker ConsistencyTracker
	s := newScoringSession(sampleCharacter())

	for i := 0; i < 25; i++ {
		ingestOverall(tracker, s, float64(i))
	}
	if len(s.ScoreBuffer) != domain.ConsistencyBufferSize {
		t.Fatalf("expected buffer of %d, got %d", domain.ConsistencyBufferSize, len(s.ScoreBuffer))
	}
	if s.ScoreBuffer[0].Overall != 5 {
		t.Fatalf("expected oldest entries dropped, first=%v", s.ScoreBuffer[0].Overall)
	}
}
