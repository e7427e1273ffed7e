package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"persona-engine/internal/domain"
	"persona-engine/internal/repository"
)

type stubCharacterAnalyzer struct {
	mu     sync.Mutex
	traits map[string]TraitAssessment
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubCharacterAnalyzer) AnalyzeCharacter(ctx context.Context, _ domain.CharacterDescriptor) (map[string]TraitAssessment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.traits, nil
}

func (s *stubCharacterAnalyzer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubImpactAnalyzer struct {
	mu           sync.Mutex
	deltas       map[string]TraitDelta
	err          error
	calls        int
	lastDominant []domain.DominantTrait
	// started recibe una señal por llamada; release bloquea la respuesta hasta cerrarse.
	started chan struct{}
	release chan struct{}
	// ignoreCtx simula un colaborador que responde tarde aunque el contexto se cancele.
	ignoreCtx bool
}

func (s *stubImpactAnalyzer) AnalyzeDecisionImpact(ctx context.Context, _ domain.DecisionDescriptor, dominant []domain.DominantTrait) (map[string]TraitDelta, error) {
	s.mu.Lock()
	s.calls++
	s.lastDominant = dominant
	deltas, err := s.deltas, s.err
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		if s.ignoreCtx {
			<-s.release
		} else {
			select {
			case <-s.release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return deltas, nil
}

func (s *stubImpactAnalyzer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubAssessor struct {
	mu         sync.Mutex
	assessment domain.PsychologicalAssessment
	err        error
	calls      int
	lastRecent []domain.EvolutionRecord
}

func (s *stubAssessor) Assess(_ context.Context, _ []domain.DominantTrait, recent []domain.EvolutionRecord) (domain.PsychologicalAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastRecent = recent
	if s.err != nil {
		return domain.PsychologicalAssessment{}, s.err
	}
	return s.assessment, nil
}

func (s *stubAssessor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sampleAssessment() domain.PsychologicalAssessment {
	return domain.PsychologicalAssessment{
		AuthenticityScore: 82,
		ConsistencyScore:  77,
		OverallAssessment: "Consistent and brave portrayal.",
		Strengths:         []string{"courage"},
		ImprovementAreas:  []string{},
		TraitInsights:     map[string]string{"courage": "shows up under pressure"},
		Recommendations:   []string{"explore doubt"},
	}
}

func sampleCharacter() domain.CharacterDescriptor {
	return domain.CharacterDescriptor{
		Name:           "Aria",
		Description:    "A sailor who survived a shipwreck and leads her crew.",
		Era:            "modern",
		SpeechPatterns: []string{"aye"},
		CoreValues:     []string{"loyalty"},
		Traits:         []string{"brave", "honest"},
		Relationships:  []string{"Tomas"},
	}
}

func sampleDecision(action string) domain.DecisionDescriptor {
	return domain.DecisionDescriptor{
		Action:       action,
		SceneContext: "The ship is sinking and the crew is panicking.",
	}
}

type failingStore struct {
	mu       sync.Mutex
	persists int
}

func (f *failingStore) Persist(context.Context, string, domain.SessionSnapshot) error {
	f.mu.Lock()
	f.persists++
	f.mu.Unlock()
	return domain.ErrPersistence
}

func (f *failingStore) Load(context.Context, string) (domain.SessionSnapshot, error) {
	return domain.SessionSnapshot{}, domain.ErrNotFound
}

// flakyLoadStore falla los primeros loadFailures Load y luego delega en el store en memoria.
type flakyLoadStore struct {
	*repository.MemorySessionStore
	mu           sync.Mutex
	loadFailures int
	loads        int
}

func (f *flakyLoadStore) Load(ctx context.Context, storyID string) (domain.SessionSnapshot, error) {
	f.mu.Lock()
	f.loads++
	fail := f.loadFailures > 0
	if fail {
		f.loadFailures--
	}
	f.mu.Unlock()
	if fail {
		return domain.SessionSnapshot{}, fmt.Errorf("select session: %w: connection reset", domain.ErrPersistence)
	}
	return f.MemorySessionStore.Load(ctx, storyID)
}

func (f *failingStore) Delete(context.Context, string) error { return nil }

type engineFixture struct {
	engine    *ScoringEngine
	store     repository.SessionStore
	character *stubCharacterAnalyzer
	impact    *stubImpactAnalyzer
	assessor  *stubAssessor
}

func newEngineFixture(t *testing.T, store repository.SessionStore, opts EngineOptions) *engineFixture {
	t.Helper()
	if store == nil {
		store = repository.NewMemorySessionStore()
	}
	f := &engineFixture{
		store:     store,
		character: &stubCharacterAnalyzer{traits: map[string]TraitAssessment{}},
		impact:    &stubImpactAnalyzer{deltas: map[string]TraitDelta{}},
		assessor:  &stubAssessor{assessment: sampleAssessment()},
	}
	if opts.CollaboratorTimeout == 0 {
		opts.CollaboratorTimeout = 2 * time.Second
	}
	f.engine = NewScoringEngine(store, Collaborators{
		Character: f.character,
		Impact:    f.impact,
		Assessor:  f.assessor,
	}, opts, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.engine.Close(ctx)
	})
	return f
}

func (f *engineFixture) init(t *testing.T, storyID string) *domain.Session {
	t.Helper()
	s, _, err := f.engine.InitializeSession(context.Background(), InitSessionRequest{
		StoryID:     storyID,
		CharacterID: "char-1",
		Character:   sampleCharacter(),
	})
	if err != nil {
		t.Fatalf("initialize session: %v", err)
	}
	return s
}
