package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"persona-engine/internal/domain"
	"persona-engine/internal/repository"
)

// EngineOptions agrupa los parametros ajustables del motor.
type EngineOptions struct {
	CollaboratorTimeout time.Duration
	DominantTraitLimit  int
	RevealInterval      int
	RevealTraitLimit    int
	Weights             *ScoringWeights
	Taxonomy            *domain.TraitTaxonomy
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.CollaboratorTimeout <= 0 {
		o.CollaboratorTimeout = 20 * time.Second
	}
	if o.DominantTraitLimit <= 0 {
		o.DominantTraitLimit = 15
	}
	if o.RevealInterval <= 0 {
		o.RevealInterval = 10
	}
	if o.RevealTraitLimit <= 0 {
		o.RevealTraitLimit = 10
	}
	if o.Weights == nil {
		w := DefaultScoringWeights()
		o.Weights = &w
	}
	if o.Taxonomy == nil {
		o.Taxonomy = domain.DefaultTaxonomy()
	}
	return o
}

// Collaborators reune los tres contratos externos del motor.
type Collaborators struct {
	Character CharacterAnalyzer
	Impact    DecisionImpactAnalyzer
	Assessor  PsychologicalAssessor
}

// InitSessionRequest son los datos para abrir (o retomar) una sesion.
type InitSessionRequest struct {
	StoryID     string
	CharacterID string
	Character   domain.CharacterDescriptor
	PlayerAge   *int
}

// sessionHandle es el estado en memoria de una historia.
// sem serializa las mutaciones; mu protege el puntero a la sesion confirmada.
// Una sesion confirmada no se vuelve a mutar: cada operacion trabaja sobre un Clone.
type sessionHandle struct {
	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	writer *snapshotWriter

	mu      sync.RWMutex
	session *domain.Session
	closed  bool
}

func (h *sessionHandle) snapshot() (*domain.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session, h.closed
}

// collaboratorContext acota la llamada por timeout y la cancela si la sesion se cierra.
func (h *sessionHandle) collaboratorContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	stop := context.AfterFunc(h.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// ScoringEngine es la superficie publica: sesiones, decisiones, resumenes y reveals.
type ScoringEngine struct {
	taxonomy    *domain.TraitTaxonomy
	weights     ScoringWeights
	opts        EngineOptions
	matrix      *MatrixService
	evolution   *EvolutionEngine
	traditional TraditionalScorer
	enhanced    EnhancedScorer
	consistency ConsistencyTracker
	reveals     *RevealScheduler
	store       repository.SessionStore
	logger      *zap.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionHandle
	closed   bool
	inits    singleflight.Group
}

func NewScoringEngine(store repository.SessionStore, collaborators Collaborators, opts EngineOptions, logger *zap.Logger) *ScoringEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = repository.NewMemorySessionStore()
	}
	opts = opts.withDefaults()
	weights := *opts.Weights
	tax := opts.Taxonomy
	return &ScoringEngine{
		taxonomy:    tax,
		weights:     weights,
		opts:        opts,
		matrix:      NewMatrixService(collaborators.Character, tax, logger),
		evolution:   NewEvolutionEngine(collaborators.Impact, tax, weights, opts.DominantTraitLimit),
		traditional: NewTraditionalScorer(tax, weights),
		enhanced:    NewEnhancedScorer(tax, weights),
		reveals:     NewRevealScheduler(collaborators.Assessor, tax, opts.RevealInterval, opts.RevealTraitLimit, weights.DominantThreshold, logger),
		store:       store,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		sessions:    make(map[string]*sessionHandle),
	}
}

// InitializeSession crea la sesion o la retoma desde el store. Es idempotente:
// si la historia ya esta en memoria devuelve la sesion existente con created=false.
func (e *ScoringEngine) InitializeSession(ctx context.Context, req InitSessionRequest) (*domain.Session, bool, error) {
	storyID := strings.TrimSpace(req.StoryID)
	if storyID == "" {
		return nil, false, &domain.ValidationError{Field: "story_id", Reason: "required"}
	}
	if err := req.Character.Validate(); err != nil {
		return nil, false, err
	}
	if req.PlayerAge != nil && (*req.PlayerAge < 0 || *req.PlayerAge > 150) {
		return nil, false, &domain.ValidationError{Field: "player_age", Reason: "out of range"}
	}
	req.StoryID = storyID

	if h, err := e.lookup(storyID); err == nil {
		s, _ := h.snapshot()
		return s.Clone(), false, nil
	} else if errors.Is(err, domain.ErrSessionClosed) {
		return nil, false, err
	}

	type initResult struct {
		handle  *sessionHandle
		created bool
	}
	v, err, _ := e.inits.Do(storyID, func() (any, error) {
		if h, err := e.lookup(storyID); err == nil {
			return initResult{handle: h}, nil
		}
		// El resultado se comparte con todos los callers que esperan en Do,
		// asi que no depende de la cancelacion del que llego primero.
		session, created, err := e.buildSession(context.WithoutCancel(ctx), req)
		if err != nil {
			return nil, err
		}
		h, err := e.register(session)
		if err != nil {
			return nil, err
		}
		if created {
			h.writer.Enqueue(newSnapshot(session, e.now()))
		}
		return initResult{handle: h, created: created}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(initResult)
	s, _ := res.handle.snapshot()
	return s.Clone(), res.created, nil
}

// buildSession intenta rehidratar; solo arma la matriz desde cero si el store
// confirma que no hay snapshot. Cualquier otra falla del store se devuelve: una
// sesion nueva pisaria el historial guardado.
func (e *ScoringEngine) buildSession(ctx context.Context, req InitSessionRequest) (*domain.Session, bool, error) {
	loadCtx, cancelLoad := context.WithTimeout(ctx, persistTimeout)
	snap, err := e.store.Load(loadCtx, req.StoryID)
	cancelLoad()
	switch {
	case err == nil:
		session := snap.Session
		e.normalizeLoaded(session)
		e.logger.Info("session rehydrated",
			zap.String("story_id", req.StoryID),
			zap.Int("decision_count", session.DecisionCount),
		)
		return session, false, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		e.logger.Warn("load session snapshot failed",
			zap.String("story_id", req.StoryID),
			zap.Error(err),
		)
		return nil, false, fmt.Errorf("load session %q: %w", req.StoryID, err)
	}

	playerAge := req.PlayerAge
	if playerAge == nil {
		playerAge = req.Character.Age
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CollaboratorTimeout)
	defer cancel()
	seeded := e.matrix.InitializeMatrix(callCtx, req.Character, playerAge)

	now := e.now()
	session := domain.NewSession(req.StoryID, req.CharacterID, req.Character, now)
	if playerAge != nil {
		age := *playerAge
		session.PlayerAge = &age
	}
	session.Baseline = seeded.Baseline
	session.Current = seeded.Current
	session.AgeAdjustments = seeded.AgeAdjustments
	session.InitDegraded = seeded.Degraded

	e.logger.Info("session initialized",
		zap.String("story_id", req.StoryID),
		zap.String("character", req.Character.Name),
		zap.Bool("degraded", seeded.Degraded),
	)
	return session, true, nil
}

// normalizeLoaded completa campos ausentes en snapshots viejos o parciales.
func (e *ScoringEngine) normalizeLoaded(s *domain.Session) {
	if s.Categories == nil {
		s.Categories = make(map[string]domain.CategoryAccumulator)
	}
	for _, c := range append(append([]string{}, domain.TraditionalCategories...), domain.EnhancedCategories...) {
		if _, ok := s.Categories[c]; !ok {
			s.Categories[c] = domain.CategoryAccumulator{Recent: []float64{}}
		}
	}
	if s.Baseline == nil {
		s.Baseline = domain.NewNeutralMatrix(e.taxonomy, e.now())
	}
	if s.Current == nil {
		s.Current = s.Baseline.Clone()
	}
	if s.DecisionHistory == nil {
		s.DecisionHistory = []domain.DecisionRecord{}
	}
	if s.TraitMatrixEvolution == nil {
		s.TraitMatrixEvolution = []domain.EvolutionRecord{}
	}
	if s.ScoreBuffer == nil {
		s.ScoreBuffer = []domain.ScoreSample{}
	}
	if s.RevealHistory == nil {
		s.RevealHistory = []domain.RevealPackage{}
	}
}

func (e *ScoringEngine) register(session *domain.Session) (*sessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrSessionClosed
	}
	if h, ok := e.sessions[session.StoryID]; ok {
		return h, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &sessionHandle{
		sem:     make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		writer:  newSnapshotWriter(e.store, session.StoryID, e.logger),
		session: session,
	}
	e.sessions[session.StoryID] = h
	return h, nil
}

func (e *ScoringEngine) lookup(storyID string) (*sessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrSessionClosed
	}
	h, ok := e.sessions[strings.TrimSpace(storyID)]
	if !ok {
		return nil, fmt.Errorf("story %q: %w", storyID, domain.ErrNotFound)
	}
	return h, nil
}

// acquire espera el turno de la sesion respetando ctx y el cierre del handle.
func (h *sessionHandle) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-h.ctx.Done():
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrSessionBusy, ctx.Err())
	}
}

func (h *sessionHandle) release() {
	<-h.sem
}

// ScoreDecision puntua una decision. Las fallas de colaboradores degradan el resultado
// pero nunca lo impiden; un descriptor invalido se rechaza sin tocar el estado.
func (e *ScoringEngine) ScoreDecision(ctx context.Context, storyID string, decision domain.DecisionDescriptor) (domain.ScoringResult, error) {
	if err := decision.Validate(); err != nil {
		return domain.ScoringResult{}, err
	}
	h, err := e.lookup(storyID)
	if err != nil {
		return domain.ScoringResult{}, err
	}
	if err := h.acquire(ctx); err != nil {
		return domain.ScoringResult{}, err
	}
	defer h.release()

	committed, closed := h.snapshot()
	if closed {
		return domain.ScoringResult{}, domain.ErrSessionClosed
	}
	work := committed.Clone()

	now := e.now()
	if decision.Timestamp.IsZero() {
		decision.Timestamp = now
	}
	decisionID := uuid.NewString()

	traditional := e.traditional.Score(work, decision)
	history := work.TraitMatrixEvolution[:len(work.TraitMatrixEvolution):len(work.TraitMatrixEvolution)]

	evoCtx, cancel := h.collaboratorContext(ctx, e.opts.CollaboratorTimeout)
	evolution, evoErr := e.evolution.EvolveMatrix(evoCtx, work, decision, decisionID)
	cancel()
	if h.ctx.Err() != nil {
		return domain.ScoringResult{}, domain.ErrSessionClosed
	}
	if evoErr != nil {
		e.logger.Warn("trait evolution degraded",
			zap.String("story_id", work.StoryID),
			zap.Int("decision", work.DecisionCount+1),
			zap.Error(evoErr),
		)
	}

	enhanced := e.enhanced.Score(work.Current, decision, evolution, history)

	for c, v := range traditional {
		acc := work.Categories[c]
		acc.Add(v)
		work.Categories[c] = acc
	}
	for c, v := range enhanced {
		acc := work.Categories[c]
		acc.Add(v)
		work.Categories[c] = acc
	}

	overall := meanOf(traditional, domain.TraditionalCategories)
	enhancedOverall := e.weights.EnhancedBlendTraditional*overall + e.weights.EnhancedBlendEnhanced*meanOf(enhanced, domain.EnhancedCategories)
	work.MatrixChangeScore = matrixChange(work.Baseline, work.Current)

	record := domain.DecisionRecord{
		ID:                   decisionID,
		Number:               work.DecisionCount + 1,
		Timestamp:            decision.Timestamp,
		Action:               strings.TrimSpace(decision.Action),
		SceneContext:         strings.TrimSpace(decision.SceneContext),
		TraditionalScores:    traditional,
		EnhancedScores:       enhanced,
		TraitDeltas:          map[string]float64{},
		OverallScore:         overall,
		EnhancedOverallScore: enhancedOverall,
		EvolutionDegraded:    evoErr != nil,
	}
	if evolution != nil {
		for id, ch := range evolution.Changes {
			record.TraitDeltas[id] = ch.Delta
		}
	}
	work.DecisionHistory = append(work.DecisionHistory, record)
	work.DecisionCount++
	e.consistency.Ingest(work, record)

	result := domain.ScoringResult{
		StoryID:           work.StoryID,
		ConsistencyScore:  work.ConsistencyScore,
		MatrixChangeScore: work.MatrixChangeScore,
		ShouldReveal:      e.reveals.ShouldReveal(work),
	}
	if result.ShouldReveal {
		revealCtx, cancel := h.collaboratorContext(ctx, e.opts.CollaboratorTimeout)
		reveal := e.reveals.GenerateReveal(revealCtx, work)
		cancel()
		result.Reveal = &reveal
	}
	work.UpdatedAt = e.now()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return domain.ScoringResult{}, domain.ErrSessionClosed
	}
	h.session = work
	h.mu.Unlock()
	h.writer.Enqueue(newSnapshot(work, work.UpdatedAt))

	result.Decision = work.DecisionHistory[len(work.DecisionHistory)-1]
	result.Decision.TraditionalScores = cloneScores(result.Decision.TraditionalScores)
	result.Decision.EnhancedScores = cloneScores(result.Decision.EnhancedScores)
	result.Decision.TraitDeltas = cloneScores(result.Decision.TraitDeltas)
	if evolution != nil {
		evo := *evolution
		evo.Changes = make(map[string]domain.TraitChange, len(evolution.Changes))
		for id, ch := range evolution.Changes {
			evo.Changes[id] = ch
		}
		result.TraitEvolution = &evo
	}
	return result, nil
}

// GetSession devuelve una copia de la sesion confirmada.
func (e *ScoringEngine) GetSession(_ context.Context, storyID string) (*domain.Session, error) {
	h, err := e.lookup(storyID)
	if err != nil {
		return nil, err
	}
	s, _ := h.snapshot()
	return s.Clone(), nil
}

// GetSummary no espera a las mutaciones en curso: lee la ultima sesion confirmada.
func (e *ScoringEngine) GetSummary(_ context.Context, storyID string) (domain.SessionSummary, error) {
	h, err := e.lookup(storyID)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	s, _ := h.snapshot()
	summary := domain.SessionSummary{
		StoryID:           s.StoryID,
		CharacterID:       s.CharacterID,
		DecisionCount:     s.DecisionCount,
		DominantTraits:    domain.RankByDeviation(s.Current, e.taxonomy, e.weights.DominantThreshold, e.opts.DominantTraitLimit),
		MatrixChangeScore: s.MatrixChangeScore,
		ConsistencyScore:  s.ConsistencyScore,
		RevealCount:       len(s.RevealHistory),
	}
	if s.LastReveal != nil {
		a := s.LastReveal.Assessment.Clone()
		summary.LastAssessment = &a
	}
	return summary, nil
}

func (e *ScoringEngine) GetReveals(_ context.Context, storyID string) ([]domain.RevealPackage, error) {
	h, err := e.lookup(storyID)
	if err != nil {
		return nil, err
	}
	s, _ := h.snapshot()
	out := make([]domain.RevealPackage, len(s.RevealHistory))
	for i, r := range s.RevealHistory {
		out[i] = r.Clone()
	}
	return out, nil
}

// EndSession saca la historia de memoria: cancela las llamadas pendientes y
// escribe el ultimo snapshot. Los datos del store se conservan.
func (e *ScoringEngine) EndSession(ctx context.Context, storyID string) error {
	id := strings.TrimSpace(storyID)
	e.mu.Lock()
	h, ok := e.sessions[id]
	if ok {
		delete(e.sessions, id)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("story %q: %w", storyID, domain.ErrNotFound)
	}
	e.logger.Info("session ended", zap.String("story_id", id))
	return h.close(ctx)
}

func (h *sessionHandle) close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	return h.writer.Close(ctx)
}

// Close cierra todas las sesiones y espera a que se vacien sus escrituras.
func (e *ScoringEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	handles := make([]*sessionHandle, 0, len(e.sessions))
	for id, h := range e.sessions {
		handles = append(handles, h)
		delete(e.sessions, id)
	}
	e.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newSnapshot(s *domain.Session, now time.Time) domain.SessionSnapshot {
	return domain.SessionSnapshot{Version: domain.SnapshotVersion, SavedAt: now, Session: s}
}

func meanOf(scores map[string]float64, categories []string) float64 {
	values := make([]float64, 0, len(categories))
	for _, c := range categories {
		if v, ok := scores[c]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return domain.NeutralTraitScore
	}
	return mean(values)
}

// matrixChange promedia |current-baseline| sobre los rasgos de baseline.
func matrixChange(baseline, current domain.TraitMatrix) float64 {
	if len(baseline) == 0 {
		return 0
	}
	var sum float64
	for id, b := range baseline {
		sum += math.Abs(current.Score(id) - b.Score)
	}
	return sum / float64(len(baseline))
}

func cloneScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
