package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"persona-engine/internal/domain"
)

const recentEvolutionForReveal = 5

// scoreLevels es la tabla descendente de etiquetas de un reveal.
var scoreLevels = []struct {
	min   float64
	label string
}{
	{90, "Masterful"},
	{80, "Excellent"},
	{70, "Strong"},
	{60, "Competent"},
	{50, "Developing"},
	{40, "Inconsistent"},
}

const lowestScoreLevel = "Out of Character"

// ScoreLevel discretiza un puntaje global.
func ScoreLevel(score float64) string {
	for _, lvl := range scoreLevels {
		if score >= lvl.min {
			return lvl.label
		}
	}
	return lowestScoreLevel
}

// RevealScheduler decide cuando mostrar un reveal y lo arma.
type RevealScheduler struct {
	assessor          PsychologicalAssessor
	taxonomy          *domain.TraitTaxonomy
	interval          int
	traitLimit        int
	dominantThreshold float64
	logger            *zap.Logger
	now               func() time.Time
}

func NewRevealScheduler(assessor PsychologicalAssessor, taxonomy *domain.TraitTaxonomy, interval, traitLimit int, dominantThreshold float64, logger *zap.Logger) *RevealScheduler {
	if interval <= 0 {
		interval = 10
	}
	if traitLimit <= 0 {
		traitLimit = 10
	}
	return &RevealScheduler{
		assessor:          assessor,
		taxonomy:          taxonomy,
		interval:          interval,
		traitLimit:        traitLimit,
		dominantThreshold: dominantThreshold,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// ShouldReveal es true cuando decision_count es multiplo positivo del intervalo.
func (r *RevealScheduler) ShouldReveal(session *domain.Session) bool {
	return session.DecisionCount > 0 && session.DecisionCount%r.interval == 0
}

// GenerateReveal arma el paquete y lo agrega a reveal_history. No toca decision_count.
// Si la evaluacion falla se usa el placeholder neutro: el reveal nunca se omite.
func (r *RevealScheduler) GenerateReveal(ctx context.Context, session *domain.Session) domain.RevealPackage {
	from := 1
	if session.LastReveal != nil {
		from = session.LastReveal.Range.To + 1
	}
	overall := traditionalAverage(session.Categories)
	dominant := domain.RankByDeviation(session.Current, r.taxonomy, r.dominantThreshold, r.traitLimit)

	recent := session.TraitMatrixEvolution
	if len(recent) > recentEvolutionForReveal {
		recent = recent[len(recent)-recentEvolutionForReveal:]
	}

	assessment, err := r.assessor.Assess(ctx, dominant, recent)
	degraded := false
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		degraded = true
		assessment = domain.NeutralAssessment()
		r.logger.Warn("psychological assessment failed, using placeholder",
			zap.String("story_id", session.StoryID),
			zap.Int("decision", session.DecisionCount),
			zap.Error(err),
		)
	}

	reveal := domain.RevealPackage{
		Number:            len(session.RevealHistory) + 1,
		Range:             domain.DecisionRange{From: from, To: session.DecisionCount},
		OverallScore:      overall,
		ScoreLevel:        ScoreLevel(overall),
		CategoryBreakdown: session.CategoryBreakdown(),
		TraitSummary: domain.TraitMatrixSummary{
			DominantTraits:    dominant,
			MatrixChangeScore: session.MatrixChangeScore,
			ConsistencyScore:  session.ConsistencyScore,
			TraitCount:        len(session.Current),
		},
		Assessment:         assessment,
		AssessmentDegraded: degraded,
		GeneratedAt:        r.now(),
	}

	session.RevealHistory = append(session.RevealHistory, reveal)
	last := reveal.Clone()
	session.LastReveal = &last
	return reveal.Clone()
}

// traditionalAverage promedia los acumuladores tradicionales con datos.
func traditionalAverage(categories map[string]domain.CategoryAccumulator) float64 {
	var values []float64
	for _, c := range domain.TraditionalCategories {
		if acc, ok := categories[c]; ok && acc.Count > 0 {
			values = append(values, acc.Average)
		}
	}
	if len(values) == 0 {
		return domain.NeutralTraitScore
	}
	return mean(values)
}
