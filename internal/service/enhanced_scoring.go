package service

import (
	"math"

	"persona-engine/internal/domain"
)

// EnhancedScorer deriva las 6 categorias mejoradas de la matriz current ya evolucionada.
// Nunca llama a colaboradores.
type EnhancedScorer struct {
	taxonomy *domain.TraitTaxonomy
	weights  ScoringWeights
}

func NewEnhancedScorer(taxonomy *domain.TraitTaxonomy, weights ScoringWeights) EnhancedScorer {
	return EnhancedScorer{taxonomy: taxonomy, weights: weights}
}

// traitScan es el resultado de buscar marcadores de los rasgos dominantes en el texto.
type traitScan struct {
	score      float64
	expressed  int
	contradict int
}

type expressedTrait struct {
	id            string
	consciousness domain.Consciousness
}

// Score calcula las categorias; evolution es el registro de esta decision (puede ser nil)
// y history el log previo a esta decision.
func (s EnhancedScorer) Score(current domain.TraitMatrix, decision domain.DecisionDescriptor, evolution *domain.EvolutionRecord, history []domain.EvolutionRecord) map[string]float64 {
	sig := newTextSignals(decision.Text())
	dominant := domain.RankByDeviation(current, s.taxonomy, s.weights.DominantThreshold, 0)
	deliberate := sig.any(deliberateMarkers)

	all, expressed := s.scan(sig, dominant, func(domain.Consciousness) bool { return true })
	conscious, _ := s.scan(sig, dominant, domain.Consciousness.IsConscious)
	subconscious, _ := s.scan(sig, dominant, func(c domain.Consciousness) bool { return c == domain.ConsciousnessSubconscious })

	consciousScore := conscious.score
	if deliberate && conscious.expressed > 0 {
		consciousScore += s.weights.DeliberateBoost
	}
	subconsciousScore := subconscious.score
	if !deliberate && subconscious.expressed > 0 {
		subconsciousScore += s.weights.DeliberateBoost
	}

	return map[string]float64{
		domain.CategoryTraitMatrixConsistency:  domain.ClampScore(all.score),
		domain.CategoryConsciousExpression:     domain.ClampScore(consciousScore),
		domain.CategorySubconsciousAlignment:   domain.ClampScore(subconsciousScore),
		domain.CategoryPsychologicalDepth:      domain.ClampScore(s.psychologicalDepth(sig, evolution)),
		domain.CategoryTraitEvolutionCoherence: domain.ClampScore(s.evolutionCoherence(evolution, history)),
		domain.CategoryDualLayerBalance:        domain.ClampScore(s.dualLayerBalance(expressed)),
	}
}

// scan premia la expresion de cada rasgo dominante y castiga mas fuerte su contradiccion,
// ponderando por la fuerza |score-50|/50. Para rasgos bajos (<50) se invierten los polos.
func (s EnhancedScorer) scan(sig textSignals, dominant []domain.DominantTrait, include func(domain.Consciousness) bool) (traitScan, []expressedTrait) {
	w := s.weights
	res := traitScan{score: w.NeutralScore}
	var expressed []expressedTrait
	for _, dt := range dominant {
		if !include(dt.Consciousness) {
			continue
		}
		def, err := s.taxonomy.GetDefinition(dt.TraitID)
		if err != nil {
			continue
		}
		expressMarkers, contradictMarkers := def.PositiveMarkers, def.NegativeMarkers
		if dt.Score < domain.NeutralTraitScore {
			expressMarkers, contradictMarkers = contradictMarkers, expressMarkers
		}
		strength := dt.Deviation / 50
		if sig.any(expressMarkers) {
			res.score += w.ExpressionReward * strength
			res.expressed++
			expressed = append(expressed, expressedTrait{id: dt.TraitID, consciousness: dt.Consciousness})
		}
		if sig.any(contradictMarkers) {
			res.score -= w.ContradictionPenalty * strength
			res.contradict++
		}
	}
	return res, expressed
}

func (s EnhancedScorer) psychologicalDepth(sig textSignals, evolution *domain.EvolutionRecord) float64 {
	w := s.weights
	score := w.NeutralScore
	words := sig.wordCount()
	if words > w.DepthWordsShort {
		score += w.DepthLengthBonus
	}
	if words > w.DepthWordsLong {
		score += w.DepthLengthBonus
	}
	score += math.Min(float64(sig.count(emotionWords))*w.DepthEmotionPerWord, w.DepthEmotionMax)
	score += math.Min(float64(sig.count(conflictWords))*w.DepthConflictPerWord, w.DepthConflictMax)
	if evolution != nil {
		for _, ch := range evolution.Changes {
			if ch.Delta != 0 {
				score += w.DepthDeltaBonus
				break
			}
		}
	}
	return score
}

// evolutionCoherence parte de 75 y castiga saltos bruscos y cambios de signo
// respecto de los ultimos registros que tocaron el mismo rasgo.
func (s EnhancedScorer) evolutionCoherence(evolution *domain.EvolutionRecord, history []domain.EvolutionRecord) float64 {
	w := s.weights
	score := w.CoherenceBase
	if evolution == nil {
		return score
	}
	for id, ch := range evolution.Changes {
		mag := math.Abs(ch.Delta)
		switch {
		case mag > w.LargeShiftThreshold:
			score -= w.LargeShiftPenalty + (mag-w.LargeShiftThreshold)*w.LargeShiftExcessFactor
		case mag > w.MediumShiftThreshold:
			score -= w.MediumShiftPenalty
		}
		if ch.Delta == 0 {
			continue
		}
		if flipped(id, ch.Delta, history, w.SignFlipLookback) {
			score -= w.SignFlipPenalty
		}
	}
	return score
}

// flipped revisa los ultimos `lookback` registros que tocaron el rasgo.
func flipped(id string, delta float64, history []domain.EvolutionRecord, lookback int) bool {
	seen := 0
	for i := len(history) - 1; i >= 0 && seen < lookback; i-- {
		prev, ok := history[i].Changes[id]
		if !ok {
			continue
		}
		seen++
		if prev.Delta != 0 && (prev.Delta > 0) != (delta > 0) {
			return true
		}
	}
	return false
}

// dualLayerBalance compara la proporcion de rasgos conscientes y subconscientes expresados,
// normalizada por el tamaño de cada capa en la taxonomia.
func (s EnhancedScorer) dualLayerBalance(expressed []expressedTrait) float64 {
	consciousTotal, subconsciousTotal := s.taxonomy.LayerSizes()
	var c, sub int
	for _, e := range expressed {
		if e.consciousness.IsConscious() {
			c++
		}
		if e.consciousness.IsSubconscious() {
			sub++
		}
	}
	if c+sub == 0 || consciousTotal == 0 || subconsciousTotal == 0 {
		return s.weights.NeutralScore
	}
	rc := float64(c) / float64(consciousTotal)
	rs := float64(sub) / float64(subconsciousTotal)
	total := rc + rs
	rc, rs = rc/total, rs/total
	return 50 + (1-math.Abs(rc-rs))*50
}
