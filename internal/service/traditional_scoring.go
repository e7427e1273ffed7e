package service

import (
	"math"
	"strings"

	"persona-engine/internal/domain"
)

// TraditionalScorer evalua las 8 categorias clasicas con heuristicas locales.
// No llama a colaboradores; sin señal, cada categoria queda en 50.
type TraditionalScorer struct {
	taxonomy *domain.TraitTaxonomy
	weights  ScoringWeights
}

func NewTraditionalScorer(taxonomy *domain.TraitTaxonomy, weights ScoringWeights) TraditionalScorer {
	return TraditionalScorer{taxonomy: taxonomy, weights: weights}
}

// Score devuelve un puntaje en [0,100] por categoria tradicional.
func (s TraditionalScorer) Score(session *domain.Session, decision domain.DecisionDescriptor) map[string]float64 {
	sig := newTextSignals(decision.Text())
	character := session.Character

	return map[string]float64{
		domain.CategoryDialogueAuthenticity: domain.ClampScore(s.dialogueAuthenticity(sig, character, decision)),
		domain.CategoryActionConsistency:    domain.ClampScore(s.actionConsistency(sig, character)),
		domain.CategoryMoralAlignment:       domain.ClampScore(s.moralAlignment(sig, character, session.Baseline)),
		domain.CategoryEmotionalResponse:    domain.ClampScore(s.emotionalResponse(sig, decision)),
		domain.CategoryRelationshipHandling: domain.ClampScore(s.relationshipHandling(sig, character, decision, session.Current)),
		domain.CategoryPeriodAccuracy:       domain.ClampScore(s.periodAccuracy(sig, character)),
		domain.CategoryCharacterGrowth:      domain.ClampScore(s.characterGrowth(sig)),
		domain.CategoryDecisionMaking:       domain.ClampScore(s.decisionMaking(sig, decision)),
	}
}

func (s TraditionalScorer) anachronisms(sig textSignals, character domain.CharacterDescriptor) int {
	if isModernEra(character.Era) {
		return 0
	}
	return sig.count(anachronismMarkers)
}

func (s TraditionalScorer) dialogueAuthenticity(sig textSignals, character domain.CharacterDescriptor, decision domain.DecisionDescriptor) float64 {
	w := s.weights
	score := w.NeutralScore
	hits := sig.count(character.SpeechPatterns)
	score += float64(hits) * w.SpeechPatternBonus

	hasDialogue := strings.TrimSpace(decision.Dialogue) != "" || strings.Contains(decision.Action, `"`)
	if hasDialogue && hits == 0 && len(character.SpeechPatterns) > 0 {
		score -= w.MissingSpeechPenalty
	}
	score -= float64(s.anachronisms(sig, character)) * w.AnachronismPenalty
	return score
}

func (s TraditionalScorer) actionConsistency(sig textSignals, character domain.CharacterDescriptor) float64 {
	w := s.weights
	score := w.NeutralScore
	seen := make(map[string]struct{}, len(character.Traits))
	for _, raw := range character.Traits {
		id, ok := resolveTraitID(s.taxonomy, raw)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		def, err := s.taxonomy.GetDefinition(id)
		if err != nil {
			continue
		}
		score += float64(sig.count(def.PositiveMarkers)) * w.TraitMarkerBonus
		score -= float64(sig.count(def.NegativeMarkers)) * w.TraitMarkerPenalty
	}
	return score
}

func (s TraditionalScorer) moralAlignment(sig textSignals, character domain.CharacterDescriptor, baseline domain.TraitMatrix) float64 {
	w := s.weights
	score := w.NeutralScore
	score += float64(sig.count(character.CoreValues)) * w.CoreValueBonus

	// Solo penaliza transgresiones si el personaje es moralmente estricto.
	strictness := (baseline.Score("honesty") + baseline.Score("integrity") + baseline.Score("compassion")) / 3
	if strictness > w.MoralStrictThreshold {
		score -= float64(sig.count(moralViolationMarkers)) * w.MoralViolationPenalty
	}
	return score
}

func (s TraditionalScorer) emotionalResponse(sig textSignals, decision domain.DecisionDescriptor) float64 {
	w := s.weights
	score := w.NeutralScore
	switch n := sig.count(emotionWords); {
	case n >= 3:
		score = w.EmotionRichScore
	case n >= 1:
		score = w.EmotionSomeScore
	}
	if tone := strings.TrimSpace(decision.EmotionalTone); tone != "" && sig.has(tone) {
		score += w.EmotionToneBonus
	}
	return score
}

func (s TraditionalScorer) relationshipHandling(sig textSignals, character domain.CharacterDescriptor, decision domain.DecisionDescriptor, current domain.TraitMatrix) float64 {
	w := s.weights
	score := w.NeutralScore

	names := make([]string, 0, len(decision.InvolvedCharacters)+len(character.Relationships))
	names = append(names, decision.InvolvedCharacters...)
	names = append(names, character.Relationships...)
	named := math.Min(float64(sig.count(dedupeFold(names)))*w.RelationshipNameBonus, w.RelationshipNameMax)
	score += named

	score += float64(sig.count(cooperativeMarkers)) * w.CooperativeBonus
	// Un personaje hostil que actua hostil no rompe el personaje.
	if current.Score("hostility") <= w.HostilityExemptScore {
		score -= float64(sig.count(hostileMarkers)) * w.HostilePenalty
	}
	return score
}

func (s TraditionalScorer) periodAccuracy(sig textSignals, character domain.CharacterDescriptor) float64 {
	w := s.weights
	if isModernEra(character.Era) {
		return w.NeutralScore
	}
	return w.PeriodBaseScore - float64(sig.count(anachronismMarkers))*w.PeriodAnachronismCost
}

func (s TraditionalScorer) characterGrowth(sig textSignals) float64 {
	return s.weights.NeutralScore + float64(sig.count(reflectionMarkers))*s.weights.ReflectionBonus
}

func (s TraditionalScorer) decisionMaking(sig textSignals, decision domain.DecisionDescriptor) float64 {
	w := s.weights
	score := w.NeutralScore
	score += float64(sig.count(deliberateMarkers)) * w.DeliberateBonus
	score -= float64(sig.count(hesitationMarkers)) * w.HesitationPenalty
	if len(strings.TrimSpace(decision.Action)) > w.DetailedActionMinChars {
		score += w.DetailedActionBonus
	}
	return score
}

func dedupeFold(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
