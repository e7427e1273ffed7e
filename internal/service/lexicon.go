package service

import (
	"strings"

	"persona-engine/internal/domain"
)

var deliberateMarkers = []string{"decid*", "choos*", "chose", "will", "i'll", "plan to", "intend*", "resolve", "decido", "elijo"}

var hesitationMarkers = []string{"maybe", "perhaps", "not sure", "hesitat*", "i guess", "unsure", "quizas", "tal vez"}

var emotionWords = []string{
	"angry", "anger", "afraid", "fear", "scared", "sad", "sorrow", "grief", "joy", "happy",
	"love", "hate", "ashamed", "shame", "guilt", "proud", "anxious", "furious", "tears", "cry",
	"hurt", "lonely", "relief", "despair", "excited", "miedo", "tristeza", "alegria", "furia",
}

var conflictWords = []string{"but", "however", "although", "yet", "despite", "though", "torn", "instead", "even so", "part of me", "pero", "aunque"}

var reflectionMarkers = []string{"realiz*", "learn*", "understand", "regret*", "change", "grow", "reflect*", "i was wrong", "promise myself", "remember when"}

var moralViolationMarkers = []string{"betray*", "lie", "lied", "steal", "stole", "kill", "murder*", "cheat*", "deceiv*"}

var cooperativeMarkers = []string{"help", "protect*", "thank*", "apolog*", "comfort*", "share", "together", "forgiv*"}

var hostileMarkers = []string{"insult*", "abandon*", "attack*", "ignore", "threaten*", "mock*", "shove", "sneer*"}

var anachronismMarkers = []string{
	"phone", "smartphone", "internet", "computer", "email", "okay", "ok", "cool", "selfie",
	"car", "television", "tv", "laptop", "online", "text message", "gps", "wifi",
}

// Eras que no restringen vocabulario moderno.
var modernEraMarkers = []string{"modern", "contemporary", "present", "future", "sci-fi", "2000", "2010", "2020", "actual"}

// traitAdjectives traduce adjetivos comunes de perfiles al id de la taxonomia.
var traitAdjectives = map[string]string{
	"brave":         "courage",
	"courageous":    "courage",
	"honest":        "honesty",
	"kind":          "agreeableness",
	"curious":       "curiosity",
	"loyal":         "loyalty",
	"shy":           "shyness",
	"ambitious":     "ambition",
	"patient":       "patience",
	"jealous":       "jealousy",
	"creative":      "creativity",
	"anxious":       "anxiety",
	"resilient":     "resilience",
	"compassionate": "compassion",
	"empathetic":    "empathy",
	"stubborn":      "determination",
	"determined":    "determination",
	"impulsive":     "impulsivity",
	"greedy":        "greed",
	"hostile":       "hostility",
	"independent":   "independence",
	"disciplined":   "discipline",
	"optimistic":    "optimism",
	"skeptical":     "skepticism",
	"analytical":    "analytical_thinking",
	"charismatic":   "charisma",
	"humble":        "humility",
	"fair":          "fairness",
	"vengeful":      "vengefulness",
	"manipulative":  "manipulativeness",
	"trusting":      "trust",
	"assertive":     "assertiveness",
	"dominant":      "dominance",
	"outgoing":      "extraversion",
	"organized":     "conscientiousness",
	"nervous":       "neuroticism",
	"adventurous":   "adventurousness",
	"competitive":   "competitiveness",
	"perfectionist": "perfectionism",
	"narcissistic":  "narcissism",
}

// resolveTraitID acepta ids de la taxonomia ("risk_taking", "risk taking") o adjetivos ("brave").
func resolveTraitID(tax *domain.TraitTaxonomy, raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	underscored := strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if tax.Has(underscored) {
		return underscored, true
	}
	if id, ok := traitAdjectives[key]; ok && tax.Has(id) {
		return id, true
	}
	return "", false
}

func isModernEra(era string) bool {
	e := strings.ToLower(strings.TrimSpace(era))
	if e == "" {
		return true
	}
	for _, m := range modernEraMarkers {
		if strings.Contains(e, m) {
			return true
		}
	}
	return false
}
