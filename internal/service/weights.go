package service

// ScoringWeights agrupa las constantes de las heuristicas. Son ajustables, no contrato.
type ScoringWeights struct {
	NeutralScore float64

	// Tradicionales
	SpeechPatternBonus     float64
	MissingSpeechPenalty   float64
	AnachronismPenalty     float64
	TraitMarkerBonus       float64
	TraitMarkerPenalty     float64
	CoreValueBonus         float64
	MoralViolationPenalty  float64
	MoralStrictThreshold   float64
	EmotionSomeScore       float64
	EmotionRichScore       float64
	EmotionToneBonus       float64
	RelationshipNameBonus  float64
	RelationshipNameMax    float64
	CooperativeBonus       float64
	HostilePenalty         float64
	HostilityExemptScore   float64
	PeriodBaseScore        float64
	PeriodAnachronismCost  float64
	ReflectionBonus        float64
	DeliberateBonus        float64
	HesitationPenalty      float64
	DetailedActionBonus    float64
	DetailedActionMinChars int

	// Mejoradas
	DominantThreshold      float64
	ExpressionReward       float64
	ContradictionPenalty   float64
	DeliberateBoost        float64
	DepthWordsShort        int
	DepthWordsLong         int
	DepthLengthBonus       float64
	DepthEmotionPerWord    float64
	DepthEmotionMax        float64
	DepthConflictPerWord   float64
	DepthConflictMax       float64
	DepthDeltaBonus        float64
	CoherenceBase          float64
	LargeShiftThreshold    float64
	LargeShiftPenalty      float64
	LargeShiftExcessFactor float64
	MediumShiftThreshold   float64
	MediumShiftPenalty     float64
	SignFlipPenalty        float64
	SignFlipLookback       int

	// Agregado
	EnhancedBlendTraditional float64
	EnhancedBlendEnhanced    float64
	MaxTraitDelta            float64
	ConfidenceStep           float64
}

// DefaultScoringWeights devuelve los valores usados en produccion.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		NeutralScore: 50,

		SpeechPatternBonus:     15,
		MissingSpeechPenalty:   10,
		AnachronismPenalty:     15,
		TraitMarkerBonus:       10,
		TraitMarkerPenalty:     15,
		CoreValueBonus:         10,
		MoralViolationPenalty:  15,
		MoralStrictThreshold:   60,
		EmotionSomeScore:       65,
		EmotionRichScore:       75,
		EmotionToneBonus:       10,
		RelationshipNameBonus:  10,
		RelationshipNameMax:    20,
		CooperativeBonus:       5,
		HostilePenalty:         10,
		HostilityExemptScore:   60,
		PeriodBaseScore:        60,
		PeriodAnachronismCost:  20,
		ReflectionBonus:        10,
		DeliberateBonus:        8,
		HesitationPenalty:      5,
		DetailedActionBonus:    5,
		DetailedActionMinChars: 40,

		DominantThreshold:      5,
		ExpressionReward:       20,
		ContradictionPenalty:   30,
		DeliberateBoost:        10,
		DepthWordsShort:        20,
		DepthWordsLong:         50,
		DepthLengthBonus:       10,
		DepthEmotionPerWord:    5,
		DepthEmotionMax:        20,
		DepthConflictPerWord:   5,
		DepthConflictMax:       15,
		DepthDeltaBonus:        10,
		CoherenceBase:          75,
		LargeShiftThreshold:    10,
		LargeShiftPenalty:      15,
		LargeShiftExcessFactor: 3,
		MediumShiftThreshold:   5,
		MediumShiftPenalty:     5,
		SignFlipPenalty:        10,
		SignFlipLookback:       3,

		EnhancedBlendTraditional: 0.6,
		EnhancedBlendEnhanced:    0.4,
		MaxTraitDelta:            25,
		ConfidenceStep:           0.1,
	}
}
