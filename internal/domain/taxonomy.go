package domain

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// TraitTaxonomy es el registro estatico de definiciones de rasgos.
// Es de solo lectura y se comparte entre todas las sesiones.
type TraitTaxonomy struct {
	defs map[string]TraitDefinition
	ids  []string
}

var (
	defaultTaxonomyOnce sync.Once
	defaultTaxonomy     *TraitTaxonomy
)

// DefaultTaxonomy devuelve la taxonomia de 67 rasgos, construida una sola vez.
func DefaultTaxonomy() *TraitTaxonomy {
	defaultTaxonomyOnce.Do(func() {
		defaultTaxonomy = NewTaxonomy(traitDefinitions())
	})
	return defaultTaxonomy
}

// NewTaxonomy construye un registro a partir de definiciones arbitrarias (util en tests).
func NewTaxonomy(defs []TraitDefinition) *TraitTaxonomy {
	t := &TraitTaxonomy{defs: make(map[string]TraitDefinition, len(defs))}
	for _, d := range defs {
		t.defs[d.ID] = d
	}
	for id := range t.defs {
		t.ids = append(t.ids, id)
	}
	sort.Strings(t.ids)
	return t
}

// GetDefinition devuelve la definicion o ErrTraitNotFound.
func (t *TraitTaxonomy) GetDefinition(id string) (TraitDefinition, error) {
	d, ok := t.defs[id]
	if !ok {
		return TraitDefinition{}, fmt.Errorf("trait %q: %w", id, ErrTraitNotFound)
	}
	d.PositiveMarkers = slices.Clone(d.PositiveMarkers)
	d.NegativeMarkers = slices.Clone(d.NegativeMarkers)
	return d, nil
}

// Has indica si el rasgo existe.
func (t *TraitTaxonomy) Has(id string) bool {
	_, ok := t.defs[id]
	return ok
}

// IDs devuelve los ids ordenados ascendentemente.
func (t *TraitTaxonomy) IDs() []string {
	return slices.Clone(t.ids)
}

func (t *TraitTaxonomy) Count() int {
	return len(t.ids)
}

// LayerSizes cuenta rasgos conscientes y subconscientes; BOTH suma a ambos.
func (t *TraitTaxonomy) LayerSizes() (conscious, subconscious int) {
	for _, d := range t.defs {
		if d.Consciousness.IsConscious() {
			conscious++
		}
		if d.Consciousness.IsSubconscious() {
			subconscious++
		}
	}
	return conscious, subconscious
}

func words(w ...string) []string { return w }

func def(id, category, sub string, c Consciousness, valence, cognitive, social, desc string, pos, neg []string) TraitDefinition {
	return TraitDefinition{
		ID:                   id,
		Category:             category,
		Subcategory:          sub,
		Consciousness:        c,
		Valence:              valence,
		CognitiveInvolvement: cognitive,
		SocialImpact:         social,
		Description:          desc,
		PositiveMarkers:      pos,
		NegativeMarkers:      neg,
	}
}

const (
	cC = ConsciousnessConscious
	cS = ConsciousnessSubconscious
	cB = ConsciousnessBoth
)

func traitDefinitions() []TraitDefinition {
	return []TraitDefinition{
		// Big Five
		def("openness", TraitCategoryBigFive, "core", cB, ValencePositive, LevelHigh, LevelMedium,
			"Apertura a experiencias nuevas, ideas y estetica.",
			words("explor*", "imagin*", "new idea", "try something", "wonder"), words("refuse to change", "same as always", "never tried")),
		def("conscientiousness", TraitCategoryBigFive, "core", cB, ValencePositive, LevelHigh, LevelMedium,
			"Orden, responsabilidad y cumplimiento de deberes.",
			words("plan", "organize", "prepare", "carefully", "duty"), words("forget", "careless", "ignore the rules", "procrastinate")),
		def("extraversion", TraitCategoryBigFive, "core", cB, ValenceNeutral, LevelLow, LevelHigh,
			"Energia social y busqueda de estimulos externos.",
			words("greet", "join", "party", "laugh", "talk to everyone"), words("withdraw", "stay alone", "quietly leave")),
		def("agreeableness", TraitCategoryBigFive, "core", cB, ValencePositive, LevelMedium, LevelHigh,
			"Amabilidad, cooperacion y consideracion por otros.",
			words("kindly", "agree", "gently", "comfort", "share"), words("snap", "insult", "mock", "refuse to help")),
		def("neuroticism", TraitCategoryBigFive, "core", cB, ValenceNegative, LevelLow, LevelMedium,
			"Tendencia a experimentar emociones negativas e inestabilidad.",
			words("panic", "worry", "nervous", "overwhelm", "tremble"), words("calm", "composed", "steady", "relaxed")),

		// Emocionales
		def("resilience", TraitCategoryEmotional, "coping", cB, ValencePositive, LevelMedium, LevelMedium,
			"Capacidad de recuperarse de la adversidad.",
			words("endure", "get back up", "keep going", "persever*", "recover*"), words("give up", "collapse", "break down")),
		def("empathy", TraitCategoryEmotional, "attunement", cB, ValencePositive, LevelMedium, LevelHigh,
			"Sintonia con el estado emocional ajeno.",
			words("understand how", "feel for", "console", "listen", "sympath*"), words("don't care", "indifferent", "ignore her", "ignore him")),
		def("emotional_intelligence", TraitCategoryEmotional, "regulation", cC, ValencePositive, LevelHigh, LevelHigh,
			"Reconocer y gestionar emociones propias y ajenas.",
			words("acknowledge", "recognize my", "take a breath", "name the feeling"), words("lash out", "explode", "outburst")),
		def("anxiety", TraitCategoryEmotional, "affect", cS, ValenceNegative, LevelLow, LevelLow,
			"Aprension difusa ante amenazas anticipadas.",
			words("anxious", "dread", "uneasy", "fidget", "restless"), words("at ease", "confident", "unbothered")),
		def("optimism", TraitCategoryEmotional, "outlook", cB, ValencePositive, LevelMedium, LevelMedium,
			"Expectativa de resultados favorables.",
			words("hope", "it will work", "bright side", "believe", "optimis*"), words("hopeless", "doomed", "pointless", "no chance")),
		def("impulsivity", TraitCategoryEmotional, "control", cS, ValenceNegative, LevelLow, LevelMedium,
			"Actuar sin deliberacion previa.",
			words("suddenly", "without thinking", "rush", "blurt", "grab"), words("pause", "wait", "consider", "deliberate")),
		def("patience", TraitCategoryEmotional, "control", cC, ValencePositive, LevelMedium, LevelMedium,
			"Tolerancia a la demora y la frustracion.",
			words("wait", "patient", "take my time", "slowly"), words("impatient", "hurry", "can't wait", "demand now")),
		def("moodiness", TraitCategoryEmotional, "affect", cS, ValenceNegative, LevelLow, LevelMedium,
			"Cambios de humor abruptos.",
			words("sulk", "brood", "mood", "snap"), words("even-tempered", "cheerful", "steady")),

		// Sociales
		def("assertiveness", TraitCategorySocial, "expression", cC, ValencePositive, LevelMedium, LevelHigh,
			"Defender necesidades y opiniones con claridad.",
			words("insist", "demand", "stand up", "speak up", "firmly"), words("stay silent", "back down", "mumble")),
		def("dominance", TraitCategorySocial, "power", cB, ValenceNeutral, LevelMedium, LevelHigh,
			"Tendencia a tomar el control de grupos y situaciones.",
			words("command", "order", "take charge", "lead"), words("obey", "follow orders", "submit", "defer")),
		def("sociability", TraitCategorySocial, "affiliation", cC, ValencePositive, LevelLow, LevelHigh,
			"Disfrute del contacto social.",
			words("invite", "chat", "visit", "gather"), words("avoid people", "decline the invitation", "alone")),
		def("trust", TraitCategorySocial, "affiliation", cB, ValencePositive, LevelMedium, LevelHigh,
			"Disposicion a confiar en las intenciones ajenas.",
			words("trust", "rely on", "believe you", "confide"), words("suspect", "distrust", "doubt you", "spy on")),
		def("loyalty", TraitCategorySocial, "commitment", cC, ValencePositive, LevelMedium, LevelHigh,
			"Fidelidad a personas, grupos o causas.",
			words("stand by", "loyal", "never leave", "defend my"), words("betray*", "abandon*", "sell out", "turn on")),
		def("charisma", TraitCategorySocial, "influence", cB, ValencePositive, LevelMedium, LevelHigh,
			"Capacidad de atraer e inspirar.",
			words("inspire", "rally", "charm", "captivate"), words("awkward", "stammer", "bore")),
		def("cooperativeness", TraitCategorySocial, "affiliation", cC, ValencePositive, LevelMedium, LevelHigh,
			"Preferencia por trabajar con otros.",
			words("together", "help", "cooperate", "team", "join forces"), words("alone", "my way", "refuse to cooperate")),
		def("competitiveness", TraitCategorySocial, "power", cB, ValenceNeutral, LevelMedium, LevelHigh,
			"Impulso a superar a los demas.",
			words("win", "beat", "outdo", "challenge", "rival"), words("let them win", "concede", "forfeit")),
		def("shyness", TraitCategorySocial, "affiliation", cS, ValenceNeutral, LevelLow, LevelMedium,
			"Inhibicion ante la exposicion social.",
			words("blush", "look away", "hesitate to speak", "hide"), words("boldly", "step forward", "announce")),

		// Cognitivos
		def("curiosity", TraitCategoryCognitive, "exploration", cB, ValencePositive, LevelHigh, LevelLow,
			"Deseo de saber y descubrir.",
			words("ask", "investigat*", "curious", "examin*", "wonder"), words("don't care why", "uninterested", "ignore the")),
		def("analytical_thinking", TraitCategoryCognitive, "reasoning", cC, ValencePositive, LevelHigh, LevelLow,
			"Razonamiento sistematico y logico.",
			words("analy*", "calculat*", "reason", "evidence", "logic"), words("gut feeling", "guess", "random")),
		def("creativity", TraitCategoryCognitive, "generation", cB, ValencePositive, LevelHigh, LevelLow,
			"Generar ideas y soluciones originales.",
			words("invent", "improvise", "create", "design", "craft"), words("copy", "by the book", "as usual")),
		def("practicality", TraitCategoryCognitive, "reasoning", cC, ValencePositive, LevelMedium, LevelLow,
			"Orientacion a lo concreto y util.",
			words("practical", "useful", "efficient", "simple solution"), words("dream", "fantasy", "impractical")),
		def("open_mindedness", TraitCategoryCognitive, "evaluation", cC, ValencePositive, LevelHigh, LevelMedium,
			"Considerar perspectivas ajenas.",
			words("perspective", "consider", "point of view", "reconsider"), words("nonsense", "closed", "won't listen")),
		def("decisiveness", TraitCategoryCognitive, "choice", cC, ValencePositive, LevelHigh, LevelMedium,
			"Elegir con rapidez y firmeza.",
			words("decide", "choose", "immediately", "without hesitation"), words("hesitate", "unsure", "maybe", "can't decide")),
		def("intuition", TraitCategoryCognitive, "perception", cS, ValenceNeutral, LevelLow, LevelLow,
			"Juicio por corazonada sin razonamiento explicito.",
			words("gut", "sense", "feel that", "hunch", "instinct"), words("prove it", "measure", "calculate")),
		def("skepticism", TraitCategoryCognitive, "evaluation", cC, ValenceNeutral, LevelHigh, LevelMedium,
			"Cuestionar afirmaciones antes de aceptarlas.",
			words("question", "doubt", "prove", "skeptic"), words("blindly", "gullible", "believe anything")),
		def("perfectionism", TraitCategoryCognitive, "standards", cS, ValenceNeutral, LevelMedium, LevelLow,
			"Estandares excesivamente altos y temor al error.",
			words("perfect", "flawless", "again and again", "precise"), words("good enough", "sloppy", "whatever")),

		// Morales
		def("honesty", TraitCategoryMoral, "truthfulness", cC, ValencePositive, LevelMedium, LevelHigh,
			"Decir la verdad aun cuando cuesta.",
			words("truth", "honest", "confess", "admit"), words("lie", "deceive", "pretend", "cover up")),
		def("integrity", TraitCategoryMoral, "principle", cC, ValencePositive, LevelHigh, LevelHigh,
			"Coherencia entre principios y actos.",
			words("principle", "keep my word", "promise", "right thing"), words("break my word", "bribe", "cheat")),
		def("compassion", TraitCategoryMoral, "care", cB, ValencePositive, LevelMedium, LevelHigh,
			"Deseo de aliviar el sufrimiento ajeno.",
			words("heal", "care for", "spare", "mercy", "protect"), words("cruel", "torment", "let them suffer")),
		def("fairness", TraitCategoryMoral, "justice", cC, ValencePositive, LevelHigh, LevelHigh,
			"Trato justo e imparcial.",
			words("fair", "equal", "justice", "share equally"), words("unfair", "favorit*", "rig")),
		def("altruism", TraitCategoryMoral, "care", cB, ValencePositive, LevelMedium, LevelHigh,
			"Actuar por el bien ajeno sin esperar retorno.",
			words("sacrific*", "give away", "volunteer*", "for them"), words("what's in it for me", "selfish", "keep it all")),
		def("humility", TraitCategoryMoral, "self", cB, ValencePositive, LevelMedium, LevelMedium,
			"Modestia sobre logros y capacidades propias.",
			words("humbl*", "modest", "thank", "i was wrong"), words("boast", "brag", "superior", "show off")),
		def("ambition", TraitCategoryMoral, "drive", cC, ValenceNeutral, LevelHigh, LevelMedium,
			"Aspiracion a logros, estatus o poder.",
			words("ambiti*", "rise", "achieve", "conquer", "power"), words("content with little", "settle", "no desire")),
		def("greed", TraitCategoryMoral, "drive", cS, ValenceNegative, LevelLow, LevelMedium,
			"Deseo excesivo de posesiones.",
			words("gold", "take it all", "hoard", "mine", "steal"), words("give it back", "donate", "refuse the money")),
		def("vengefulness", TraitCategoryMoral, "justice", cS, ValenceNegative, LevelLow, LevelHigh,
			"Necesidad de desquitarse por agravios.",
			words("revenge", "pay for", "get even", "retaliat*"), words("forgive", "let it go", "move on")),

		// Motivacionales
		def("courage", TraitCategoryMotivational, "approach", cB, ValencePositive, LevelMedium, LevelMedium,
			"Enfrentar el miedo y el riesgo.",
			words("brave", "face", "charge", "confront", "step in"), words("flee", "cower", "run away", "hide")),
		def("determination", TraitCategoryMotivational, "persistence", cC, ValencePositive, LevelMedium, LevelLow,
			"Persistencia hacia metas pese a obstaculos.",
			words("no matter what", "keep trying", "determined", "won't stop"), words("give up", "quit", "too hard")),
		def("independence", TraitCategoryMotivational, "autonomy", cC, ValencePositive, LevelMedium, LevelMedium,
			"Preferencia por la autonomia.",
			words("on my own", "myself", "my own way", "alone"), words("need you to", "ask permission", "depend on")),
		def("need_for_control", TraitCategoryMotivational, "autonomy", cS, ValenceNegative, LevelLow, LevelHigh,
			"Necesidad de controlar el entorno y a otros.",
			words("control", "must be done my way", "micromanag*", "check again"), words("let go", "trust you to", "whatever happens")),
		def("need_for_approval", TraitCategoryMotivational, "affiliation", cS, ValenceNegative, LevelLow, LevelHigh,
			"Busqueda de validacion externa.",
			words("approve", "please them", "do you like", "impress"), words("don't care what they think", "regardless of them")),
		def("risk_taking", TraitCategoryMotivational, "approach", cB, ValenceNeutral, LevelMedium, LevelMedium,
			"Disposicion a asumir riesgos.",
			words("gamble", "risk", "dare", "leap"), words("play it safe", "too risky", "cautious")),
		def("discipline", TraitCategoryMotivational, "persistence", cC, ValencePositive, LevelHigh, LevelLow,
			"Autocontrol sostenido y rutinas.",
			words("train", "routine", "practice", "restrain"), words("indulge", "skip", "lazy")),
		def("adventurousness", TraitCategoryMotivational, "approach", cB, ValencePositive, LevelMedium, LevelMedium,
			"Gusto por lo desconocido.",
			words("journey", "venture", "adventure", "unknown", "travel"), words("stay home", "familiar", "turn back")),

		// Mecanismos de defensa
		def("denial", TraitCategoryDefense, "primitive", cS, ValenceNegative, LevelLow, LevelMedium,
			"Negarse a reconocer una realidad dolorosa.",
			words("it didn't happen", "not true", "refuse to believe", "nothing's wrong"), words("accept", "admit it", "face the truth")),
		def("projection", TraitCategoryDefense, "primitive", cS, ValenceNegative, LevelLow, LevelHigh,
			"Atribuir a otros impulsos propios.",
			words("you're the one", "it's your fault", "you always"), words("my fault", "i did it")),
		def("rationalization", TraitCategoryDefense, "neurotic", cS, ValenceNeutral, LevelMedium, LevelLow,
			"Justificar actos con razones aceptables.",
			words("had no choice", "anyone would", "it was necessary", "only because"), words("no excuse", "i was wrong")),
		def("repression", TraitCategoryDefense, "neurotic", cS, ValenceNegative, LevelLow, LevelLow,
			"Expulsar recuerdos o deseos de la conciencia.",
			words("don't remember", "forget it", "push it down", "never speak of"), words("remember", "recall", "memory")),
		def("displacement", TraitCategoryDefense, "neurotic", cS, ValenceNegative, LevelLow, LevelHigh,
			"Descargar emociones sobre un blanco sustituto.",
			words("kick", "smash", "yell at the", "take it out on"), words("talk it through", "breathe")),
		def("sublimation", TraitCategoryDefense, "mature", cS, ValencePositive, LevelMedium, LevelLow,
			"Canalizar impulsos hacia actividades valiosas.",
			words("channel", "pour into", "train harder", "write it down"), words("lash out", "destroy")),
		def("humor_coping", TraitCategoryDefense, "mature", cB, ValencePositive, LevelMedium, LevelHigh,
			"Usar el humor para tolerar la tension.",
			words("joke", "laugh it off", "grin", "tease"), words("humorless", "grim", "no laughing")),
		def("avoidance", TraitCategoryDefense, "neurotic", cS, ValenceNegative, LevelLow, LevelMedium,
			"Evitar situaciones que generan malestar.",
			words("avoid", "change the subject", "walk away", "later"), words("face it", "confront", "deal with it now")),
		def("intellectualization", TraitCategoryDefense, "neurotic", cS, ValenceNeutral, LevelHigh, LevelLow,
			"Tratar lo emocional en terminos abstractos.",
			words("technically", "objectively", "statistically", "in theory"), words("i feel", "it hurts")),

		// Apego
		def("secure_attachment", TraitCategoryAttachment, "style", cS, ValencePositive, LevelLow, LevelHigh,
			"Comodidad con la cercania y la autonomia.",
			words("embrace", "reassure", "i'm here", "close to"), words("push away", "cling", "can't be close")),
		def("anxious_attachment", TraitCategoryAttachment, "style", cS, ValenceNegative, LevelLow, LevelHigh,
			"Temor a la perdida y busqueda de cercania.",
			words("don't leave", "cling", "need you", "where were you"), words("give you space", "be fine alone")),
		def("avoidant_attachment", TraitCategoryAttachment, "style", cS, ValenceNegative, LevelLow, LevelHigh,
			"Incomodidad con la intimidad.",
			words("keep my distance", "pull away", "don't need anyone", "cold"), words("open up", "hold her", "hold him")),
		def("fearful_attachment", TraitCategoryAttachment, "style", cS, ValenceNegative, LevelLow, LevelHigh,
			"Deseo y temor simultaneo de la cercania.",
			words("push and pull", "come closer then", "afraid to love"), words("safe with you", "at peace with")),
		def("abandonment_fear", TraitCategoryAttachment, "wound", cS, ValenceNegative, LevelLow, LevelHigh,
			"Miedo intenso a ser dejado.",
			words("abandon me", "left behind", "alone again", "don't go"), words("let you go", "you can leave")),

		// Sombra
		def("narcissism", TraitCategoryShadow, "self", cS, ValenceNegative, LevelLow, LevelHigh,
			"Grandiosidad y necesidad de admiracion.",
			words("i deserve", "beneath me", "admire me", "only i"), words("humbl*", "not about me", "you first")),
		def("manipulativeness", TraitCategoryShadow, "influence", cS, ValenceNegative, LevelMedium, LevelHigh,
			"Influir a otros mediante engano.",
			words("manipulat*", "trick", "use them", "flatter"), words("openly", "straightforward", "upfront")),
		def("hostility", TraitCategoryShadow, "aggression", cS, ValenceNegative, LevelLow, LevelHigh,
			"Antagonismo y agresividad.",
			words("attack", "threaten", "punch", "sneer", "hate"), words("peace", "calm down", "reconcile")),
		def("jealousy", TraitCategoryShadow, "rivalry", cS, ValenceNegative, LevelLow, LevelHigh,
			"Resentimiento ante lo que otros tienen.",
			words("jealous", "envy", "why them", "should have been me"), words("happy for", "congratulat*")),
		def("self_doubt", TraitCategoryShadow, "self", cS, ValenceNegative, LevelLow, LevelLow,
			"Desconfianza en la propia capacidad.",
			words("can't do", "not good enough", "what if i fail", "doubt myself"), words("i can do", "confident", "sure of myself")),
	}
}
