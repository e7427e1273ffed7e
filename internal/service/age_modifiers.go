package service

// ageBracket agrupa offsets aditivos fijos por rango de edad del jugador.
type ageBracket struct {
	name    string
	minAge  int
	maxAge  int // inclusivo; -1 = sin tope
	offsets map[string]float64
}

var ageBrackets = []ageBracket{
	{name: "child", minAge: 0, maxAge: 12, offsets: map[string]float64{
		"impulsivity": 10, "curiosity": 8, "adventurousness": 5, "patience": -8, "discipline": -8, "analytical_thinking": -6,
	}},
	{name: "teen", minAge: 13, maxAge: 17, offsets: map[string]float64{
		"impulsivity": 8, "risk_taking": 8, "need_for_approval": 6, "moodiness": 5, "patience": -5, "self_doubt": 4,
	}},
	{name: "young_adult", minAge: 18, maxAge: 29, offsets: map[string]float64{
		"adventurousness": 5, "ambition": 5, "risk_taking": 4, "independence": 3,
	}},
	{name: "adult", minAge: 30, maxAge: 49, offsets: map[string]float64{
		"conscientiousness": 4, "practicality": 4, "discipline": 3,
	}},
	{name: "mature", minAge: 50, maxAge: 64, offsets: map[string]float64{
		"patience": 6, "emotional_intelligence": 5, "conscientiousness": 4, "impulsivity": -5, "risk_taking": -4,
	}},
	{name: "senior", minAge: 65, maxAge: -1, offsets: map[string]float64{
		"patience": 8, "humility": 5, "emotional_intelligence": 5, "impulsivity": -8, "risk_taking": -8, "adventurousness": -5,
	}},
}

// ageOffsets devuelve los offsets del rango de edad; nil si no aplica.
func ageOffsets(age int) (string, map[string]float64) {
	for _, b := range ageBrackets {
		if age >= b.minAge && (b.maxAge < 0 || age <= b.maxAge) {
			return b.name, b.offsets
		}
	}
	return "", nil
}
