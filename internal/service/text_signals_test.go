package service

import "testing"

func TestTextSignalsMatching(t *testing.T) {
	sig := newTextSignals("I decided to Stand By my brother, but I'm not sure. Don’t go!")

	tests := []struct {
		marker string
		want   bool
	}{
		{"decid*", true},     // raiz
		{"decide", false},    // palabra exacta: "decided" no cuenta
		{"stand by", true},   // frase
		{"not sure", true},   // frase
		{"don't go", true},   // apostrofe tipografico normalizado
		{"but", true},        // token exacto
		{"bu", false},        // corto: sin prefijo
		{"brother", true},
		{"brother*", true},
		{"brotherhood", false},
		{"will", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := sig.has(tt.marker); got != tt.want {
			t.Fatalf("marker %q: expected %v, got %v", tt.marker, tt.want, got)
		}
	}
	if n := sig.count([]string{"decid*", "but", "nope"}); n != 2 {
		t.Fatalf("expected 2 distinct markers, got %d", n)
	}
}

func TestTextSignalsEmpty(t *testing.T) {
	sig := newTextSignals("  ... !! ")
	if !sig.empty() || sig.wordCount() != 0 {
		t.Fatalf("expected empty signals")
	}
}

func TestTextSignalsNearMissWords(t *testing.T) {
	tests := []struct {
		text    string
		markers []string
		want    int
	}{
		{"I thought about the map", conflictWords, 0},
		{"A thoughtful answer", conflictWords, 0},
		{"Even though it hurts", conflictWords, 1},
		{"I move with stealth past the guard", moralViolationMarkers, 0},
		{"I steal the key", moralViolationMarkers, 1},
		{"A senseless plan", []string{"sense"}, 0},
		{"I sense a trap", []string{"sense"}, 1},
		{"I was betrayed by him", moralViolationMarkers, 1},
		{"I apologize to the crew", cooperativeMarkers, 1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := newTextSignals(tt.text).count(tt.markers); got != tt.want {
				t.Fatalf("expected %d hits, got %d", tt.want, got)
			}
		})
	}
}
