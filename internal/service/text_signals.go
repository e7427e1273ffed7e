package service

import (
	"strings"
	"unicode"
)

// Un marcador terminado en "*" es una raiz y matchea por prefijo ("decid*" -> "decided").
// El resto (palabras y frases) requiere coincidencia exacta de tokens.
const stemSuffix = "*"

// textSignals es el texto de una decision normalizado una sola vez para buscar marcadores.
type textSignals struct {
	padded string
	tokens []string
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "’", "'")
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func newTextSignals(text string) textSignals {
	norm := normalizeText(text)
	return textSignals{
		padded: " " + norm + " ",
		tokens: strings.Fields(norm),
	}
}

func (t textSignals) empty() bool {
	return len(t.tokens) == 0
}

func (t textSignals) wordCount() int {
	return len(t.tokens)
}

// has indica si el marcador aparece en el texto.
func (t textSignals) has(marker string) bool {
	raw, stem := strings.CutSuffix(strings.TrimSpace(marker), stemSuffix)
	m := normalizeText(raw)
	if m == "" {
		return false
	}
	if !stem || strings.Contains(m, " ") {
		return strings.Contains(t.padded, " "+m+" ")
	}
	for _, tok := range t.tokens {
		if strings.HasPrefix(tok, m) {
			return true
		}
	}
	return false
}

// count devuelve cuantos marcadores distintos aparecen.
func (t textSignals) count(markers []string) int {
	n := 0
	for _, m := range markers {
		if t.has(m) {
			n++
		}
	}
	return n
}

func (t textSignals) any(markers []string) bool {
	for _, m := range markers {
		if t.has(m) {
			return true
		}
	}
	return false
}
