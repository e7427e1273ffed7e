package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	reFenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	reFenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

var errNoJSONObject = errors.New("no json object in llm response")

// cleanLLMJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func cleanLLMJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = reFenceStart.ReplaceAllString(s, "")
	s = reFenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractFirstJSONObject devuelve el primer objeto {...} balanceado, respetando strings.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}

// decodeLLMJSON limpia la respuesta del modelo y la decodifica en out.
// Si el texto trae prosa alrededor, usa el primer objeto JSON balanceado.
func decodeLLMJSON(raw string, out any) error {
	cleaned := cleanLLMJSONResponse(raw)
	if cleaned == "" {
		return errNoJSONObject
	}
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}
	obj := extractFirstJSONObject(cleaned)
	if obj == "" {
		return errNoJSONObject
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("parse llm json: %w", err)
	}
	return nil
}
