package service

import "testing"

func TestCleanLLMJSONResponseStripsFences(t *testing.T) {
	raw := "\uFEFF```json\n{\"a\":1}\n```"
	if got := cleanLLMJSONResponse(raw); got != `{"a":1}` {
		t.Fatalf("unexpected cleaned output %q", got)
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"prose around", `Claro: {"a":{"b":2}} espero que sirva`, `{"a":{"b":2}}`},
		{"braces in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", `sin json`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractFirstJSONObject(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		Value int `json:"value"`
	}
	if err := decodeLLMJSON("Respuesta:\n{\"value\": 7}\nfin", &out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Value != 7 {
		t.Fatalf("expected 7, got %d", out.Value)
	}
	if err := decodeLLMJSON("Lo siento, no puedo procesar...", &out); err == nil {
		t.Fatalf("expected error for non-json output")
	}
	if err := decodeLLMJSON("   ", &out); err == nil {
		t.Fatalf("expected error for empty output")
	}
}
