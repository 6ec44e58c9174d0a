package llm

import "testing"

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantKey  string
		wantVal  string
		wantErr  bool
	}{
		{
			name:     "strict json",
			response: `{"action":"tap","elementId":"5"}`,
			wantKey:  "action",
			wantVal:  "tap",
		},
		{
			name:     "surrounding whitespace",
			response: "\n  {\"action\":\"tap\"}  \n",
			wantKey:  "action",
			wantVal:  "tap",
		},
		{
			name:     "json fence",
			response: "```json\n{\"action\":\"swipe\"}\n```",
			wantKey:  "action",
			wantVal:  "swipe",
		},
		{
			name:     "bare fence",
			response: "```\n{\"action\":\"swipe\"}\n```",
			wantKey:  "action",
			wantVal:  "swipe",
		},
		{
			name:     "prose around object",
			response: `Here is my decision: {"action":"click","reasoning":"the login button"} hope that helps`,
			wantKey:  "action",
			wantVal:  "click",
		},
		{
			name:     "braces inside string literals",
			response: `{"action":"type_text","reasoning":"enter {user} into the field"}`,
			wantKey:  "reasoning",
			wantVal:  "enter {user} into the field",
		},
		{
			name:     "stray backticks",
			response: "`{\"action\":\"tap\"}`",
			wantKey:  "action",
			wantVal:  "tap",
		},
		{
			name:     "nested object",
			response: `I'll tap it. {"action":"tap","location":{"x_percent":50,"y_percent":25}}`,
			wantKey:  "action",
			wantVal:  "tap",
		},
		{
			name:     "no json at all",
			response: "I cannot determine the action.",
			wantErr:  true,
		},
		{
			name:     "unbalanced braces",
			response: `{"action":"tap"`,
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ExtractObject(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("got %v, want error", obj)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := String(obj, tt.wantKey); got != tt.wantVal {
				t.Errorf("got %s=%q, want %q", tt.wantKey, got, tt.wantVal)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name    string
		obj     map[string]any
		wantVal float64
		wantOK  bool
	}{
		{"float64", map[string]any{"confidence": 0.85}, 0.85, true},
		{"numeric string", map[string]any{"confidence": "0.7"}, 0.7, true},
		{"missing", map[string]any{}, 0, false},
		{"non numeric string", map[string]any{"confidence": "high"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.obj, "confidence")
			if got != tt.wantVal || ok != tt.wantOK {
				t.Errorf("got (%v,%v), want (%v,%v)", got, ok, tt.wantVal, tt.wantOK)
			}
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name    string
		obj     map[string]any
		wantVal bool
		wantOK  bool
	}{
		{"bool true", map[string]any{"passed": true}, true, true},
		{"bool false", map[string]any{"passed": false}, false, true},
		{"string true", map[string]any{"passed": "true"}, true, true},
		{"string False", map[string]any{"passed": "False"}, false, true},
		{"missing", map[string]any{}, false, false},
		{"number is not a bool", map[string]any{"passed": 1.0}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Bool(tt.obj, "passed")
			if got != tt.wantVal || ok != tt.wantOK {
				t.Errorf("got (%v,%v), want (%v,%v)", got, ok, tt.wantVal, tt.wantOK)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	obj := map[string]any{"assertions": []any{"title visible", "button enabled", 3.0}}
	got := Strings(obj, "assertions")
	if len(got) != 2 || got[0] != "title visible" || got[1] != "button enabled" {
		t.Errorf("got %v, want the two string entries", got)
	}
	if got := Strings(obj, "missing"); got != nil {
		t.Errorf("got %v, want nil for missing key", got)
	}
}
