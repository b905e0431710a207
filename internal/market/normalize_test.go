package market

import (
	"encoding/json"
	"testing"
)

func TestCoercePercent(t *testing.T) {
	cases := []struct {
		in    any
		want  float64
		valid bool
	}{
		{0.5, 50, true},
		{0.0, 0, true},
		{1.0, 100, true},
		{0.731, 73.1, true},
		{73.149, 73.1, true},
		{100.0, 100, true},
		{"0.25", 25, true},
		{"42", 42, true},
		{101.0, 0, false},
		{-0.1, 0, false},
		{"not a number", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := coercePercent(tc.in)
		if ok != tc.valid {
			t.Fatalf("coercePercent(%v) valid=%v want %v", tc.in, ok, tc.valid)
		}
		if ok && got != tc.want {
			t.Fatalf("coercePercent(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_Basic(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "1234",
		"question": "Will it rain tomorrow?",
		"endDate": "2026-10-01T00:00:00Z",
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.731\",\"0.269\"]",
		"category": "weather_updates",
		"volumeNum": 5000.5
	}`)
	p := Normalize(raw)
	if p == nil {
		t.Fatalf("expected prediction, got nil")
	}
	if p.ID != "1234" || p.Source != "polymarket" {
		t.Fatalf("id=%q source=%q", p.ID, p.Source)
	}
	if len(p.Outcomes) != 2 {
		t.Fatalf("outcomes=%d want 2", len(p.Outcomes))
	}
	if p.Outcomes[0].ID != "1234-0" || p.Outcomes[1].ID != "1234-1" {
		t.Fatalf("outcome ids %q %q", p.Outcomes[0].ID, p.Outcomes[1].ID)
	}
	if p.Outcomes[0].Probability != 73.1 {
		t.Fatalf("probability=%v want 73.1", p.Outcomes[0].Probability)
	}
	if p.Category != "Weather Updates" {
		t.Fatalf("category=%q", p.Category)
	}
	if p.Volume == nil || p.Volume.InexactFloat64() != 5000.5 {
		t.Fatalf("volume=%v", p.Volume)
	}
}

func TestNormalize_NumericIDAndNativeArrays(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 99,
		"title": "Fallback title",
		"end_date_iso": "2026-03-01",
		"outcomes": ["A", "B", "C"],
		"outcomePrices": [0.2, 0.3, 0.5]
	}`)
	p := Normalize(raw)
	if p == nil {
		t.Fatalf("expected prediction, got nil")
	}
	if p.ID != "99" {
		t.Fatalf("id=%q want 99", p.ID)
	}
	if p.Question != "Fallback title" {
		t.Fatalf("question=%q", p.Question)
	}
	if len(p.Outcomes) != 3 {
		t.Fatalf("outcomes=%d want 3", len(p.Outcomes))
	}
}

func TestNormalize_DropRules(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing id", `{"question":"q","endDate":"2026-01-01T00:00:00Z","outcomes":["A","B"],"outcomePrices":[0.5,0.5]}`},
		{"missing question", `{"id":"1","endDate":"2026-01-01T00:00:00Z","outcomes":["A","B"],"outcomePrices":[0.5,0.5]}`},
		{"bad date", `{"id":"1","question":"q","endDate":"soon","outcomes":["A","B"],"outcomePrices":[0.5,0.5]}`},
		{"one outcome", `{"id":"1","question":"q","endDate":"2026-01-01T00:00:00Z","outcomes":["A"],"outcomePrices":[1]}`},
		{"mismatched prices", `{"id":"1","question":"q","endDate":"2026-01-01T00:00:00Z","outcomes":["A","B"],"outcomePrices":[0.5]}`},
		{"invalid price kills pair", `{"id":"1","question":"q","endDate":"2026-01-01T00:00:00Z","outcomes":["A","B"],"outcomePrices":[200,0.5]}`},
	}
	for _, tc := range cases {
		if p := Normalize(json.RawMessage(tc.raw)); p != nil {
			t.Fatalf("%s: expected drop, got %+v", tc.name, p)
		}
	}
}

func TestNormalize_CategoryFallsBackToFirstTag(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "7",
		"question": "q",
		"endDate": "2026-01-01T00:00:00Z",
		"outcomes": ["Yes","No"],
		"outcomePrices": [0.4, 0.6],
		"tags": [{"label": "politics"}, "Elections"]
	}`)
	p := Normalize(raw)
	if p == nil {
		t.Fatalf("expected prediction")
	}
	if p.Category != "Politics" {
		t.Fatalf("category=%q want Politics", p.Category)
	}
	if len(p.Tags) != 2 || p.Tags[1] != "Elections" {
		t.Fatalf("tags=%v", p.Tags)
	}
}

func TestNormalize_NoCategoryNoTags(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "8",
		"question": "q",
		"endDate": "2026-01-01T00:00:00Z",
		"outcomes": ["Yes","No"],
		"outcomePrices": [0.4, 0.6]
	}`)
	p := Normalize(raw)
	if p == nil || p.Category != "Uncategorized" {
		t.Fatalf("got %+v", p)
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := []struct{ in, want string }{
		{"nba_playoffs", "NBA Playoffs"},
		{"war-in-ukraine", "War in Ukraine"},
		{"rise of the machines", "Rise of the Machines"},
		{"us-politics", "US Politics"},
		{"  spaced   out  ", "Spaced Out"},
		{"f1", "F1"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeLabel(tc.in); got != tc.want {
			t.Fatalf("NormalizeLabel(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseTags_DedupeCaseInsensitive(t *testing.T) {
	raw := json.RawMessage(`["Crypto", "crypto", {"label":"CRYPTO"}, "DeFi"]`)
	tags := parseTags(raw)
	if len(tags) != 2 {
		t.Fatalf("tags=%v want 2 entries", tags)
	}
	if tags[0] != "Crypto" {
		t.Fatalf("first-seen casing lost: %q", tags[0])
	}
}
