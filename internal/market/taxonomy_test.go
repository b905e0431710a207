package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestBroadClassifier_Trending(t *testing.T) {
	now := time.Now().UTC()
	items := []Prediction{
		{ID: "a", Volume: dec(10)},
		{ID: "b", Volume: dec(20)},
		{ID: "c", Volume: dec(30)},
		{ID: "d", Volume: dec(40)},
		{ID: "e", Volume: dec(1000)},
	}
	c := newBroadClassifier(items, now)

	if !c.matches(&items[4], "trending") {
		t.Fatalf("top-volume market should be trending")
	}
	if c.matches(&items[0], "trending") {
		t.Fatalf("bottom-volume market should not be trending")
	}
	noVolume := Prediction{ID: "f"}
	if c.matches(&noVolume, "trending") {
		t.Fatalf("market without volume should not be trending")
	}
}

func TestBroadClassifier_New(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-96 * time.Hour)
	c := newBroadClassifier(nil, now)

	fresh := Prediction{CreatedAt: &recent}
	stale := Prediction{CreatedAt: &old}
	unknown := Prediction{}
	if !c.matches(&fresh, "new") {
		t.Fatalf("24h-old market should be new")
	}
	if c.matches(&stale, "new") {
		t.Fatalf("96h-old market should not be new")
	}
	if c.matches(&unknown, "new") {
		t.Fatalf("market without createdAt should not be new")
	}
}

func TestBroadClassifier_Keywords(t *testing.T) {
	c := newBroadClassifier(nil, time.Now().UTC())
	cases := []struct {
		p     Prediction
		broad string
		want  bool
	}{
		{Prediction{Question: "Will the NBA finals go to game 7?"}, "sports", true},
		{Prediction{Question: "Will Bitcoin close above 100k?"}, "crypto", true},
		{Prediction{Question: "Random question", Category: "Elections"}, "elections", true},
		{Prediction{Question: "Random question", Tags: []string{"Inflation Watch"}}, "economy", true},
		{Prediction{Question: "Will it rain?"}, "crypto", false},
		{Prediction{Question: "anything"}, "not-a-category", false},
	}
	for i, tc := range cases {
		if got := c.matches(&tc.p, tc.broad); got != tc.want {
			t.Fatalf("case %d: matches(%q)=%v want %v", i, tc.broad, got, tc.want)
		}
	}
}

func TestBroadCategories_Fixed(t *testing.T) {
	cats := BroadCategories()
	if len(cats) != 16 {
		t.Fatalf("len=%d want 16", len(cats))
	}
	if cats[0] != "trending" || cats[15] != "elections" {
		t.Fatalf("unexpected rail order: %v", cats)
	}
	if !IsBroadCategory("Climate & Science") {
		t.Fatalf("broad category match should be case-insensitive")
	}
	if IsBroadCategory("Weather") {
		t.Fatalf("Weather is not a broad category")
	}
}
