package market

import (
	"math"
	"sort"
	"strings"
	"time"
)

// broadCategories is the fixed browse rail. Order matters; clients render it
// as-is.
var broadCategories = []string{
	"trending", "breaking", "new", "politics", "sports", "crypto",
	"finance", "geopolitics", "earnings", "tech", "culture", "world",
	"economy", "climate & science", "mentions", "elections",
}

// BroadCategories returns a copy of the fixed browse rail.
func BroadCategories() []string {
	out := make([]string, len(broadCategories))
	copy(out, broadCategories)
	return out
}

// newMarketWindow bounds how long a market counts as "new".
const newMarketWindow = 72 * time.Hour

var broadKeywords = map[string][]string{
	"breaking": {"breaking", "just in"},
	"politics": {
		"politic", "senate", "congress", "president", "white house",
		"governor", "parliament", "impeach",
	},
	"sports": {
		"nba", "nfl", "mlb", "nhl", "ufc", "ncaa", "soccer", "football",
		"basketball", "baseball", "tennis", "golf", "olympic",
		"championship", "league", "f1", "grand prix", "super bowl",
		"world cup", "sports",
	},
	"crypto": {
		"bitcoin", "btc", "ethereum", "eth", "solana", "crypto", "token",
		"defi", "nft", "stablecoin", "airdrop",
	},
	"finance": {
		"stock", "s&p", "nasdaq", "dow jones", "ipo", "fed", "interest rate",
		"bond", "finance", "dividend", "treasury",
	},
	"geopolitics": {
		"war", "ceasefire", "sanction", "nato", "invasion", "treaty",
		"geopolit", "missile", "border",
	},
	"earnings": {"earnings", "revenue", "quarterly", "eps", "guidance"},
	"tech": {
		"artificial intelligence", "openai", "apple", "google", "microsoft",
		"tesla", "spacex", "tech", "software", "chip", "iphone", "startup",
	},
	"culture": {
		"movie", "music", "album", "celebrity", "oscars", "grammy",
		"box office", "netflix", "culture",
	},
	"world":   {"world", "global", "united nations", "international"},
	"economy": {"inflation", "gdp", "recession", "unemployment", "economy", "cpi", "jobs report"},
	"climate & science": {
		"climate", "temperature", "hurricane", "earthquake", "science",
		"nasa", "space", "vaccine", "weather",
	},
	"mentions":  {"mention", "say", "tweet", "post"},
	"elections": {"election", "ballot", "primary", "electoral", "vote", "poll"},
}

// broadClassifier assigns markets to broad categories. "trending" and "new"
// are relative to the snapshot, so the classifier is built per snapshot.
type broadClassifier struct {
	volumeP80 float64
	now       time.Time
}

func newBroadClassifier(items []Prediction, now time.Time) *broadClassifier {
	volumes := make([]float64, 0, len(items))
	for i := range items {
		v := 0.0
		if items[i].Volume != nil {
			v = items[i].Volume.InexactFloat64()
		}
		volumes = append(volumes, v)
	}
	sort.Float64s(volumes)

	p80 := 0.0
	if n := len(volumes); n > 0 {
		idx := int(math.Ceil(0.8*float64(n))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		p80 = volumes[idx]
	}
	return &broadClassifier{volumeP80: p80, now: now}
}

func (c *broadClassifier) matches(p *Prediction, broad string) bool {
	switch broad {
	case "trending":
		return p.Volume != nil && p.Volume.InexactFloat64() >= c.volumeP80 && c.volumeP80 > 0
	case "new":
		return p.CreatedAt != nil && c.now.Sub(*p.CreatedAt) <= newMarketWindow
	}

	keywords, ok := broadKeywords[broad]
	if !ok {
		return false
	}
	haystack := strings.ToLower(p.Question + " " + p.Category + " " + strings.Join(p.Tags, " "))
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// IsBroadCategory reports whether name is one of the fixed broad categories.
func IsBroadCategory(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range broadCategories {
		if b == name {
			return true
		}
	}
	return false
}
