// Package market normalizes the external market feed into the canonical
// Prediction shape and serves the cached, filterable catalog built from it.
package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Outcome is one side of a market. Probability is a percent in [0,100],
// rounded to one decimal place.
type Outcome struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Probability float64 `json:"probability"`
}

// Prediction is the canonical market shape. It is never persisted; a
// Prediction is authoritative only for the lifetime of one catalog snapshot.
type Prediction struct {
	ID        string           `json:"id"`
	Question  string           `json:"question"`
	Source    string           `json:"source"`
	ClosesAt  time.Time        `json:"closesAt"`
	CreatedAt *time.Time       `json:"createdAt,omitempty"`
	Outcomes  []Outcome        `json:"outcomes"`
	Category  string           `json:"category"`
	Tags      []string         `json:"tags"`
	Volume    *decimal.Decimal `json:"volume,omitempty"`
	Liquidity *decimal.Decimal `json:"liquidity,omitempty"`
	IsClosed  bool             `json:"isClosed"`
}

type rawMarket struct {
	ID             any             `json:"id"`
	Question       any             `json:"question"`
	Title          any             `json:"title"`
	EndDate        any             `json:"endDate"`
	EndDateISO     any             `json:"end_date_iso"`
	CreatedAt      any             `json:"createdAt"`
	CreatedAtSnake any             `json:"created_at"`
	Outcomes       json.RawMessage `json:"outcomes"`
	OutcomePrices  json.RawMessage `json:"outcomePrices"`
	Closed         any             `json:"closed"`
	Category       any             `json:"category"`
	Tags           json.RawMessage `json:"tags"`
	Volume         any             `json:"volume"`
	VolumeNum      any             `json:"volumeNum"`
	Liquidity      any             `json:"liquidity"`
	LiquidityNum   any             `json:"liquidityNum"`
}

// Normalize converts one raw feed record into a Prediction. Records missing an
// id, a question, a parseable close date, or two usable outcomes are dropped.
func Normalize(raw json.RawMessage) *Prediction {
	var m rawMarket
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}

	marketID := asString(m.ID)
	question := asString(m.Question)
	if question == "" {
		question = asString(m.Title)
	}
	closesRaw := asString(m.EndDate)
	if closesRaw == "" {
		closesRaw = asString(m.EndDateISO)
	}
	closesAt, ok := parseDate(closesRaw)
	if marketID == "" || question == "" || !ok {
		return nil
	}

	rawOutcomes := parseArrayField(m.Outcomes)
	rawPrices := parseArrayField(m.OutcomePrices)
	count := len(rawOutcomes)
	if len(rawPrices) < count {
		count = len(rawPrices)
	}
	if count < 2 {
		return nil
	}

	outcomes := make([]Outcome, 0, count)
	for i := 0; i < count; i++ {
		title := asString(rawOutcomes[i])
		probability, valid := coercePercent(rawPrices[i])
		if title == "" || !valid {
			continue
		}
		outcomes = append(outcomes, Outcome{
			ID:          marketID + "-" + strconv.Itoa(i),
			Title:       title,
			Probability: probability,
		})
	}
	if len(outcomes) < 2 {
		return nil
	}

	tags := parseTags(m.Tags)
	category := NormalizeLabel(asLabel(m.Category))
	if category == "" {
		if len(tags) > 0 {
			category = tags[0]
		} else {
			category = "Uncategorized"
		}
	}

	var createdAt *time.Time
	createdRaw := asString(m.CreatedAt)
	if createdRaw == "" {
		createdRaw = asString(m.CreatedAtSnake)
	}
	if ts, ok := parseDate(createdRaw); ok {
		createdAt = &ts
	}

	closed, _ := m.Closed.(bool)

	return &Prediction{
		ID:        marketID,
		Question:  question,
		Source:    "polymarket",
		ClosesAt:  closesAt,
		CreatedAt: createdAt,
		Outcomes:  outcomes,
		Category:  category,
		Tags:      tags,
		Volume:    coerceDecimal(firstNonNil(m.VolumeNum, m.Volume)),
		Liquidity: coerceDecimal(firstNonNil(m.LiquidityNum, m.Liquidity)),
		IsClosed:  closed,
	}
}

// coercePercent accepts a fraction in [0,1] (scaled to percent) or a value
// already in [0,100]. Anything else invalidates the outcome.
func coercePercent(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if x >= 0 && x <= 1 {
			return round1(x * 100), true
		}
		if x >= 0 && x <= 100 {
			return round1(x), true
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsInf(parsed, 0) && !math.IsNaN(parsed) {
			return coercePercent(parsed)
		}
	case json.Number:
		if parsed, err := x.Float64(); err == nil {
			return coercePercent(parsed)
		}
	}
	return 0, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func coerceDecimal(v any) *decimal.Decimal {
	switch x := v.(type) {
	case float64:
		d := decimal.NewFromFloat(x)
		return &d
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return &d
		}
	case json.Number:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return &d
		}
	}
	return nil
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// parseArrayField accepts either a JSON array or a JSON-encoded string of one.
func parseArrayField(raw json.RawMessage) []any {
	if len(raw) == 0 {
		return nil
	}
	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &arr); err == nil {
			return arr
		}
	}
	return nil
}

func parseTags(raw json.RawMessage) []string {
	entries := parseArrayField(raw)
	tags := make([]string, 0, len(entries))
	seen := map[string]struct{}{}
	for _, entry := range entries {
		label := NormalizeLabel(asLabel(entry))
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, label)
	}
	return tags
}

// asLabel extracts a display label from a string or a tag-like object.
func asLabel(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		for _, key := range []string{"label", "slug", "name"} {
			if s := asString(x[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

var labelStopWords = map[string]struct{}{
	"and": {}, "or": {}, "of": {}, "the": {}, "in": {}, "on": {},
	"to": {}, "for": {}, "vs": {}, "v": {},
}

var labelAcronyms = map[string]string{
	"nba": "NBA", "nfl": "NFL", "mlb": "MLB", "nhl": "NHL",
	"ufc": "UFC", "wwe": "WWE", "ncaa": "NCAA", "f1": "F1",
	"usa": "USA", "us": "US", "uk": "UK", "eu": "EU",
}

// NormalizeLabel cleans a category or tag label: separators become spaces,
// whitespace collapses, and words are title-cased except stop-words and known
// acronyms.
func NormalizeLabel(raw string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(raw)
	words := strings.Fields(cleaned)
	for i, word := range words {
		lower := strings.ToLower(word)
		if acronym, ok := labelAcronyms[lower]; ok {
			words[i] = acronym
			continue
		}
		if _, ok := labelStopWords[lower]; ok {
			words[i] = lower
			continue
		}
		runes := []rune(lower)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
