package market

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/client/gamma"
)

const (
	maxPageSize     = 100
	defaultPageSize = 100
	trendingTopN    = 12
)

// Catalog is the in-process market cache. One snapshot serves all listing and
// lookup traffic until the TTL lapses; concurrent refreshes collapse into a
// single upstream fetch.
type Catalog struct {
	Client *gamma.Client
	Logger *zap.Logger

	TTL        time.Duration
	PageLimit  int
	MaxPages   int
	MaxRecords int

	mu        sync.RWMutex
	items     []Prediction
	fetchedAt time.Time
	group     singleflight.Group
}

type ListParams struct {
	Page          int
	PageSize      int
	Search        string
	Category      string
	BroadCategory string
	Sort          string
}

type ListResult struct {
	Items              []Prediction `json:"items"`
	Page               int          `json:"page"`
	PageSize           int          `json:"pageSize"`
	TotalItems         int          `json:"totalItems"`
	TotalPages         int          `json:"totalPages"`
	Categories         []string     `json:"categories"`
	TrendingCategories []string     `json:"trendingCategories"`
	BroadCategories    []string     `json:"broadCategories"`
}

// ResolvedOutcome is the settlement instruction inferred from one closed
// market.
type ResolvedOutcome struct {
	PredictionID     string
	WinningOutcomeID string
	SettleAsCanceled bool
}

func NewCatalog(client *gamma.Client, logger *zap.Logger, ttl time.Duration, pageLimit, maxPages, maxRecords int) *Catalog {
	return &Catalog{
		Client:     client,
		Logger:     logger,
		TTL:        ttl,
		PageLimit:  pageLimit,
		MaxPages:   maxPages,
		MaxRecords: maxRecords,
	}
}

// snapshot returns the cached active set, refreshing it when stale. The
// refresh is detached from the caller's cancellation so one abandoned request
// cannot starve everyone waiting on the same fetch.
func (c *Catalog) snapshot(ctx context.Context) ([]Prediction, error) {
	c.mu.RLock()
	if c.items != nil && time.Since(c.fetchedAt) < c.TTL {
		items := c.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do("refresh", func() (any, error) {
		c.mu.RLock()
		if c.items != nil && time.Since(c.fetchedAt) < c.TTL {
			items := c.items
			c.mu.RUnlock()
			return items, nil
		}
		c.mu.RUnlock()

		items, err := c.fetchAll(context.WithoutCancel(ctx), false)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items = items
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Prediction), nil
}

// fetchAll pulls the upstream feed page by page, normalizes, and dedupes by
// market id. Paging stops on a short page or when the page/record bounds hit.
func (c *Catalog) fetchAll(ctx context.Context, closed bool) ([]Prediction, error) {
	pageLimit := c.PageLimit
	if pageLimit <= 0 {
		pageLimit = 500
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}
	maxRecords := c.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 1000
	}

	active := !closed
	items := make([]Prediction, 0, pageLimit)
	seen := map[string]struct{}{}
	for page := 0; page < maxPages && len(items) < maxRecords; page++ {
		records, err := c.Client.ListMarkets(ctx, gamma.ListQuery{
			Active: &active,
			Closed: &closed,
			Limit:  pageLimit,
			Offset: page * pageLimit,
		})
		if err != nil {
			var apiErr *gamma.APIError
			if errors.As(err, &apiErr) {
				return nil, apperr.Wrap(apperr.KindUpstream,
					fmt.Sprintf("market feed request failed with status %d", apiErr.Status), err)
			}
			return nil, apperr.Wrap(apperr.KindUpstream, "failed to fetch markets", err)
		}
		for _, raw := range records {
			p := Normalize(raw)
			if p == nil {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			items = append(items, *p)
			if len(items) >= maxRecords {
				break
			}
		}
		if len(records) < pageLimit {
			break
		}
	}

	if c.Logger != nil {
		c.Logger.Debug("market feed fetched",
			zap.Bool("closed", closed),
			zap.Int("markets", len(items)))
	}
	return items, nil
}

// List serves one catalog page. The category index, trending rail, and broad
// rail always describe the full snapshot, not the filtered subset.
func (c *Catalog) List(ctx context.Context, params ListParams) (ListResult, error) {
	items, err := c.snapshot(ctx)
	if err != nil {
		return ListResult{}, err
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	now := time.Now().UTC()
	categories := distinctCategories(items)
	trending := trendingCategories(items)

	search := strings.ToLower(strings.TrimSpace(params.Search))
	category := strings.TrimSpace(params.Category)
	broad := strings.ToLower(strings.TrimSpace(params.BroadCategory))

	var classifier *broadClassifier
	if broad != "" {
		classifier = newBroadClassifier(items, now)
	}

	filtered := make([]Prediction, 0, len(items))
	for i := range items {
		p := &items[i]
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if category != "" && !matchesCategory(p, category) {
			continue
		}
		if classifier != nil && !classifier.matches(p, broad) {
			continue
		}
		filtered = append(filtered, *p)
	}

	sortKey := normalizeSort(params.Sort)
	unfiltered := search == "" && category == "" && broad == ""
	if sortKey == "closing-soon" && unfiltered {
		dailyShuffle(filtered, now)
	} else {
		sortPredictions(filtered, sortKey)
	}

	totalItems := len(filtered)
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return ListResult{
		Items:              filtered[start:end],
		Page:               page,
		PageSize:           pageSize,
		TotalItems:         totalItems,
		TotalPages:         totalPages,
		Categories:         categories,
		TrendingCategories: trending,
		BroadCategories:    BroadCategories(),
	}, nil
}

// GetByID tries a direct upstream lookup first, then falls back to scanning
// the snapshot. A missing market returns (nil, nil).
func (c *Catalog) GetByID(ctx context.Context, id string) (*Prediction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	records, err := c.Client.ListMarkets(ctx, gamma.ListQuery{ID: id})
	if err == nil {
		for _, raw := range records {
			if p := Normalize(raw); p != nil && p.ID == id {
				return p, nil
			}
		}
	} else if c.Logger != nil {
		c.Logger.Warn("direct market lookup failed, falling back to snapshot",
			zap.String("market_id", id), zap.Error(err))
	}

	items, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			p := items[i]
			return &p, nil
		}
	}
	return nil, nil
}

// ResolvedOutcomes inspects closed markets for the given ids and infers a
// settlement per market: the first outcome at or above threshold wins,
// otherwise the market settles as canceled.
func (c *Catalog) ResolvedOutcomes(ctx context.Context, ids []string, threshold float64) ([]ResolvedOutcome, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	closed, err := c.fetchAll(ctx, true)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedOutcome, 0, len(ids))
	for i := range closed {
		p := &closed[i]
		if _, ok := wanted[p.ID]; !ok {
			continue
		}
		entry := ResolvedOutcome{PredictionID: p.ID, SettleAsCanceled: true}
		for _, o := range p.Outcomes {
			if o.Probability >= threshold {
				entry.WinningOutcomeID = o.ID
				entry.SettleAsCanceled = false
				break
			}
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

// matchesSearch checks the lowercased query against the question, every
// outcome title, and the category.
func matchesSearch(p *Prediction, search string) bool {
	if strings.Contains(strings.ToLower(p.Question), search) {
		return true
	}
	for i := range p.Outcomes {
		if strings.Contains(strings.ToLower(p.Outcomes[i].Title), search) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(p.Category), search)
}

func matchesCategory(p *Prediction, category string) bool {
	if strings.EqualFold(p.Category, category) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.EqualFold(tag, category) {
			return true
		}
	}
	return false
}

func distinctCategories(items []Prediction) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 16)
	for i := range items {
		key := strings.ToLower(items[i].Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, items[i].Category)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// trendingCategories ranks categories by summed market weight, where weight
// is volume, else liquidity, floored at 1 so thin markets still count.
func trendingCategories(items []Prediction) []string {
	weights := map[string]float64{}
	names := map[string]string{}
	for i := range items {
		p := &items[i]
		weight := 1.0
		if p.Volume != nil {
			weight = math.Max(1, p.Volume.InexactFloat64())
		} else if p.Liquidity != nil {
			weight = math.Max(1, p.Liquidity.InexactFloat64())
		}
		key := strings.ToLower(p.Category)
		weights[key] += weight
		if _, ok := names[key]; !ok {
			names[key] = p.Category
		}
	}

	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > trendingTopN {
		keys = keys[:trendingTopN]
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, names[k])
	}
	return out
}

func normalizeSort(sortKey string) string {
	switch strings.ToLower(strings.TrimSpace(sortKey)) {
	case "newest":
		return "newest"
	case "volume":
		return "volume"
	case "liquidity":
		return "liquidity"
	default:
		return "closing-soon"
	}
}

func sortPredictions(items []Prediction, sortKey string) {
	switch sortKey {
	case "newest":
		sort.SliceStable(items, func(i, j int) bool {
			return sortableCreatedAt(&items[i]).After(sortableCreatedAt(&items[j]))
		})
	case "volume":
		sort.SliceStable(items, func(i, j int) bool {
			vi, vj := decimalOrZero(items[i].Volume), decimalOrZero(items[j].Volume)
			if vi != vj {
				return vi > vj
			}
			return items[i].ClosesAt.Before(items[j].ClosesAt)
		})
	case "liquidity":
		sort.SliceStable(items, func(i, j int) bool {
			vi, vj := decimalOrZero(items[i].Liquidity), decimalOrZero(items[j].Liquidity)
			if vi != vj {
				return vi > vj
			}
			return items[i].ClosesAt.Before(items[j].ClosesAt)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ClosesAt.Before(items[j].ClosesAt)
		})
	}
}

func sortableCreatedAt(p *Prediction) time.Time {
	if p.CreatedAt != nil {
		return *p.CreatedAt
	}
	return p.ClosesAt
}

func decimalOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}

// dailyShuffle orders the default unfiltered listing pseudo-randomly but
// stably for one UTC day, so pagination stays consistent across requests.
func dailyShuffle(items []Prediction, now time.Time) {
	seed := now.Format("2006-01-02")
	sort.SliceStable(items, func(i, j int) bool {
		hi, hj := shuffleRank(seed, items[i].ID), shuffleRank(seed, items[j].ID)
		if hi != hj {
			return hi < hj
		}
		return items[i].ID < items[j].ID
	})
}

func shuffleRank(seed, id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(seed))
	h.Write([]byte(id))
	return h.Sum32()
}
