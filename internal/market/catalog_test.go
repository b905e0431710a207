package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/client/gamma"
)

type feedMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	EndDate       string    `json:"endDate"`
	CreatedAt     string    `json:"createdAt,omitempty"`
	Outcomes      []string  `json:"outcomes"`
	OutcomePrices []float64 `json:"outcomePrices"`
	Closed        bool      `json:"closed"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	VolumeNum     float64   `json:"volumeNum,omitempty"`
}

func feedFixture(n int) []feedMarket {
	base := time.Now().UTC().Add(24 * time.Hour)
	items := make([]feedMarket, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, feedMarket{
			ID:            strconv.Itoa(i + 1),
			Question:      fmt.Sprintf("Question number %d?", i+1),
			EndDate:       base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: []float64{0.4, 0.6},
			Category:      "General",
			VolumeNum:     float64((i + 1) * 100),
		})
	}
	return items
}

// feedServer serves active markets on the default query and closed markets
// when closed=true, echoing just enough of the upstream shape.
func feedServer(t *testing.T, active, closed []feedMarket) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.URL.Query().Get("id"); id != "" {
			out := []feedMarket{}
			for _, m := range append(append([]feedMarket{}, active...), closed...) {
				if m.ID == id {
					out = append(out, m)
				}
			}
			json.NewEncoder(w).Encode(out)
			return
		}
		src := active
		if r.URL.Query().Get("closed") == "true" {
			src = closed
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 {
			limit = len(src)
		}
		if offset > len(src) {
			offset = len(src)
		}
		end := offset + limit
		if end > len(src) {
			end = len(src)
		}
		json.NewEncoder(w).Encode(src[offset:end])
	}))
}

func newTestCatalog(t *testing.T, srv *httptest.Server) *Catalog {
	t.Helper()
	client := gamma.NewClient(srv.Client(), srv.URL, "")
	return NewCatalog(client, nil, time.Minute, 500, 5, 1000)
}

func TestCatalogList_PaginationClamps(t *testing.T) {
	srv := feedServer(t, feedFixture(30), nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	result, err := catalog.List(context.Background(), ListParams{Page: 99, PageSize: 10, Sort: "volume"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.TotalItems != 30 || result.TotalPages != 3 {
		t.Fatalf("totals=%d/%d want 30/3", result.TotalItems, result.TotalPages)
	}
	if result.Page != 3 {
		t.Fatalf("page=%d want clamp to 3", result.Page)
	}
	if len(result.Items) != 10 {
		t.Fatalf("items=%d want 10", len(result.Items))
	}

	// Oversized page size clamps to 100, undersized to the default.
	result, err = catalog.List(context.Background(), ListParams{PageSize: 9999})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.PageSize != 100 {
		t.Fatalf("pageSize=%d want 100", result.PageSize)
	}
}

func TestCatalogList_SearchAndSort(t *testing.T) {
	srv := feedServer(t, feedFixture(20), nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	result, err := catalog.List(context.Background(), ListParams{Search: "number 7"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.TotalItems != 1 || result.Items[0].ID != "7" {
		t.Fatalf("search result=%+v", result.Items)
	}

	result, err = catalog.List(context.Background(), ListParams{Sort: "volume", PageSize: 5})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Items[0].ID != "20" {
		t.Fatalf("volume sort top=%s want 20", result.Items[0].ID)
	}
}

func TestCatalogList_SearchMatchesOutcomesAndCategory(t *testing.T) {
	active := []feedMarket{
		{ID: "1", Question: "Who wins the race?", EndDate: "2026-12-01T00:00:00Z",
			Outcomes: []string{"Ferrari", "Mercedes"}, OutcomePrices: []float64{0.5, 0.5},
			Category: "Motorsport"},
		{ID: "2", Question: "q2", EndDate: "2026-12-01T00:00:00Z",
			Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.5, 0.5},
			Category: "Sports"},
	}
	srv := feedServer(t, active, nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	for _, search := range []string{"ferrari", "MOTORSPORT", "race"} {
		result, err := catalog.List(context.Background(), ListParams{Search: search})
		if err != nil {
			t.Fatalf("search=%q err=%v", search, err)
		}
		if result.TotalItems != 1 || result.Items[0].ID != "1" {
			t.Fatalf("search=%q got %+v", search, result.Items)
		}
	}
}

func TestCatalogList_CategoryMatchesPrimaryAndTags(t *testing.T) {
	active := []feedMarket{
		{ID: "1", Question: "q1", EndDate: "2026-12-01T00:00:00Z",
			Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.5, 0.5},
			Category: "Politics", Tags: []string{"Elections"}},
		{ID: "2", Question: "q2", EndDate: "2026-12-01T00:00:00Z",
			Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.5, 0.5},
			Category: "Sports"},
	}
	srv := feedServer(t, active, nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	for _, category := range []string{"Politics", "Elections", "politics"} {
		result, err := catalog.List(context.Background(), ListParams{Category: category})
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		if result.TotalItems != 1 || result.Items[0].ID != "1" {
			t.Fatalf("category=%q got %+v", category, result.Items)
		}
	}
}

func TestCatalogList_DailyShuffleIsStable(t *testing.T) {
	srv := feedServer(t, feedFixture(25), nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	first, err := catalog.List(context.Background(), ListParams{PageSize: 25})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	second, err := catalog.List(context.Background(), ListParams{PageSize: 25})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Fatalf("shuffle not stable at %d: %s vs %s", i, first.Items[i].ID, second.Items[i].ID)
		}
	}

	sorted := true
	for i := 1; i < len(first.Items); i++ {
		if first.Items[i-1].ClosesAt.After(first.Items[i].ClosesAt) {
			sorted = false
			break
		}
	}
	if sorted {
		t.Fatalf("unfiltered default listing should be shuffled, not closing-soon sorted")
	}
}

func TestCatalogList_FilteredDefaultSortIsClosingSoon(t *testing.T) {
	srv := feedServer(t, feedFixture(25), nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	result, err := catalog.List(context.Background(), ListParams{Search: "question", PageSize: 25})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	for i := 1; i < len(result.Items); i++ {
		if result.Items[i-1].ClosesAt.After(result.Items[i].ClosesAt) {
			t.Fatalf("filtered listing not sorted by close time")
		}
	}
}

func TestCatalogList_UpstreamFailureIsFailClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	_, err := catalog.List(context.Background(), ListParams{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("kind=%v want upstream", apperr.KindOf(err))
	}
	if msg := apperr.MessageOf(err); !strings.Contains(msg, "502") {
		t.Fatalf("message=%q want the upstream status embedded", msg)
	}
}

func TestCatalogGetByID(t *testing.T) {
	srv := feedServer(t, feedFixture(5), nil)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	p, err := catalog.GetByID(context.Background(), "3")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if p == nil || p.ID != "3" {
		t.Fatalf("got %+v", p)
	}

	p, err = catalog.GetByID(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if p != nil {
		t.Fatalf("expected nil for unknown id, got %+v", p)
	}
}

func TestResolvedOutcomes(t *testing.T) {
	closed := []feedMarket{
		{ID: "10", Question: "resolved one", EndDate: "2026-01-01T00:00:00Z", Closed: true,
			Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.998, 0.002}},
		{ID: "11", Question: "dead heat", EndDate: "2026-01-01T00:00:00Z", Closed: true,
			Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.5, 0.5}},
		{ID: "12", Question: "not asked about", EndDate: "2026-01-01T00:00:00Z", Closed: true,
			Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{1.0, 0.0}},
	}
	srv := feedServer(t, nil, closed)
	defer srv.Close()
	catalog := newTestCatalog(t, srv)

	resolved, err := catalog.ResolvedOutcomes(context.Background(), []string{"10", "11"}, 99.5)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("resolved=%d want 2", len(resolved))
	}
	byID := map[string]ResolvedOutcome{}
	for _, r := range resolved {
		byID[r.PredictionID] = r
	}
	if byID["10"].SettleAsCanceled || byID["10"].WinningOutcomeID != "10-0" {
		t.Fatalf("market 10: %+v", byID["10"])
	}
	if !byID["11"].SettleAsCanceled || byID["11"].WinningOutcomeID != "" {
		t.Fatalf("market 11: %+v", byID["11"])
	}
}

func TestTrendingCategories_WeightsAndCap(t *testing.T) {
	items := []Prediction{
		{Category: "Crypto", Volume: dec(500)},
		{Category: "crypto", Volume: dec(500)},
		{Category: "Sports", Liquidity: dec(300)},
		{Category: "Thin"},
	}
	top := trendingCategories(items)
	if len(top) != 3 {
		t.Fatalf("top=%v", top)
	}
	if top[0] != "Crypto" || top[1] != "Sports" || top[2] != "Thin" {
		t.Fatalf("order=%v", top)
	}
}
