package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/market"
)

type MarketHandler struct {
	Catalog *market.Catalog
}

func (h *MarketHandler) Register(r *gin.Engine) {
	group := r.Group("/api/markets")
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

func (h *MarketHandler) list(c *gin.Context) {
	if h.Catalog == nil {
		Error(c, http.StatusInternalServerError, "catalog unavailable", nil)
		return
	}
	result, err := h.Catalog.List(c.Request.Context(), market.ListParams{
		Page:          intQuery(c, "page", 1),
		PageSize:      intQuery(c, "pageSize", 0),
		Search:        strings.TrimSpace(c.Query("search")),
		Category:      strings.TrimSpace(c.Query("category")),
		BroadCategory: strings.TrimSpace(c.Query("broadCategory")),
		Sort:          strings.TrimSpace(c.Query("sort")),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, map[string]any{
		"page":       result.Page,
		"pageSize":   result.PageSize,
		"totalItems": result.TotalItems,
		"totalPages": result.TotalPages,
	})
}

func (h *MarketHandler) get(c *gin.Context) {
	if h.Catalog == nil {
		Error(c, http.StatusInternalServerError, "catalog unavailable", nil)
		return
	}
	prediction, err := h.Catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	if prediction == nil {
		Error(c, http.StatusNotFound, "market not found", nil)
		return
	}
	Ok(c, prediction, nil)
}
