package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reviewhub/reviewhub/internal/services"
)

type SearchHandler struct {
	searchService *services.SearchService
}

func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search ?q=&sort=relevance&page=1
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	sortBy := c.DefaultQuery("sort", services.SortRelevance)
	page := queryInt(c, "page", 1)

	result, err := h.searchService.SearchProducts(c.Request.Context(), query, sortBy, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Suggest 输入联想 ?q=&limit=10
func (h *SearchHandler) Suggest(c *gin.Context) {
	query := c.Query("q")
	limit := queryInt(c, "limit", 10)

	products, err := h.searchService.Suggest(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}
