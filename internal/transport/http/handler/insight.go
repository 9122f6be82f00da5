package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/app"
	"research-assistant/internal/transport/http/response"
)

type InsightHandler struct {
	insights *app.InsightService
}

type CompareRequest struct {
	DocumentIDs []uint `json:"document_ids"`
	Mode        string `json:"comparison_type"`
}

type SearchRequest struct {
	Query       string `json:"query" binding:"required"`
	DocumentIDs []uint `json:"document_ids"`
}

func NewInsightHandler(insights *app.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

func (h *InsightHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.insights.Compare(c.Request.Context(), scopeFromContext(c), app.CompareInput{
		DocumentIDs: req.DocumentIDs,
		Mode:        req.Mode,
	})
	if err != nil {
		response.FromError(c, err, "compare documents failed")
		return
	}
	response.OK(c, result)
}

func (h *InsightHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "search query is required")
		return
	}
	results, err := h.insights.Search(c.Request.Context(), scopeFromContext(c), app.SearchInput{
		Query:       req.Query,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		response.FromError(c, err, "search failed")
		return
	}
	response.OK(c, gin.H{"query": req.Query, "results": results})
}
