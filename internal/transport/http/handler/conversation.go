package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/app"
	"research-assistant/internal/transport/http/middleware"
	"research-assistant/internal/transport/http/response"
)

type ConversationHandler struct {
	conversations *app.ConversationService
	sessions      *middleware.Sessions
}

type AskRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID *uint  `json:"document_id"`
}

func NewConversationHandler(conversations *app.ConversationService, sessions *middleware.Sessions) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, sessions: sessions}
}

func (h *ConversationHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question is required")
		return
	}
	result, err := h.conversations.Ask(c.Request.Context(), scopeFromContext(c), app.AskInput{
		Question:   req.Question,
		DocumentID: req.DocumentID,
	})
	if err != nil {
		response.FromError(c, err, "answer question failed")
		return
	}
	response.OK(c, result)
}

func (h *ConversationHandler) History(c *gin.Context) {
	turns, err := h.conversations.History(c.Request.Context(), scopeFromContext(c))
	if err != nil {
		response.FromError(c, err, "load history failed")
		return
	}
	response.OK(c, gin.H{"conversations": turns})
}

// Clear drops the session history and moves the browser onto a fresh session.
func (h *ConversationHandler) Clear(c *gin.Context) {
	result, err := h.conversations.ClearSession(c.Request.Context(), scopeFromContext(c))
	if err != nil {
		response.FromError(c, err, "clear session failed")
		return
	}
	if err := h.sessions.Issue(c, result.NewSessionID); err != nil {
		response.FromError(c, err, "issue new session failed")
		return
	}
	response.OK(c, result)
}

func (h *ConversationHandler) Export(c *gin.Context) {
	exp, err := h.conversations.Export(c.Request.Context(), scopeFromContext(c))
	if err != nil {
		response.FromError(c, err, "export failed")
		return
	}
	if c.Query("download") == "1" {
		c.Header("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(exp.Text))
		return
	}
	response.OK(c, exp)
}
