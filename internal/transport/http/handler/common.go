package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/app"
	"research-assistant/internal/transport/http/middleware"
)

func scopeFromContext(c *gin.Context) app.Scope {
	return app.Scope{
		SessionID: middleware.GetSessionID(c),
		RequestID: middleware.GetRequestID(c),
	}
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
