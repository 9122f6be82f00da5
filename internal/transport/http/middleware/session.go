package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"research-assistant/internal/config"
	"research-assistant/internal/pkg/jwtutil"
	"research-assistant/internal/transport/http/response"
)

const ContextSessionIDKey = "session_id"

// Sessions binds every request to an anonymous browser session carried in a
// signed cookie. A missing or invalid cookie starts a new session.
type Sessions struct {
	cfg config.SessionConfig
	log *slog.Logger
}

func NewSessions(cfg config.SessionConfig, log *slog.Logger) *Sessions {
	if cfg.CookieName == "" {
		cfg.CookieName = "ra_session"
	}
	if cfg.MaxAgeHours <= 0 {
		cfg.MaxAgeHours = 24 * 30
	}
	return &Sessions{cfg: cfg, log: log}
}

func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(s.cfg.CookieName); err == nil && raw != "" {
			if claims, err := jwtutil.ParseToken(s.cfg.Secret, raw); err == nil {
				c.Set(ContextSessionIDKey, claims.SessionID)
				c.Next()
				return
			}
		}
		sid := uuid.NewString()
		if err := s.Issue(c, sid); err != nil {
			s.log.Error("issue session cookie failed", "request_id", GetRequestID(c), "error", err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "session unavailable")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Issue signs sid into the session cookie and binds it to the request.
func (s *Sessions) Issue(c *gin.Context, sid string) error {
	ttl := time.Duration(s.cfg.MaxAgeHours) * time.Hour
	token, err := jwtutil.GenerateToken(s.cfg.Secret, ttl, sid)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, token, int(ttl.Seconds()), "/", "", s.cfg.Secure, true)
	c.Set(ContextSessionIDKey, sid)
	return nil
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
