package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codemonkey/colab/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	sessionKey      = "session"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)

		c.Next()

		s.logger.Info("http",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// sessionMiddleware attaches the caller's session. Requests without an
// Authorization header are anonymous; a header with a bad token is rejected.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(sessionKey, session.Unauthenticated())
			c.Next()
			return
		}

		sess, err := s.verifyAuthHeader(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) verifyAuthHeader(header string) (session.Session, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return session.Unauthenticated(), errors.New("invalid authorization header")
	}

	sess, err := session.Verify(s.cfg.JWTSecret, fields[1])
	if err != nil {
		return session.Unauthenticated(), fmt.Errorf("invalid token: %w", err)
	}
	return sess, nil
}

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessionFrom(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is missing"})
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Unauthenticated()
	}
	sess, ok := v.(session.Session)
	if !ok {
		return session.Unauthenticated()
	}
	return sess
}
