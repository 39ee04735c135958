// Package middleware provides gin middleware for the HTTP API.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/pkg/session"
)

// Context keys set by the middleware.
const (
	KeyRequestID = "requestID"
	KeyUserID    = "userID"
	KeyToken     = "token"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// TokenParser validates session tokens.
type TokenParser interface {
	Parse(ctx context.Context, token string) (*session.Claims, error)
}

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{Message: message, Error: http.StatusText(status)})
}

// RequestID tags every request with an id, reusing a client-supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(KeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logger writes one access log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		if userID, ok := c.Get(KeyUserID); ok {
			event = event.Int64("user_id", userID.(int64))
		}
		event.
			Str("request_id", c.GetString(KeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// Recovery turns a panicking handler into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("request_id", c.GetString(KeyRequestID)).
					Str("path", c.Request.URL.Path).
					Msg("Recovered from panic in handler")
				abort(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}

// Auth requires a valid, unrevoked bearer token and stores the user id and
// the raw token in the context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		claims, err := parser.Parse(c.Request.Context(), token)
		if err != nil {
			if model.ErrorKind(err) == nil {
				log.Error().Err(err).Msg("Session check failed")
				abort(c, http.StatusInternalServerError, "Internal server error")
				return
			}
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyToken, token)
		c.Next()
	}
}

// AdminOnly re-reads the caller from the store on every request so a
// revoked admin flag takes effect immediately. Must run after Auth.
func AdminOnly(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil || !user.IsAdmin {
			log.Warn().
				Int64("user_id", userID).
				Str("path", c.FullPath()).
				Msg("Non-admin attempted admin route")
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Token returns the raw bearer token of the request.
func Token(c *gin.Context) string {
	return c.GetString(KeyToken)
}
