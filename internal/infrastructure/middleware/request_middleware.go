package middleware

import (
	"net/http"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/pkg/errors"
	"agentdesk/pkg/logger"
	"agentdesk/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	sessionIDKey = "session_id"
)

// RequestIDMiddleware honours an incoming X-Request-ID or mints one, echoes
// it back and puts it on the request context for logging.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// SessionMiddleware validates the :id route parameter as a session id and
// exposes it to handlers and log enrichment.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("id")
		if err := validation.ValidateSessionID(raw); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			c.Abort()
			return
		}

		c.Set(sessionIDKey, domain.SessionID(raw))
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), raw))
		c.Next()
	}
}

// SessionID returns the id stored by SessionMiddleware.
func SessionID(c *gin.Context) domain.SessionID {
	v, _ := c.Get(sessionIDKey)
	id, _ := v.(domain.SessionID)
	return id
}

// HTTPObserver receives one observation per request.
type HTTPObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// AccessLogMiddleware logs every request through the context logger and
// reports it to observer when one is given.
func AccessLogMiddleware(cl *logger.ContextLogger, observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		if status == 0 {
			status = http.StatusOK
		}
		cl.LogRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path, status, elapsed.Milliseconds())
		if observer != nil {
			observer.ObserveHTTPRequest(c.Request.Method, routeOf(c), status, elapsed)
		}
	}
}
