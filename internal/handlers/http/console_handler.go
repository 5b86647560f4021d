package http

import (
	"net/http"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/internal/infrastructure/middleware"
	"agentdesk/pkg/errors"
	"agentdesk/pkg/utils"
	"agentdesk/pkg/validation"

	"github.com/gin-gonic/gin"
)

var viewNames = func() []string {
	names := make([]string, len(domain.Views))
	for i, v := range domain.Views {
		names[i] = string(v)
	}
	return names
}()

type ConsoleHandler struct {
	console ports.ConsoleService
	stream  ports.NotificationStream
}

func NewConsoleHandler(console ports.ConsoleService, stream ports.NotificationStream) *ConsoleHandler {
	return &ConsoleHandler{
		console: console,
		stream:  stream,
	}
}

// SetupRoutes mounts the console API. streamLimit guards the websocket
// route and may be nil.
func (h *ConsoleHandler) SetupRoutes(router *gin.Engine, streamLimit gin.HandlerFunc) {
	api := router.Group("/api/v1")
	{
		api.POST("/sessions", h.OpenSession)

		session := api.Group("/sessions/:id", middleware.SessionMiddleware())
		{
			session.GET("", h.GetSession)
			session.DELETE("", h.CloseSession)
			session.POST("/messages", h.Submit)
			session.GET("/documents", h.GetDocuments)
			session.POST("/documents/refresh", h.RefreshDocuments)
			session.POST("/users/refresh", h.RefreshUsers)
			session.PUT("/identity", h.SelectIdentity)
			session.PUT("/view", h.SelectView)
			session.GET("/permissions", h.GetPermissions)

			notifications := []gin.HandlerFunc{h.StreamNotifications}
			if streamLimit != nil {
				notifications = append([]gin.HandlerFunc{streamLimit}, notifications...)
			}
			session.GET("/notifications", notifications...)
		}
	}
}

func (h *ConsoleHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewInvalidInputError("invalid request body"))
			return
		}
	}
	if req.Identity != "" {
		if err := validation.ValidateUsername(req.Identity); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
	}

	session, err := h.console.Open(c.Request.Context(), req.Identity)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Location", "/api/v1/sessions/"+string(session.ID))
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (h *ConsoleHandler) GetSession(c *gin.Context) {
	session, err := h.console.Get(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *ConsoleHandler) CloseSession(c *gin.Context) {
	if err := h.console.Close(c.Request.Context(), middleware.SessionID(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit answers 200 in every non-error case; accepted tells the browser
// whether the text reached the agent.
func (h *ConsoleHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}
	if err := validation.ValidateQueryText(req.Text); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	sub, err := h.console.Submit(c.Request.Context(), middleware.SessionID(c), utils.SanitizeString(req.Text))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSubmitResponse(sub))
}

func (h *ConsoleHandler) GetDocuments(c *gin.Context) {
	session, err := h.console.Get(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toDocumentsResponse(session))
}

func (h *ConsoleHandler) RefreshDocuments(c *gin.Context) {
	session, err := h.console.RefreshDocuments(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toDocumentsResponse(session))
}

func (h *ConsoleHandler) RefreshUsers(c *gin.Context) {
	session, err := h.console.RefreshUsers(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *ConsoleHandler) SelectIdentity(c *gin.Context) {
	var req selectIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	session, err := h.console.SelectIdentity(c.Request.Context(), middleware.SessionID(c), req.Username)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *ConsoleHandler) SelectView(c *gin.Context) {
	var req selectViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}
	if err := validation.ValidateOneOf(string(req.View), viewNames, "view"); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	session, err := h.console.SelectView(c.Request.Context(), middleware.SessionID(c), req.View)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *ConsoleHandler) GetPermissions(c *gin.Context) {
	matrix, err := h.console.Matrix(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

// StreamNotifications upgrades to a websocket once the session is known to
// exist.
func (h *ConsoleHandler) StreamNotifications(c *gin.Context) {
	id := middleware.SessionID(c)
	if _, err := h.console.Get(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	h.stream.ServeSession(c.Writer, c.Request, id)
}
