package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/core"
	"github.com/example/assessly-billing/internal/middleware"
)

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// InitializeUserProfile handles POST /api/v1/users/initialize. It is called
// by the client after sign-up and provisions the caller's organization on
// first use. Responds 201 when something was created and 200 otherwise.
func (h *UserHandler) InitializeUserProfile(c *gin.Context) {
	user, created, err := h.userService.InitializeProfile(c.Request.Context(), core.NewUser{
		ID:          c.GetString(middleware.ContextUserID),
		Email:       c.GetString(middleware.ContextUserEmail),
		DisplayName: c.GetString(middleware.ContextUserDisplayName),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, user)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetCurrentUserProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
