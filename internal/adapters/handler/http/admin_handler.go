package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averel/dayloop/internal/core/domain"
	"github.com/averel/dayloop/internal/core/services"
	"github.com/averel/dayloop/internal/offline"
)

// AdminHandler exposes the admin panel's data endpoints: raw tracker
// documents, admin-cache invalidation and push dispatch.
type AdminHandler struct {
	repo     domain.TrackerRepository
	adminSvc *services.AdminService
	pushSvc  *offline.PushService
}

func NewAdminHandler(repo domain.TrackerRepository, adminSvc *services.AdminService, pushSvc *offline.PushService) *AdminHandler {
	return &AdminHandler{
		repo:     repo,
		adminSvc: adminSvc,
		pushSvc:  pushSvc,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	{
		admin.GET("/users/:id/tracker", h.GetUserTracker)
		admin.POST("/admin-cache/:uid/invalidate", h.InvalidateAdminCache)
		admin.POST("/push", h.DispatchPush)
	}
}

func (h *AdminHandler) GetUserTracker(c *gin.Context) {
	store, err := h.repo.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, store)
}

func (h *AdminHandler) InvalidateAdminCache(c *gin.Context) {
	h.adminSvc.Invalidate(c.Param("uid"))
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) DispatchPush(c *gin.Context) {
	if h.pushSvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push transport not configured"})
		return
	}

	var payload offline.PushPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.pushSvc.HandlePush(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, offline.ErrEmptyPush) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "push dispatch failed"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"notification_id": n.ID})
}
