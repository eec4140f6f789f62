package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/averel/dayloop/internal/adapters/handler/http/middleware"
	"github.com/averel/dayloop/internal/core/domain"
	"github.com/averel/dayloop/internal/core/services"
)

type TrackerHandler struct {
	svc     *services.TrackerService
	catalog domain.HabitCatalog
}

func NewTrackerHandler(svc *services.TrackerService, catalog domain.HabitCatalog) *TrackerHandler {
	return &TrackerHandler{
		svc:     svc,
		catalog: catalog,
	}
}

type setHabitStatusRequest struct {
	Checked bool `json:"checked"`
}

func (h *TrackerHandler) RegisterRoutes(router *gin.RouterGroup) {
	tracker := router.Group("/tracker")
	{
		tracker.GET("/days/:date", h.GetDay)
		tracker.PUT("/days/:date/habits/:habitID", h.SetHabitStatus)
		tracker.POST("/days/:date/validate", h.ValidateDay)
		tracker.GET("/streak", h.GetStreak)
		tracker.GET("/perfect-days", h.GetPerfectDays)
		tracker.GET("/validated-days", h.GetValidatedDays)
	}
}

func (h *TrackerHandler) GetDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, err := domain.ParseDateKey(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	habits, err := h.catalog.ListHabits(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	record, err := h.svc.Record(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	validated, err := h.svc.IsDayValidated(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	editable, err := h.svc.CanEdit(c.Request.Context(), userID, time.Now(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if record == nil {
		record = domain.DayRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      domain.DateKey(date),
		"habits":    record,
		"score":     services.DayScore(habits, record),
		"validated": validated,
		"editable":  editable,
	})
}

func (h *TrackerHandler) SetHabitStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, err := domain.ParseDateKey(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	var req setHabitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.svc.SetHabitStatus(c.Request.Context(), services.SetHabitStatusInput{
		UserID:  userID,
		HabitID: c.Param("habitID"),
		Checked: req.Checked,
		Date:    date,
		Today:   time.Now(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// Rejected writes are deliberate no-ops, not errors: the caller gets a
	// 200 with the distinguishable status string.
	c.JSON(http.StatusOK, gin.H{
		"status":  status.String(),
		"applied": status.Applied(),
	})
}

func (h *TrackerHandler) ValidateDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, err := domain.ParseDateKey(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	validated, err := h.svc.ValidateDay(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      domain.DateKey(date),
		"validated": validated,
	})
}

func (h *TrackerHandler) GetStreak(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	habits, err := h.catalog.ListHabits(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	streak, err := h.svc.Streak(c.Request.Context(), userID, habits, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

func (h *TrackerHandler) GetPerfectDays(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	habits, err := h.catalog.ListHabits(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	count, err := h.svc.PerfectDays(c.Request.Context(), userID, habits)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"perfect_days": count})
}

func (h *TrackerHandler) GetValidatedDays(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	days, err := h.svc.ValidatedDays(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if days == nil {
		days = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"validated_days": days})
}
