package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"glucose-levels-backend/internal/parse"
	"glucose-levels-backend/internal/service"
)

// ListLevels handles GET /api/v1/levels.
func (h *Handler) ListLevels(c *gin.Context) {
	params := service.ListParams{
		UserID:    c.Query("user_id"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	var err error
	if params.Start, err = timeQuery(c, "start_timestamp"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if params.Stop, err = timeQuery(c, "stop_timestamp"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if params.Limit, err = intQuery(c, "limit"); err != nil {
		badRequest(c, err.Error())
		return
	}
	if params.Offset, err = intQuery(c, "offset"); err != nil {
		badRequest(c, err.Error())
		return
	}

	levels, err := h.levels.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

// GetLevel handles GET /api/v1/levels/:id.
func (h *Handler) GetLevel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid level ID")
		return
	}

	level, err := h.levels.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, level)
}

type createLevelRequest struct {
	UserID       string   `json:"user_id" binding:"required"`
	Device       *string  `json:"device"`
	SerialNumber *string  `json:"serial_number"`
	Timestamp    string   `json:"timestamp" binding:"required"`
	GlucoseValue *float64 `json:"glucose_value" binding:"required"`
}

// CreateLevel handles POST /api/v1/levels.
func (h *Handler) CreateLevel(c *gin.Context) {
	var req createLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ts, err := parse.ISOTimestamp(req.Timestamp)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	level, err := h.levels.Create(c.Request.Context(), service.CreateParams{
		UserID:       req.UserID,
		Timestamp:    ts,
		GlucoseValue: *req.GlucoseValue,
		Device:       req.Device,
		SerialNumber: req.SerialNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, level)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func timeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := parse.ISOTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func intQuery(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return &n, nil
}
