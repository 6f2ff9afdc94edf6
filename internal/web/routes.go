// Package web exposes the daemon-mode status surface: last sync summary,
// stored activities, health, and metrics.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/garminsync/internal/store"
)

type Handler struct {
	store store.Store
	raw   *store.RawActivities
}

func NewHandler(st store.Store) *Handler {
	return &Handler{
		store: st,
		raw:   store.NewRawActivities(st),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/summary", h.Summary)
	router.GET("/activities", h.ActivityList)
	router.GET("/activities/:id", h.ActivityDetail)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) Summary(c *gin.Context) {
	value, err := h.store.Load(c.Request.Context(), store.KeySummary)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync has completed yet"})
		return
	}
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json", value)
}

func (h *Handler) ActivityList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if limit <= 0 {
		limit = 50
	}

	ids, err := h.raw.IDs(c.Request.Context())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if offset > len(ids) {
		offset = len(ids)
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	activities := make([]json.RawMessage, 0, end-offset)
	for _, id := range ids[offset:end] {
		value, err := h.store.Load(c.Request.Context(), store.ActivityPrefix+id)
		if err != nil {
			continue
		}
		activities = append(activities, value)
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      len(ids),
		"activities": activities,
	})
}

func (h *Handler) ActivityDetail(c *gin.Context) {
	id := c.Param("id")
	if !store.SafeActivityID(id) {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	value, err := h.store.Load(c.Request.Context(), store.ActivityPrefix+id)
	if err == store.ErrNotFound {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json", value)
}
