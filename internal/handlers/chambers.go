package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chamber_monitor/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errGetState       = "failed to load state"
	errNoState        = "chamber has not been polled yet"
	errChamberInvalid = "invalid chamber id; must be a positive integer"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// parseChamberID accepts a positive integer.
func parseChamberID(s string) (int, bool) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// @Summary  Health check
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// listStates returns the latest reading of every chamber polled so far.
//
// @Summary  Latest state of every chamber
// @Tags     chambers
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Failure  500  {object}  map[string]string
// @Router   /api/v1/chambers [get]
func (h *Handler) listStates(c *gin.Context) {
	states, err := h.services.Monitoring.ListStates(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "chamber_list_states_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(states),
		"chambers": states,
	})
}

// @Summary  Latest state of one chamber
// @Tags     chambers
// @Produce  json
// @Param    id   path      int  true  "chamber id"
// @Success  200  {object}  models.ChamberState
// @Failure  400  {object}  map[string]string
// @Failure  404  {object}  map[string]string
// @Failure  500  {object}  map[string]string
// @Router   /api/v1/chambers/{id}/state [get]
func (h *Handler) getState(c *gin.Context) {
	id, ok := parseChamberID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errChamberInvalid})
		return
	}
	st, err := h.services.Monitoring.GetState(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoState) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNoState})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "chamber_get_state_failed", err, "chamber", id)
		return
	}
	c.JSON(http.StatusOK, st)
}
