package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chamber_monitor/internal/service"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 5 * time.Second
	maxInterval      = time.Minute
	maxIntervalMilli = 60_000
)

// wsEnvelope is the frame written to chamber state subscribers.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Chamber state feed
// @Description  Upgrades to a WebSocket that pushes the latest chamber states every interval.
// @Tags         chambers
// @Param        chamber      query  int     false  "only this chamber"
// @Param        interval     query  string  false  "push interval, e.g. 10s (max 1m)"
// @Param        interval_ms  query  int     false  "push interval in milliseconds"
// @Success      101
// @Failure      400  {object}  map[string]string
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	chamberID := 0
	if qs := c.Query("chamber"); qs != "" {
		var ok bool
		if chamberID, ok = parseChamberID(qs); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": errChamberInvalid})
			return
		}
	}
	interval := parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendStates(ctx, conn, chamberID); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendStates(ctx, conn, chamberID); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=10s or ?interval_ms=10000, falling back to the default.
func parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// startReader drains incoming frames so control frames are handled and closure is noticed.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendStates writes one frame: every chamber's state, or a single chamber's when
// chamberID is set. A chamber not polled yet is reported in the frame, not as a
// write error.
func (h *Handler) sendStates(ctx context.Context, conn *websocket.Conn, chamberID int) error {
	var env wsEnvelope
	if chamberID == 0 {
		states, err := h.services.Monitoring.ListStates(ctx)
		if err != nil {
			if h.log != nil {
				h.log.Errorw("ws_list_states_failed", "err", err)
			}
			return err
		}
		env = wsEnvelope{Type: "chambers", Data: states}
	} else {
		st, err := h.services.Monitoring.GetState(ctx, chamberID)
		switch {
		case errors.Is(err, service.ErrNoState):
			env = wsEnvelope{Type: "state", Error: errNoState}
		case err != nil:
			if h.log != nil {
				h.log.Errorw("ws_get_state_failed", "chamber", chamberID, "err", err)
			}
			return err
		default:
			env = wsEnvelope{Type: "state", Data: st}
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
