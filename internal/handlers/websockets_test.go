package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chamber_monitor/internal/models"
	"chamber_monitor/internal/service"
)

func TestParseInterval(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default", "/ws", defaultInterval},
		{"duration", "/ws?interval=2s", 2 * time.Second},
		{"millis", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"duration above max falls back", "/ws?interval=2m", defaultInterval},
		{"millis above max falls back", "/ws?interval_ms=60001", defaultInterval},
		{"garbage falls back", "/ws?interval=soon", defaultInterval},
		{"zero falls back", "/ws?interval_ms=0", defaultInterval},
		{"duration wins", "/ws?interval=3s&interval_ms=100", 3 * time.Second},
		{"bad duration uses millis", "/ws?interval=x&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

type wsFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialFeed(t *testing.T, s *service.Service, query url.Values) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(s, nil))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocket_StreamsAllChambers(t *testing.T) {
	beer := 1850
	mon := &mockMonitoring{states: []models.ChamberState{
		{ChamberID: 1, GyleID: 4, Reading: &models.Reading{Dt: 240, TBeer: &beer}},
		{ChamberID: 2},
	}}
	conn := dialFeed(t, &service.Service{Monitoring: mon}, url.Values{"interval_ms": {"20"}})

	f := readFrame(t, conn)
	if f.Type != "chambers" {
		t.Fatalf("bad frame: %+v", f)
	}
	var states []models.ChamberState
	if err := json.Unmarshal(f.Data, &states); err != nil {
		t.Fatalf("unmarshal states: %v", err)
	}
	if len(states) != 2 || states[0].GyleID != 4 || states[0].Reading == nil || *states[0].Reading.TBeer != 1850 {
		t.Fatalf("unexpected states: %+v", states)
	}

	// next tick
	if f := readFrame(t, conn); f.Type != "chambers" {
		t.Fatalf("expected type=chambers, got %+v", f)
	}
}

func TestWebSocket_SingleChamber(t *testing.T) {
	mon := &mockMonitoring{state: models.ChamberState{ChamberID: 3, GyleID: 9}}
	conn := dialFeed(t, &service.Service{Monitoring: mon}, url.Values{"chamber": {"3"}, "interval": {"20ms"}})

	f := readFrame(t, conn)
	if f.Type != "state" || f.Error != "" {
		t.Fatalf("bad frame: %+v", f)
	}
	var st models.ChamberState
	if err := json.Unmarshal(f.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.ChamberID != 3 || st.GyleID != 9 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestWebSocket_UnpolledChamberReportedInFrame(t *testing.T) {
	mon := &mockMonitoring{err: service.ErrNoState}
	conn := dialFeed(t, &service.Service{Monitoring: mon}, url.Values{"chamber": {"5"}, "interval_ms": {"20"}})

	for i := 0; i < 2; i++ {
		f := readFrame(t, conn)
		if f.Type != "state" || f.Error != errNoState || len(f.Data) != 0 {
			t.Fatalf("frame %d: %+v", i, f)
		}
	}
}

func TestWebSocket_ListError_Closes(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("database is locked")}
	conn := dialFeed(t, &service.Service{Monitoring: mon}, nil)

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}

func TestWebSocket_BadChamberRejectedBeforeUpgrade(t *testing.T) {
	r := newTestRouter(&service.Service{Monitoring: &mockMonitoring{}}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?chamber=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSwaggerServed(t *testing.T) {
	r := newTestRouter(&service.Service{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("index status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("doc.json status=%d", w.Code)
	}
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not json: %v", err)
	}
	for _, p := range []string{"/health", "/api/v1/chambers", "/api/v1/chambers/{id}/state", "/api/v1/events", "/ws"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("doc.json missing path %s", p)
		}
	}
}
