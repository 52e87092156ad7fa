// Package webserver exposes the scheduler's health, readiness, status, and
// live push endpoints over HTTP. It merges the teacher's separate
// scheduler/health.go and scheduler/server.go into one server: both files
// defined nearly identical SchedulerHealth/SystemHealth/StatusResponse
// types and duplicated the /health and /ready handlers, so this package
// keeps a single canonical type set and the richer server.go feature set
// (websocket push, periodic broadcast) rather than carrying the
// duplication forward.
package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sixdouglas/suncalc"

	"github.com/jlindstrom/solar-allocator/priceboard"
	"github.com/jlindstrom/solar-allocator/pvpredictor"
	"github.com/jlindstrom/solar-allocator/scheduler"
)

// StatusResponse is the combined health/status payload served from
// /api/health, /api/status, and pushed over the websocket channel.
type StatusResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Scheduler SchedulerHealth   `json:"scheduler"`
	System    SystemHealth      `json:"system"`
	PV        PVHealth          `json:"pv"`
	Sun       SunInfo           `json:"sun"`
	GridPrice *GridPriceContext `json:"grid_price_context,omitempty"`
}

// GridPriceContext is informational-only day-ahead price data, per
// SPEC_FULL.md §9: scheduling decisions never consult price, but the
// teacher's price-fetch subsystem is kept and surfaced read-only on the
// dashboard rather than dropped outright.
type GridPriceContext struct {
	HasDocument     bool      `json:"has_document"`
	DocumentID      string    `json:"document_id,omitempty"`
	CurrentAvgPrice float64   `json:"current_avg_price,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// SchedulerHealth reports the task roster's state, in place of the
// teacher's miner count and market-document fields.
type SchedulerHealth struct {
	IsRunning bool     `json:"is_running"`
	Paused    bool     `json:"paused"`
	TaskCount int      `json:"task_count"`
	Tasks     []string `json:"tasks"`
}

// SystemHealth is process-level health, unchanged from the teacher.
type SystemHealth struct {
	Uptime string `json:"uptime"`
}

// PVHealth replaces the teacher's battery-plant EMSHealth block — there is
// no inverter/ESS telemetry to report here, only the predictor's current
// and best-available estimate.
type PVHealth struct {
	CurrentPower      float64 `json:"current_power_kw"`
	MaxAvailablePower float64 `json:"max_available_power_kw"`
}

// SunInfo is kept verbatim from the teacher's server.go: solar angle and
// sunrise/sunset, computed straight from suncalc rather than through the
// predictor, since the predictor doesn't expose raw solar position.
type SunInfo struct {
	SolarAngle float64 `json:"solar_angle_degrees"`
	Sunrise    string  `json:"sunrise"`
	Sunset     string  `json:"sunset"`
}

// Server serves the scheduler's HTTP and websocket surface.
type Server struct {
	scheduler *scheduler.Scheduler
	predictor pvpredictor.Predictor
	lat, lon  float64
	port      int
	startTime time.Time
	priceDoc  func() *priceboard.PublicationMarketDocument

	httpServer *http.Server
	upgrader   websocket.Upgrader
	clients    sync.Map
	broadcast  chan []byte
	done       chan struct{}
}

// SetPriceSource installs the callback buildStatus uses to fill
// grid_price_context; doc is whatever the caller's priceboard poller last
// fetched, and may return nil before the first fetch completes.
func (s *Server) SetPriceSource(doc func() *priceboard.PublicationMarketDocument) {
	if s == nil {
		return
	}
	s.priceDoc = doc
}

// New builds a Server; a port <= 0 disables it, mirroring the teacher's own
// convention for an optional health/web server.
func New(sched *scheduler.Scheduler, predictor pvpredictor.Predictor, lat, lon float64, port int) *Server {
	if port <= 0 {
		return nil
	}

	mux := http.NewServeMux()
	s := &Server{
		scheduler: sched,
		predictor: predictor,
		lat:       lat,
		lon:       lon,
		port:      port,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("/api/health", s.healthHandler)
	mux.HandleFunc("/api/ready", s.readinessHandler)
	mux.HandleFunc("/api/status", s.statusHandler)
	mux.HandleFunc("/api/ws", s.wsHandler)
	mux.HandleFunc("/", s.rootHandler)

	return s
}

// Start begins serving and the broadcast goroutines; it does not block.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	go s.handleBroadcasts()
	go s.broadcastStatus()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("webserver: listen error: %v\n", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server and closes every websocket
// client.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	close(s.done)
	s.clients.Range(func(key, _ any) bool {
		if conn, ok := key.(*websocket.Conn); ok {
			conn.Close()
		}
		return true
	})
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := s.buildStatus(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !resp.Scheduler.IsRunning {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := s.scheduler.Status()
	ready := map[string]any{
		"ready":     status.IsRunning,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if !status.IsRunning {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(ready)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := s.buildStatus(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	response := map[string]any{
		"service": "solar-allocator",
		"endpoints": map[string]string{
			"health": "/api/health",
			"ready":  "/api/ready",
			"status": "/api/status",
			"ws":     "/api/ws",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("webserver: upgrade error: %v\n", err)
		return
	}
	s.clients.Store(conn, true)

	if data, err := json.Marshal(s.buildStatus(r.Context())); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	defer func() {
		s.clients.Delete(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("webserver: websocket error: %v\n", err)
			}
			break
		}
	}
}

func (s *Server) handleBroadcasts() {
	for {
		select {
		case message := <-s.broadcast:
			s.clients.Range(func(key, _ any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					s.clients.Delete(conn)
				}
				return true
			})
		case <-s.done:
			return
		}
	}
}

func (s *Server) broadcastStatus() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			hasClients := false
			s.clients.Range(func(_, _ any) bool { hasClients = true; return false })
			if !hasClients {
				continue
			}
			data, err := json.Marshal(s.buildStatus(context.Background()))
			if err != nil {
				fmt.Printf("webserver: marshal status: %v\n", err)
				continue
			}
			s.broadcast <- data
		case <-s.done:
			return
		}
	}
}

// buildStatus assembles one StatusResponse from the scheduler, the PV
// predictor, and suncalc — the same sources the teacher's buildStatusData
// drew from, minus the inverter/ESS telemetry this system has no source
// for.
func (s *Server) buildStatus(ctx context.Context) StatusResponse {
	status := s.scheduler.Status()

	overall := "healthy"
	if !status.IsRunning {
		overall = "unhealthy"
	}

	resp := StatusResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Scheduler: SchedulerHealth{
			IsRunning: status.IsRunning,
			Paused:    status.Paused,
			TaskCount: status.TaskCount,
			Tasks:     status.Tasks,
		},
		System: SystemHealth{Uptime: formatUptime(time.Since(s.startTime))},
	}

	if s.predictor != nil {
		if max, err := s.predictor.MaxAvailablePower(ctx); err == nil {
			resp.PV.MaxAvailablePower = max
		}
		if current, err := s.predictor.PowerAt(time.Now(), nil); err == nil {
			resp.PV.CurrentPower = current
		}
	}

	now := time.Now()
	sunTimes := suncalc.GetTimes(now, s.lat, s.lon)
	sunPos := suncalc.GetPosition(now, s.lat, s.lon)
	resp.Sun = SunInfo{
		SolarAngle: sunPos.Altitude * 180 / math.Pi,
		Sunrise:    sunTimes["sunrise"].Value.Format(time.RFC3339),
		Sunset:     sunTimes["sunset"].Value.Format(time.RFC3339),
	}

	if s.priceDoc != nil {
		if doc := s.priceDoc(); doc != nil {
			ctx := GridPriceContext{HasDocument: true, DocumentID: doc.MRID}
			if created, err := time.Parse(time.RFC3339, doc.CreatedDateTime); err == nil {
				ctx.CreatedAt = created
			}
			if price, found := doc.LookupAveragePriceInHourByTime(now); found {
				ctx.CurrentAvgPrice = price
			}
			resp.GridPrice = &ctx
		} else {
			resp.GridPrice = &GridPriceContext{HasDocument: false}
		}
	}

	return resp
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
