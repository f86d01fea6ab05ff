package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"mcbench/internal/benchmark"
	"mcbench/internal/events"
	"mcbench/internal/logger"

	"golang.org/x/net/websocket"
)

// Server は実行中のベンチマークを観測するモニタサーバー
type Server struct {
	addr   string
	engine *benchmark.Engine
	bus    *events.Bus

	mu        sync.RWMutex
	lastEvent *events.Event
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しいモニタサーバーを作成する
func NewServer(addr string, engine *benchmark.Engine, bus *events.Bus) *Server {
	return &Server{
		addr:      addr,
		engine:    engine,
		bus:       bus,
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Handler はAPIルートを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))
	return mux
}

// Start はサーバーを開始し、ctx が終わるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// バックグラウンドでイベント配信
	go s.forwardEvents(ctx)

	logger.Info("", "Monitor server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running   bool          `json:"running"`
	RunID     string        `json:"run_id,omitempty"`
	Clients   int           `json:"clients"`
	Files     int           `json:"files"`
	Overlap   int           `json:"overlap"`
	Style     string        `json:"style"`
	Mode      string        `json:"mode"`
	LastEvent *events.Event `json:"last_event,omitempty"`
}

func (s *Server) status() StatusResponse {
	cfg := s.engine.Config()
	resp := StatusResponse{
		Running: s.engine.IsRunning(),
		Clients: cfg.NClients,
		Files:   cfg.NFiles,
		Overlap: cfg.Overlap,
		Style:   string(cfg.Style),
		Mode:    string(cfg.Mode),
	}
	if plan := s.engine.LastPlan(); plan != nil {
		resp.RunID = plan.RunID
	}

	s.mu.RLock()
	resp.LastEvent = s.lastEvent
	s.mu.RUnlock()

	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.status())
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plan := s.engine.LastPlan()
	if plan == nil {
		http.Error(w, "No plan yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, plan)
}

// SummaryResponse は集計レスポンス
type SummaryResponse struct {
	RunID           string    `json:"run_id"`
	DurationMs      float64   `json:"duration_ms"`
	TotalThroughput float64   `json:"total_throughput"`
	MaxTime         float64   `json:"max_time"`
	MinTime         float64   `json:"min_time"`
	Throughputs     []float64 `json:"throughputs"`
	Times           []float64 `json:"times"`
	Line            string    `json:"line"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := s.engine.LastResult()
	if result == nil {
		http.Error(w, "No result yet", http.StatusNotFound)
		return
	}

	sum := result.Summary
	s.writeJSON(w, SummaryResponse{
		RunID:           result.RunID,
		DurationMs:      float64(result.Duration.Microseconds()) / 1000,
		TotalThroughput: sum.TotalThroughput,
		MaxTime:         sum.MaxTime,
		MinTime:         sum.MinTime,
		Throughputs:     sum.Throughputs,
		Times:           sum.Times,
		Line:            sum.Format(),
	})
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(data any) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// forwardEvents はイベントバスの内容をWebSocketクライアントに送る
func (s *Server) forwardEvents(ctx context.Context) {
	if s.bus == nil {
		return
	}

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			s.mu.Lock()
			s.lastEvent = &event
			s.mu.Unlock()

			s.broadcast(event)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("", "Failed to encode JSON: %v", err)
	}
}
