package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	maxClientIDLen    = 64
	maxLoginBody      = 1024
	eventCountDays    = 7
	defaultEventLimit = 100
	maxEventLimit     = 1000
	qrSize            = 256
	closeReasonDupe   = "client id already connected"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Server wires HTTP routes to the hub, the game and the admin API
type Server struct {
	cfg       ServerConfig
	game      *Game
	hub       *Hub
	auth      *Auth
	analytics *Analytics // nil without a database
	log       *zap.Logger
}

// NewServer creates the HTTP front end
func NewServer(cfg ServerConfig, game *Game, hub *Hub, auth *Auth, analytics *Analytics, log *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		game:      game,
		hub:       hub,
		auth:      auth,
		analytics: analytics,
		log:       log.Named("http"),
	}
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get("/ws/{clientID}", s.handleWS)
	r.Get("/qr.png", s.handleQR)

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		api.Get("/stats", s.handleStats)
		api.Get("/world", s.handleWorld)
		api.Post("/admin/login", s.handleLogin)
		api.Group(func(admin chi.Router) {
			admin.Use(s.auth.RequireAdmin)
			admin.Post("/admin/regenerate", s.handleRegenerate)
			admin.Get("/admin/events", s.handleEvents)
		})
	})

	if s.cfg.StaticDir != "" {
		// Serve static files with no-cache so browsers always revalidate
		fs := http.FileServer(http.Dir(s.cfg.StaticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			if r.URL.Path == "/" {
				http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		})
	}
	return r
}

// requestLogger is chi's middleware.Logger rendered through zap
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "clientID")
	if id == "" {
		id = GenerateID()
	}
	if len(id) > maxClientIDLen {
		http.Error(w, "client id too long", http.StatusBadRequest)
		return
	}

	ip := extractIP(r)
	if !s.hub.CanAccept(ip) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if s.game.sessions.Has(id) {
		http.Error(w, closeReasonDupe, http.StatusConflict)
		return
	}

	codecName := r.URL.Query().Get("codec")
	if codecName == "" {
		codecName = s.cfg.DefaultCodec
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("upgrade error", zap.Error(err))
		return
	}
	s.hub.TrackConnect(ip)

	client := NewClient(s.hub, conn, id, ParseCodec(codecName), ip)
	if err := s.hub.Register(client); err != nil {
		s.log.Warn("join rejected", zap.String("client_id", id), zap.Error(err))
		reason := "join failed"
		if errors.Is(err, ErrDuplicateClient) {
			reason = closeReasonDupe
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
			time.Now().Add(writeWait))
		conn.Close()
		s.hub.TrackDisconnect(ip)
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

type statsResponse struct {
	Stats
	Connections   int            `json:"connections"`
	Events        map[string]int `json:"events,omitempty"`
	DroppedEvents int            `json:"dropped_events"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Stats:       s.game.Stats(),
		Connections: s.hub.TotalConns(),
	}
	if s.analytics != nil {
		days := eventCountDays
		if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 {
			days = d
		}
		counts, err := s.analytics.EventCounts(days)
		if err != nil {
			s.log.Warn("event counts", zap.Error(err))
		}
		resp.Events = counts
		resp.DroppedEvents = s.analytics.Dropped()
	}
	writeJSON(w, http.StatusOK, resp)
}

type worldResponse struct {
	Width  float64    `json:"world_width"`
	Height float64    `json:"world_height"`
	Walls  []Obstacle `json:"walls"`
	Tick   uint64     `json:"tick"`
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	snap := s.game.Snapshot()
	writeJSON(w, http.StatusOK, worldResponse{
		Width:  snap.Width,
		Height: snap.Height,
		Walls:  snap.Walls,
		Tick:   snap.Tick,
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	token, err := s.auth.Login(req.Password, extractIP(r))
	switch {
	case errors.Is(err, ErrAdminDisabled):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		s.log.Error("login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.game.Regenerate()
	writeJSON(w, http.StatusOK, s.game.Stats())
}

type eventResponse struct {
	Type      string    `json:"type"`
	ClientID  string    `json:"client_id,omitempty"`
	Data      string    `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusNotFound, "analytics disabled")
		return
	}
	limit := defaultEventLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= maxEventLimit {
		limit = n
	}
	rows, err := s.analytics.Recent(limit)
	if err != nil {
		s.log.Error("recent events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]eventResponse, len(rows))
	for i, e := range rows {
		out[i] = eventResponse{Type: e.Type, ClientID: e.ClientID, Data: e.Data, CreatedAt: e.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	target := s.cfg.PublicURL
	if target == "" {
		target = "http://" + r.Host + "/"
	}
	png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
	if err != nil {
		s.log.Error("qr encode", zap.Error(err))
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
