package server

import (
	"net/http"
	"slices"
	"time"

	"crystal-ball/internal/config"
	"crystal-ball/internal/game"
	"crystal-ball/internal/room"
	"crystal-ball/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	service  *game.Service
	hub      *room.Hub
	journal  *storage.Journal
	cfg      config.Config
	limiter  *rateLimiter
	upgrader websocket.Upgrader
}

// New wires the service to Postgres when conn is set and to in-memory
// stores otherwise. Without a database the events journal is unavailable.
func New(conn *gorm.DB, cfg config.Config) *Server {
	opts := cfg.GameOptions()
	var (
		store   game.Store  = game.NewMemoryStore()
		binder  game.Binder = game.NewMemoryBinder()
		journal *storage.Journal
	)
	if conn != nil {
		store = storage.NewGameStore(conn)
		binder = storage.NewSessionBinder(conn)
		journal = storage.NewJournal(conn)
		opts.Journal = journal
	}
	return NewWithService(game.NewService(store, binder, opts), journal, cfg)
}

func NewWithService(service *game.Service, journal *storage.Journal, cfg config.Config) *Server {
	s := &Server{
		service: service,
		hub:     room.NewHub(),
		journal: journal,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowedOrigins,
			AllowCredentials: true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version"},
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/", s.handleHome)
	r.GET("/game/:code", s.handleGameView)

	api := r.Group("/api/games")
	api.POST("", s.rateLimit("create"), s.handleCreateGame)
	api.GET("/:code", s.handleGetGame)
	api.POST("/:code/join", s.rateLimit("join"), s.handleJoinGame)
	api.POST("/:code/predictions", s.rateLimit("submit"), s.handleSubmitPrediction)
	api.GET("/:code/reveal", s.handleReveal)
	api.GET("/:code/events", s.handleEvents)
	api.GET("/:code/qr", s.handleQR)

	r.GET("/ws/games/:code", s.handleWebsocket)
	return r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("remote", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
