package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"pwshare/pkg/auth"
	"pwshare/pkg/config"
	"pwshare/pkg/health"
	"pwshare/pkg/sessions"
	"pwshare/pkg/shares"
)

// Server is the HTTP boundary over the auth engine: it owns transport
// concerns (cookies, client IP extraction, rate limiting, file serving) and
// delegates every authorization decision to the engine.
type Server struct {
	cfg     *config.ServerConfig
	engine  *auth.Engine
	shares  *shares.Store
	store   sessions.Store
	codec   *auth.ScopeCodec
	limiter *auth.RateLimiter
	monitor *health.Monitor
}

// New creates a server over the given stores and engine
func New(cfg *config.ServerConfig, engine *auth.Engine, shareStore *shares.Store, store sessions.Store) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		shares:  shareStore,
		store:   store,
		codec:   auth.NewScopeCodec(cfg.Sessions.ScopeKey),
		limiter: auth.NewRateLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window()),
		monitor: health.NewMonitor(),
	}
	s.monitor.SetComponentStatus("sessions", health.StatusHealthy, "session store open")
	return s
}

// Router builds the gin router
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLog())

	router.SetHTMLTemplate(template.Must(template.New("").Parse(pageTemplates)))

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)

	router.GET("/l", s.handleLoginPage)
	router.GET("/l/:folder", s.handleLoginPage)
	router.POST("/l", s.rateLimit(), s.handleLogin)
	router.POST("/l/:folder", s.rateLimit(), s.handleLogin)

	router.GET("/logout", s.handleLogout)

	router.GET("/s/*path", s.handleServe)
	router.POST("/s/*path", s.handleServe)

	return router
}

// Run starts the HTTP server
func (s *Server) Run() error {
	return s.Router().Run(s.cfg.Address)
}

func (s *Server) handleHealth(c *gin.Context) {
	active := 0
	if rows, err := s.store.ListValid(nowUnix()); err == nil {
		active = len(rows)
		s.monitor.SetComponentStatus("sessions", health.StatusHealthy, "session store open")
	} else {
		s.monitor.SetComponentStatus("sessions", health.StatusUnhealthy, err.Error())
	}
	c.JSON(http.StatusOK, s.monitor.GetHealth(active))
}
