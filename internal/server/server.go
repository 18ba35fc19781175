package server

import (
	"net"
	"net/http"
	"time"

	"github.com/codemonkey/colab/internal/config"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the question API over any Storage. It backs the demo mode of
// the client and the REST client's contract tests.
type Server struct {
	cfg     config.ServerConfig
	storage storage.Storage
	logger  *zap.Logger
	handler http.Handler
}

func New(cfg config.ServerConfig, store storage.Storage, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, storage: store, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) Run() error {
	s.logger.Info("starting api server", zap.String("port", s.cfg.Port))
	return s.httpServer().ListenAndServe()
}

// Serve accepts connections on l until it is closed.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting api server", zap.String("addr", l.Addr().String()))
	return s.httpServer().Serve(l)
}

func (s *Server) routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.sessionMiddleware())

	r.GET("/questions", s.listQuestions)
	r.GET("/questions/:q_id", s.getQuestion)
	r.GET("/users", s.listUsers)
	r.GET("/languages", s.listLanguages)
	r.GET("/groups/:id/stats", s.groupStats)

	protected := r.Group("/")
	protected.Use(requireSession())
	{
		protected.POST("/questions", s.createQuestion)
		protected.POST("/questions/mark", s.markQuestion)
		protected.DELETE("/questions/:q_id", s.deleteQuestion)
		protected.POST("/solutions", s.createSolution)
	}

	return r
}
