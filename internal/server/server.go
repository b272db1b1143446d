// Package server exposes the generation workflow over HTTP: schema
// inference, refinement, application synthesis, and the generated-project
// catalog (files, download, deploy instructions).
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appforge/internal/artifact"
	"appforge/internal/inference"
	"appforge/internal/registry"
	"appforge/internal/synth"
)

// Server wires the engines and stores behind the HTTP surface.
type Server struct {
	engine       *inference.Engine
	synth        *synth.Synthesizer
	store        *artifact.Store
	reg          *registry.Registry
	log          *zap.Logger
	defaultModel string
	origins      []string
}

// Options configures a Server.
type Options struct {
	DefaultModel   string
	AllowedOrigins []string
}

// New creates a Server. A nil logger is replaced with a no-op one.
func New(engine *inference.Engine, s *synth.Synthesizer, store *artifact.Store, reg *registry.Registry, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		engine:       engine,
		synth:        s,
		store:        store,
		reg:          reg,
		log:          log,
		defaultModel: opts.DefaultModel,
		origins:      opts.AllowedOrigins,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(s.origins))

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/generate-schema", s.handleGenerateSchema)
		api.POST("/refine-schema", s.handleRefineSchema)
		api.POST("/generate-app", s.handleGenerateApp)

		api.GET("/projects", s.handleListProjects)
		api.GET("/projects/:id/files", s.handleListFiles)
		api.GET("/projects/:id/files/*path", s.handleGetFile)
		api.GET("/projects/:id/download", s.handleDownload)
		api.POST("/projects/:id/deploy", s.handleDeploy)
	}
	return r
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	s.log.Info("starting http server", zap.String("addr", addr))
	return s.Router().Run(addr)
}
