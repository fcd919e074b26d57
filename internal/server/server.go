package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/catalogadmin/internal/config"
	journaldomain "github.com/smallbiznis/catalogadmin/internal/journal/domain"
	"github.com/smallbiznis/catalogadmin/internal/observability"
	obsmiddleware "github.com/smallbiznis/catalogadmin/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	obstracing "github.com/smallbiznis/catalogadmin/internal/observability/tracing"
	productdomain "github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/internal/ratelimit"
	"github.com/smallbiznis/catalogadmin/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(httpMetrics.Handler()))

	return r, nil
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) (*gin.Engine, error) {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	options    *config.OptionsHolder
	views      *session.Registry
	cookies    *session.Manager
	productSvc productdomain.Service
	journalSvc journaldomain.Service
	limiter    *ratelimit.SubmitLimiter
	log        *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Options    *config.OptionsHolder
	Views      *session.Registry
	Cookies    *session.Manager
	ProductSvc productdomain.Service
	JournalSvc journaldomain.Service
	Limiter    *ratelimit.SubmitLimiter `optional:"true"`
	Log        *zap.Logger
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		options:    p.Options,
		views:      p.Views,
		cookies:    p.Cookies,
		productSvc: p.ProductSvc,
		journalSvc: p.JournalSvc,
		limiter:    p.Limiter,
		log:        log.Named("http.server"),
	}

	svc.registerUIRoutes()
	svc.registerViewAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerUIRoutes() {
	r := s.engine.Group("/", s.ViewSession())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})
	r.GET("/dashboard", s.GetDashboard)

	// -------- Product list --------
	r.GET("/products", s.ListProducts)

	// -------- Product form --------
	productForm := r.Group("/product-form")
	{
		productForm.GET("", s.GetProductForm)
		productForm.POST("", s.SubmitProductForm)
		productForm.POST("/images", s.AddProductImages)
		productForm.POST("/images/:index/delete", s.RemoveProductImage)
		productForm.POST("/reset", s.ResetProductForm)
	}
}

func (s *Server) registerViewAPIRoutes() {
	api := s.engine.Group("/api/views", s.ViewSession())

	api.GET("/products", s.GetProductsView)
	api.GET("/form", s.GetFormView)
}
