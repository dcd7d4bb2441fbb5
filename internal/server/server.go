package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pix-checkout/internal/logger"
	"pix-checkout/internal/service"
)

const maxBodyBytes = 10 << 20

// HealthChecker reports the state of a backing dependency such as the database.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Options struct {
	Env            string
	ServiceName    string
	AllowedOrigins []string
	// Database is optional; when set /health includes its report.
	Database HealthChecker
}

func (o Options) development() bool { return o.Env == "development" }
func (o Options) production() bool  { return o.Env == "production" }

// Server is the checkout HTTP API.
type Server struct {
	svc    service.CheckoutService
	opts   Options
	log    zerolog.Logger
	router *gin.Engine
}

func NewServer(svc service.CheckoutService, opts Options, log zerolog.Logger) *Server {
	if opts.production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	s := &Server{
		svc:    svc,
		opts:   opts,
		log:    log,
		router: router,
	}

	router.Use(
		logger.GinMiddleware(log),
		gin.CustomRecovery(s.recover),
		secure.New(secure.Config{
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			BrowserXssFilter:      true,
			IENoOpen:              true,
			ReferrerPolicy:        "no-referrer",
			ContentSecurityPolicy: "default-src 'self'",
			STSSeconds:            15552000,
			STSIncludeSubdomains:  true,
			IsDevelopment:         opts.development(),
		}),
		gzip.Gzip(gzip.DefaultCompression),
		cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		limitBody(maxBodyBytes),
	)

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/checkout", s.handleCheckout)
		api.GET("/payment/check/:pixId", s.handleCheckPayment)
		api.GET("/billing/:id", s.handleGetBilling)
		api.GET("/test", s.handleTest)
		if !opts.production() {
			api.POST("/payment/simulate/:pixId", s.handleSimulatePayment)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint não encontrado"})
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an http.Server suitable for graceful shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
