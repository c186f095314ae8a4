package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/admeter/docs"
	"github.com/fatflowers/admeter/internal/app/api/handlers"
	mw "github.com/fatflowers/admeter/internal/app/api/middleware"
	adsvc "github.com/fatflowers/admeter/internal/app/service/ad"
	"github.com/fatflowers/admeter/internal/app/service/metering"
	nh "github.com/fatflowers/admeter/internal/app/service/notification_handler"
	"github.com/fatflowers/admeter/internal/app/service/quota"
	"github.com/fatflowers/admeter/internal/app/service/statistics"
	subsvc "github.com/fatflowers/admeter/internal/app/service/subscription"
	"github.com/fatflowers/admeter/internal/platform/ratelimit"
	cfgpkg "github.com/fatflowers/admeter/pkg/config"
	metrics "github.com/fatflowers/admeter/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log          *zap.SugaredLogger
	Cfg          *cfgpkg.Config
	NotifHandler *nh.NotificationHandler
	Subs         *subsvc.Service
	Quota        *quota.Service
	Ads          *adsvc.Service
	Metering     *metering.Service
	Stats        *statistics.Service
	Limiter      *ratelimit.TrackLimiter `optional:"true"`
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	log := d.Log
	// Prometheus metrics
	if d.Cfg != nil && d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem:               "http",
			ReqCntURLLabelMappingFn: metrics.RouteTemplate,
			Logger:                  log,
		})
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}
	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))

	// Tracking is called by client pixels; throttled per viewer instead of authenticated.
	handlers.RegisterTrackingRoutes(apiV1.Group("/track", mw.TrackRateLimitMiddleware(d.Limiter, log)), d.Metering, log)

	// Providers authenticate with their own signatures.
	handlers.RegisterWebhookRoutes(apiV1.Group("/webhook"), d.NotifHandler)

	auth := mw.ServiceAuthMiddleware(d.Cfg, log)
	handlers.RegisterAdRoutes(apiV1.Group("/ads", auth), d.Quota, d.Ads)
	handlers.RegisterAdminRoutes(apiV1.Group("/admin", auth), d.Subs, d.Stats, d.Quota)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
