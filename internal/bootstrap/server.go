package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bdticketpro/backoffice/api"
	"github.com/bdticketpro/backoffice/config"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/bdticketpro/backoffice/internal/service/agents"
	"github.com/bdticketpro/backoffice/internal/service/booking"
	"github.com/bdticketpro/backoffice/internal/service/tickets"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Bookings      booking.BookingUseCase
	Tickets       tickets.TicketUseCase
	Agents        agents.AgentUseCase
	Notifications repository.NotificationRepository
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, deps),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-User-Role")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	api.NewBookingHandler(deps.Bookings).Register(v1.Group("/bookings"))
	api.NewTicketHandler(deps.Tickets).Register(v1.Group("/tickets"))
	api.NewAgentHandler(deps.Agents).Register(v1.Group("/agents"))
	api.NewNotificationHandler(deps.Notifications).Register(v1.Group("/notifications"))

	return router
}
