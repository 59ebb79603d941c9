package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Chative-support-router/server/internal/metrics"
	logx "github.com/Chative-support-router/server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// RegisterRoutes wires the HTTP surface:
//
//	POST /chat    - run one turn
//	GET  /health  - dependency checks
//	GET  /metrics - Prometheus exposition, when a recorder is configured
func RegisterRoutes(r gin.IRouter, h *Handlers, recorder *metrics.Recorder) {
	r.POST("/chat", h.HandleChat)
	r.GET("/health", h.HandleHealth)
	if reg := recorder.Registry(); reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
}

// NewEngine builds a gin engine with recovery and request logging.
func NewEngine(h *Handlers, recorder *metrics.Recorder) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	RegisterRoutes(engine, h, recorder)
	return engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	}
}

// Run serves handler on addr until ctx is canceled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logx.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
