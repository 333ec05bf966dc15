// Package status serves a small operator endpoint: Prometheus metrics, live
// handle counts and the most recent warnings.
package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"portbridge/internal/metrics"
	"portbridge/logger"
)

const defaultPort = "9090"

// LiveFunc reports live handles per kind.
type LiveFunc func() map[string]int

type Server struct {
	addr       string
	live       LiveFunc
	log        *logger.Log
	logStore   *logStore
	httpServer *http.Server
}

// NewServer builds a status server listening on addr. live may be nil.
func NewServer(addr string, live LiveFunc, log *logger.Log) *Server {
	store := newLogStore(200)
	log.AddHook(store)
	return &Server{
		addr:     normalizeAddress(addr),
		live:     live,
		log:      log,
		logStore: store,
	}
}

// Address reports the address the server listens on.
func (s *Server) Address() string {
	return s.addr
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	defer s.logStore.close()

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithComponent("status").WithField("addr", s.addr).Info("status server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/api/status", func(c *gin.Context) {
		var live map[string]int
		if s.live != nil {
			live = s.live()
		}
		c.JSON(http.StatusOK, gin.H{
			"handles":    live,
			"counters":   logger.Snapshot(),
			"metrics":    metrics.Snapshot(),
			"goroutines": runtime.NumGoroutine(),
		})
	})

	router.GET("/api/logs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"logs": s.logStore.snapshot()})
	})

	return router
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "127.0.0.1:" + defaultPort
	}
	if strings.HasPrefix(addr, ":") && len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
		return "0.0.0.0" + addr
	}
	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = defaultPort
		}
		return net.JoinHostPort(host, port)
	}
	if ip := net.ParseIP(addr); ip != nil || !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}
