package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/matheus3301/flasher/internal/app"
	"github.com/matheus3301/flasher/internal/client"
	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/flasher"
	"github.com/matheus3301/flasher/internal/session"
	"github.com/matheus3301/flasher/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server owns the two listeners of flashd: the HTTP site and the gRPC
// control socket reporting its health.
type Server struct {
	httpServer *http.Server
	httpLn     net.Listener
	grpcServer *grpc.Server
	grpcLn     net.Listener
	health     *health.Server
	socketPath string
	machine    *status.Machine
	logger     *zap.Logger
}

// NewServer binds both listeners. The HTTP handler chain is access log,
// then flasher, then the app routes.
func NewServer(
	p Params,
	cfg *config.Config,
	logger *zap.Logger,
	f *flasher.Flasher,
	a *app.App,
	machine *status.Machine,
) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = session.SocketPath(cfg.DataDir)
	}

	httpLn, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen http: %w", err)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}
	grpcLn, err := net.Listen("unix", socketPath)
	if err != nil {
		_ = httpLn.Close()
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	// Set socket permissions to 0600.
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = httpLn.Close()
		_ = grpcLn.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{
		httpServer: &http.Server{
			Handler:           accessLog(logger.Named("http"), f.Wrap(a.Handler())),
			ReadHeaderTimeout: 10 * time.Second,
		},
		httpLn:     httpLn,
		grpcServer: srv,
		grpcLn:     grpcLn,
		health:     hs,
		socketPath: socketPath,
		machine:    machine,
		logger:     logger,
	}
	s.reportHealth(machine.Current())
	machine.Watch(s.reportHealth)
	return s, nil
}

// reportHealth mirrors the lifecycle state on the health service.
func (s *Server) reportHealth(st status.State) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if st == status.Serving {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", serving)
	s.health.SetServingStatus(client.ServiceName, serving)
}

// HTTPAddr returns the address the site listens on.
func (s *Server) HTTPAddr() string {
	return s.httpLn.Addr().String()
}

// Start serves both listeners in the background. An HTTP listener failure
// moves the daemon to ERROR.
func (s *Server) Start() {
	go func() {
		s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
		if err := s.grpcServer.Serve(s.grpcLn); err != nil {
			s.logger.Error("gRPC server error", zap.Error(err))
		}
	}()
	go func() {
		s.logger.Info("HTTP server starting", zap.String("addr", s.HTTPAddr()))
		if err := s.httpServer.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
			_ = s.machine.Fail(err)
		}
	}()
}

// Stop drains HTTP requests, so every in-flight flash gets persisted, then
// shuts the control socket down and removes it.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("HTTP server stopping")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	s.logger.Info("gRPC server stopping")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	_ = os.Remove(s.socketPath)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog logs one line per request once the whole chain, flash
// persistence included, has returned.
func accessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
