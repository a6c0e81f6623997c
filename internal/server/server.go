// Package server hosts the preview HTTP server and the watch loop that
// rebuilds a generated site while its sources change.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	errAlreadyServing = errors.New("server: already listening")
	errOutputRequired = errors.New("server: output directory or filesystem is required")
)

const (
	defaultAddr            = ":8080"
	defaultNotFoundPage    = "404.html"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Config captures the preview server settings.
type Config struct {
	// Addr is the listen address, defaulting to :8080. Use host:0 to let
	// the kernel pick a free port; BoundAddr reports the result.
	Addr string
	// OutputDir locates the built site when Dependencies.Output is nil.
	OutputDir string
	// NotFoundPage names the document served on misses, relative to the
	// output root. Defaults to 404.html.
	NotFoundPage string
	// ShutdownTimeout bounds the graceful drain once the context ends.
	ShutdownTimeout time.Duration
}

// Dependencies lists the collaborators for the preview server.
type Dependencies struct {
	Output fs.FS
	Logger interfaces.Logger
}

// Server serves a generated site over HTTP until its context ends.
type Server struct {
	cfg     Config
	handler http.Handler
	logger  interfaces.Logger

	mu        sync.Mutex
	bound     string
	listening bool
}

// New wires a preview server over the built output tree.
func New(cfg Config, deps Dependencies) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	output, err := outputTree(cfg, deps)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = defaultAddr
	}
	if strings.TrimSpace(cfg.NotFoundPage) == "" {
		cfg.NotFoundPage = defaultNotFoundPage
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	return &Server{
		cfg:     cfg,
		handler: newFileHandler(output, cfg.NotFoundPage, logger),
		logger:  logger,
	}, nil
}

func outputTree(cfg Config, deps Dependencies) (fs.FS, error) {
	if deps.Output != nil {
		return deps.Output, nil
	}
	dir := strings.TrimSpace(cfg.OutputDir)
	if dir == "" {
		return nil, errOutputRequired
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("server: open output dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("server: output path %q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// Handler exposes the file handler so hosts can mount it elsewhere.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// BoundAddr reports the address the server is listening on, or empty before
// ListenAndServe binds.
func (s *Server) BoundAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// ListenAndServe runs the HTTP server until the context ends, then drains
// in-flight requests within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("server: nil server")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return errAlreadyServing
	}
	s.listening = true
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Lock()
		s.listening = false
		s.mu.Unlock()
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.bound = listener.Addr().String()
	s.mu.Unlock()

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logging.WithFields(s.logger, map[string]any{
		"addr": listener.Addr().String(),
	}).Info("server.started")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		s.logger.Info("server.stopped")
		if err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	}
}
