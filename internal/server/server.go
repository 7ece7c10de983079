// Package server exposes one labeling session over an HTTP API: upload
// or open a STEP file, query face metadata and the render mesh, store a
// feature assignment, and download the renamed export. The core session
// is single-threaded by contract, so the server serializes all session
// access behind one mutex: one request at a time touches the model.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/steplab/pkg/kernel"
	"github.com/chazu/steplab/pkg/session"
)

// Config holds configuration for the labeling server.
type Config struct {
	Kernel            kernel.Kernel
	Port              int
	UploadDir         string // base for the per-process upload dir; "" means os.TempDir
	MaxUploadMB       int
	LinearDeflection  float64
	AngularDeflection float64
	Watch             bool
	Logger            *slog.Logger
}

// Server is the labeling HTTP server.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	uploadDir string

	mu      sync.Mutex // serializes all session access
	session *session.Session
	watcher *fsnotify.Watcher
}

// New creates a server around a fresh session. Uploads land in a
// uuid-suffixed directory so concurrent server instances never collide.
func New(cfg Config) *Server {
	if cfg.LinearDeflection == 0 {
		cfg.LinearDeflection = session.DefaultLinearDeflection
	}
	if cfg.AngularDeflection == 0 {
		cfg.AngularDeflection = session.DefaultAngularDeflection
	}
	base := cfg.UploadDir
	if base == "" {
		base = os.TempDir()
	}
	return &Server{
		cfg:       cfg,
		logger:    cfg.Logger,
		uploadDir: filepath.Join(base, "steplab-"+uuid.NewString()),
		session:   session.New(cfg.Kernel),
	}
}

// Preload loads a STEP file into the session before serving, for the
// CLI `steplab serve part.step` handoff.
func (s *Server) Preload(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := s.load(abs)
	if err != nil {
		return err
	}
	s.logger.Info("preloaded file", "path", abs,
		"faces", info.NumFaces, "entities", info.NumStepEntities, "unit", info.LengthUnit)
	return nil
}

// Serve starts the HTTP server and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting labeling server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down labeling server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// routes builds the chi router. Split out so handler tests can exercise
// the full middleware chain without a listener.
func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/load_file", s.handleLoadFile)
		r.Get("/faces", s.handleFaces)
		r.Get("/face/{id}", s.handleFace)
		r.Get("/mesh", s.handleMesh)
		r.Get("/features", s.handleGetFeatures)
		r.Post("/features", s.handleSetFeatures)
		r.Post("/export", s.handleExport)
	})
	return r
}

// load runs a session load under the mutex and registers the file with
// the watcher when watch mode is on.
func (s *Server) load(path string) (session.LoadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.session.Load(path)
	if err != nil {
		return session.LoadInfo{}, err
	}
	if info.CountMismatch {
		s.logger.Warn("face/entity count mismatch: existing names may be misaligned",
			"faces", info.NumFaces, "entities", info.NumStepEntities)
	}
	if s.watcher != nil {
		if err := s.watcher.Add(filepath.Dir(path)); err != nil {
			s.logger.Warn("watch registration failed", "path", path, "error", err)
		}
	}
	return info, nil
}

// watchFiles reloads the session when the loaded file changes on disk.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	s.mu.Lock()
	s.watcher = watcher
	if s.session.Loaded() {
		if err := watcher.Add(filepath.Dir(s.session.Path())); err != nil {
			s.logger.Warn("watch registration failed", "error", err)
		}
	}
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.mu.Lock()
			loaded := s.session.Loaded() && s.session.Path() == event.Name
			s.mu.Unlock()
			if !loaded {
				continue
			}
			s.logger.Info("file changed, reloading", "path", event.Name)
			if _, err := s.load(event.Name); err != nil {
				s.logger.Error("reload failed", "path", event.Name, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
