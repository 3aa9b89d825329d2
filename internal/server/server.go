// Package server is the instant web server: it serves the browser assets
// with hardening headers, renders the pages, and exposes the HTTP surface
// that starts transfers and hands out their files and archives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/stats"
	"github.com/instant-io/instant/internal/transfer"
	"github.com/instant-io/instant/internal/ui"
	"github.com/julienschmidt/httprouter"
	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Host       string
	Port       int
	Production bool

	// StaticFS holds the browser assets. Nil serves nothing but the pages.
	StaticFS afero.Fs

	// Templates enables the server-rendered pages. DescriptionPath, read from
	// DescriptionFS, is an optional markdown file shown on the index page.
	Templates       bool
	DescriptionFS   afero.Fs
	DescriptionPath string

	BlobTTL       time.Duration
	MaxUploadSize int64
	ArchiveFormat string
}

type Server struct {
	cfg       Config
	manager   *transfer.Manager
	intake    *intake.Intake
	log       *ui.HTMLLog
	archivers *engine.Registry
	counter   stats.Counter
	blobs     *BlobStore
	pages     *pages
	static    http.Handler
	logger    *zap.Logger
}

type Option func(*Server)

// WithCounter counts delivered archives. The default counts in memory.
func WithCounter(counter stats.Counter) Option {
	return func(s *Server) {
		s.counter = counter
	}
}

// WithSink routes intake errors to sink instead of the page log alone.
func WithSink(sink ui.Sink) Option {
	return func(s *Server) {
		s.intake = intake.New(s.manager, sink, s.logger.Named("intake"))
	}
}

// New wires a server around manager. log is the page log manager reports to.
func New(cfg Config, manager *transfer.Manager, log *ui.HTMLLog, archivers *engine.Registry, logger *zap.Logger, opts ...Option) (*Server, error) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.BlobTTL == 0 {
		cfg.BlobTTL = 30 * time.Second
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 2_000_000_000
	}
	if cfg.ArchiveFormat == "" {
		cfg.ArchiveFormat = "zip"
	}
	if cfg.StaticFS == nil {
		cfg.StaticFS = afero.NewMemMapFs()
	}
	if cfg.DescriptionFS == nil {
		cfg.DescriptionFS = afero.NewOsFs()
	}

	if _, err := archivers.Factory(cfg.ArchiveFormat); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		manager:   manager,
		log:       log,
		archivers: archivers,
		counter:   stats.NewMemory(),
		blobs:     NewBlobStore(cfg.BlobTTL, logger.Named("blobs")),
		logger:    logger,
	}
	s.intake = intake.New(manager, log, logger.Named("intake"))

	for _, opt := range opts {
		opt(s)
	}

	if cfg.Templates {
		p, err := loadPages(cfg.DescriptionFS, cfg.DescriptionPath)
		if err != nil {
			return nil, err
		}
		s.pages = p
	}

	s.static = newStaticHandler(cfg.StaticFS, s.notFound)

	return s, nil
}

// Handler returns the complete handler: routes, compression and headers.
func (s *Server) Handler() http.Handler {
	var routes = []struct {
		method  string
		route   string
		handler httprouter.Handle
	}{
		{"GET", "/", s.IndexHandler},
		{"POST", "/transfers", s.SubmitHandler},
		{"POST", "/seed", s.SeedHandler},

		{"GET", "/api/log", s.LogHandler},
		{"GET", "/api/transfers", s.ListTransfersHandler},
		{"GET", "/api/transfers/:hash", s.TransferHandler},
		{"GET", "/api/transfers/:hash/descriptor", s.DescriptorHandler},
		{"GET", "/api/transfers/:hash/files/:index", s.FileHandler},
		{"GET", "/api/transfers/:hash/archive", s.ArchiveHandler},

		{"GET", "/blob/:token", s.BlobHandler},
	}

	r := httprouter.New()
	for _, route := range routes {
		r.Handle(route.method, route.route, s.logWrapper(route.handler))
	}
	r.NotFound = s.static
	r.HandleMethodNotAllowed = false
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v any) {
		s.writeError(w, req, http.StatusInternalServerError, fmt.Errorf("panic: %v", v))
	}

	return securityHeaders(s.cfg.Production, gzhttp.GzipHandler(r))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.pages.error(w, http.StatusNotFound, ""); err != nil {
		s.logger.Error("failed to render error page", zap.Error(err))
	}
}

func (s *Server) logWrapper(handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s.logger.Debug("request", zap.String("method", r.Method), zap.String("url", r.URL.String()))
		handler(w, r, ps)
	}
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	s.logger.Info(fmt.Sprintf("Listening on port %d", ln.Addr().(*net.TCPAddr).Port),
		zap.String("addr", ln.Addr().String()),
		zap.Bool("production", s.cfg.Production),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.blobs.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.blobs.Close()
	if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	if err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
