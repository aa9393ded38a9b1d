package api

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/erkit/pkg/cache"
	"github.com/matzehuels/erkit/pkg/er"
	"github.com/matzehuels/erkit/pkg/errors"
	erio "github.com/matzehuels/erkit/pkg/io"
	"github.com/matzehuels/erkit/pkg/render/dot"
	"github.com/matzehuels/erkit/pkg/store"
)

// maxDocumentSize bounds PUT bodies.
const maxDocumentSize = 8 << 20

// RenderFunc turns DOT source into SVG.
type RenderFunc func(ctx context.Context, dot string) ([]byte, error)

// Options configures a Server.
type Options struct {
	Store store.Store
	// Modeler is passed to every modeler the server binds.
	Modeler er.Options
	// Cache holds rendered SVG. Nil disables caching.
	Cache cache.Cache
	// CacheTTL expires cached renders; zero keeps them.
	CacheTTL time.Duration
	// Render defaults to dot.RenderSVG.
	Render RenderFunc
	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	store    store.Store
	opts     er.Options
	cache    cache.Cache
	keyer    cache.Keyer
	cacheTTL time.Duration
	render   RenderFunc
	logger   *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a server backed by opts.Store.
func New(opts Options) *Server {
	s := &Server{
		store:    opts.Store,
		opts:     opts.Modeler,
		cache:    opts.Cache,
		keyer:    cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:"),
		cacheTTL: opts.CacheTTL,
		render:   opts.Render,
		logger:   opts.Logger,
		locks:    make(map[string]*sync.Mutex),
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.render == nil {
		s.render = dot.RenderSVG
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.opts.Logger == nil {
		s.opts.Logger = s.logger
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/diagrams", s.handleList)
	r.Route("/diagrams/{id}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Put("/", s.handlePut)
		r.Delete("/", s.handleDelete)
		r.Get("/svg", s.handleSVG)

		r.Get("/elements/{eid}/contained", s.handleContained)
		r.Get("/elements/{eid}/convertible", s.handleConvertible)
		r.Post("/elements/{eid}/composite", s.handleComposite)

		r.Get("/containers/{cid}/children", s.handleChildren)
		r.Post("/containers/{cid}/reorganize", s.handleReorganize)

		r.Post("/move", s.handleMove)
		r.Post("/delete", s.handleDeleteElements)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("listening", "addr", addr)
	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// lock serializes access to one diagram.
func (s *Server) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// withModeler loads diagram id, runs fn and, when save is set and fn
// succeeds, stores the diagram again.
func (s *Server) withModeler(ctx context.Context, id string, save bool, fn func(*er.Modeler) error) error {
	if err := errors.ValidateID(id); err != nil {
		return err
	}
	defer s.lock(id)()

	data, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	m, err := erio.Load(bytes.NewReader(data), s.opts)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	if !save {
		return nil
	}
	var buf bytes.Buffer
	if err := erio.Save(m, &buf); err != nil {
		return err
	}
	return s.store.Put(ctx, id, buf.Bytes())
}
