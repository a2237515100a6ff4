// Package api exposes timeline boards over HTTP. Each project gets one
// board, created on first use and serialized by its own mutex, so concurrent
// requests against the same project see events in arrival order.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Iron-Ham/gantry/internal/board"
	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
)

// Options configures a Server.
type Options struct {
	Store         store.Store
	Mode          schedule.ViewMode
	Zoom          float64
	MinRangeDays  int
	CommitTimeout time.Duration
	Logger        *logging.Logger
	// Clock supplies today's date. Defaults to time.Now.
	Clock func() time.Time
}

// session is one project's board and the lock that serializes its events.
type session struct {
	mu    sync.Mutex
	board *board.Board
	// dead marks a session whose first load failed. It has been removed
	// from the map; waiters must look the project up again.
	dead bool
}

// Server is the HTTP presentation layer over project boards.
type Server struct {
	store         store.Store
	opts          Options
	commitTimeout time.Duration
	logger        *logging.Logger
	router        *gin.Engine

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer builds the router. Call gin.SetMode before it to change gin's
// debug output.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 5 * time.Second
	}

	router := gin.New()
	s := &Server{
		store:         opts.Store,
		opts:          opts,
		commitTimeout: opts.CommitTimeout,
		logger:        opts.Logger.WithComponent("api"),
		router:        router,
		sessions:      make(map[string]*session),
	}

	router.Use(gin.Recovery(), s.requestLogger())
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/projects", s.handleListProjects)

		project := api.Group("/projects/:id")
		project.GET("/timeline", s.handleTimeline)
		project.GET("/timeline.svg", s.handleTimelineSVG)
		project.POST("/pointer/down", s.handlePointerDown)
		project.POST("/pointer/move", s.handlePointerMove)
		project.POST("/pointer/up", s.handlePointerUp)
		project.POST("/pointer/cancel", s.handlePointerCancel)
		project.POST("/phases/:phaseId/toggle", s.handleTogglePhase)
		project.POST("/view", s.handleView)
		project.POST("/reload", s.handleReload)
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	return nil
}

// lockSession returns the session of projectID with its lock held, loading
// the board on first use. The caller unlocks.
func (s *Server) lockSession(ctx context.Context, projectID string) (*session, error) {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[projectID]
		if !ok {
			sess = &session{}
			s.sessions[projectID] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if sess.dead {
			sess.mu.Unlock()
			continue
		}
		if sess.board != nil {
			return sess, nil
		}
		if err := s.openBoard(ctx, sess, projectID); err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// openBoard loads the board of a fresh session. sess.mu is held on entry; on
// failure the session is retired and unlocked.
func (s *Server) openBoard(ctx context.Context, sess *session, projectID string) error {
	b := board.New(board.Options{
		Mode:         s.opts.Mode,
		Zoom:         s.opts.Zoom,
		MinRangeDays: s.opts.MinRangeDays,
		Layout:       render.DefaultLayout(),
		Committer:    s.store,
		Logger:       s.opts.Logger,
		Clock:        s.opts.Clock,
	})
	if err := s.load(ctx, b, projectID); err != nil {
		s.mu.Lock()
		if s.sessions[projectID] == sess {
			delete(s.sessions, projectID)
		}
		s.mu.Unlock()
		sess.dead = true
		sess.mu.Unlock()
		return err
	}
	sess.board = b
	return nil
}

func (s *Server) load(ctx context.Context, b *board.Board, projectID string) error {
	snap, err := store.Load(ctx, s.store, projectID)
	if err != nil {
		return err
	}
	return b.Load(snap.Project, snap.Tasks, snap.Phases)
}

// ReloadAll re-reads every open project from the store. It is called when
// the store's files change underneath the server.
func (s *Server) ReloadAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.Reload(ctx, id); err != nil {
			s.logger.WithProject(id).Warn("reload failed", "error", err.Error())
		}
	}
}

// Reload re-reads one open project. Unopened projects are left alone.
func (s *Server) Reload(ctx context.Context, projectID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[projectID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.board == nil {
		return nil
	}
	return s.load(ctx, sess.board, projectID)
}

// requestLogger logs each request through the structured logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
