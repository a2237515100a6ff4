package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Iron-Ham/gantry/internal/board"
	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
)

// pointerDownRequest is either a raw position (x, y), hit tested against
// the current render model, or an explicit target (taskId, optional edge).
type pointerDownRequest struct {
	TaskID string   `json:"taskId"`
	Edge   string   `json:"edge"`
	X      *float64 `json:"x" binding:"required"`
	Y      float64  `json:"y"`
}

type pointerMoveRequest struct {
	X *float64 `json:"x" binding:"required"`
}

type viewRequest struct {
	Mode string   `json:"mode"`
	Zoom *float64 `json:"zoom"`
	// Step moves through the zoom presets: +1 zooms in, -1 zooms out.
	Step int `json:"step"`
}

type stepResponse struct {
	Days     int       `json:"days"`
	Applied  int       `json:"applied"`
	Clamped  bool      `json:"clamped"`
	Rejected bool      `json:"rejected"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	projects, err = store.FilterProjects(projects, c.Query("match"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []schedule.Project{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"projects": projects,
		"count":    len(projects),
	})
}

func (s *Server) handleTimeline(c *gin.Context) {
	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	if err := applyViewQuery(c, sess.board); err != nil {
		s.fail(c, err)
		return
	}
	s.respondTimeline(c, sess.board, nil)
}

func (s *Server) handleTimelineSVG(c *gin.Context) {
	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	if err := applyViewQuery(c, sess.board); err != nil {
		s.fail(c, err)
		return
	}
	today, err := s.today(c, sess.board)
	if err != nil {
		s.fail(c, err)
		return
	}
	m, err := sess.board.Render(today)
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, m); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) handlePointerDown(c *gin.Context) {
	var req pointerDownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewValidationError(err.Error()))
		return
	}

	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()
	b := sess.board

	extra := gin.H{}
	switch {
	case req.TaskID == "":
		hit, found, err := b.OnPointerDownAt(*req.X, req.Y)
		if err != nil {
			s.fail(c, err)
			return
		}
		if found {
			extra["hit"] = hit
		}
	case req.Edge == "":
		if err := b.OnBarPointerDown(req.TaskID, *req.X); err != nil {
			s.fail(c, err)
			return
		}
	default:
		edge, err := gesture.ParseEdge(req.Edge)
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := b.OnHandlePointerDown(req.TaskID, edge, *req.X); err != nil {
			s.fail(c, err)
			return
		}
	}

	if snap, active := b.Gesture(); active {
		extra["gesture"] = snap
	}
	s.respondTimeline(c, b, extra)
}

func (s *Server) handlePointerMove(c *gin.Context) {
	var req pointerMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewValidationError(err.Error()))
		return
	}

	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	step, err := sess.board.OnPointerMove(*req.X)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondTimeline(c, sess.board, gin.H{"step": stepResponse{
		Days:     step.Days,
		Applied:  step.Applied,
		Clamped:  step.Clamped,
		Rejected: step.Rejected,
		Start:    step.Start,
		End:      step.End,
	}})
}

// handlePointerUp commits the gesture while holding the board lock, so the
// next event on this project sees the store's answer.
func (s *Server) handlePointerUp(c *gin.Context) {
	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()
	b := sess.board

	p, changed := b.Release()
	if !changed {
		s.respondTimeline(c, b, gin.H{"committed": false})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.commitTimeout)
	defer cancel()
	stored, commitErr := s.store.CommitTaskDates(ctx, p.TaskID, p.Start, p.End)
	if err := b.Resolve(p, stored, commitErr); err != nil {
		s.fail(c, err)
		return
	}

	task, _ := b.Task(p.TaskID)
	s.respondTimeline(c, b, gin.H{"committed": true, "task": task})
}

func (s *Server) handlePointerCancel(c *gin.Context) {
	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	canceled := sess.board.OnPointerCancel()
	s.respondTimeline(c, sess.board, gin.H{"canceled": canceled})
}

func (s *Server) handleTogglePhase(c *gin.Context) {
	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	if err := sess.board.TogglePhase(c.Param("phaseId")); err != nil {
		s.fail(c, err)
		return
	}
	s.respondTimeline(c, sess.board, nil)
}

func (s *Server) handleView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewValidationError(err.Error()))
		return
	}

	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()
	b := sess.board

	if req.Mode != "" {
		mode, err := schedule.ParseViewMode(req.Mode)
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := b.SetViewMode(mode); err != nil {
			s.fail(c, err)
			return
		}
	}
	if req.Zoom != nil {
		if err := b.SetZoom(*req.Zoom); err != nil {
			s.fail(c, err)
			return
		}
	}
	switch {
	case req.Step > 0:
		b.ZoomIn()
	case req.Step < 0:
		b.ZoomOut()
	}
	s.respondTimeline(c, b, nil)
}

func (s *Server) handleReload(c *gin.Context) {
	sess, ok := s.open(c)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	if err := s.load(c.Request.Context(), sess.board, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	s.respondTimeline(c, sess.board, nil)
}

// open locks the project's session or writes the error response.
func (s *Server) open(c *gin.Context) (*session, bool) {
	sess, err := s.lockSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) respondTimeline(c *gin.Context, b *board.Board, extra gin.H) {
	today, err := s.today(c, b)
	if err != nil {
		s.fail(c, err)
		return
	}
	m, err := b.Render(today)
	if err != nil {
		s.fail(c, err)
		return
	}

	body := gin.H{
		"success":  true,
		"project":  b.Project(),
		"timeline": m,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// today reads the optional ?today=YYYY-MM-DD override.
func (s *Server) today(c *gin.Context, b *board.Board) (time.Time, error) {
	raw := c.Query("today")
	if raw == "" {
		return b.Today(), nil
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.NewValidationError("expected YYYY-MM-DD").
			WithField("today").WithValue(raw).WithCause(err)
	}
	return d, nil
}

// applyViewQuery applies ?mode= and ?zoom= to the board's view.
func applyViewQuery(c *gin.Context, b *board.Board) error {
	if raw := c.Query("mode"); raw != "" {
		mode, err := schedule.ParseViewMode(raw)
		if err != nil {
			return err
		}
		if err := b.SetViewMode(mode); err != nil {
			return err
		}
	}
	if raw := c.Query("zoom"); raw != "" {
		zoom, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.NewValidationError("zoom must be a number").
				WithField("zoom").WithValue(raw).WithCause(err)
		}
		return b.SetZoom(zoom)
	}
	return nil
}

// fail writes err as a JSON error with a status derived from its kind.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err.Error())
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success":   false,
		"error":     err.Error(),
		"retryable": errors.IsRetryable(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrTaskNotFound),
		errors.Is(err, errors.ErrProjectNotFound),
		errors.Is(err, errors.ErrPhaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrGestureActive),
		errors.Is(err, errors.ErrNoActiveGesture),
		errors.Is(err, errors.ErrCommitPending),
		errors.Is(err, errors.ErrCommitRejected):
		return http.StatusConflict
	case errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
