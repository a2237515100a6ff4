package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
)

type apiResponse struct {
	Success   bool               `json:"success"`
	Error     string             `json:"error"`
	Retryable bool               `json:"retryable"`
	Timeline  render.Model       `json:"timeline"`
	Committed bool               `json:"committed"`
	Canceled  bool               `json:"canceled"`
	Task      schedule.Task      `json:"task"`
	Step      stepResponse       `json:"step"`
	Hit       *render.Hit        `json:"hit"`
	Projects  []schedule.Project `json:"projects"`
}

type testServer struct {
	store  *store.Memory
	server *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	m := store.NewMemory()
	if err := m.SaveProject(ctx, schedule.Project{
		ID: "p1", Name: "Relaunch",
		Start: schedule.Date(2024, 4, 1), End: schedule.Date(2024, 4, 30),
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.SavePhase(ctx, schedule.Phase{ID: "ph1", ProjectID: "p1", Name: "Design", Expanded: true}); err != nil {
		t.Fatal(err)
	}
	for _, task := range []schedule.Task{
		{ID: "t1", ProjectID: "p1", PhaseID: "ph1", Title: "Wireframes",
			Start: schedule.Date(2024, 4, 8), End: schedule.Date(2024, 4, 12), Priority: schedule.PriorityHigh},
		{ID: "t2", ProjectID: "p1", Title: "Launch",
			Start: schedule.Date(2024, 4, 1), End: schedule.Date(2024, 4, 5)},
	} {
		if err := m.SaveTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	s := NewServer(Options{
		Store: m,
		Mode:  schedule.ViewWeek,
		Zoom:  1,
		Clock: func() time.Time { return schedule.Date(2024, 4, 10) },
	})
	return &testServer{store: m, server: s}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, resp
}

func taskBar(t *testing.T, m render.Model, id string) render.Primitive {
	t.Helper()
	bar, ok := m.TaskBar(id)
	if !ok {
		t.Fatalf("no task bar for %s", id)
	}
	return bar
}

// weekDays converts a day count to week-view pixels at zoom 1.
func weekDays(n float64) float64 { return n * 100 / 7 }

func TestTimeline(t *testing.T) {
	ts := newTestServer(t)

	code, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", code, resp)
	}
	if resp.Timeline.View.Mode != schedule.ViewWeek {
		t.Errorf("mode = %q, want week", resp.Timeline.View.Mode)
	}
	if len(resp.Timeline.Rows) != 3 {
		t.Errorf("got %d rows, want phase + 2 tasks", len(resp.Timeline.Rows))
	}
	if resp.Timeline.Today == nil {
		t.Error("expected a today marker for 2024-04-10")
	}
	if _, ok := resp.Timeline.PhaseBar("ph1"); !ok {
		t.Error("missing phase bar")
	}
}

func TestTimeline_Query(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"day mode", "?mode=day", http.StatusOK},
		{"zoom", "?zoom=2", http.StatusOK},
		{"today override", "?today=2024-04-02", http.StatusOK},
		{"bad mode", "?mode=year", http.StatusBadRequest},
		{"bad zoom", "?zoom=big", http.StatusBadRequest},
		{"bad today", "?today=tomorrow", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline"+tt.query, nil)
			if code != tt.status {
				t.Errorf("status = %d, want %d (%s)", code, tt.status, resp.Error)
			}
		})
	}
}

func TestTimeline_UnknownProject(t *testing.T) {
	ts := newTestServer(t)

	code, resp := ts.do(t, http.MethodGet, "/api/projects/nope/timeline", nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("resp = %+v, want an error body", resp)
	}
}

func TestDragCommit(t *testing.T) {
	ts := newTestServer(t)

	_, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	bar := taskBar(t, resp.Timeline, "t1")
	x := bar.Geometry.X + bar.Geometry.W/2

	if code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/down",
		gin.H{"taskId": "t1", "x": x}); code != http.StatusOK {
		t.Fatalf("pointer/down status = %d: %s", code, resp.Error)
	}

	code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/move", gin.H{"x": x + weekDays(4)})
	if code != http.StatusOK {
		t.Fatalf("pointer/move status = %d: %s", code, resp.Error)
	}
	if resp.Step.Applied != 4 {
		t.Errorf("applied = %d, want 4", resp.Step.Applied)
	}
	if active := taskBar(t, resp.Timeline, "t1"); !active.Active {
		t.Error("bar should be marked active mid-gesture")
	}

	code, resp = ts.do(t, http.MethodPost, "/api/projects/p1/pointer/up", nil)
	if code != http.StatusOK || !resp.Committed {
		t.Fatalf("pointer/up status = %d committed = %v: %s", code, resp.Committed, resp.Error)
	}
	if !resp.Task.Start.Equal(schedule.Date(2024, 4, 12)) || !resp.Task.End.Equal(schedule.Date(2024, 4, 16)) {
		t.Errorf("committed dates = %v..%v, want 2024-04-12..2024-04-16", resp.Task.Start, resp.Task.End)
	}

	tasks, _ := ts.store.ListTasks(context.Background(), "p1")
	if !tasks[0].Start.Equal(schedule.Date(2024, 4, 12)) {
		t.Errorf("stored start = %v, want 2024-04-12", tasks[0].Start)
	}
}

func TestCommitFailureReverts(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailCommits(errors.New("disk full"))

	_, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	before := taskBar(t, resp.Timeline, "t2")
	x := before.Geometry.X + before.Geometry.W/2

	ts.do(t, http.MethodPost, "/api/projects/p1/pointer/down", gin.H{"taskId": "t2", "x": x})
	ts.do(t, http.MethodPost, "/api/projects/p1/pointer/move", gin.H{"x": x + weekDays(2)})

	code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/up", nil)
	if code != http.StatusConflict {
		t.Fatalf("pointer/up status = %d, want 409", code)
	}
	if !resp.Retryable {
		t.Error("commit failure should be retryable")
	}

	_, resp = ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	after := taskBar(t, resp.Timeline, "t2")
	if !after.Start.Equal(schedule.Date(2024, 4, 1)) || !after.End.Equal(schedule.Date(2024, 4, 5)) {
		t.Errorf("bar after failed commit = %v..%v, want original dates", after.Start, after.End)
	}
	if after.Pending {
		t.Error("bar should not stay pending after a failed commit")
	}
}

func TestPointerDown_HitTest(t *testing.T) {
	ts := newTestServer(t)

	_, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	bar := taskBar(t, resp.Timeline, "t1")
	x := bar.Geometry.X + bar.Geometry.W/2
	y := bar.Geometry.Y + bar.Geometry.H/2

	code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/down", gin.H{"x": x, "y": y})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, resp.Error)
	}
	if resp.Hit == nil || resp.Hit.Kind != render.HitTaskBody || resp.Hit.TaskID != "t1" {
		t.Fatalf("hit = %+v, want task body of t1", resp.Hit)
	}

	// A second pointer-down while dragging is rejected.
	code, _ = ts.do(t, http.MethodPost, "/api/projects/p1/pointer/down", gin.H{"taskId": "t2", "x": 10})
	if code != http.StatusConflict {
		t.Errorf("concurrent gesture status = %d, want 409", code)
	}

	code, resp = ts.do(t, http.MethodPost, "/api/projects/p1/pointer/cancel", nil)
	if code != http.StatusOK || !resp.Canceled {
		t.Errorf("cancel status = %d canceled = %v", code, resp.Canceled)
	}
}

func TestPointerDown_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"missing x", gin.H{"taskId": "t1"}, http.StatusBadRequest},
		{"unknown task", gin.H{"taskId": "zz", "x": 1}, http.StatusNotFound},
		{"bad edge", gin.H{"taskId": "t1", "edge": "middle", "x": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/down", tt.body)
			if code != tt.status {
				t.Errorf("status = %d, want %d (%s)", code, tt.status, resp.Error)
			}
		})
	}
}

func TestResizeHandle(t *testing.T) {
	ts := newTestServer(t)

	_, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	bar := taskBar(t, resp.Timeline, "t1")

	code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/down",
		gin.H{"taskId": "t1", "edge": "end", "x": bar.Geometry.X + bar.Geometry.W})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, resp.Error)
	}
	ts.do(t, http.MethodPost, "/api/projects/p1/pointer/move", gin.H{"x": bar.Geometry.X + bar.Geometry.W + weekDays(3)})
	_, resp = ts.do(t, http.MethodPost, "/api/projects/p1/pointer/up", nil)

	if !resp.Task.Start.Equal(schedule.Date(2024, 4, 8)) || !resp.Task.End.Equal(schedule.Date(2024, 4, 15)) {
		t.Errorf("resized task = %v..%v, want 2024-04-08..2024-04-15", resp.Task.Start, resp.Task.End)
	}
}

func TestPointerMove_NoGesture(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/move", gin.H{"x": 10})
	if code != http.StatusConflict {
		t.Errorf("status = %d, want 409", code)
	}

	code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/pointer/up", nil)
	if code != http.StatusOK || resp.Committed {
		t.Errorf("pointer/up without gesture: status = %d committed = %v", code, resp.Committed)
	}
}

func TestTogglePhase(t *testing.T) {
	ts := newTestServer(t)

	code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/phases/ph1/toggle", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, resp.Error)
	}
	if len(resp.Timeline.Rows) != 2 {
		t.Errorf("got %d rows after collapse, want 2", len(resp.Timeline.Rows))
	}
	if _, ok := resp.Timeline.PhaseBar("ph1"); !ok {
		t.Error("collapsed phase should keep its summary bar")
	}

	code, _ = ts.do(t, http.MethodPost, "/api/projects/p1/phases/nope/toggle", nil)
	if code != http.StatusNotFound {
		t.Errorf("unknown phase status = %d, want 404", code)
	}
}

func TestView(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     any
		status   int
		wantMode schedule.ViewMode
		wantZoom float64
	}{
		{"mode", gin.H{"mode": "month"}, http.StatusOK, schedule.ViewMonth, 1},
		{"zoom", gin.H{"zoom": 1.5}, http.StatusOK, schedule.ViewMonth, 1.5},
		{"step in", gin.H{"step": 1}, http.StatusOK, schedule.ViewMonth, 2},
		{"clamped zoom", gin.H{"zoom": 10}, http.StatusOK, schedule.ViewMonth, schedule.MaxZoom},
		{"bad mode", gin.H{"mode": "year"}, http.StatusBadRequest, "", 0},
		{"zero zoom", gin.H{"zoom": 0}, http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := ts.do(t, http.MethodPost, "/api/projects/p1/view", tt.body)
			if code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", code, tt.status, resp.Error)
			}
			if code != http.StatusOK {
				return
			}
			if resp.Timeline.View.Mode != tt.wantMode || resp.Timeline.View.Zoom != tt.wantZoom {
				t.Errorf("view = %s@%v, want %s@%v",
					resp.Timeline.View.Mode, resp.Timeline.View.Zoom, tt.wantMode, tt.wantZoom)
			}
		})
	}
}

func TestReload(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)

	// Another writer moves t2.
	if _, err := ts.store.CommitTaskDates(ctx, "t2", schedule.Date(2024, 4, 20), schedule.Date(2024, 4, 22)); err != nil {
		t.Fatal(err)
	}
	ts.server.ReloadAll(ctx)

	_, resp := ts.do(t, http.MethodGet, "/api/projects/p1/timeline", nil)
	if bar := taskBar(t, resp.Timeline, "t2"); !bar.Start.Equal(schedule.Date(2024, 4, 20)) {
		t.Errorf("t2 start after reload = %v, want 2024-04-20", bar.Start)
	}

	if err := ts.server.Reload(ctx, "unopened"); err != nil {
		t.Errorf("Reload() of unopened project error = %v", err)
	}
}

// flakyStore fails its first GetProject once release is closed and counts
// the loads that got as far as listing tasks.
type flakyStore struct {
	store.Store
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
	loads   atomic.Int32
}

func (f *flakyStore) GetProject(ctx context.Context, id string) (schedule.Project, error) {
	if f.calls.Add(1) == 1 {
		close(f.entered)
		<-f.release
		return schedule.Project{}, errors.New("connection reset")
	}
	return f.Store.GetProject(ctx, id)
}

func (f *flakyStore) ListTasks(ctx context.Context, projectID string) ([]schedule.Task, error) {
	f.loads.Add(1)
	return f.Store.ListTasks(ctx, projectID)
}

func TestSessionRetryAfterFailedLoad(t *testing.T) {
	ts := newTestServer(t)
	flaky := &flakyStore{Store: ts.store, entered: make(chan struct{}), release: make(chan struct{})}
	ts.server.store = flaky

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/projects/p1/timeline", nil)
		w := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(w, req)
		return w.Code
	}

	firstCode := make(chan int, 1)
	go func() { firstCode <- get() }()
	<-flaky.entered

	const waiters = 8
	codes := make([]int, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = get()
		}(i)
	}
	// Let the waiters queue on the failing session before it is retired.
	time.Sleep(20 * time.Millisecond)
	close(flaky.release)
	wg.Wait()

	if code := <-firstCode; code == http.StatusOK {
		t.Error("first request succeeded despite the failed load")
	}
	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("waiter %d status = %d, want 200", i, code)
		}
	}
	if n := flaky.loads.Load(); n != 1 {
		t.Errorf("project loaded %d times, want one board", n)
	}

	ts.server.mu.Lock()
	defer ts.server.mu.Unlock()
	if len(ts.server.sessions) != 1 || ts.server.sessions["p1"].board == nil {
		t.Errorf("sessions = %v, want one loaded session for p1", ts.server.sessions)
	}
}

func TestListProjects(t *testing.T) {
	ts := newTestServer(t)

	code, resp := ts.do(t, http.MethodGet, "/api/projects", nil)
	if code != http.StatusOK || len(resp.Projects) != 1 || resp.Projects[0].ID != "p1" {
		t.Errorf("status = %d, projects = %+v", code, resp.Projects)
	}

	code, resp = ts.do(t, http.MethodGet, "/api/projects?match=other*", nil)
	if code != http.StatusOK || len(resp.Projects) != 0 {
		t.Errorf("filtered: status = %d, projects = %+v", code, resp.Projects)
	}

	code, _ = ts.do(t, http.MethodGet, "/api/projects?match=%5Bbad", nil)
	if code != http.StatusBadRequest {
		t.Errorf("invalid pattern: status = %d, want 400", code)
	}
}

func TestTimelineSVG(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/p1/timeline.svg", nil)
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Wireframes") {
		t.Error("SVG missing task label")
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.NewNotFoundError("task", "x").WithCause(errors.ErrTaskNotFound), http.StatusNotFound},
		{"gesture active", errors.NewGestureError("busy", errors.ErrGestureActive), http.StatusConflict},
		{"commit", errors.NewCommitError("t", errors.New("boom")), http.StatusConflict},
		{"validation", errors.NewValidationError("bad"), http.StatusBadRequest},
		{"store down", errors.Wrap(errors.ErrStoreUnavailable, "open"), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
