// Package dispatch runs background work on named lanes with per-lane
// concurrency limits. Launches, reachability checks and UI refresh
// callbacks each get their own lane.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/crashlog"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

// Lane names
const (
	LaneLaunch = "launch" // Profile launch/stop (the browser manager serializes map access itself)
	LaneCheck  = "check"  // Proxy reachability probes
	LaneUI     = "ui"     // Refresh notifications, strictly serialized
)

// ErrShutdown is returned by Enqueue after Shutdown.
var ErrShutdown = errors.New("dispatch: lane manager shut down")

// DefaultLaneConcurrency defines default max concurrent tasks per lane
// 0 = unlimited, lanes not listed default to 1
var DefaultLaneConcurrency = map[string]int{
	LaneLaunch: 0,
	LaneCheck:  8,
	LaneUI:     1,
}

// Task represents a unit of work queued on a lane
type Task struct {
	ID          string
	Lane        string
	Description string
	Run         func(ctx context.Context) error
	EnqueuedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Err         error
	WarnAfter   time.Duration
}

type laneState struct {
	name          string
	queue         []*laneEntry
	active        []*laneEntry
	maxConcurrent int
	notify        chan struct{} // buffered(1) wakeup signal for the pump goroutine
	stopCh        chan struct{}
	mu            sync.Mutex
}

type laneEntry struct {
	task    *Task
	resolve chan error
	ctx     context.Context
	cancel  context.CancelFunc
}

// LaneManager manages multiple lanes for background execution
type LaneManager struct {
	mu      sync.RWMutex
	lanes   map[string]*laneState
	limits  map[string]int
	seq     atomic.Int64
	stopped atomic.Bool
	onEvent func(Event)
}

// NewLaneManager creates a lane manager using DefaultLaneConcurrency.
func NewLaneManager() *LaneManager {
	limits := make(map[string]int, len(DefaultLaneConcurrency))
	for k, v := range DefaultLaneConcurrency {
		limits[k] = v
	}
	return &LaneManager{
		lanes:  make(map[string]*laneState),
		limits: limits,
	}
}

// OnEvent registers a callback for task lifecycle events
func (m *LaneManager) OnEvent(fn func(Event)) {
	m.mu.Lock()
	m.onEvent = fn
	m.mu.Unlock()
}

func (m *LaneManager) emit(event Event) {
	m.mu.RLock()
	fn := m.onEvent
	m.mu.RUnlock()
	if fn != nil {
		go fn(event)
	}
}

func (m *LaneManager) lane(name string) *laneState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.lanes[name]; ok {
		return state
	}

	maxConcurrent := 1
	if mc, ok := m.limits[name]; ok {
		maxConcurrent = mc
	}

	state := &laneState{
		name:          name,
		maxConcurrent: maxConcurrent,
		notify:        make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
	m.lanes[name] = state
	go state.run(m)
	return state
}

// SetConcurrency sets the max concurrency for a lane
// 0 = unlimited, any positive number = max concurrent tasks
func (m *LaneManager) SetConcurrency(lane string, maxConcurrent int) {
	if maxConcurrent < 0 {
		maxConcurrent = 0
	}
	m.mu.Lock()
	m.limits[lane] = maxConcurrent
	m.mu.Unlock()

	state := m.lane(lane)
	state.mu.Lock()
	state.maxConcurrent = maxConcurrent
	state.mu.Unlock()
	state.wake()
}

// Enqueue adds a task to a lane and returns when it completes
func (m *LaneManager) Enqueue(ctx context.Context, lane string, run func(ctx context.Context) error, opts ...EnqueueOption) error {
	entry, err := m.push(ctx, lane, run, opts)
	if err != nil {
		return err
	}

	select {
	case err := <-entry.resolve:
		return err
	case <-ctx.Done():
		entry.cancel()
		return ctx.Err()
	}
}

// EnqueueAsync adds a task to a lane without waiting for completion.
// The task context is detached from ctx's cancellation but keeps its values.
func (m *LaneManager) EnqueueAsync(ctx context.Context, lane string, run func(ctx context.Context) error, opts ...EnqueueOption) {
	if _, err := m.push(context.WithoutCancel(ctx), lane, run, opts); err != nil {
		logging.Warnf("[dispatch] dropped task on lane=%s: %v", lane, err)
	}
}

func (m *LaneManager) push(ctx context.Context, lane string, run func(ctx context.Context) error, opts []EnqueueOption) (*laneEntry, error) {
	if m.stopped.Load() {
		return nil, ErrShutdown
	}
	if lane == "" {
		lane = LaneUI
	}

	cfg := &enqueueConfig{warnAfter: 2 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	state := m.lane(lane)

	taskCtx, cancel := context.WithCancel(ctx)
	entry := &laneEntry{
		task: &Task{
			ID:          fmt.Sprintf("%s-%d", lane, m.seq.Add(1)),
			Lane:        lane,
			Description: cfg.description,
			Run:         run,
			EnqueuedAt:  time.Now(),
			WarnAfter:   cfg.warnAfter,
		},
		resolve: make(chan error, 1),
		ctx:     taskCtx,
		cancel:  cancel,
	}

	state.mu.Lock()
	if m.stopped.Load() {
		state.mu.Unlock()
		cancel()
		return nil, ErrShutdown
	}
	state.queue = append(state.queue, entry)
	queueSize := len(state.queue) + len(state.active)
	info := entry.info()
	state.mu.Unlock()

	logging.Debugf("[dispatch] Enqueued task %s lane=%s queueSize=%d", info.ID, lane, queueSize)
	m.emit(Event{Type: EventEnqueued, Lane: lane, Task: info})
	state.wake()
	return entry, nil
}

func (s *laneState) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// run is the pump goroutine for a lane.
func (s *laneState) run(mgr *LaneManager) {
	for {
		select {
		case <-s.notify:
			s.processAvailable(mgr)
		case <-s.stopCh:
			return
		}
	}
}

// processAvailable starts queued tasks until the lane is at capacity.
func (s *laneState) processAvailable(mgr *LaneManager) {
	for {
		s.mu.Lock()
		atCapacity := s.maxConcurrent > 0 && len(s.active) >= s.maxConcurrent
		if atCapacity || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}

		entry := s.queue[0]
		s.queue = s.queue[1:]
		waited := time.Since(entry.task.EnqueuedAt)
		if entry.task.WarnAfter > 0 && waited >= entry.task.WarnAfter {
			logging.Warnf("[dispatch] Lane wait exceeded: lane=%s waited=%s queueAhead=%d", s.name, waited, len(s.queue))
		}

		s.active = append(s.active, entry)
		entry.task.StartedAt = time.Now()
		startedInfo := entry.info()
		s.mu.Unlock()

		go s.execute(mgr, entry, startedInfo)
	}
}

func (s *laneState) execute(mgr *LaneManager, e *laneEntry, startInfo TaskInfo) {
	mgr.emit(Event{Type: EventStarted, Lane: s.name, Task: startInfo})

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				crashlog.LogPanic("dispatch", r, map[string]string{"lane": s.name, "task": e.task.Description})
				err = fmt.Errorf("panic in lane task: %v", r)
			}
		}()
		err = e.task.Run(e.ctx)
	}()
	e.cancel()

	s.mu.Lock()
	e.task.CompletedAt = time.Now()
	e.task.Err = err
	for i, a := range s.active {
		if a == e {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	duration := e.task.CompletedAt.Sub(e.task.StartedAt)
	completedInfo := e.info()
	s.mu.Unlock()

	if err != nil {
		logging.Debugf("[dispatch] Lane task error: lane=%s duration=%s error=%q", s.name, duration, err.Error())
	}
	mgr.emit(Event{Type: EventCompleted, Lane: s.name, Task: completedInfo})

	e.resolve <- err
	close(e.resolve)

	// capacity freed up
	s.wake()
}

// TotalQueueSize returns the total number of tasks across all lanes
func (m *LaneManager) TotalQueueSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, state := range m.lanes {
		state.mu.Lock()
		total += len(state.queue) + len(state.active)
		state.mu.Unlock()
	}
	return total
}

// Wait blocks until every lane is empty or ctx is done.
func (m *LaneManager) Wait(ctx context.Context) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for m.TotalQueueSize() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Stats returns statistics for all lanes
func (m *LaneManager) Stats() map[string]LaneStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]LaneStats, len(m.lanes))
	for name, state := range m.lanes {
		state.mu.Lock()
		ls := LaneStats{
			Lane:          name,
			Queued:        len(state.queue),
			Active:        len(state.active),
			MaxConcurrent: state.maxConcurrent,
		}
		for _, e := range state.active {
			ls.ActiveTasks = append(ls.ActiveTasks, e.info())
		}
		stats[name] = ls
		state.mu.Unlock()
	}
	return stats
}

// Shutdown stops all pump goroutines; later Enqueue calls fail with ErrShutdown.
// Tasks still queued are resolved with ErrShutdown without running. Active
// tasks finish on their own.
func (m *LaneManager) Shutdown() {
	m.stopped.Store(true)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, state := range m.lanes {
		select {
		case <-state.stopCh:
		default:
			close(state.stopCh)
		}
		if n := state.drain(ErrShutdown); n > 0 {
			logging.Warnf("[dispatch] dropped %d queued tasks on lane=%s", n, state.name)
		}
	}
}

// drain resolves every queued (not active) entry with err.
func (s *laneState) drain(err error) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.queue)
	for _, entry := range s.queue {
		entry.cancel()
		entry.resolve <- err
		close(entry.resolve)
	}
	s.queue = nil
	return removed
}

func (e *laneEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.task.ID,
		Description: e.task.Description,
		EnqueuedAt:  e.task.EnqueuedAt.UnixMilli(),
	}
	if !e.task.StartedAt.IsZero() {
		info.StartedAt = e.task.StartedAt.UnixMilli()
	}
	return info
}

// LaneStats contains statistics for a lane
type LaneStats struct {
	Lane          string     `json:"lane"`
	Queued        int        `json:"queued"`
	Active        int        `json:"active"`
	MaxConcurrent int        `json:"max_concurrent"`
	ActiveTasks   []TaskInfo `json:"active_tasks,omitempty"`
}

// TaskInfo represents a summary of a task in a lane
type TaskInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	EnqueuedAt  int64  `json:"enqueued_at"`
	StartedAt   int64  `json:"started_at,omitempty"`
}

// Task event types
const (
	EventEnqueued  = "task_enqueued"
	EventStarted   = "task_started"
	EventCompleted = "task_completed"
)

// Event represents a lifecycle event for a lane task
type Event struct {
	Type string   `json:"type"`
	Lane string   `json:"lane"`
	Task TaskInfo `json:"task"`
}

// EnqueueOption configures enqueue behavior
type EnqueueOption func(*enqueueConfig)

type enqueueConfig struct {
	warnAfter   time.Duration
	description string
}

// WithWarnAfter sets how long a task may wait before a warning is logged.
// Zero disables the warning for lanes that are expected to back up.
func WithWarnAfter(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.warnAfter = d
	}
}

// WithDescription sets a human-readable description for the task
func WithDescription(desc string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.description = desc
	}
}
