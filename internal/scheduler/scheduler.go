// Package scheduler runs an in-memory set of cron-scheduled tasks on a
// single coordination loop, firing each task's body either as a shell
// command or a new agent turn.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// BodyKind selects how a task's body is interpreted on fire.
type BodyKind string

const (
	BodyShell  BodyKind = "shell"
	BodyPrompt BodyKind = "prompt"
)

// ShellRunner executes a task's body as a shell command; normally bound to
// the bash action executor.
type ShellRunner func(ctx context.Context, cmd string) (string, error)

// PromptRunner starts a new agent turn with body as user input; normally
// bound to the agent's chat() entry point.
type PromptRunner func(ctx context.Context, taskID, body string) (string, error)

// Task is one persisted cron entry.
type Task struct {
	ID        string    `json:"id"`
	Cron      string    `json:"cron"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	BodyKind  BodyKind  `json:"bodyKind"`
	CreatedAt time.Time `json:"createdAt"`
	LastRunAt time.Time `json:"lastRunAt,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Scheduler holds the in-memory task set and a single coordination loop
// that wakes on the minimum next-fire time across all tasks.
type Scheduler struct {
	mu        sync.Mutex
	tasks     map[string]*Task
	inFlight  map[string]bool
	persistAt string
	shell     ShellRunner
	prompt    PromptRunner
	log       *slog.Logger

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// New creates a scheduler persisting state to persistAt (normally
// ~/.slashbot/tasks.json). shell and prompt bind body execution; either may
// be nil if that body kind is unused.
func New(persistAt string, shell ShellRunner, prompt PromptRunner) *Scheduler {
	return &Scheduler{
		tasks:     make(map[string]*Task),
		inFlight:  make(map[string]bool),
		persistAt: persistAt,
		shell:     shell,
		prompt:    prompt,
		log:       slog.Default().With("component", "scheduler"),
		wake:      make(chan struct{}, 1),
	}
}

// Load restores persisted tasks from disk. A missing file is not an error.
func (s *Scheduler) Load() error {
	data, err := os.ReadFile(s.persistAt)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scheduler: load tasks: %w", err)
	}
	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("scheduler: parse tasks: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return nil
}

// persistLocked writes the current task set to disk. Called with s.mu held.
// A write failure is logged but never aborts the caller, per spec: state
// persistence is best-effort.
func (s *Scheduler) persistLocked() {
	list := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		list = append(list, t)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		s.log.Error("marshal tasks failed", "error", err)
		return
	}
	if err := os.WriteFile(s.persistAt, data, 0o644); err != nil {
		s.log.Error("persist tasks failed", "error", err)
	}
}

// Register adds or replaces a task and wakes the coordination loop so it can
// re-evaluate the minimum next-fire time.
func (s *Scheduler) Register(t *Task) error {
	if !gronx.IsValid(t.Cron) {
		return fmt.Errorf("scheduler: invalid cron expression %q", t.Cron)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.persistLocked()
	s.mu.Unlock()
	s.nudge()
	return nil
}

// Remove deletes a task by id.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.persistLocked()
	s.mu.Unlock()
	s.nudge()
}

// List returns a snapshot of all registered tasks.
func (s *Scheduler) List() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		cp := *t
		list = append(list, &cp)
	}
	return list
}

func (s *Scheduler) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run starts the single coordination loop; it blocks until ctx is cancelled
// or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	defer close(s.done)

	for {
		wait := s.nextWait()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
		s.fireDue(ctx)
	}
}

// Stop ends the coordination loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
}

// nextWait computes the delay until the soonest next-fire across all tasks,
// capped at one minute so newly registered tasks are never missed by more
// than that.
func (s *Scheduler) nextWait() time.Duration {
	const maxWait = time.Minute
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return maxWait
	}
	best := maxWait
	now := time.Now()
	for _, t := range s.tasks {
		next, err := gronx.NextTickAfter(t.Cron, now, false)
		if err != nil {
			continue
		}
		if d := next.Sub(now); d < best {
			best = d
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := time.Now()
	var due []*Task

	s.mu.Lock()
	for _, t := range s.tasks {
		ok, err := gronx.IsDue(t.Cron, now)
		if err != nil || !ok {
			continue
		}
		if s.inFlight[t.ID] {
			s.log.Debug("tick coalesced: previous run still in-flight", "task", t.ID)
			continue
		}
		s.inFlight[t.ID] = true
		due = append(due, t)
	}
	s.mu.Unlock()

	for _, t := range due {
		go s.fire(ctx, t)
	}
}

func (s *Scheduler) fire(ctx context.Context, t *Task) {
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, t.ID)
		s.mu.Unlock()
	}()

	var runErr error
	switch t.BodyKind {
	case BodyShell:
		if s.shell == nil {
			runErr = fmt.Errorf("scheduler: no shell runner configured")
			break
		}
		_, runErr = s.shell(ctx, t.Body)
	case BodyPrompt:
		if s.prompt == nil {
			runErr = fmt.Errorf("scheduler: no prompt runner configured")
			break
		}
		_, runErr = s.prompt(ctx, t.ID, t.Body)
	default:
		runErr = fmt.Errorf("scheduler: unknown body kind %q", t.BodyKind)
	}

	s.mu.Lock()
	t.LastRunAt = time.Now()
	if runErr != nil {
		t.LastError = runErr.Error()
		s.log.Error("task run failed", "task", t.ID, "error", runErr)
	} else {
		t.LastError = ""
	}
	s.persistLocked()
	s.mu.Unlock()
}
