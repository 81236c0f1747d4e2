package execs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"

	goPs "github.com/mitchellh/go-ps"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// forbiddenPatterns are commands that fail before execution with FORBIDDEN,
// regardless of any other policy. Defense-in-depth beyond these four named
// ones: reverse shells, privilege escalation, and other always-risky shapes
// carried forward from the shell tool this was generalized from.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bgit\s+push\s+.*--force\b`),
	regexp.MustCompile(`\bgit\s+reset\s+.*--hard\b`),
	regexp.MustCompile(`\bgit\s+clean\s+.*-fd\b`),
	regexp.MustCompile(`\brm\s+.*(-[rf]{1,2}\s+)?/(etc|usr|bin|sbin|lib|boot|sys|proc)(/|\s|$)`),
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\b(nc|ncat|netcat)\b.*-[el]\b`),
	regexp.MustCompile(`\bcurl\b.*\|\s*(ba)?sh\b`),
	regexp.MustCompile(`\bwget\b.*-O\s*-\s*\|\s*(ba)?sh\b`),
	regexp.MustCompile(`\bLD_PRELOAD\s*=`),
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`),
}

type bgJob struct {
	id        int
	cmd       string
	startedAt time.Time
	proc      *exec.Cmd
	done      bool
	output    string
	err       error
}

// BashExecutor implements bash{cmd, timeoutMs?, background?}.
type BashExecutor struct {
	WorkingDir string
	Timeout    time.Duration

	mu     sync.Mutex
	nextID int
	jobs   map[int]*bgJob
}

func NewBashExecutor(workingDir string) *BashExecutor {
	return &BashExecutor{
		WorkingDir: workingDir,
		Timeout:    60 * time.Second,
		jobs:       make(map[int]*bgJob),
	}
}

func (e *BashExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	cmd := action.Attrs["cmd"]
	if cmd == "" {
		cmd = action.Body
	}
	if cmd == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "bash requires a cmd", ""), nil
	}

	for _, pattern := range forbiddenPatterns {
		if pattern.MatchString(cmd) {
			return kernel.ErrResult(kernel.ErrForbidden, fmt.Sprintf("command denied by safety policy: %s", pattern.String()), ""), nil
		}
	}

	if background, _ := strconv.ParseBool(action.Attrs["background"]); background {
		return e.runBackground(cmd)
	}

	timeout := e.Timeout
	if ms, err := strconv.Atoi(action.Attrs["timeoutMs"]); err == nil && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, "sh", "-c", cmd)
	c.Dir = e.WorkingDir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += "STDERR:\n" + stderr.String()
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return kernel.ErrResult(kernel.ErrTimeout, fmt.Sprintf("command timed out after %s", timeout), ""), nil
		}
		if output == "" {
			output = err.Error()
		}
		return kernel.ToolResult{OK: false, ForLLM: output, ForUser: fmt.Sprintf("bash: %s", cmd), Error: &kernel.ToolError{Code: kernel.ErrIO, Message: err.Error()}}, nil
	}
	if output == "" {
		output = "(command completed with no output)"
	}

	return kernel.ToolResult{OK: true, ForLLM: output, ForUser: fmt.Sprintf("bash: %s", cmd)}, nil
}

// runBackground spawns cmd detached from the calling turn and returns
// immediately with a pid handle; the process is tracked so /ps and /kill
// can observe and terminate it later.
func (e *BashExecutor) runBackground(cmd string) (kernel.ToolResult, error) {
	c := exec.Command("sh", "-c", cmd)
	c.Dir = e.WorkingDir
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	if err := c.Start(); err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	job := &bgJob{id: id, cmd: cmd, startedAt: time.Now(), proc: c}
	e.jobs[id] = job
	e.mu.Unlock()

	go func() {
		err := c.Wait()
		e.mu.Lock()
		job.done = true
		job.output = out.String()
		job.err = err
		e.mu.Unlock()
	}()

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  fmt.Sprintf("started background job %d: %s", id, cmd),
		ForUser: fmt.Sprintf("bash (background, pid handle %d): %s", id, cmd),
	}, nil
}

// BackgroundStatus is one tracked background job's state, for /ps. Alive
// is cross-checked against the live OS process table, catching jobs whose
// process died without our Wait goroutine having run yet.
type BackgroundStatus struct {
	ID        int
	Pid       int
	Cmd       string
	StartedAt time.Time
	Done      bool
	Alive     bool
	Output    string
}

// List reports the tracked background jobs, newest first.
func (e *BashExecutor) List() []BackgroundStatus {
	live, _ := goPs.Processes()
	alivePids := make(map[int]bool, len(live))
	for _, p := range live {
		alivePids[p.Pid()] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]BackgroundStatus, 0, len(e.jobs))
	for id := e.nextID; id >= 1; id-- {
		job, ok := e.jobs[id]
		if !ok {
			continue
		}
		pid := 0
		if job.proc.Process != nil {
			pid = job.proc.Process.Pid
		}
		out = append(out, BackgroundStatus{
			ID: job.id, Pid: pid, Cmd: job.cmd, StartedAt: job.startedAt,
			Done: job.done, Alive: !job.done && alivePids[pid], Output: job.output,
		})
	}
	return out
}

// Kill terminates a tracked background job by id, for /kill.
func (e *BashExecutor) Kill(id int) error {
	e.mu.Lock()
	job, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no background job with id %d", id)
	}
	if job.done || job.proc.Process == nil {
		return fmt.Errorf("background job %d already finished", id)
	}
	return job.proc.Process.Kill()
}

var _ actions.Executor = (*BashExecutor)(nil)
