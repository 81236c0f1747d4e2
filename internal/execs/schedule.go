package execs

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
	"github.com/nextlevelbuilder/slashbot/internal/scheduler"
)

// ScheduleExecutor implements schedule{cron, name, body, prompt?}: registers
// a persistent task onto the scheduler.
type ScheduleExecutor struct {
	sched *scheduler.Scheduler
}

func NewScheduleExecutor(sched *scheduler.Scheduler) *ScheduleExecutor {
	return &ScheduleExecutor{sched: sched}
}

func (e *ScheduleExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	cron := action.Attrs["cron"]
	name := action.Attrs["name"]
	if cron == "" || name == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "schedule requires cron and name attributes", ""), nil
	}

	body := action.Attrs["body"]
	if body == "" {
		body = action.Body
	}
	kind := scheduler.BodyShell
	if _, isPrompt := action.Attrs["prompt"]; isPrompt {
		kind = scheduler.BodyPrompt
	}

	task := &scheduler.Task{
		ID:       name,
		Cron:     cron,
		Name:     name,
		Body:     body,
		BodyKind: kind,
	}
	if err := e.sched.Register(task); err != nil {
		return kernel.ErrResult(kernel.ErrDenied, err.Error(), ""), nil
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  fmt.Sprintf("scheduled %q on %q", name, cron),
		ForUser: fmt.Sprintf("schedule %s (%s)", name, cron),
	}, nil
}

var _ actions.Executor = (*ScheduleExecutor)(nil)
