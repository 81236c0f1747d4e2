// Package console implements display.Facade as plain stdout/stderr writes:
// streamed reply text goes to stdout, tool-call progress notices go to
// stderr so piping `slashbot -m "..."` output stays clean.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nextlevelbuilder/slashbot/internal/agent"
)

// Console is a single-writer display.Facade bound to a terminal session.
type Console struct {
	mu       sync.Mutex
	out, err io.Writer
}

// New returns a Console writing replies to out and tool notices to errOut.
func New(out, errOut io.Writer) *Console {
	return &Console{out: out, err: errOut}
}

func (c *Console) Stream(ctx context.Context, tabID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, text)
}

func (c *Console) ToolCall(ctx context.Context, tabID, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.err, "  [%s]\n", tag)
}

// Output adapts Console to agent.OutputFunc, the single-assignment callback
// LoopConfig.Output binds — keeps internal/agent free of a display import.
func (c *Console) Output() agent.OutputFunc {
	return func(ctx context.Context, tabID, text string) {
		c.Stream(ctx, tabID, text)
	}
}
