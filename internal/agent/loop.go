// Package agent implements the turn engine: one call = one turn =
// potentially many LLM round-trips, each assembling the prompt, streaming
// the model's reply, parsing it for action tags, executing them, and
// feeding the compressed results back until a terminal condition fires.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/bus"
	"github.com/nextlevelbuilder/slashbot/internal/contextpipeline"
	"github.com/nextlevelbuilder/slashbot/internal/execs"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
	"github.com/nextlevelbuilder/slashbot/internal/providers"
	"github.com/nextlevelbuilder/slashbot/internal/sessionstore"
	"github.com/nextlevelbuilder/slashbot/internal/tracing"
)

const (
	defaultMaxImages             = 4
	defaultMaxDuplicateReads     = 3
	defaultConnectorMaxRounds    = 15
	defaultConsecutiveFailureCap = 3 // applied in connector mode when unset; elsewhere a 0 cap disables the check
	endTaskSummaryMaxChars       = 2000
)

// OutputFunc forwards streamed/finished text to whatever display is bound
// (console, TUI, connector reply channel). Injected to keep this package
// free of a display-package import.
type OutputFunc func(ctx context.Context, tabID, text string)

// LoopConfig is everything NewLoop needs to construct an agent turn engine.
type LoopConfig struct {
	Profile       *Profile
	Provider      providers.Provider
	Model         string
	ContextWindow int
	Workspace     string

	Sessions sessionstore.Store
	Registry *actions.Registry
	Hooks    *kernel.HookRegistry
	Bus      bus.EventPublisher

	Buffer  *Buffer
	Explore *contextpipeline.ExploreAggregator
	Reads   *execs.ReadExecutor

	Output OutputFunc

	MaxContextMessages    int
	ConnectorMaxRounds    int // 0 = defaultConnectorMaxRounds
	ConnectorMode         bool
	MaxImages             int
	MaxDuplicateReads     int
	ConsecutiveFailureCap int
	TraceEnabled          bool
}

// Loop is the agent turn engine: one instance per agent, reused across
// turns. Conversation history lives in Sessions, never in the struct.
type Loop struct {
	profile       *Profile
	provider      providers.Provider
	model         string
	contextWindow int
	workspace     string

	sessions sessionstore.Store
	registry *actions.Registry
	hooks    *kernel.HookRegistry
	pub      bus.EventPublisher

	buffer  *Buffer
	explore *contextpipeline.ExploreAggregator
	reads   *execs.ReadExecutor

	// dupReads counts read{path} occurrences seen this turn, independent of
	// whether the read was actually executed — a dropped duplicate must
	// still count toward the corrective-message threshold.
	dupReads map[string]int

	output OutputFunc

	maxContextMessages    int
	connectorMaxRounds    int
	connectorMode         bool
	maxImages             int
	maxDuplicateReads     int
	consecutiveFailureCap int

	activeRuns atomic.Int64
}

// ChatOptions parameterises a single chat() call.
type ChatOptions struct {
	TabID      string // display/explore-aggregator scope; defaults to profile id
	SessionKey string // defaults to profile id
	ImagePaths []string
	MaxRounds  int // overrides the configured round cap for this call
}

// ChatResult is chat()'s return value.
type ChatResult struct {
	FinalText   string
	Usage       providers.Usage
	EndTaskSeen bool // true only if the turn terminated via an end-task action
}

// NewLoop constructs a turn engine from its dependencies.
func NewLoop(cfg LoopConfig) *Loop {
	l := &Loop{
		profile:               cfg.Profile,
		provider:              cfg.Provider,
		model:                 cfg.Model,
		contextWindow:         cfg.ContextWindow,
		workspace:             cfg.Workspace,
		sessions:              cfg.Sessions,
		registry:              cfg.Registry,
		hooks:                 cfg.Hooks,
		pub:                   cfg.Bus,
		buffer:                cfg.Buffer,
		explore:               cfg.Explore,
		reads:                 cfg.Reads,
		output:                cfg.Output,
		maxContextMessages:    cfg.MaxContextMessages,
		connectorMaxRounds:    cfg.ConnectorMaxRounds,
		connectorMode:         cfg.ConnectorMode,
		maxImages:             cfg.MaxImages,
		maxDuplicateReads:     cfg.MaxDuplicateReads,
		consecutiveFailureCap: cfg.ConsecutiveFailureCap,
		dupReads:              make(map[string]int),
	}
	if l.maxImages <= 0 {
		l.maxImages = defaultMaxImages
	}
	if l.maxDuplicateReads <= 0 {
		l.maxDuplicateReads = defaultMaxDuplicateReads
	}
	if l.connectorMaxRounds <= 0 {
		l.connectorMaxRounds = defaultConnectorMaxRounds
	}
	if l.connectorMode && cfg.ConsecutiveFailureCap == 0 {
		l.consecutiveFailureCap = defaultConsecutiveFailureCap
	}
	return l
}

// ID returns the agent's identifier.
func (l *Loop) ID() string { return l.profile.ID }

// Model returns the model identifier this loop is bound to.
func (l *Loop) Model() string { return l.model }

// IsRunning reports whether a turn is currently executing.
func (l *Loop) IsRunning() bool { return l.activeRuns.Load() > 0 }

func (l *Loop) publish(name string, payload any) {
	if l.pub != nil {
		l.pub.Broadcast(bus.Event{Name: name, Payload: payload})
	}
}

func (l *Loop) sessionKey(opts ChatOptions) string {
	if opts.SessionKey != "" {
		return opts.SessionKey
	}
	return l.profile.ID
}

func (l *Loop) tabID(opts ChatOptions) string {
	if opts.TabID != "" {
		return opts.TabID
	}
	return l.profile.ID
}

func (l *Loop) emitOutput(ctx context.Context, tabID, text string) {
	if text == "" {
		return
	}
	if l.output != nil {
		l.output(ctx, tabID, text)
	}
}

// Chat runs exactly one turn: compose the user message, stream/parse/
// execute rounds until a terminal condition, and return the final text.
func (l *Loop) Chat(ctx context.Context, userInput string, opts ChatOptions) (ChatResult, error) {
	l.activeRuns.Add(1)
	defer l.activeRuns.Add(-1)

	key := l.sessionKey(opts)
	tab := l.tabID(opts)

	tracer := tracing.Tracer()
	ctx, span := tracer.Start(ctx, "agent.chat", trace.WithAttributes(
		attribute.String("agent.id", l.profile.ID),
		attribute.String("model", l.model),
	))
	defer span.End()

	l.publish("session:start", map[string]string{"agent": l.profile.ID, "session": key})
	if l.explore != nil {
		l.explore.ClearTab(tab)
	}
	if l.reads != nil {
		l.reads.ResetTurn()
	}
	l.dupReads = make(map[string]int)

	// 1. Compose user message: attach images (bounded by MaxImages), expand
	// paste placeholders, append as a user message.
	images := loadImages(opts.ImagePaths)
	if l.maxImages > 0 && len(images) > l.maxImages {
		images = images[:l.maxImages]
	}
	if l.buffer != nil {
		userInput = l.buffer.ExpandPastePlaceholders(userInput)
		if remaining := l.maxImages - len(images); remaining > 0 {
			if bufImgs := l.buffer.ExpandImagePlaceholders(userInput, remaining); len(bufImgs) > 0 {
				images = append(images, bufImgs...)
			}
		}
	}

	l.sessions.SetSystemMessage(key, providers.Message{
		Role:    "system",
		Content: buildSystemPrompt(l.profile, l.workspace, l.registry.Tags()),
	})
	l.sessions.AddMessage(key, providers.Message{Role: "user", Content: userInput, Images: images})

	// 2. Compress context: drop oldest-toward-newest, never evict message 0.
	if l.maxContextMessages > 0 {
		l.sessions.CompressHistory(key, l.maxContextMessages)
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		if l.connectorMode {
			maxRounds = l.connectorMaxRounds
		} else {
			maxRounds = 0 // unlimited in CLI mode
		}
	}

	consecutiveFailures := 0
	var usage providers.Usage
	var lastAssistantText string

	round := 0
	for {
		round++
		if maxRounds > 0 && round > maxRounds {
			span.SetStatus(codes.Error, "round cap exhausted")
			return ChatResult{FinalText: summariseTimeout(round - 1), Usage: usage}, nil
		}
		if ctx.Err() != nil {
			return l.abortedResult(usage), nil
		}

		history := l.sessions.GetHistory(key)

		// 3a. before_llm_call, streaming chat.
		l.hooks.Dispatch(ctx, kernel.DomainKernel, "before_llm_call", kernel.Payload{
			"agent": l.profile.ID, "round": round,
		})

		start := time.Now()
		resp, streamErr := l.streamChat(ctx, tab, history)
		_, llmSpan := tracer.Start(ctx, "agent.llm_call", trace.WithAttributes(
			attribute.Int("round", round),
		))
		if streamErr != nil {
			llmSpan.SetStatus(codes.Error, streamErr.Error())
			llmSpan.End()
			l.publish("cli_error", map[string]string{"agent": l.profile.ID, "error": streamErr.Error()})
			span.SetStatus(codes.Error, streamErr.Error())
			return ChatResult{}, fmt.Errorf("agent: llm call failed: %w", streamErr)
		}
		llmSpan.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))
		llmSpan.End()

		if resp.Usage != nil {
			usage.PromptTokens += resp.Usage.PromptTokens
			usage.CompletionTokens += resp.Usage.CompletionTokens
			usage.TotalTokens += resp.Usage.TotalTokens
		}

		// 3b. after_llm_call, append assistant message.
		l.hooks.Dispatch(ctx, kernel.DomainKernel, "after_llm_call", kernel.Payload{
			"agent": l.profile.ID, "round": round, "content": resp.Content,
		})
		cleaned := SanitizeAssistantContent(resp.Content)
		l.sessions.AddMessage(key, providers.Message{Role: "assistant", Content: cleaned})
		lastAssistantText = cleaned

		// 3c. Parse actions.
		parsed, warnings := actions.Parse(cleaned)
		if len(parsed) == 0 && looksLikeFencedAction(cleaned, warnings) {
			l.sessions.AddMessage(key, providers.Message{
				Role:    "user",
				Content: "Write action tags directly WITHOUT backticks.",
			})
			continue
		}

		// 3d. De-duplicate reads.
		filtered, dupBreak := l.dedupeReads(parsed)
		if dupBreak {
			l.sessions.AddMessage(key, providers.Message{
				Role:    "user",
				Content: "You already have that content in context. Use it instead of re-reading the same path.",
			})
			continue
		}

		// 3g (no-actions branch). If no actions were produced, terminate.
		if len(filtered) == 0 {
			span.SetStatus(codes.Ok, "")
			l.publish("agent_end", map[string]string{"agent": l.profile.ID})
			l.hooks.Dispatch(ctx, kernel.DomainKernel, "session_end", kernel.Payload{"agent": l.profile.ID})
			return ChatResult{FinalText: lastAssistantText, Usage: usage}, nil
		}

		// 3e. Execute each action.
		var blocks []string
		anyFailed := false
		endTaskMessage, endTaskSeen := "", false
		for _, action := range filtered {
			result, failed := l.runAction(ctx, tab, action)
			if failed {
				anyFailed = true
				consecutiveFailures++
			} else {
				consecutiveFailures = 0
			}
			blocks = append(blocks, formatActionBlock(action, result, failed))

			if action.Tag == "end-task" {
				endTaskSeen = true
				endTaskMessage = truncateChars(result.LLMText(), endTaskSummaryMaxChars)
			}
		}

		if l.consecutiveFailureCap > 0 && consecutiveFailures >= l.consecutiveFailureCap {
			span.SetStatus(codes.Error, "consecutive action failures")
			summary := "Turn aborted after repeated action failures:\n" + strings.Join(blocks, "\n\n")
			return ChatResult{FinalText: truncateChars(summary, endTaskSummaryMaxChars), Usage: usage}, nil
		}

		// 3g. Termination on end-task.
		if endTaskSeen {
			span.SetStatus(codes.Ok, "")
			l.publish("agent_end", map[string]string{"agent": l.profile.ID})
			l.hooks.Dispatch(ctx, kernel.DomainKernel, "session_end", kernel.Payload{"agent": l.profile.ID})
			return ChatResult{FinalText: endTaskMessage, Usage: usage, EndTaskSeen: true}, nil
		}

		// 3f. Build the context-feed message.
		suffix := "Continue with the next step."
		if anyFailed {
			suffix = "Fix the error and continue."
		}
		feed := strings.Join(blocks, "\n\n") + "\n\n" + suffix
		l.sessions.AddMessage(key, providers.Message{Role: "user", Content: feed})
	}
}

// streamChat forwards the provider's streamed chunks to the display with
// live tag scrubbing and returns the assembled response.
func (l *Loop) streamChat(ctx context.Context, tab string, history []providers.Message) (*providers.ChatResponse, error) {
	var scrubber tagScrubber
	resp, err := l.provider.ChatStream(ctx, providers.ChatRequest{
		Messages: history,
		Model:    l.model,
	}, func(chunk providers.StreamChunk) {
		if chunk.Content == "" {
			return
		}
		l.emitOutput(ctx, tab, scrubber.Feed(chunk.Content))
	})
	if err != nil {
		return nil, err
	}
	if rest := scrubber.Flush(); rest != "" {
		l.emitOutput(ctx, tab, rest)
	}
	return resp, nil
}

// runAction dispatches one action through before/after_tool_call hooks and
// the executor registry, surfacing forUser text and persisting metadata
// events. Returns whether the action failed.
func (l *Loop) runAction(ctx context.Context, tab string, action actions.Action) (kernel.ToolResult, bool) {
	tracer := tracing.Tracer()
	ctx, span := tracer.Start(ctx, "agent.action", trace.WithAttributes(
		attribute.String("tag", action.Tag),
	))
	defer span.End()

	l.hooks.Dispatch(ctx, kernel.DomainKernel, "before_tool_call", kernel.Payload{"tag": action.Tag})

	result := l.registry.Run(ctx, action)

	l.hooks.Dispatch(ctx, kernel.DomainKernel, "after_tool_call", kernel.Payload{
		"tag": action.Tag, "ok": result.OK,
	})

	if !result.Silent {
		if userText := result.UserText(); userText != "" {
			l.emitOutput(ctx, tab, userText)
		}
	}

	if ev, ok := result.Metadata["event"].(string); ok && ev != "" {
		l.publish(ev, result.Metadata)
	}
	l.hooks.Dispatch(ctx, kernel.DomainKernel, "tool_result_persist", kernel.Payload{
		"tag": action.Tag, "result": result,
	})

	if !result.OK {
		span.SetStatus(codes.Error, result.Error.Error())
		return result, true
	}
	span.SetStatus(codes.Ok, "")
	return result, false
}

func (l *Loop) abortedResult(usage providers.Usage) ChatResult {
	l.publish("agent_end", map[string]string{"agent": l.profile.ID, "aborted": "true"})
	return ChatResult{FinalText: "[turn aborted]", Usage: usage}
}

// dedupeReads filters out read{path} actions whose path has already been
// read this turn. Occurrences are counted in dupReads regardless of whether
// the action is actually executed, so a path that keeps getting dropped
// still accumulates toward the threshold — the read executor's own counter
// only tracks paths it was actually asked to read, which stalls once a
// duplicate stops reaching Execute. Returns the filtered list and whether
// the duplicate threshold was hit (the caller should break out and inject a
// corrective message rather than executing anything this round).
func (l *Loop) dedupeReads(in []actions.Action) ([]actions.Action, bool) {
	if l.reads == nil {
		return in, false
	}
	out := make([]actions.Action, 0, len(in))
	for _, a := range in {
		if a.Tag != "read" {
			out = append(out, a)
			continue
		}
		path := a.Attrs["path"]
		l.dupReads[path]++
		count := l.dupReads[path]
		if count == 1 {
			out = append(out, a)
			continue
		}
		if count >= l.maxDuplicateReads {
			return nil, true
		}
		// a lone repeat read is silently dropped rather than re-executed
	}
	return out, false
}

// looksLikeFencedAction reports whether the assistant's text contains
// recognised tag names that the parser nonetheless found none of — the
// signature of a tag written inside a code fence.
func looksLikeFencedAction(text string, warnings []actions.Warning) bool {
	for _, w := range warnings {
		if actions.KnownTags[w.Tag] {
			return true
		}
	}
	for tag := range actions.KnownTags {
		if strings.Contains(text, "<"+tag) {
			return true
		}
	}
	return false
}

func formatActionBlock(action actions.Action, result kernel.ToolResult, failed bool) string {
	mark := "✓"
	if failed {
		mark = "✗"
	}
	label := action.Tag
	if p := action.Attrs["path"]; p != "" {
		label += " " + p
	}
	body := contextpipeline.Truncate(result.LLMText(), contextpipeline.TruncateConfig{
		ContextLimit:              200000,
		ToolResultMaxContextShare: 0.25,
		ToolResultHardMax:         8000,
		ToolResultMinKeep:         500,
	}, 0)
	return fmt.Sprintf("[%s] %s\n%s", mark, label, body)
}

func truncateChars(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func summariseTimeout(executedRounds int) string {
	return fmt.Sprintf("Turn stopped after reaching the round cap (%d rounds executed).", executedRounds)
}
