package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/agent"
	"github.com/nextlevelbuilder/slashbot/internal/bus"
	"github.com/nextlevelbuilder/slashbot/internal/config"
	"github.com/nextlevelbuilder/slashbot/internal/connectors"
	"github.com/nextlevelbuilder/slashbot/internal/connectors/discord"
	"github.com/nextlevelbuilder/slashbot/internal/connectors/telegram"
	"github.com/nextlevelbuilder/slashbot/internal/contextpipeline"
	"github.com/nextlevelbuilder/slashbot/internal/display"
	"github.com/nextlevelbuilder/slashbot/internal/execs"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
	"github.com/nextlevelbuilder/slashbot/internal/providers"
	"github.com/nextlevelbuilder/slashbot/internal/scheduler"
	"github.com/nextlevelbuilder/slashbot/internal/sessionstore"
)

// runtime bundles the process-wide singletons every agent Loop shares:
// the event bus, the scheduler, and the set of constructed loops (for
// agent-send delegation between them).
type runtime struct {
	cfg     *config.Config
	pub     *bus.EventBus
	sched   *scheduler.Scheduler
	conns   *connectors.Manager
	locks   *connectors.LockManager
	output  display.Facade

	loops map[string]*agent.Loop

	// subagentSem bounds how many ephemeral (config.Agents.Subagents)
	// workers may run at once, independent of the persisted roster.
	subagentSem chan struct{}
}

// newRuntime wires the process-global services shared across every agent
// loop, the way the standalone CLI chat path constructed its dependencies
// before the turn engine was generalized.
func newRuntime(cfg *config.Config, output display.Facade) *runtime {
	storage := config.ExpandHome(cfg.Scheduler.Storage)
	r := &runtime{
		cfg:    cfg,
		pub:    bus.NewEventBus(),
		output: output,
		loops:  make(map[string]*agent.Loop),
	}
	r.sched = scheduler.New(storage, nil, r.runPrompt)
	r.conns = connectors.NewManager(r.connectorChat, r.pub)
	r.locks = connectors.NewLockManager()
	r.registerConnectors()

	maxSubagents := cfg.Agents.MaxConcurrentSubagents
	if maxSubagents <= 0 {
		maxSubagents = 8
	}
	r.subagentSem = make(chan struct{}, maxSubagents)
	return r
}

// registerConnectors constructs and registers every connector the config
// enables. Each connector must first win its cross-process lock — only one
// live process may drive a given connector type at a time — and a
// connector that fails to construct (bad token, lock held elsewhere) is
// logged and skipped rather than aborting startup.
func (r *runtime) registerConnectors() {
	workspace := config.ExpandHome(r.cfg.WorkspacePath())

	if r.cfg.Connectors.Telegram.Enabled {
		if res, err := r.locks.AcquireLock("telegram", workspace); err != nil {
			fmt.Fprintf(os.Stderr, "telegram connector disabled: %v\n", err)
		} else if !res.Acquired {
			fmt.Fprintf(os.Stderr, "telegram connector disabled: already running as pid %d (%s)\n", res.ExistingPID, res.ExistingWorkDir)
		} else if c, err := telegram.New(telegram.Config{
			Token:             r.cfg.Connectors.Telegram.Token,
			AuthorizedTargets: []string(r.cfg.Connectors.Telegram.AllowFrom),
		}, r.conns.HandleInbound); err != nil {
			fmt.Fprintf(os.Stderr, "telegram connector disabled: %v\n", err)
			_ = r.locks.ReleaseLock("telegram")
		} else {
			r.conns.Register(c)
		}
	}
	if r.cfg.Connectors.Discord.Enabled {
		if res, err := r.locks.AcquireLock("discord", workspace); err != nil {
			fmt.Fprintf(os.Stderr, "discord connector disabled: %v\n", err)
		} else if !res.Acquired {
			fmt.Fprintf(os.Stderr, "discord connector disabled: already running as pid %d (%s)\n", res.ExistingPID, res.ExistingWorkDir)
		} else if c, err := discord.New(discord.Config{
			Token:             r.cfg.Connectors.Discord.Token,
			AuthorizedTargets: []string(r.cfg.Connectors.Discord.AllowFrom),
		}, r.conns.HandleInbound); err != nil {
			fmt.Fprintf(os.Stderr, "discord connector disabled: %v\n", err)
			_ = r.locks.ReleaseLock("discord")
		} else {
			r.conns.Register(c)
		}
	}
}

// connectorChat is the connectors.ChatFunc bound to the manager: it drives
// one turn on the default agent under the connector session's own key, so
// history is kept per (connector, target) pair.
func (r *runtime) connectorChat(ctx context.Context, sessionID connectors.SessionID, text string) (string, error) {
	loop, err := r.loop(r.cfg.ResolveDefaultAgentID())
	if err != nil {
		return "", err
	}
	res, err := loop.Chat(ctx, text, agent.ChatOptions{SessionKey: "connector:" + string(sessionID)})
	if err != nil {
		return "", err
	}
	return res.FinalText, nil
}

// startServices starts the scheduler and every registered connector. It is
// the bound-late step the CLI/TUI entry points call once, after config is
// loaded, so a one-shot `-m` invocation never pays for background polling.
func (r *runtime) startServices(ctx context.Context) error {
	if err := r.sched.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: load tasks: %v\n", err)
	}
	go r.sched.Run(ctx)
	return r.conns.StartAll(ctx)
}

// stopServices stops every registered connector and the scheduler, and
// releases any connector locks this process holds.
func (r *runtime) stopServices(ctx context.Context) {
	r.conns.StopAll(ctx)
	r.sched.Stop()
	r.locks.ReleaseAll()
}

// runPrompt is the scheduler's PromptRunner: it starts a new turn on the
// default agent.
func (r *runtime) runPrompt(ctx context.Context, taskID, body string) (string, error) {
	loop, err := r.loop(r.cfg.ResolveDefaultAgentID())
	if err != nil {
		return "", err
	}
	res, err := loop.Chat(ctx, body, agent.ChatOptions{SessionKey: "scheduler:" + taskID})
	if err != nil {
		return "", err
	}
	return res.FinalText, nil
}

// watchConfig starts hot-reloading the config file at path: on every
// change, it invalidates every already-constructed Loop so the next use of
// each agent rebuilds against the fresh config.
func (r *runtime) watchConfig(path string) (*config.Watcher, error) {
	return config.Watch(path, r.cfg, func(*config.Config) {
		r.loops = make(map[string]*agent.Loop)
	})
}

// loop returns the Loop for agentID, constructing it lazily on first use.
func (r *runtime) loop(agentID string) (*agent.Loop, error) {
	if l, ok := r.loops[agentID]; ok {
		return l, nil
	}
	l, err := r.buildLoop(agentID)
	if err != nil {
		return nil, err
	}
	r.loops[agentID] = l
	return l, nil
}

// buildLoop constructs one agent's full dependency graph: provider,
// workspace, session store, action registry, and the turn engine itself.
func (r *runtime) buildLoop(agentID string) (*agent.Loop, error) {
	agentCfg := r.cfg.ResolveAgent(agentID)
	workspace := config.ExpandHome(agentCfg.Workspace)
	if !filepath.IsAbs(workspace) {
		abs, err := filepath.Abs(workspace)
		if err == nil {
			workspace = abs
		}
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("runtime: create workspace: %w", err)
	}

	provider, err := resolveProvider(r.cfg, agentCfg.Provider)
	if err != nil {
		return nil, err
	}

	sessStore := sessionstore.NewFileStore(config.ExpandHome(r.cfg.Sessions.Storage))

	profile := &agent.Profile{ID: agentID, Name: r.cfg.ResolveDisplayName(agentID)}
	if spec, ok := r.cfg.Agents.List[agentID]; ok {
		profile.Responsibility = spec.Responsibility
		profile.Personality = spec.Personality
		profile.ToolIDs = spec.ToolIDs
	} else if sub, ok := r.cfg.Agents.Subagents[agentID]; ok {
		// Ephemeral: not part of the standing roster, resolved only
		// because agent-send named it.
		profile.Name = agentID
		profile.Responsibility = sub.Responsibility
		profile.Personality = sub.Personality
		if sub.Model != "" {
			agentCfg.Model = sub.Model
		}
	}

	explore := contextpipeline.NewExploreAggregator(5)
	reads := execs.NewReadExecutor(workspace, agentCfg.RestrictToWorkspace)
	hooks := kernel.NewHookRegistry()

	registry, err := r.buildRegistry(agentID, workspace, agentCfg, explore, reads)
	if err != nil {
		return nil, err
	}

	return agent.NewLoop(agent.LoopConfig{
		Profile:           profile,
		Provider:          provider,
		Model:             agentCfg.Model,
		ContextWindow:     agentCfg.ContextWindow,
		Workspace:         workspace,
		Sessions:          sessStore,
		Registry:          registry,
		Hooks:             hooks,
		Bus:               r.pub,
		Buffer:            agent.NewBuffer(),
		Explore:           explore,
		Reads:             reads,
		Output:            r.output.Stream,
		MaxContextMessages: agentCfg.MaxContextMessages,
		MaxImages:          agentCfg.MaxImages,
		MaxDuplicateReads:  agentCfg.MaxDuplicateReads,
	}), nil
}

// buildRegistry registers every action tag executor the CLI/connector
// surface supports.
func (r *runtime) buildRegistry(agentID, workspace string, agentCfg config.AgentDefaults, explore *contextpipeline.ExploreAggregator, reads *execs.ReadExecutor) (*actions.Registry, error) {
	restrict := agentCfg.RestrictToWorkspace
	reg := actions.NewRegistry()

	bashExec := execs.NewBashExecutor(workspace)

	regs := []struct {
		tag string
		ex  actions.Executor
	}{
		{"bash", bashExec},
		{"read", reads},
		{"edit", execs.NewEditExecutor(workspace, restrict)},
		{"multi-edit", execs.NewMultiEditExecutor(workspace, restrict)},
		{"write", execs.NewWriteExecutor(workspace, restrict)},
		{"glob", execs.NewExploreExecutor(workspace, restrict, explore)},
		{"grep", execs.NewExploreExecutor(workspace, restrict, explore)},
		{"ls", execs.NewExploreExecutor(workspace, restrict, explore)},
		{"git", execs.NewGitExecutor(bashExec)},
		{"fetch", execs.NewFetchExecutor()},
		{"search", execs.NewSearchExecutor()},
		{"format", execs.NewFormatExecutor(bashExec, r.cfg.Tools.FormatCmd)},
		{"typecheck", execs.NewTypecheckExecutor(bashExec, r.cfg.Tools.TypecheckCmd)},
		{"schedule", execs.NewScheduleExecutor(r.sched)},
		{"notify", execs.NewNotifyExecutor(r.notify)},
		{"skill", execs.NewSkillExecutor(filepath.Join(workspace, "skills"))},
		{"skill-install", execs.NewSkillInstallExecutor(filepath.Join(workspace, "skills"))},
		{"say-message", execs.NewSayMessageExecutor()},
		{"end-task", execs.NewEndTaskExecutor()},
		{"continue-task", execs.NewContinueTaskExecutor()},
		{"agent-send", execs.NewAgentSendExecutor(func(ctx context.Context, to, title, body string) (execs.AgentSendResult, error) {
			return r.agentSend(ctx, agentID, to, title, body)
		})},
		{"telegram-config", execs.NewTelegramConfigExecutor(r.configureConnector)},
		{"discord-config", execs.NewDiscordConfigExecutor(r.configureConnector)},
	}

	for _, e := range regs {
		if err := reg.Register(e.tag, e.ex); err != nil {
			return nil, fmt.Errorf("runtime: register %s: %w", e.tag, err)
		}
	}
	return reg, nil
}

// notify is the NotifyFunc bound to notify{message}: forwards to whatever
// display facade this runtime was constructed with.
func (r *runtime) notify(ctx context.Context, message string) error {
	r.output.Stream(ctx, "notify", message+"\n")
	return nil
}

// agentSend is the AgentSendFunc bound to agent-send{to}: runs one turn on
// the target agent's loop, applies the source agent's quality gates (if
// any) to the reply, and reports whether it ended the task.
func (r *runtime) agentSend(ctx context.Context, from, to, title, body string) (execs.AgentSendResult, error) {
	if _, persisted := r.cfg.Agents.List[to]; !persisted {
		if _, isSubagent := r.cfg.Agents.Subagents[to]; isSubagent {
			select {
			case r.subagentSem <- struct{}{}:
				defer func() { <-r.subagentSem }()
			case <-ctx.Done():
				return execs.AgentSendResult{}, ctx.Err()
			}
		}
	}

	loop, err := r.loop(to)
	if err != nil {
		return execs.AgentSendResult{}, fmt.Errorf("agent-send: %w", err)
	}
	sessionKey := "delegate:" + from + ":" + to
	input := body
	if title != "" {
		input = title + "\n\n" + body
	}
	res, err := loop.Chat(ctx, input, agent.ChatOptions{SessionKey: sessionKey})
	if err != nil {
		return execs.AgentSendResult{}, err
	}

	final := res.FinalText
	for _, gate := range r.cfg.Agents.List[from].QualityGates {
		final, err = r.applyQualityGate(ctx, gate, loop, sessionKey, body, final)
		if err != nil {
			return execs.AgentSendResult{}, err
		}
	}
	return execs.AgentSendResult{FinalMessage: final, EndTaskSeen: res.EndTaskSeen}, nil
}

// applyQualityGate checks reply against one gate. A gate with an empty
// Contains always passes. A failing non-blocking gate is only logged; a
// failing blocking gate re-runs the same session with feedback, up to
// MaxRetries times, before accepting whatever the last attempt produced.
func (r *runtime) applyQualityGate(ctx context.Context, gate config.QualityGateConfig, loop *agent.Loop, sessionKey, task, reply string) (string, error) {
	if gate.Contains == "" || strings.Contains(reply, gate.Contains) {
		return reply, nil
	}
	if !gate.BlockOnFailure {
		fmt.Fprintf(os.Stderr, "quality gate: non-blocking miss for %q\n", gate.Contains)
		return reply, nil
	}

	current := reply
	for attempt := 1; attempt <= gate.MaxRetries; attempt++ {
		feedback := fmt.Sprintf(
			"Your previous reply did not satisfy a required check (expected to mention %q).\n\nOriginal task: %s\n\nPlease revise your reply.",
			gate.Contains, task,
		)
		res, err := loop.Chat(ctx, feedback, agent.ChatOptions{SessionKey: sessionKey})
		if err != nil {
			fmt.Fprintf(os.Stderr, "quality gate: retry %d failed: %v\n", attempt, err)
			return current, nil
		}
		current = res.FinalText
		if strings.Contains(current, gate.Contains) {
			return current, nil
		}
	}
	fmt.Fprintf(os.Stderr, "quality gate: %d retries exhausted, accepting result\n", gate.MaxRetries)
	return current, nil
}

// configureConnector is a stub ConnectorConfigFunc: runtime connector
// reconfiguration (adding authorized targets, changing the primary target)
// is applied by editing config.json and letting the hot-reload watcher pick
// it up, so the action tag just reports what would change.
func (r *runtime) configureConnector(ctx context.Context, attrs map[string]string) (string, error) {
	return fmt.Sprintf("connector config change requested: %v (edit config.json to apply)", attrs), nil
}

// resolveProvider looks up name in cfg.Providers and returns the provider
// implementation bound to it. The LLM HTTP transport itself is out of
// scope here — a live deployment injects its own providers.Provider; this
// always returns the fixed-response double.
func resolveProvider(cfg *config.Config, name string) (providers.Provider, error) {
	var key string
	switch name {
	case "anthropic":
		key = cfg.Providers.Anthropic.APIKey
	case "openai":
		key = cfg.Providers.OpenAI.APIKey
	case "openrouter":
		key = cfg.Providers.OpenRouter.APIKey
	case "gemini":
		key = cfg.Providers.Gemini.APIKey
	case "deepseek":
		key = cfg.Providers.DeepSeek.APIKey
	}
	if key == "" {
		return nil, fmt.Errorf("runtime: provider %q has no API key configured; run 'slashbot login'", name)
	}
	return providers.NewNopProvider(name, ""), nil
}
