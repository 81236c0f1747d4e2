package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/titanous/json5"
)

// DefaultAgentID is the agent id used when config.json's agents.list has no
// entry marked "default": true.
const DefaultAgentID = "default"

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Agents: AgentsConfig{
			Defaults: AgentDefaults{
				Workspace:           "~/.slashbot/workspace",
				RestrictToWorkspace: true,
				Provider:            "anthropic",
				Model:               "claude-sonnet-4-5-20250929",
				MaxTokens:           8192,
				Temperature:         0.7,
				ContextWindow:       200000,
				MaxContextMessages:  200,
				MaxImages:           8,
				MaxDuplicateReads:   3,
			},
			MaxConcurrentSubagents: 8,
		},
		Providers: ProvidersConfig{},
		Tools: ToolsConfig{
			ExecApproval: ExecApprovalCfg{
				Security: "full",
				Ask:      "off",
			},
		},
		Sessions: SessionsConfig{
			Storage: "~/.slashbot/sessions",
			Scope:   "per-sender",
		},
		Scheduler: SchedulerConfig{
			Storage: "~/.slashbot/scheduler/tasks.json",
		},
		Tracing: TracingConfig{
			ServiceName: "slashbot",
		},
	}
}

// Load reads config from a JSON5-tolerant file, then overlays env vars.
// A missing file is not an error — Default() plus env overrides stands in.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("SLASHBOT_ANTHROPIC_API_KEY", &c.Providers.Anthropic.APIKey)
	envStr("SLASHBOT_ANTHROPIC_BASE_URL", &c.Providers.Anthropic.APIBase)
	envStr("SLASHBOT_OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	envStr("SLASHBOT_OPENAI_BASE_URL", &c.Providers.OpenAI.APIBase)
	envStr("SLASHBOT_OPENROUTER_API_KEY", &c.Providers.OpenRouter.APIKey)
	envStr("SLASHBOT_GEMINI_API_KEY", &c.Providers.Gemini.APIKey)
	envStr("SLASHBOT_DEEPSEEK_API_KEY", &c.Providers.DeepSeek.APIKey)

	envStr("SLASHBOT_TELEGRAM_TOKEN", &c.Connectors.Telegram.Token)
	envStr("SLASHBOT_DISCORD_TOKEN", &c.Connectors.Discord.Token)
	if c.Connectors.Telegram.Token != "" {
		c.Connectors.Telegram.Enabled = true
	}
	if c.Connectors.Discord.Token != "" {
		c.Connectors.Discord.Enabled = true
	}

	envStr("SLASHBOT_PROVIDER", &c.Agents.Defaults.Provider)
	envStr("SLASHBOT_MODEL", &c.Agents.Defaults.Model)
	envStr("SLASHBOT_WORKSPACE", &c.Agents.Defaults.Workspace)
	envStr("SLASHBOT_SESSIONS_STORAGE", &c.Sessions.Storage)
	envStr("SLASHBOT_SCHEDULER_STORAGE", &c.Scheduler.Storage)

	if v := os.Getenv("SLASHBOT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agents.Defaults.MaxTokens = n
		}
	}
	if v := os.Getenv("SLASHBOT_TRACING_ENABLED"); v != "" {
		c.Tracing.Enabled = v == "true" || v == "1"
	}
}

// Save writes the config to a JSON file.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Hash returns a SHA-256 hash of the config for optimistic concurrency —
// the hot-reload watcher uses it to skip re-applying an unchanged file.
func (c *Config) Hash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, _ := json.Marshal(c)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}

// WorkspacePath returns the expanded workspace path.
func (c *Config) WorkspacePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Agents.Defaults.Workspace)
}

// ResolveAgent returns the effective config for a given agent ID,
// merging defaults with per-agent overrides.
func (c *Config) ResolveAgent(agentID string) AgentDefaults {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d := c.Agents.Defaults
	if spec, ok := c.Agents.List[agentID]; ok {
		if spec.Provider != "" {
			d.Provider = spec.Provider
		}
		if spec.Model != "" {
			d.Model = spec.Model
		}
		if spec.Workspace != "" {
			d.Workspace = spec.Workspace
		}
	}

	return d
}

// ResolveDefaultAgentID returns the ID of the agent marked as default,
// or DefaultAgentID if none is explicitly marked.
func (c *Config) ResolveDefaultAgentID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for id, spec := range c.Agents.List {
		if spec.Default {
			return id
		}
	}
	return DefaultAgentID
}

// ResolveDisplayName returns the display name for an agent, falling back to
// "Slashbot" if the agent has none configured.
func (c *Config) ResolveDisplayName(agentID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolveDisplayNameLocked(agentID)
}

func (c *Config) resolveDisplayNameLocked(agentID string) string {
	if spec, ok := c.Agents.List[agentID]; ok && spec.DisplayName != "" {
		return spec.DisplayName
	}
	return "Slashbot"
}

// ApplyEnvOverrides re-applies environment variable overrides onto the config.
// Call this after modifying config to restore runtime secrets from env vars.
func (c *Config) ApplyEnvOverrides() {
	c.applyEnvOverrides()
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
