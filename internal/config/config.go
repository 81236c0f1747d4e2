// Package config loads and hot-reloads slashbot's config.json using a
// layered sub-config-struct style.
package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for a slashbot process.
type Config struct {
	Agents     AgentsConfig     `json:"agents"`
	Connectors ConnectorsConfig `json:"connectors"`
	Providers  ProvidersConfig  `json:"providers"`
	Tools      ToolsConfig      `json:"tools"`
	Sessions   SessionsConfig   `json:"sessions"`
	Scheduler  SchedulerConfig  `json:"scheduler,omitempty"`
	Tracing    TracingConfig    `json:"tracing,omitempty"`

	mu sync.RWMutex
}

// AgentsConfig contains agent defaults and the per-agent roster.
type AgentsConfig struct {
	Defaults AgentDefaults        `json:"defaults"`
	List     map[string]AgentSpec `json:"list,omitempty"`

	// Subagents is a table of ephemeral profiles distinct from List: a
	// name here is resolvable by agent-send's to attribute the same way a
	// persistent agent id is, but the agent it builds is never part of
	// the standing multi-agent roster and is bounded by MaxConcurrentSubagents.
	Subagents    map[string]SubagentProfile `json:"subagents,omitempty"`
	MaxConcurrentSubagents int               `json:"max_concurrent_subagents,omitempty"`
}

// SubagentProfile describes one on-demand worker persona: a name
// resolvable by agent-send's to attribute without a standing entry in
// AgentsConfig.List.
type SubagentProfile struct {
	Responsibility string `json:"responsibility"`
	Personality    string `json:"personality,omitempty"`
	Model          string `json:"model,omitempty"`
}

// AgentDefaults are the settings every agent profile inherits unless
// overridden by its own AgentSpec entry.
type AgentDefaults struct {
	Workspace           string  `json:"workspace"`
	RestrictToWorkspace bool    `json:"restrict_to_workspace"`
	Provider            string  `json:"provider"`
	Model               string  `json:"model"`
	MaxTokens           int     `json:"max_tokens"`
	Temperature         float64 `json:"temperature"`
	ContextWindow       int     `json:"context_window"`
	MaxContextMessages  int     `json:"max_context_messages,omitempty"`
	MaxImages           int     `json:"max_images,omitempty"`
	MaxDuplicateReads   int     `json:"max_duplicate_reads,omitempty"`
}

// AgentSpec is the per-agent configuration override. Zero-value fields
// mean "inherit from AgentDefaults".
type AgentSpec struct {
	DisplayName    string              `json:"displayName,omitempty"`
	Responsibility string              `json:"responsibility,omitempty"`
	Personality    string              `json:"personality,omitempty"`
	Provider       string              `json:"provider,omitempty"`
	Model          string              `json:"model,omitempty"`
	Workspace      string              `json:"workspace,omitempty"`
	ToolIDs        []string            `json:"toolIds,omitempty"`
	Default        bool                `json:"default,omitempty"`
	QualityGates   []QualityGateConfig `json:"qualityGates,omitempty"`
}

// QualityGateConfig describes one post-delegation check run after an
// agent-send{to} turn completes. Off by default: an agent with no
// QualityGates entries never pays for the extra round trip.
type QualityGateConfig struct {
	Contains       string `json:"contains"`                 // substring the reply must contain to pass; empty always passes
	BlockOnFailure bool   `json:"blockOnFailure,omitempty"`  // retry the delegate instead of just logging
	MaxRetries     int    `json:"maxRetries,omitempty"`      // retries before accepting the result anyway
}

// ProvidersConfig maps provider name to its credentials.
type ProvidersConfig struct {
	Anthropic  ProviderConfig `json:"anthropic"`
	OpenAI     ProviderConfig `json:"openai"`
	OpenRouter ProviderConfig `json:"openrouter"`
	Gemini     ProviderConfig `json:"gemini"`
	DeepSeek   ProviderConfig `json:"deepseek"`
}

// ProviderConfig holds one LLM provider's credentials and endpoint override.
type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base,omitempty"`
}

// HasAnyProvider returns true if at least one provider has an API key.
func (c *Config) HasAnyProvider() bool {
	p := c.Providers
	return p.Anthropic.APIKey != "" || p.OpenAI.APIKey != "" ||
		p.OpenRouter.APIKey != "" || p.Gemini.APIKey != "" || p.DeepSeek.APIKey != ""
}

// SessionsConfig controls conversation-history persistence.
type SessionsConfig struct {
	Storage string `json:"storage"`           // directory for session files
	Scope   string `json:"scope,omitempty"`   // "per-sender" (default), "global"
	DmScope string `json:"dm_scope,omitempty"`
}

// SchedulerConfig controls the scheduled-task coordination loop.
type SchedulerConfig struct {
	Storage string `json:"storage,omitempty"` // tasks.json path
}

// TracingConfig controls OpenTelemetry span emission.
type TracingConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
// Used by the hot-reload watcher to swap in a freshly parsed config without
// invalidating pointers callers already hold to c.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Agents = src.Agents
	c.Connectors = src.Connectors
	c.Providers = src.Providers
	c.Tools = src.Tools
	c.Sessions = src.Sessions
	c.Scheduler = src.Scheduler
	c.Tracing = src.Tracing
}
