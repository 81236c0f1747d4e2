package config

// ConnectorsConfig contains per-connector configuration. Only the two
// platforms the connector router actually implements are named here;
// a connector with Enabled=false is never started.
type ConnectorsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

// TelegramConfig configures the Telegram connector.
type TelegramConfig struct {
	Enabled        bool                `json:"enabled"`
	Token          string              `json:"token"`
	AllowFrom      FlexibleStringSlice `json:"allow_from"`
	DMPolicy       string              `json:"dm_policy,omitempty"`      // "pairing" (default), "allowlist", "open", "disabled"
	GroupPolicy    string              `json:"group_policy,omitempty"`   // "open" (default), "allowlist", "disabled"
	RequireMention *bool               `json:"require_mention,omitempty"` // require @bot mention in groups (default true)
}

// DiscordConfig configures the Discord connector.
type DiscordConfig struct {
	Enabled        bool                `json:"enabled"`
	Token          string              `json:"token"`
	AllowFrom      FlexibleStringSlice `json:"allow_from"`
	DMPolicy       string              `json:"dm_policy,omitempty"`
	GroupPolicy    string              `json:"group_policy,omitempty"`
	RequireMention *bool               `json:"require_mention,omitempty"`
}

// ToolsConfig controls action-tag availability and approval policy.
type ToolsConfig struct {
	Allow         []string        `json:"allow,omitempty"` // global allow list (tag names or "group:xxx")
	Deny          []string        `json:"deny,omitempty"`  // global deny list
	ExecApproval  ExecApprovalCfg `json:"execApproval,omitempty"`
	FormatCmd     string          `json:"formatCmd,omitempty"`    // shell command the format{} action runs
	TypecheckCmd  string          `json:"typecheckCmd,omitempty"` // shell command the typecheck{} action runs
}

// ExecApprovalCfg holds a command-approval policy for shell commands. It is
// loaded and saved with the config; the bash executor does not read it.
type ExecApprovalCfg struct {
	Security  string   `json:"security,omitempty"`  // "deny", "allowlist", "full" (default "full")
	Ask       string   `json:"ask,omitempty"`       // "off", "on-miss", "always" (default "off")
	Allowlist []string `json:"allowlist,omitempty"` // glob patterns for allowed commands
}
