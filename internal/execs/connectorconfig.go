package execs

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

// ConnectorConfigFunc applies a runtime configuration change to one
// connector (e.g. adding an authorized target, setting the primary
// target) and reports the applied state as a human-readable summary.
type ConnectorConfigFunc func(ctx context.Context, attrs map[string]string) (string, error)

// TelegramConfigExecutor implements telegram-config{...}.
type TelegramConfigExecutor struct {
	apply ConnectorConfigFunc
}

func NewTelegramConfigExecutor(apply ConnectorConfigFunc) *TelegramConfigExecutor {
	return &TelegramConfigExecutor{apply: apply}
}

func (e *TelegramConfigExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	return applyConnectorConfig(ctx, "telegram", e.apply, action)
}

var _ actions.Executor = (*TelegramConfigExecutor)(nil)

// DiscordConfigExecutor implements discord-config{...}.
type DiscordConfigExecutor struct {
	apply ConnectorConfigFunc
}

func NewDiscordConfigExecutor(apply ConnectorConfigFunc) *DiscordConfigExecutor {
	return &DiscordConfigExecutor{apply: apply}
}

func (e *DiscordConfigExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	return applyConnectorConfig(ctx, "discord", e.apply, action)
}

var _ actions.Executor = (*DiscordConfigExecutor)(nil)

func applyConnectorConfig(ctx context.Context, connectorID string, apply ConnectorConfigFunc, action actions.Action) (kernel.ToolResult, error) {
	if apply == nil {
		return kernel.ErrResult(kernel.ErrNotFound, fmt.Sprintf("%s connector is not configured", connectorID), ""), nil
	}
	if len(action.Attrs) == 0 {
		return kernel.ErrResult(kernel.ErrPatternNotFound, fmt.Sprintf("%s-config requires at least one attribute", connectorID), ""), nil
	}

	summary, err := apply(ctx, action.Attrs)
	if err != nil {
		return kernel.ErrResult(kernel.ErrDenied, err.Error(), ""), nil
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  summary,
		ForUser: fmt.Sprintf("%s-config: %s", connectorID, strings.TrimSpace(summary)),
	}, nil
}
