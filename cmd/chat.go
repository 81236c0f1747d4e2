package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/slashbot/internal/agent"
	"github.com/nextlevelbuilder/slashbot/internal/config"
	"github.com/nextlevelbuilder/slashbot/internal/display/console"
)

func chatCmd() *cobra.Command {
	var agentName string
	var sessionKey string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(agentName, sessionKey)
		},
	}
	cmd.Flags().StringVar(&agentName, "agent", "", "agent id (defaults to the config's default agent)")
	cmd.Flags().StringVar(&sessionKey, "session", "", "session key (defaults to a fresh one)")
	return cmd
}

// runOneShot implements `slashbot -m "<msg>"`: one turn, print the reply,
// exit 0 on success and non-zero on error.
func runOneShot(message string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	con := console.New(os.Stdout, os.Stderr)
	rt := newRuntime(cfg, con)
	loop, err := rt.loop(cfg.ResolveDefaultAgentID())
	if err != nil {
		return err
	}

	result, err := loop.Chat(context.Background(), message, agent.ChatOptions{})
	if err != nil {
		return err
	}
	fmt.Println(result.FinalText)
	return nil
}

// runChat drives an interactive REPL against one agent: the way the turn
// engine is meant to be exercised outside of a bound TUI or connector.
func runChat(agentName, sessionKey string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if agentName == "" {
		agentName = cfg.ResolveDefaultAgentID()
	}
	if sessionKey == "" {
		sessionKey = agentName + ":" + uuid.NewString()[:8]
	}

	con := console.New(os.Stdout, os.Stderr)
	rt := newRuntime(cfg, con)
	loop, err := rt.loop(agentName)
	if err != nil {
		return err
	}

	if watcher, err := rt.watchConfig(resolveConfigPath()); err == nil {
		defer watcher.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rt.startServices(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer rt.stopServices(context.Background())

	fmt.Fprintf(os.Stderr, "\nSlashbot — %s (%s)\n", agentName, loop.Model())
	fmt.Fprintf(os.Stderr, "Session: %s\n", sessionKey)
	fmt.Fprintf(os.Stderr, "Type \"exit\" to quit, \"/new\" for a fresh session.\n\n")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			return nil
		default:
		}

		fmt.Fprint(os.Stderr, "You: ")
		if !scanner.Scan() {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(os.Stderr, "Goodbye!")
			return nil
		}
		if input == "/new" {
			sessionKey = agentName + ":" + uuid.NewString()[:8]
			fmt.Fprintf(os.Stderr, "New session: %s\n\n", sessionKey)
			continue
		}

		// re-fetched each turn so a config hot-reload mid-session is picked up
		active, err := rt.loop(agentName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			continue
		}
		result, err := active.Chat(ctx, input, agent.ChatOptions{SessionKey: sessionKey})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", result.FinalText)
	}
}

// runTUI is the bound-late bare-invocation surface `slashbot` launches
// into. No dedicated bubbletea screen is built: charmbracelet/bubbletea,
// bubbles, and lipgloss are pulled in only indirectly (via huh) and never
// imported directly, so this falls back to the same interactive REPL
// `slashbot chat` drives.
func runTUI() error {
	return runChat("", "")
}
