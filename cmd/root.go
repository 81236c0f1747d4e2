package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/nextlevelbuilder/slashbot/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile     string
	verbose     bool
	message     string
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "slashbot",
	Short: "Slashbot — a single-agent LLM runtime",
	Long:  "Slashbot: a streaming LLM turn engine with action-tag tool execution, reachable from a terminal TUI, a one-shot -m flag, or chat connectors (Telegram, Discord).",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("slashbot %s\n", Version)
			return nil
		}
		if message != "" {
			return runOneShot(message)
		}
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json or $SLASHBOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&message, "message", "m", "", "one-shot message; print the final reply and exit")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version information and exit")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(updateCheckCmd())
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("SLASHBOT_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
