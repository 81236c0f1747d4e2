package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/slashbot/internal/config"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [api-key]",
		Short: "Persist an LLM provider's API key to config.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var apiKey string
			if len(args) == 1 {
				apiKey = args[0]
			}
			return runLogin(apiKey)
		},
	}
	return cmd
}

func runLogin(apiKey string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	provider := cfg.Agents.Defaults.Provider

	if apiKey == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Provider").
					Options(
						huh.NewOption("Anthropic", "anthropic"),
						huh.NewOption("OpenAI", "openai"),
						huh.NewOption("OpenRouter", "openrouter"),
						huh.NewOption("Gemini", "gemini"),
						huh.NewOption("DeepSeek", "deepseek"),
					).
					Value(&provider),
				huh.NewInput().
					Title("API key").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	if apiKey == "" {
		return fmt.Errorf("login: no API key provided")
	}

	setProviderKey(cfg, provider, apiKey)
	cfg.Agents.Defaults.Provider = provider

	path := resolveConfigPath()
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Saved %s credentials to %s\n", provider, path)
	return nil
}

func setProviderKey(cfg *config.Config, provider, key string) {
	switch provider {
	case "anthropic":
		cfg.Providers.Anthropic.APIKey = key
	case "openai":
		cfg.Providers.OpenAI.APIKey = key
	case "openrouter":
		cfg.Providers.OpenRouter.APIKey = key
	case "gemini":
		cfg.Providers.Gemini.APIKey = key
	case "deepseek":
		cfg.Providers.DeepSeek.APIKey = key
	}
}
