package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/slashbot/internal/upgrade"
)

const releaseRepo = "nextlevelbuilder/slashbot"

func updateCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-check",
		Short: "Check whether a newer release is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := upgrade.CheckLatest(context.Background(), releaseRepo, Version)
			if err != nil {
				return err
			}
			fmt.Print(upgrade.FormatStatus(status))
			return nil
		},
	}
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check for and report the latest release",
		Long:  "Reports the latest published release. Slashbot does not self-replace its own binary; reinstall via your package manager or release download.",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := upgrade.CheckLatest(context.Background(), releaseRepo, Version)
			if err != nil {
				return err
			}
			fmt.Print(upgrade.FormatStatus(status))
			if !status.UpToDate {
				fmt.Fprintf(os.Stderr, "Download the new release from the URL above.\n")
			}
			return nil
		},
	}
}
