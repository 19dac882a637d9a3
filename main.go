package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	exitCode := ExitSuccess
	rootCmd := newRootCmd(&exitCode)
	if err := rootCmd.Execute(); err != nil {
		if exitCode == ExitSuccess {
			exitCode = ExitPartialFailure
		}
	}
	return exitCode
}

func newRootCmd(exitCode *int) *cobra.Command {
	var (
		configPath    string
		headless      bool
		noInteractive bool
		debug         bool
	)

	rootCmd := &cobra.Command{
		Use:   "hoyodaily [auth|checkin|redeem]...",
		Short: "Unattended HoYoLab daily check-in and code redemption",
		Long: "hoyodaily claims the daily check-in reward for the enabled HoYoverse games and\n" +
			"discovers and redeems promotional codes, reusing a persisted login session across\n" +
			"runs. Operations are executed in the order given, e.g. `hoyodaily checkin redeem`.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := ParseOperations(args)
			if err != nil {
				return err
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				*exitCode = ExitStorageFailure
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cmd.Flags().Changed("headless") {
				config.Headless = headless
			}
			if noInteractive {
				config.AllowInteractiveLogin = false
			}
			if debug {
				config.DebugMode = true
			}

			SetupLogging(config.LogFile, config.DebugMode)

			store := NewSessionStore(config.SessionPath)
			ledger, err := LoadLedger(config.LedgerPath)
			if err != nil {
				*exitCode = ExitStorageFailure
				return err
			}

			sessions := NewSessionManager(config, store)
			source := NewHoyolabCodeSource(config)
			orchestrator := NewOrchestrator(config, sessions, ledger, source)

			report := orchestrator.Run(ops)
			report.Render(cmd.OutOrStdout())

			*exitCode = report.ExitCode()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "run probe and driver browsing headless")
	rootCmd.PersistentFlags().BoolVar(&noInteractive, "no-interactive", false, "never open a visible browser; a required login becomes a fatal error")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	return rootCmd
}
