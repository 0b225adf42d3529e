package main

import (
	"context"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the calculator in the terminal",
	Long: `Starts an interactive calculator. In line mode every line is split into keys
("12 + 3 =" or "12+3="); with --keys single keystrokes are read from the terminal.
With --session the accumulator is saved to the configured store after every change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		keys, _ := cmd.Flags().GetBool("keys")
		demo, _ := cmd.Flags().GetBool("demo")
		quiet, _ := cmd.Flags().GetBool("quiet")

		build := newApp
		if sessionID != "" {
			build = newPersistentApp
		}
		app, err := build(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunSession(sigCtx, app, cli.RunOptions{
			SessionID: sessionID,
			Keys:      keys,
			Demo:      demo,
			Quiet:     quiet,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Persist the accumulator under this session ID")
	runCmd.Flags().BoolP("keys", "k", false, "Read single keystrokes instead of lines")
	runCmd.Flags().Bool("demo", false, "Play the 123 + 456 = demo calculation")
	runCmd.Flags().BoolP("quiet", "q", false, "Hide the banner and system messages")

	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = runCmd.RunE
}
