package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keymap"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <keys>...",
	Short: "Evaluate a key sequence and print the display",
	Long: `Runs a key sequence on a fresh calculator, e.g.

  abacus eval "123 + 456 ="
  abacus eval 2 + 3 '*' 4 =

Operations fold left to right, so the second example prints 20.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		keys := keymap.Tokenize(strings.Join(args, " "))
		state, evalErr := app.Engine.Evaluate(cmd.Context(), keys)
		if evalErr != nil && !errors.Is(evalErr, domain.ErrDivideByZero) {
			return evalErr
		}

		display := state.Display()
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(display)
		}
		if display.History != "" {
			fmt.Fprintln(out, display.History)
		}
		fmt.Fprintln(out, display.Current)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().Bool("json", false, "Print the display as JSON")
}
