/*
Package runner drives an accumulator from a terminal.

It reads user input, feeds it to the engine one key at a time, shows the display after
every change and clears a latched error display once its delay has passed. State is kept
in memory or, when a session manager is configured, persisted after every change.

# Input modes

  - Line mode (default): each line is split into keys with keymap.Tokenize, so
    "12 + 3 =" and "12+3=" both work. "help" shows the key table, "quit" leaves.
  - Key mode: single keystrokes from a raw terminal (see MakeRaw), decoded by KeyReader.

# Usage

	r := runner.New(engine,
		runner.WithInput(os.Stdin),
		runner.WithScreen(tui.NewDisplay(os.Stdout)),
		runner.WithSessions(manager, "desk"),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
