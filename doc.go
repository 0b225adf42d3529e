/*
Package abacus is the arithmetic core of a four-function calculator.

It folds a stream of key presses (digits, decimal point, operators and commands) into a
running two-operand result, evaluated strictly left to right with at most one pending
operator. Pressing an operator straight after a second operand continues the chain, so
5 + 3 + 2 = evaluates as (5+3)+2.

# Concept

The accumulator is a plain value (domain.State). The engine never keeps it: every call
takes the state and returns the next one, which lets the same engine back a terminal,
an HTTP API or an agent tool server while sessions live in memory, on disk or in Redis.

# Usage

	eng := abacus.New()
	ctx := context.Background()

	state := eng.Start(ctx, "session-1")
	for _, key := range []string{"7", "*", "6", "Enter"} {
		var err error
		state, err = eng.Press(ctx, state, key)
		if err != nil {
			log.Fatal(err)
		}
	}

	d := state.Display()
	fmt.Println(d.History, d.Current) // 7 × 6 = 42

Dividing by zero returns domain.ErrDivideByZero. The arithmetic state is left untouched,
an error display is latched on the returned state, and the next input (or Settle once
the error delay has passed) clears it.
*/
package abacus
