/*
Package domain contains the core domain models of the Abacus calculator engine.

It defines the accumulator state folded by the engine, the operators it understands,
the inputs fed into it and the pure formatting rules used to present numbers.
This package is kept pure and free of I/O or persistence concerns so every adapter
(CLI, HTTP, MCP, storage) can share the same vocabulary.

# Key Entities

  - State: the accumulator record (current operand, pending operand and operator, flags, history).
  - Operator: one of add, subtract, multiply, divide.
  - Input: a single event fed to the engine (digit, decimal point, operator or command).
  - Display: the rendered pair shown to the user (current line and history line).
  - StateDiff: the incremental change between two displays, streamed to subscribers.
*/
package domain
