/*
Package ports defines the driven ports (interfaces) for the Abacus engine.

These interfaces decouple the accumulator from the hosts that drive it and the
backends that persist it.

# Key Interfaces

  - Calculator: the dispatch surface used by adapters (HTTP, MCP, terminal runner).
  - StateStore: persists and loads accumulator State per session.
  - DistributedLocker: serializes access to one session across replicas.
*/
package ports
