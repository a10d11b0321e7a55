/*
Package domain contains the core value types of the framegraph engine.

It defines what flows on the edges of a pipeline graph and the vocabulary shared by
every other package: value kinds, node variants, port specifications, the typed
records produced by nodes, and the error taxonomy. This package is kept pure and
free of I/O so that the graph model, the scheduler and the adapters can all depend
on it.

# Key Entities

  - Kind: The closed set of value kinds a port can carry (image-buffer, number,
    landmark-set-list, metrics-record, control-record).
  - Variant: The closed set of node variants (source, face, hand, overlay, mapper, output).
  - PortSpec: The declared name, kind and direction of a port, fixed at construction.
  - Metrics / Control: The motion signal records derived from landmarks.
  - Snapshot: What the terminal node publishes once per tick.
*/
package domain
