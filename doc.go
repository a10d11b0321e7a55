/*
Package framegraph is a node-graph dataflow engine for per-frame video pipelines.

It turns a live frame stream into motion signals (face and hand landmarks, pinch
and jaw distances) and those signals into a continuously published output. The
pipeline is a directed acyclic graph of typed nodes that is evaluated once per
frame, in a deterministic order, while it stays mutable at runtime.

# Concept

Nodes expose typed ports. Edges route the last value published on an output port
to exactly one input port each. The graph rejects cycles and kind mismatches at
connection time, so a tick never fails for structural reasons. During a tick every
node runs exactly once, after all of its producers; a node that fails is isolated
and its outputs fall back to their kind defaults for that frame.

# Key Features

  - Deterministic Evaluation: The order is a stable topological sort, recomputed only when the topology changes.
  - Failure Isolation: Errors and panics inside a node never abort the tick.
  - Non-blocking Inference: Extractors can run inference on a background worker and reuse the last result.
  - Hexagonal Architecture: Capture, inference and publishing are ports with in-memory, HTTP and Redis adapters.

# Usage

	eng := framegraph.New(framegraph.WithDeps(nodes.Deps{
		Capture:   memory.NewCapture(640, 480),
		Face:      faceModel,
		Hand:      handModel,
		Publisher: recorder,
	}))
	if err := eng.Reset(); err != nil {
		log.Fatal(err)
	}

	r := runner.New(eng, runner.WithFPS(60))
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package framegraph
