/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing framegraph topologies.

It lets developers declare nodes and their wiring with a fluent builder instead of listing every
port pair in YAML, and the result replays onto any engine. Nodes keep their declaration order, so
edge IDs assigned on replay are stable.

Example usage:

	package main

	import (
		"github.com/aretw0/framegraph"
		"github.com/aretw0/framegraph/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.Source("cam")
		b.Hand("hand").Sync().Watch("cam")
		b.Mapper("mapper").Hand("hand")
		b.Output("out").Trail(0.1, 16).Control("mapper")

		topology, err := b.Build()
		if err != nil {
			panic(err)
		}

		eng := framegraph.New(framegraph.WithTopology(topology))
		// ... eng.Reset() replays it
	}
*/
package dsl
