package framegraph_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/pkg/adapters/memory"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
)

// ExampleNew_default builds the standard pipeline against in-memory
// collaborators and evaluates a single frame.
func ExampleNew_default() {
	recorder := memory.NewRecorder(1)
	engine := framegraph.New(
		framegraph.WithTopology(framegraph.DefaultTopology()),
		framegraph.WithDeps(nodes.Deps{
			Capture:   memory.NewCapture(32, 24),
			Hand:      memory.Constant(memory.Hand(0.5, 0.5, 0.02)),
			Publisher: recorder,
		}),
	)
	defer engine.Close()

	if err := engine.Reset(); err != nil {
		log.Fatal(err)
	}

	view, _ := engine.Inspect()
	fmt.Println(view.Order)

	if _, err := engine.Tick(context.Background(), 1); err != nil {
		log.Fatal(err)
	}
	s := recorder.Snapshots()[0]
	fmt.Printf("frame=%d pinch=%.2f presence=%.0f trail=%d\n", s.Frame, s.Control.Pinch, s.Control.Presence, len(s.Trail))

	// Output:
	// [source face hand overlay mapper output]
	// frame=1 pinch=0.84 presence=1 trail=1
}

// ExampleEngine_Connect shows the type check applied to every edge.
func ExampleEngine_Connect() {
	engine := framegraph.New(framegraph.WithDeps(nodes.Deps{}))
	defer engine.Close()

	src, _ := engine.AddNode(domain.VariantSource, nil)
	out, _ := engine.AddNode(domain.VariantOutput, nil)

	_, err := engine.Connect(src, nodes.PortTimestamp, out, nodes.PortImage)
	fmt.Println(err != nil)

	id, err := engine.Connect(src, nodes.PortFrame, out, nodes.PortImage)
	fmt.Println(id, err)

	// Output:
	// true
	// e1 <nil>
}
