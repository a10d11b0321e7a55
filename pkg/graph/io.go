package graph

import (
	"fmt"
	"image"

	"github.com/aretw0/framegraph/pkg/domain"
)

// IO is the view a node gets of its own ports during Execute.
// Getters return the kind's zero value when a port is missing or empty.
type IO struct {
	entry *Entry
}

// NewIO wraps an entry for execution.
func NewIO(e *Entry) *IO {
	return &IO{entry: e}
}

// NodeID returns the ID of the executing node.
func (io *IO) NodeID() domain.NodeID { return io.entry.ID }

// Connected reports whether the named input has an incoming edge.
func (io *IO) Connected(name string) bool {
	p := io.entry.Port(name)
	return p != nil && p.Connected()
}

// Value returns the raw value held by the named port.
func (io *IO) Value(name string) any {
	if p := io.entry.Port(name); p != nil {
		return p.value
	}
	return nil
}

func (io *IO) Image(name string) *image.RGBA {
	v, _ := io.Value(name).(*image.RGBA)
	return v
}

func (io *IO) Number(name string) float64 {
	v, _ := io.Value(name).(float64)
	return v
}

func (io *IO) Landmarks(name string) domain.LandmarkSetList {
	v, _ := io.Value(name).(domain.LandmarkSetList)
	return v
}

func (io *IO) Metrics(name string) *domain.Metrics {
	v, _ := io.Value(name).(*domain.Metrics)
	return v
}

func (io *IO) Control(name string) domain.Control {
	v, _ := io.Value(name).(domain.Control)
	return v
}

// Set publishes v on the named output port. The value must match the port kind.
func (io *IO) Set(name string, v any) error {
	p := io.entry.Port(name)
	if p == nil {
		return fmt.Errorf("%w: %s.%s", domain.ErrPortNotFound, io.entry.ID, name)
	}
	if p.Direction() != domain.Output {
		return fmt.Errorf("%w: %s.%s is not an output", domain.ErrInvalidPort, io.entry.ID, name)
	}
	if !p.Kind().Accepts(v) {
		return fmt.Errorf("%w: %s.%s wants %s, got %T", domain.ErrTypeMismatch, io.entry.ID, name, p.Kind(), v)
	}
	if v == nil {
		// Untyped nil normalizes to the kind's typed zero.
		p.reset()
		return nil
	}
	p.value = v
	return nil
}
