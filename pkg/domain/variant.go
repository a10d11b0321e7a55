package domain

import "fmt"

// Variant is the closed enumeration of node kinds the engine knows how to build.
type Variant string

const (
	// VariantSource reads the capture collaborator. No inputs.
	VariantSource Variant = "source"
	// VariantFace extracts face landmarks and the jaw metric.
	VariantFace Variant = "face"
	// VariantHand extracts hand landmarks and the pinch metric.
	VariantHand Variant = "hand"
	// VariantOverlay draws landmarks over a copy of the frame.
	VariantOverlay Variant = "overlay"
	// VariantMapper turns metrics into a control record.
	VariantMapper Variant = "mapper"
	// VariantOutput publishes the frame and control record. No outputs.
	VariantOutput Variant = "output"
)

// Variants lists every variant in declaration order.
func Variants() []Variant {
	return []Variant{VariantSource, VariantFace, VariantHand, VariantOverlay, VariantMapper, VariantOutput}
}

// ParseVariant validates a variant name.
func ParseVariant(name string) (Variant, error) {
	for _, v := range Variants() {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// NodeID identifies a node within one graph.
type NodeID string

// EdgeID identifies an edge within one graph.
type EdgeID string

// Direction tells input ports from output ports.
type Direction int

const (
	Input Direction = iota + 1
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	}
	return "unknown"
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction from its name.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "input":
		*d = Input
	case "output":
		*d = Output
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidPort, text)
	}
	return nil
}

// PortSpec declares a port. Nodes return their specs at construction and the
// graph turns them into ports; specs never change afterwards.
type PortSpec struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Direction Direction `json:"direction"`
}

// In declares an input port.
func In(name string, kind Kind) PortSpec {
	return PortSpec{Name: name, Kind: kind, Direction: Input}
}

// Out declares an output port.
func Out(name string, kind Kind) PortSpec {
	return PortSpec{Name: name, Kind: kind, Direction: Output}
}

// Edge routes the value of one output port to one input port.
// Edges carry no state of their own.
type Edge struct {
	ID       EdgeID `json:"id"`
	From     NodeID `json:"from"`
	FromPort string `json:"from_port"`
	To       NodeID `json:"to"`
	ToPort   string `json:"to_port"`
	Kind     Kind   `json:"kind"`
}
