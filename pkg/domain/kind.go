package domain

import (
	"fmt"
	"image"
)

// Kind is the declared type of a port. The set is closed: there is no implicit
// coercion between kinds, and a port's kind never changes after creation.
type Kind int

const (
	KindInvalid Kind = iota
	// KindImage carries a *image.RGBA. nil means "no frame".
	KindImage
	// KindNumber carries a float64.
	KindNumber
	// KindLandmarks carries a LandmarkSetList. nil means "no detection ran".
	KindLandmarks
	// KindMetrics carries a *Metrics. nil means "no signal", never zero.
	KindMetrics
	// KindControl carries a Control record. Its zero value is the neutral record.
	KindControl
)

var kindNames = map[Kind]string{
	KindImage:     "image-buffer",
	KindNumber:    "number",
	KindLandmarks: "landmark-set-list",
	KindMetrics:   "metrics-record",
	KindControl:   "control-record",
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindImage, KindNumber, KindLandmarks, KindMetrics, KindControl}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves a kind from its wire name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText encodes the kind by name (used by JSON and YAML encoders).
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind from its name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Zero returns the empty value a port of this kind holds before its first
// publication, and after its node failed.
func (k Kind) Zero() any {
	switch k {
	case KindImage:
		return (*image.RGBA)(nil)
	case KindNumber:
		return float64(0)
	case KindLandmarks:
		return LandmarkSetList(nil)
	case KindMetrics:
		return (*Metrics)(nil)
	case KindControl:
		return Control{}
	}
	return nil
}

// Accepts reports whether v may be published on a port of kind k.
// An untyped nil is accepted by the nullable kinds (image, landmarks, metrics).
func (k Kind) Accepts(v any) bool {
	if v == nil {
		return k.Nullable()
	}
	switch v.(type) {
	case *image.RGBA:
		return k == KindImage
	case float64:
		return k == KindNumber
	case LandmarkSetList:
		return k == KindLandmarks
	case *Metrics:
		return k == KindMetrics
	case Control:
		return k == KindControl
	}
	return false
}

// Nullable reports whether the kind has a "no data" state distinct from its zero.
func (k Kind) Nullable() bool {
	return k == KindImage || k == KindLandmarks || k == KindMetrics
}
