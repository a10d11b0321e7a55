package nodes

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/framegraph/pkg/domain"
)

// decodeConfig fills out from a node's configuration bag. Unknown keys are
// rejected so typos ("mirorr") fail at construction instead of being ignored.
func decodeConfig(variant domain.Variant, raw map[string]any, out any) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %s config: %w", domain.ErrInvalidNode, variant, err)
	}
	return nil
}

// encodeConfig turns a typed config back into a bag for introspection.
func encodeConfig(in any) map[string]any {
	out := map[string]any{}
	if err := mapstructure.Decode(in, &out); err != nil {
		return nil
	}
	return out
}
