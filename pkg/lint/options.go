package lint

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeOptions decodes rule options into out, a pointer to a struct with
// mapstructure tags. Fields missing from opts keep their current values, so
// callers fill out with defaults first. String values such as "false" from
// environment variables are converted to the field type.
func DecodeOptions(opts map[string]any, out any) error {
	if len(opts) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create options decoder: %w", err)
	}
	if err := dec.Decode(opts); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	return nil
}
