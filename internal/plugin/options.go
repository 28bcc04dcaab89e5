package plugin

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// decodeOptions decodes raw step options into out. Unknown keys are ignored
// so a configuration can carry options for newer plugin versions.
func decodeOptions(name string, in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       boolToStringHook,
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder for %s: %w", name, err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("malformed options for %s: %w", name, err)
	}
	return nil
}

// boolToStringHook keeps `release: false` as "false" rather than the "0"
// weak decoding would produce.
func boolToStringHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.Bool && to.Kind() == reflect.String {
		return strconv.FormatBool(data.(bool)), nil
	}
	return data, nil
}
