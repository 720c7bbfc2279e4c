package config

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		StringToScalarMapHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)),
}

// StringToScalarMapHookFunc decodes "a=1,b=true" (or a slice of "k=v" strings)
// into a map[string]interface{}, converting each value with ParseScalar.
// Environment variables only ever carry strings, so this is how maps reach the config from the environment.
func StringToScalarMapHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != reflect.TypeOf(map[string]interface{}{}) {
			return data, nil
		}
		var pairs []string
		switch v := data.(type) {
		case string:
			if v == "" {
				return map[string]interface{}{}, nil
			}
			pairs = strings.Split(v, ",")
		case []string:
			pairs = v
		default:
			return data, nil
		}
		return ParseKeyValues(pairs)
	}
}

// ParseKeyValues parses "key=value" strings into a map, converting values with ParseScalar.
func ParseKeyValues(pairs []string) (map[string]interface{}, error) {
	rv := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Errorf("expected key=value but got %q", pair)
		}
		rv[strings.TrimSpace(k)] = ParseScalar(strings.TrimSpace(v))
	}
	return rv, nil
}

// ParseScalar converts s into a bool or int64 if it looks like one; otherwise s is returned unchanged.
func ParseScalar(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}
