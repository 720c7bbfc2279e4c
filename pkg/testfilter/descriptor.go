package testfilter

import (
	"encoding/json"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// ExpectedFail is the value fail-if assigns to Descriptor.Expected.
const ExpectedFail = "fail"

// Descriptor is the metadata of one test.
type Descriptor struct {
	// Name of the test, usually the file name.
	Name string `mapstructure:"name"`
	// Filesystem path of the test.
	Path string `mapstructure:"path"`
	// Path relative to the suite root. Used by the directory and runtime chunkers.
	RelPath string `mapstructure:"relpath"`
	// Identifies the manifest the test was declared in.
	Manifest string `mapstructure:"manifest"`
	// Either a subsuite name or "name,condition".
	Subsuite string `mapstructure:"subsuite"`
	// Whitespace-separated tags.
	Tags string `mapstructure:"tags"`
	// Condition expressions.
	SkipIf string `mapstructure:"skip-if"`
	RunIf  string `mapstructure:"run-if"`
	FailIf string `mapstructure:"fail-if"`
	// Non-nil if the test is disabled; the value is the reason, possibly empty.
	Disabled *string `mapstructure:"disabled"`
	// Expected outcome, e.g. ExpectedFail.
	Expected string `mapstructure:"expected"`
	// Any other keys, passed through untouched.
	Extra map[string]interface{} `mapstructure:",remain"`
}

var knownKeys = map[string]bool{
	"name":     true,
	"path":     true,
	"relpath":  true,
	"manifest": true,
	"subsuite": true,
	"tags":     true,
	"skip-if":  true,
	"run-if":   true,
	"fail-if":  true,
	"disabled": true,
	"expected": true,
}

// IsDisabled reports whether the test is disabled.
func (d *Descriptor) IsDisabled() bool {
	return d.Disabled != nil
}

// Disable marks the test as disabled for the given reason.
func (d *Descriptor) Disable(reason string) {
	d.Disabled = &reason
}

// Enable clears the disabled flag.
func (d *Descriptor) Enable() {
	d.Disabled = nil
}

// DisabledReason returns the reason the test is disabled, or "" if it isn't.
func (d *Descriptor) DisabledReason() string {
	if d.Disabled == nil {
		return ""
	}
	return *d.Disabled
}

// String identifies the test in logs and error messages.
func (d *Descriptor) String() string {
	switch {
	case d.RelPath != "":
		return d.RelPath
	case d.Path != "":
		return d.Path
	default:
		return d.Name
	}
}

// ToMap returns the descriptor as a flat mapping, with Extra merged in at the top level.
// Empty fields are omitted; a disabled test always carries the "disabled" key.
func (d *Descriptor) ToMap() map[string]interface{} {
	rv := make(map[string]interface{}, len(d.Extra)+len(knownKeys))
	for k, v := range d.Extra {
		rv[k] = v
	}
	for k, v := range map[string]string{
		"name":     d.Name,
		"path":     d.Path,
		"relpath":  d.RelPath,
		"manifest": d.Manifest,
		"subsuite": d.Subsuite,
		"tags":     d.Tags,
		"skip-if":  d.SkipIf,
		"run-if":   d.RunIf,
		"fail-if":  d.FailIf,
		"expected": d.Expected,
	} {
		if v != "" {
			rv[k] = v
		}
	}
	if d.Disabled != nil {
		rv["disabled"] = *d.Disabled
	}
	return rv
}

func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToMap())
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	decoded, err := DescriptorFromMap(m)
	if err != nil {
		return err
	}
	*d = *decoded
	return nil
}

// DescriptorFromMap decodes a generic mapping, e.g. as produced by a YAML or JSON decoder.
// Keys that are not fields of Descriptor end up in Extra. A list of tags is joined with spaces;
// other scalar values are converted to strings where a string is expected.
// A "disabled" key disables the test whatever its value, including null.
func DescriptorFromMap(m map[string]interface{}) (*Descriptor, error) {
	d := &Descriptor{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       joinSliceHookFunc(),
		WeaklyTypedInput: true,
		Result:           d,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(d.Extra) == 0 {
		d.Extra = nil
	}
	// The key disables the test even with no value, e.g. a bare "disabled:" in YAML.
	if v, ok := m["disabled"]; ok && v == nil {
		d.Disable("")
	}
	return d, nil
}

// joinSliceHookFunc decodes a list of scalars into a space-separated string.
func joinSliceHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t.Kind() != reflect.String || (f.Kind() != reflect.Slice && f.Kind() != reflect.Array) {
			return data, nil
		}
		v := reflect.ValueOf(data)
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			var s string
			if err := mapstructure.WeakDecode(v.Index(i).Interface(), &s); err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	}
}

// normalizePath cleans p and converts it to forward slashes; "" stays "".
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(p))
}
