package testchunk

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/pkg/testfilter"
)

// WriteDescriptors writes tests to w in the given format.
// The json and yaml formats can be read back by LoadDescriptors.
func WriteDescriptors(w io.Writer, format string, tests []*testfilter.Descriptor) error {
	if tests == nil {
		tests = []*testfilter.Descriptor{}
	}
	switch format {
	case "", FormatJSON:
		data, err := json.MarshalIndent(tests, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return errors.WithStack(err)
	case FormatYAML:
		data, err := yaml.Marshal(tests)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = w.Write(data)
		return errors.WithStack(err)
	case FormatText:
		tw := tabwriter.NewWriter(w, 1, 1, 2, ' ', 0)
		fmt.Fprintf(tw, "TEST\tMANIFEST\tSTATUS\tEXPECTED\n")
		for _, test := range tests {
			status := "enabled"
			if test.IsDisabled() {
				status = "disabled"
				if reason := test.DisabledReason(); reason != "" {
					status += " (" + reason + ")"
				}
			}
			expected := test.Expected
			if expected == "" {
				expected = "pass"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", test, test.Manifest, status, expected)
		}
		return errors.WithStack(tw.Flush())
	default:
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "output.format",
			Value:   format,
			Message: "must be one of json, yaml or text",
		})
	}
}
