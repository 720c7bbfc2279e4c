package testchunk

import (
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// RuntimesFromFilePath reads a mapping of test relpaths to runtimes in seconds.
// JSON is the usual format, but YAML is accepted too.
func RuntimesFromFilePath(filePath string) (map[string]float64, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	runtimes := make(map[string]float64)
	if err := yaml.Unmarshal(data, &runtimes); err != nil {
		return nil, errors.WithMessagef(err, "error reading runtimes from %s", filePath)
	}
	return runtimes, nil
}

// runtimes returns the runtimes configured by a.Params, or an empty mapping if no runtimes file is set.
func (a *App) runtimes() (map[string]float64, error) {
	if a.Params.Runtimes.File == "" {
		return map[string]float64{}, nil
	}
	return RuntimesFromFilePath(a.Params.Runtimes.File)
}
