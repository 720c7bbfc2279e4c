package testchunk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	goslices "golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/internal/common/slices"
	"github.com/armadaproject/testchunk/pkg/testfilter"
)

// DescriptorFilesFromPatterns returns the files matching any of patterns, in pattern order.
// Each pattern must match at least one file. Files matched by several patterns are only returned once.
func DescriptorFilesFromPatterns(patterns []string) ([]string, error) {
	var filePaths []string
	for _, pattern := range patterns {
		matches, err := zglob.Glob(pattern)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.WithStack(err)
		}
		if len(matches) == 0 {
			return nil, errors.WithStack(&armadaerrors.ErrNotFound{
				Type:    "descriptor file",
				Value:   pattern,
				Message: "pattern matches no files",
			})
		}
		// zglob walks directories concurrently, so matches come back in no particular order.
		goslices.Sort(matches)
		filePaths = append(filePaths, matches...)
	}
	return slices.Unique(filePaths), nil
}

// LoadDescriptors reads the descriptors of every file matching patterns.
// Files are read concurrently, but tests are returned in file order and, within a file, in the order they're listed.
func LoadDescriptors(patterns []string) ([]*testfilter.Descriptor, error) {
	filePaths, err := DescriptorFilesFromPatterns(patterns)
	if err != nil {
		return nil, err
	}
	testsByFile := make([][]*testfilter.Descriptor, len(filePaths))
	g := new(errgroup.Group)
	for i, filePath := range filePaths {
		i, filePath := i, filePath
		g.Go(func() error {
			tests, err := DescriptorsFromFilePath(filePath)
			if err != nil {
				return err
			}
			testsByFile[i] = tests
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	tests := slices.Flatten(testsByFile)
	log.Debugf("loaded %d tests from %d files", len(tests), len(filePaths))
	return tests, nil
}

// DescriptorsFromFilePath reads descriptors from a YAML or JSON file holding either a list of tests
// or a mapping with the list under "tests".
func DescriptorsFromFilePath(filePath string) ([]*testfilter.Descriptor, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tests, err := DescriptorsFromBytes(data, filePath)
	if err != nil {
		return nil, errors.WithMessagef(err, "error reading descriptors from %s", filePath)
	}
	return tests, nil
}

// DescriptorsFromBytes decodes descriptors from YAML or JSON.
// Tests with no manifest are attributed to the manifest named source,
// and tests with no relpath get one derived from their path.
// All invalid entries are reported, not only the first one.
func DescriptorsFromBytes(data []byte, source string) ([]*testfilter.Descriptor, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithStack(err)
	}

	var entries []interface{}
	switch v := doc.(type) {
	case nil:
		return []*testfilter.Descriptor{}, nil
	case []interface{}:
		entries = v
	case map[string]interface{}:
		list, ok := v["tests"].([]interface{})
		if !ok {
			return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
				Name:    "tests",
				Value:   v["tests"],
				Message: "expected a list of tests",
			})
		}
		entries = list
	default:
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "descriptors",
			Value:   v,
			Message: "expected a list of tests or a mapping with a tests key",
		})
	}

	var result *multierror.Error
	tests := make([]*testfilter.Descriptor, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			result = multierror.Append(result, errors.WithStack(&armadaerrors.ErrInvalidArgument{
				Name:    "tests",
				Value:   entry,
				Message: fmt.Sprintf("test at index %d is not a mapping", i),
			}))
			continue
		}
		test, err := testfilter.DescriptorFromMap(m)
		if err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "error decoding test at index %d", i))
			continue
		}
		if test.RelPath == "" && test.Path != "" {
			test.RelPath = filepath.ToSlash(filepath.Clean(test.Path))
		}
		if test.Name == "" && test.RelPath != "" {
			test.Name = filepath.Base(test.RelPath)
		}
		if test.Manifest == "" {
			test.Manifest = source
		}
		tests = append(tests, test)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return tests, nil
}
