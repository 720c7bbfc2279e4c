package testfilter

import (
	"fmt"

	"github.com/armadaproject/testchunk/pkg/expression"
)

func reason(s string) *string {
	return &s
}

// suite returns one enabled test per relpath, each in a manifest named after its directory.
func suite(relPaths ...string) []*Descriptor {
	tests := make([]*Descriptor, len(relPaths))
	for i, relPath := range relPaths {
		tests[i] = &Descriptor{
			Name:     relPath,
			Path:     "/src/" + relPath,
			RelPath:  relPath,
			Manifest: dirKey(relPath),
		}
	}
	return tests
}

func dirKey(relPath string) string {
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '/' {
			return relPath[:i]
		}
	}
	return ""
}

// numbered returns n tests named t0..t(n-1) in a single directory.
func numbered(n int) []*Descriptor {
	relPaths := make([]string, n)
	for i := range relPaths {
		relPaths[i] = fmt.Sprintf("dir/t%d", i)
	}
	return suite(relPaths...)
}

func names(tests []*Descriptor) []string {
	rv := make([]string, len(tests))
	for i, test := range tests {
		rv[i] = test.Name
	}
	return rv
}

func newEvaluator() Evaluator {
	return expression.New()
}

type fakeFileSystem map[string]bool

func (fs fakeFileSystem) Exists(path string) bool {
	return fs[path]
}
