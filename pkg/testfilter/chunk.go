package testfilter

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	goslices "golang.org/x/exp/slices"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/internal/common/maps"
	"github.com/armadaproject/testchunk/internal/common/slices"
)

func validateChunk(thisChunk, totalChunks int) error {
	if totalChunks < 1 {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "totalChunks",
			Value:   totalChunks,
			Message: "must be at least 1",
		})
	}
	if thisChunk < 1 || thisChunk > totalChunks {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "thisChunk",
			Value:   thisChunk,
			Message: fmt.Sprintf("must be in [1, %d]", totalChunks),
		})
	}
	return nil
}

// sliceBounds returns the half-open range [start, end) of n items assigned to thisChunk.
// Bounds are rounded half to even; the chunks of 1..totalChunks tile [0, n) exactly.
func sliceBounds(thisChunk, totalChunks, n int) (int, int) {
	perChunk := float64(n) / float64(totalChunks)
	start := int(math.RoundToEven(float64(thisChunk-1) * perChunk))
	end := int(math.RoundToEven(float64(thisChunk) * perChunk))
	return start, end
}

// SliceChunker splits the suite into chunks with an equal number of tests.
type SliceChunker struct {
	thisChunk       int
	totalChunks     int
	includeDisabled bool
}

// ChunkBySlice returns a filter selecting chunk thisChunk (1-based) out of totalChunks.
//
// If includeDisabled is false, only enabled tests are counted when sizing chunks, so every chunk gets
// the same number of enabled tests; disabled tests stay in the chunk their position in the suite falls in.
func ChunkBySlice(thisChunk, totalChunks int, includeDisabled bool) (*SliceChunker, error) {
	if err := validateChunk(thisChunk, totalChunks); err != nil {
		return nil, err
	}
	return &SliceChunker{thisChunk: thisChunk, totalChunks: totalChunks, includeDisabled: includeDisabled}, nil
}

func (f *SliceChunker) Kind() Kind   { return KindChunkBySlice }
func (f *SliceChunker) Unique() bool { return true }

func (f *SliceChunker) String() string {
	return fmt.Sprintf("%s(%d/%d)", f.Kind(), f.thisChunk, f.totalChunks)
}

func (f *SliceChunker) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	if f.includeDisabled {
		start, end := sliceBounds(f.thisChunk, f.totalChunks, len(tests))
		return clone(tests[start:end]), nil
	}

	// Positions in tests of the enabled tests.
	positions := make([]int, 0, len(tests))
	for i, test := range tests {
		if !test.IsDisabled() {
			positions = append(positions, i)
		}
	}
	start, end := sliceBounds(f.thisChunk, f.totalChunks, len(positions))

	// Map bounds over the enabled tests back onto the suite.
	// Disabled tests go with the enabled tests before them;
	// those at the very start and end of the suite go to the first and last chunk.
	toSuite := func(i int) int {
		if i < len(positions) {
			return positions[i]
		}
		return len(tests)
	}
	if f.thisChunk == 1 {
		start = 0
	} else {
		start = toSuite(start)
	}
	if f.thisChunk == f.totalChunks {
		end = len(tests)
	} else {
		end = toSuite(end)
	}
	return clone(tests[start:end]), nil
}

// DirChunker splits the suite into chunks with an equal number of directories.
type DirChunker struct {
	thisChunk   int
	totalChunks int
	depth       int
}

// ChunkByDir returns a filter selecting chunk thisChunk (1-based) out of totalChunks,
// where tests are grouped by the first depth directories of their relpath.
//
// Only directories containing at least one enabled test are counted, in the order their first enabled test appears.
// Directories containing only disabled tests are all put in the first chunk, after its regular directories.
func ChunkByDir(thisChunk, totalChunks, depth int) (*DirChunker, error) {
	if err := validateChunk(thisChunk, totalChunks); err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "depth",
			Value:   depth,
			Message: "must not be negative",
		})
	}
	return &DirChunker{thisChunk: thisChunk, totalChunks: totalChunks, depth: depth}, nil
}

func (f *DirChunker) Kind() Kind   { return KindChunkByDir }
func (f *DirChunker) Unique() bool { return true }

func (f *DirChunker) String() string {
	return fmt.Sprintf("%s(%d/%d, depth=%d)", f.Kind(), f.thisChunk, f.totalChunks, f.depth)
}

// dirKey returns the first depth directories of relPath. The file name itself is never part of the key.
func (f *DirChunker) dirKey(relPath string) string {
	relPath = strings.TrimPrefix(normalizePath(relPath), "/")
	parts := strings.Split(relPath, "/")
	n := len(parts) - 1
	if f.depth < n {
		n = f.depth
	}
	return strings.Join(parts[:n], "/")
}

func (f *DirChunker) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	dirs, testsByDir := slices.OrderedGroupByFunc(tests, func(test *Descriptor) string {
		return f.dirKey(test.RelPath)
	})

	// Directories in order of their first enabled test.
	var enabledDirs []string
	seen := make(map[string]bool)
	for _, test := range tests {
		if test.IsDisabled() {
			continue
		}
		dir := f.dirKey(test.RelPath)
		if !seen[dir] {
			seen[dir] = true
			enabledDirs = append(enabledDirs, dir)
		}
	}

	start, end := sliceBounds(f.thisChunk, f.totalChunks, len(enabledDirs))
	rv := make([]*Descriptor, 0)
	for _, dir := range enabledDirs[start:end] {
		rv = append(rv, testsByDir[dir]...)
	}
	if f.thisChunk == 1 {
		for _, dir := range dirs {
			if !seen[dir] {
				rv = append(rv, testsByDir[dir]...)
			}
		}
	}
	return rv, nil
}

// Bin is one chunk produced by a bin-packing chunker.
type Bin struct {
	// Sum of the weights of the manifests in the bin, e.g. seconds of runtime.
	Weight float64
	Tests  []*Descriptor
}

// binPack groups tests by manifest and assigns manifests, heaviest first, to the lightest of totalChunks bins.
// Bins are ordered by (weight, number of tests) before each assignment; ties keep their previous order.
// Only enabled tests contribute weight, but disabled tests travel with their manifest.
func binPack(tests []*Descriptor, totalChunks int, weight func(*Descriptor) float64) []*Bin {
	manifests, testsByManifest := slices.OrderedGroupByFunc(tests, func(test *Descriptor) string {
		return test.Manifest
	})
	type group struct {
		weight float64
		tests  []*Descriptor
	}
	groups := make([]group, len(manifests))
	for i, manifest := range manifests {
		g := group{tests: testsByManifest[manifest]}
		for _, test := range g.tests {
			if !test.IsDisabled() {
				g.weight += weight(test)
			}
		}
		groups[i] = g
	}
	goslices.SortStableFunc(groups, func(a, b group) bool {
		return a.weight > b.weight
	})

	bins := make([]*Bin, totalChunks)
	for i := range bins {
		bins[i] = &Bin{Tests: make([]*Descriptor, 0)}
	}
	for _, g := range groups {
		goslices.SortStableFunc(bins, func(a, b *Bin) bool {
			if a.Weight != b.Weight {
				return a.Weight < b.Weight
			}
			return len(a.Tests) < len(b.Tests)
		})
		bins[0].Weight += g.weight
		bins[0].Tests = append(bins[0].Tests, g.tests...)
	}
	return bins
}

// RuntimeChunker splits the suite into chunks of roughly equal total runtime.
// Manifests are never split across chunks.
type RuntimeChunker struct {
	thisChunk      int
	totalChunks    int
	runtimes       map[string]float64
	defaultRuntime float64
}

// ChunkByRuntime returns a filter selecting chunk thisChunk (1-based) out of totalChunks.
// runtimes maps a test's relpath to its average runtime; tests missing from it are assumed to take defaultRuntime.
func ChunkByRuntime(thisChunk, totalChunks int, runtimes map[string]float64, defaultRuntime float64) (*RuntimeChunker, error) {
	if err := validateChunk(thisChunk, totalChunks); err != nil {
		return nil, err
	}
	if defaultRuntime < 0 {
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "defaultRuntime",
			Value:   defaultRuntime,
			Message: "must not be negative",
		})
	}
	return &RuntimeChunker{
		thisChunk:      thisChunk,
		totalChunks:    totalChunks,
		runtimes:       maps.MapKeys(runtimes, normalizePath),
		defaultRuntime: defaultRuntime,
	}, nil
}

func (f *RuntimeChunker) Kind() Kind   { return KindChunkByRuntime }
func (f *RuntimeChunker) Unique() bool { return true }

func (f *RuntimeChunker) String() string {
	return fmt.Sprintf("%s(%d/%d)", f.Kind(), f.thisChunk, f.totalChunks)
}

// Runtime returns the runtime assumed for test.
func (f *RuntimeChunker) Runtime(test *Descriptor) float64 {
	if runtime, ok := f.runtimes[normalizePath(test.RelPath)]; ok {
		return runtime
	}
	return f.defaultRuntime
}

// Bins returns every chunk, in chunk order. Apply returns the tests of the bin at thisChunk-1.
func (f *RuntimeChunker) Bins(tests []*Descriptor) []*Bin {
	return binPack(tests, f.totalChunks, f.Runtime)
}

func (f *RuntimeChunker) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return f.Bins(tests)[f.thisChunk-1].Tests, nil
}

// ManifestChunker splits the suite into chunks with roughly equal numbers of enabled tests,
// never splitting a manifest across chunks.
type ManifestChunker struct {
	thisChunk   int
	totalChunks int
}

func ChunkByManifest(thisChunk, totalChunks int) (*ManifestChunker, error) {
	if err := validateChunk(thisChunk, totalChunks); err != nil {
		return nil, err
	}
	return &ManifestChunker{thisChunk: thisChunk, totalChunks: totalChunks}, nil
}

func (f *ManifestChunker) Kind() Kind   { return KindChunkByManifest }
func (f *ManifestChunker) Unique() bool { return true }

func (f *ManifestChunker) String() string {
	return fmt.Sprintf("%s(%d/%d)", f.Kind(), f.thisChunk, f.totalChunks)
}

// Bins returns every chunk, in chunk order; the weight of a bin is its number of enabled tests.
func (f *ManifestChunker) Bins(tests []*Descriptor) []*Bin {
	return binPack(tests, f.totalChunks, func(*Descriptor) float64 { return 1 })
}

func (f *ManifestChunker) Apply(tests []*Descriptor, _ Values) ([]*Descriptor, error) {
	return f.Bins(tests)[f.thisChunk-1].Tests, nil
}
