package testchunk

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/pkg/expression"
	"github.com/armadaproject/testchunk/pkg/testfilter"
)

// Pipeline holds everything needed to build the filter list for any chunk.
type Pipeline struct {
	params    *Params
	evaluator testfilter.Evaluator
	fs        testfilter.FileSystem
	runtimes  map[string]float64
	// Used to estimate runtimes of tests regardless of chunking strategy.
	estimator *testfilter.RuntimeChunker
}

// NewPipeline returns a pipeline configured by params.
// fs is used by the exists filter; if nil, the local filesystem is used.
func NewPipeline(params *Params, runtimes map[string]float64, fs testfilter.FileSystem) (*Pipeline, error) {
	evaluator := expression.New()
	evaluator.Strict = params.Strict
	estimator, err := testfilter.ChunkByRuntime(1, 1, runtimes, params.Runtimes.Default)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		params:    params,
		evaluator: evaluator,
		fs:        fs,
		runtimes:  runtimes,
		estimator: estimator,
	}, nil
}

// FilterList returns the filters selecting chunk thisChunk, in the order they're applied:
// skip-if, run-if, fail-if, subsuite, tags, pathprefix, failures, exists, the chunker and finally enabled.
func (p *Pipeline) FilterList(thisChunk int) (*testfilter.FilterList, error) {
	l := testfilter.DefaultFilterList(p.evaluator)

	if err := l.Append(testfilter.Subsuite(p.params.Subsuite, p.evaluator)); err != nil {
		return nil, err
	}
	for _, entry := range p.params.Tags {
		f, err := testfilter.Tags(strings.Fields(entry)...)
		if err != nil {
			return nil, err
		}
		if err := l.Append(f); err != nil {
			return nil, errors.WithMessagef(err, "error adding tags %q", entry)
		}
	}
	if len(p.params.PathPrefixes) > 0 {
		f, err := testfilter.PathPrefix(p.params.PathPrefixes...)
		if err != nil {
			return nil, err
		}
		if err := l.Append(f); err != nil {
			return nil, err
		}
	}
	if p.params.Failures != "" {
		f, err := testfilter.Failures(p.params.Failures)
		if err != nil {
			return nil, err
		}
		if err := l.Append(f); err != nil {
			return nil, err
		}
	}
	if p.params.ExistsOnly {
		if err := l.Append(testfilter.Exists(p.fs)); err != nil {
			return nil, err
		}
	}

	chunker, err := p.chunker(thisChunk)
	if err != nil {
		return nil, err
	}
	if chunker != nil {
		if err := l.Append(chunker); err != nil {
			return nil, err
		}
	}

	if p.params.EnabledOnly {
		if err := l.Append(testfilter.Enabled()); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// TotalChunks returns the number of chunks the suite is split into; 1 if not chunking.
func (p *Pipeline) TotalChunks() int {
	if !p.chunking() {
		return 1
	}
	return p.params.Chunk.Total
}

func (p *Pipeline) chunking() bool {
	return p.params.Chunk.Strategy != "" && p.params.Chunk.Strategy != StrategyNone
}

// chunker returns the chunking filter for thisChunk, or nil if not chunking.
func (p *Pipeline) chunker(thisChunk int) (testfilter.Filter, error) {
	c := p.params.Chunk
	switch c.Strategy {
	case "", StrategyNone:
		return nil, nil
	case StrategySlice:
		f, err := testfilter.ChunkBySlice(thisChunk, c.Total, c.IncludeDisabled)
		if err != nil {
			return nil, err
		}
		return f, nil
	case StrategyDir:
		f, err := testfilter.ChunkByDir(thisChunk, c.Total, c.Depth)
		if err != nil {
			return nil, err
		}
		return f, nil
	case StrategyRuntime:
		f, err := testfilter.ChunkByRuntime(thisChunk, c.Total, p.runtimes, p.params.Runtimes.Default)
		if err != nil {
			return nil, err
		}
		return f, nil
	case StrategyManifest:
		f, err := testfilter.ChunkByManifest(thisChunk, c.Total)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "chunk.strategy",
			Value:   c.Strategy,
			Message: "must be one of none, slice, dir, runtime or manifest",
		})
	}
}

// ChunkSummary describes the tests selected for one chunk.
type ChunkSummary struct {
	Tests   int
	Enabled int
	// Expected runtime of the enabled tests, in seconds.
	Runtime float64
}

// Summarize counts tests and sums the expected runtime of the enabled ones.
func (p *Pipeline) Summarize(tests []*testfilter.Descriptor) ChunkSummary {
	summary := ChunkSummary{Tests: len(tests)}
	for _, test := range tests {
		if test.IsDisabled() {
			continue
		}
		summary.Enabled++
		summary.Runtime += p.estimator.Runtime(test)
	}
	return summary
}
