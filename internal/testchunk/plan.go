package testchunk

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/testchunk/pkg/testfilter"
)

// Plan runs the pipeline once for every chunk and writes a table summarizing each of them to a.Out.
// Every run starts from a fresh copy of the tests, so chunks don't see each other's annotations.
func (a *App) Plan() error {
	pipeline, tests, err := a.prepare()
	if err != nil {
		return err
	}
	// Fails early on invalid chunk configuration, e.g. a total of 0.
	if _, err := pipeline.FilterList(1); err != nil {
		return err
	}
	totalChunks := pipeline.TotalChunks()

	metrics := NewMetrics()
	metrics.ObserveInput(tests)
	summaries := make([]ChunkSummary, totalChunks)
	for i := range summaries {
		l, err := pipeline.FilterList(i + 1)
		if err != nil {
			return err
		}
		selected, err := l.Apply(copyDescriptors(tests), a.Params.Values)
		if err != nil {
			return errors.WithMessagef(err, "error planning chunk %d", i+1)
		}
		summaries[i] = pipeline.Summarize(selected)
		metrics.ObserveChunk(i+1, summaries[i])
		log.Debugf("chunk %d: %d tests", i+1, summaries[i].Tests)
	}

	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	fmt.Fprintf(w, "CHUNK\tTESTS\tENABLED\tRUNTIME\n")
	var total ChunkSummary
	for i, summary := range summaries {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.1fs\n", i+1, summary.Tests, summary.Enabled, summary.Runtime)
		total.Tests += summary.Tests
		total.Enabled += summary.Enabled
		total.Runtime += summary.Runtime
	}
	fmt.Fprintf(w, "total\t%d\t%d\t%.1fs\n", total.Tests, total.Enabled, total.Runtime)
	if err := w.Flush(); err != nil {
		return errors.WithStack(err)
	}

	if a.Params.Metrics.File != "" {
		return metrics.WriteToTextfile(a.Params.Metrics.File)
	}
	return nil
}

func copyDescriptors(tests []*testfilter.Descriptor) []*testfilter.Descriptor {
	rv := make([]*testfilter.Descriptor, len(tests))
	for i, test := range tests {
		c := *test
		rv[i] = &c
	}
	return rv
}
