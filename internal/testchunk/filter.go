package testchunk

import (
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/testchunk/pkg/testfilter"
)

// prepare validates the params and loads the tests and runtimes they refer to.
func (a *App) prepare() (*Pipeline, []*testfilter.Descriptor, error) {
	if err := a.validateParams(); err != nil {
		return nil, nil, err
	}
	runtimes, err := a.runtimes()
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := NewPipeline(a.Params, runtimes, a.FileSystem)
	if err != nil {
		return nil, nil, err
	}
	tests, err := LoadDescriptors(a.Params.Tests)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, tests, nil
}

// Filter loads the tests, passes them through the configured pipeline and writes the selected chunk to a.Out.
func (a *App) Filter() error {
	pipeline, tests, err := a.prepare()
	if err != nil {
		return err
	}
	l, err := pipeline.FilterList(a.Params.Chunk.This)
	if err != nil {
		return err
	}
	log.Debugf("filters: %s", l)

	metrics := NewMetrics()
	metrics.ObserveInput(tests)
	selected, err := l.ApplyObserved(tests, a.Params.Values, metrics.ObserveStage)
	if err != nil {
		return err
	}
	summary := pipeline.Summarize(selected)
	metrics.ObserveChunk(a.Params.Chunk.This, summary)
	log.Infof("selected %d of %d tests (%d enabled, %.1fs expected runtime)", summary.Tests, len(tests), summary.Enabled, summary.Runtime)

	if err := WriteDescriptors(a.Out, a.Params.Output.Format, selected); err != nil {
		return err
	}
	if a.Params.Metrics.File != "" {
		return metrics.WriteToTextfile(a.Params.Metrics.File)
	}
	return nil
}
