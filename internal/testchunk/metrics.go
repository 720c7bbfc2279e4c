package testchunk

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/testchunk/pkg/testfilter"
)

const MetricPrefix = "testchunk_"

// Metrics records the outcome of one run.
// A private registry is used since metrics are written to a file once, rather than scraped.
type Metrics struct {
	registry     *prometheus.Registry
	stageTests   *prometheus.GaugeVec
	chunkTests   *prometheus.GaugeVec
	chunkRuntime *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageTests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "stage_tests",
				Help: "Number of tests output by each stage of the filter pipeline",
			},
			[]string{"stage"},
		),
		chunkTests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "chunk_tests",
				Help: "Number of enabled tests in a chunk",
			},
			[]string{"chunk"},
		),
		chunkRuntime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "chunk_runtime_seconds",
				Help: "Expected runtime of the enabled tests in a chunk",
			},
			[]string{"chunk"},
		),
	}
	m.registry.MustRegister(m.stageTests, m.chunkTests, m.chunkRuntime)
	return m
}

// ObserveInput records the number of tests fed into the pipeline.
func (m *Metrics) ObserveInput(tests []*testfilter.Descriptor) {
	m.stageTests.WithLabelValues("00-input").Set(float64(len(tests)))
}

// ObserveStage records the output of a pipeline stage. It's meant to be passed to FilterList.ApplyObserved.
// Stages are labelled by position and kind, since a kind may appear more than once.
func (m *Metrics) ObserveStage(stage int, f testfilter.Filter, out []*testfilter.Descriptor) {
	m.stageTests.WithLabelValues(fmt.Sprintf("%02d-%s", stage+1, f.Kind())).Set(float64(len(out)))
}

// ObserveChunk records the enabled tests selected for a chunk and their expected total runtime.
func (m *Metrics) ObserveChunk(chunk int, summary ChunkSummary) {
	label := strconv.Itoa(chunk)
	m.chunkTests.WithLabelValues(label).Set(float64(summary.Enabled))
	m.chunkRuntime.WithLabelValues(label).Set(summary.Runtime)
}

// WriteToTextfile writes all metrics to filePath in the Prometheus text format,
// e.g., for the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(filePath string) error {
	if err := prometheus.WriteToTextfile(filePath, m.registry); err != nil {
		return errors.WithMessagef(err, "error writing metrics to %s", filePath)
	}
	return nil
}
