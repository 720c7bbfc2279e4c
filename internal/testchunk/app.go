package testchunk

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/internal/common/config"
	"github.com/armadaproject/testchunk/internal/testchunk/build"
	"github.com/armadaproject/testchunk/pkg/testfilter"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// FileSystem is used to check that tests exist. Nil means the local filesystem.
	FileSystem testfilter.FileSystem
}

// Chunking strategies.
const (
	StrategyNone     = "none"
	StrategySlice    = "slice"
	StrategyDir      = "dir"
	StrategyRuntime  = "runtime"
	StrategyManifest = "manifest"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	// Glob patterns of descriptor files, e.g., "tests/**/*.yaml".
	Tests []string `mapstructure:"tests" validate:"required,min=1,dive,required"`
	// Values conditions are evaluated against, e.g., {"os": "linux", "debug": false}.
	Values map[string]interface{} `mapstructure:"values"`
	Chunk  ChunkParams            `mapstructure:"chunk"`
	// Runtimes is only used by the runtime strategy and the plan command.
	Runtimes RuntimesParams `mapstructure:"runtimes"`
	// Each entry is a separate tags filter; a test must match all of them.
	// An entry may hold several whitespace-separated tags, any of which matches.
	Tags         []string `mapstructure:"tags"`
	PathPrefixes []string `mapstructure:"pathPrefixes"`
	// Only tests in this subsuite are kept. If empty, only tests not in any subsuite are kept.
	Subsuite string `mapstructure:"subsuite"`
	// If non-empty, only tests whose skip-if or fail-if condition mentions this keyword are kept.
	Failures    string        `mapstructure:"failures"`
	EnabledOnly bool          `mapstructure:"enabledOnly"`
	ExistsOnly  bool          `mapstructure:"existsOnly"`
	Strict      bool          `mapstructure:"strict"`
	Output      OutputParams  `mapstructure:"output"`
	Metrics     MetricsParams `mapstructure:"metrics"`
}

type ChunkParams struct {
	Strategy string `mapstructure:"strategy" validate:"omitempty,oneof=none slice dir runtime manifest"`
	// 1-based index of the chunk to select.
	This  int `mapstructure:"this" validate:"gte=0"`
	Total int `mapstructure:"total" validate:"gte=0"`
	// Number of leading directories the dir strategy groups tests by.
	Depth           int  `mapstructure:"depth" validate:"gte=0"`
	IncludeDisabled bool `mapstructure:"includeDisabled"`
}

type RuntimesParams struct {
	// JSON (or YAML) file mapping relpaths to runtimes in seconds.
	File string `mapstructure:"file"`
	// Runtime assumed for tests missing from File.
	Default float64 `mapstructure:"default" validate:"gte=0"`
}

type OutputParams struct {
	Format string `mapstructure:"format" validate:"omitempty,oneof=json yaml text"`
}

type MetricsParams struct {
	// If set, metrics are written to this file in the Prometheus text format.
	File string `mapstructure:"file"`
}

// New instantiates an App with default parameters, including standard output.
func New() *App {
	return &App{
		Params: &Params{
			Values: map[string]interface{}{},
			Chunk: ChunkParams{
				Strategy: StrategyNone,
				This:     1,
				Total:    1,
				Depth:    1,
			},
			Output: OutputParams{Format: FormatJSON},
		},
		Out: os.Stdout,
	}
}

// validateParams validates a.Params.
// The chunk index is validated when the chunker is created.
func (a *App) validateParams() error {
	if err := config.Validate(a.Params); err != nil {
		config.LogValidationErrors(err)
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "params",
			Value:   a.Params,
			Message: err.Error(),
		})
	}
	return nil
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}
