package cmd

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/armadaproject/testchunk/internal/common"
	"github.com/armadaproject/testchunk/internal/common/config"
	"github.com/armadaproject/testchunk/internal/common/logging"
	"github.com/armadaproject/testchunk/internal/testchunk"
)

const (
	envPrefix         = "TESTCHUNK"
	defaultConfigName = ".testchunk.yaml"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testchunk",
		Short: "testchunk filters a test suite and splits it into chunks.",
		Long: `testchunk filters a test suite and splits it into chunks.

Tests are read from YAML or JSON descriptor files, each holding a list of tests,
or a mapping with the list under "tests".

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
tests:
  - suite/**/tests.yaml
values:
  os: linux
  debug: false
chunk:
  strategy: runtime
  total: 8
runtimes:
  file: runtimes.json
  default: 1.5

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.testchunk.yaml is used if it exists.
Every setting can also be provided as an environment variable, e.g., TESTCHUNK_CHUNK_TOTAL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSlice("config", nil, "Config file(s), merged in order (default $HOME/.testchunk.yaml).")
	cmd.PersistentFlags().Bool("verbose", false, "Log every stage of the filter pipeline.")
	cmd.PersistentFlags().String("logLevel", "info", "Log level, e.g., debug, info or warn.")

	cmd.AddCommand(
		versionCmd(testchunk.New()),
		filterCmd(testchunk.New()),
		planCmd(testchunk.New()),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *testchunk.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.Version()
		},
	}
	return cmd
}

// Write the tests selected by the filters and chunking options.
func filterCmd(app *testchunk.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [descriptor file pattern...]",
		Short: "Filter the test suite and print the selected chunk.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, args, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Filter()
		},
	}
	addPipelineFlags(cmd.Flags())
	cmd.Flags().String("output.format", testchunk.FormatJSON, "Output format; one of json, yaml or text.")
	return cmd
}

// Print a summary of every chunk.
func planCmd(app *testchunk.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [descriptor file pattern...]",
		Short: "Print the number of tests and the expected runtime of every chunk.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, args, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Plan()
		},
	}
	addPipelineFlags(cmd.Flags())
	return cmd
}

func addPipelineFlags(flags *pflag.FlagSet) {
	flags.StringSlice("tests", nil, "Descriptor file patterns, e.g., 'suite/**/tests.yaml'. Positional arguments are appended.")
	flags.StringArray("value", nil, "Condition value as key=value, e.g., --value os=linux. May be repeated.")
	flags.String("chunk.strategy", testchunk.StrategyNone, "Chunking strategy; one of none, slice, dir, runtime or manifest.")
	flags.Int("chunk.this", 1, "Chunk to select, starting at 1.")
	flags.Int("chunk.total", 1, "Number of chunks.")
	flags.Int("chunk.depth", 1, "Number of leading directories the dir strategy groups tests by.")
	flags.Bool("chunk.includeDisabled", false, "Count disabled tests when sizing chunks of the slice strategy.")
	flags.String("runtimes.file", "", "JSON file mapping test relpaths to runtimes in seconds.")
	flags.Float64("runtimes.default", 0, "Runtime in seconds of tests missing from the runtimes file.")
	flags.StringArray("tags", nil, "Keep tests with any of these space-separated tags. May be repeated; every occurrence must match.")
	flags.StringSlice("pathPrefixes", nil, "Keep tests under any of these paths.")
	flags.String("subsuite", "", "Keep tests in this subsuite. By default, only tests not in any subsuite are kept.")
	flags.String("failures", "", "Keep tests whose skip-if or fail-if condition mentions this keyword.")
	flags.Bool("enabledOnly", false, "Drop disabled tests.")
	flags.Bool("existsOnly", false, "Drop tests whose path doesn't exist.")
	flags.Bool("strict", false, "Fail on conditions referring to undefined values.")
	flags.String("metrics.file", "", "Write Prometheus metrics to this file.")
}

// initParams loads params from config files, environment variables and flags, in increasing order of precedence.
func initParams(cmd *cobra.Command, args []string, app *testchunk.App) error {
	v := viper.New()
	common.BindEnv(v, envPrefix)
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.WithStack(err)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if verbose {
		logLevel = "debug"
	}
	if err := logging.SetLevel(logLevel); err != nil {
		return err
	}

	configFiles, err := cmd.Flags().GetStringSlice("config")
	if err != nil {
		return err
	}
	if len(configFiles) == 0 {
		defaultConfig, err := defaultConfigFile()
		if err != nil {
			return err
		}
		if defaultConfig != "" {
			configFiles = []string{defaultConfig}
		}
	}
	if err := common.LoadConfig(v, app.Params, configFiles); err != nil {
		return err
	}

	app.Params.Tests = append(app.Params.Tests, args...)
	pairs, err := cmd.Flags().GetStringArray("value")
	if err != nil {
		return err
	}
	values, err := config.ParseKeyValues(pairs)
	if err != nil {
		return err
	}
	if app.Params.Values == nil {
		app.Params.Values = make(map[string]interface{}, len(values))
	}
	for k, value := range values {
		app.Params.Values[k] = value
	}
	app.Out = cmd.OutOrStdout()
	return nil
}

// defaultConfigFile returns $HOME/.testchunk.yaml, or "" if there's no such file.
func defaultConfigFile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.WithMessage(err, "error getting user home directory")
	}
	configFile := filepath.Join(home, defaultConfigName)
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WithStack(err)
	}
	return configFile, nil
}
