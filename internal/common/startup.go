package common

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/testchunk/internal/common/config"
	"github.com/armadaproject/testchunk/internal/common/logging"
)

// ConfigureCommandLineLogging sets up logrus for a command-line tool.
// Logs go to stderr so that stdout only carries command output.
func ConfigureCommandLineLogging() {
	commandLineFormatter := new(logging.CommandLineFormatter)
	log.SetFormatter(commandLineFormatter)
	log.SetOutput(os.Stderr)
}

// BindEnv makes every config key settable through an environment variable,
// e.g. chunk.total through PREFIX_CHUNK_TOTAL.
func BindEnv(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadConfig reads every file in userSpecifiedConfigs into v, in order, each merged over the previous,
// and then unmarshals the result into config using the custom decode hooks.
func LoadConfig(v *viper.Viper, config interface{}, userSpecifiedConfigs []string) error {
	for _, configFile := range userSpecifiedConfigs {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			return errors.WithMessagef(err, "error reading config file %s", configFile)
		}
		log.Debugf("read config from %s", configFile)
	}
	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
