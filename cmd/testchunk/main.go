package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/testchunk/cmd/testchunk/cmd"
	"github.com/armadaproject/testchunk/internal/common"
	"github.com/armadaproject/testchunk/internal/common/armadaerrors"
	"github.com/armadaproject/testchunk/internal/common/logging"
)

// Config is handled by cmd/root.go
func main() {
	common.ConfigureCommandLineLogging()
	root := cmd.RootCmd()
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		log.Errorf("%s", err)
		log.Debugf("%+v", logging.TopmostWithCause(err))
		os.Exit(armadaerrors.ExitCodeFromError(err))
	}
}
