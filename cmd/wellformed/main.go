// Command wellformed reads batches of bracket strings from stdin and prints,
// in input order, whether each one is well-formed.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/majiddarvishan/wellformed/internal/errors"
)

func main() {
	app := NewApp(os.Stdin, os.Stdout, os.Stderr)

	err := app.Run(os.Args)

	checkForErrorsAndExit(err)
}

// If there is an error, display it on stderr and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(err error) {
	if err == nil {
		os.Exit(0)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if lvl, parseErr := logrus.ParseLevel(os.Getenv("WELLFORMED_LOG_LEVEL")); parseErr == nil {
		logger.SetLevel(lvl)
	}

	logger.Error(err.Error())
	logger.Debug(errors.ErrorWithStackTrace(err))

	os.Exit(1)
}
