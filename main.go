package main

import (
	"context"
	"os"

	"github.com/gruntwork-io/imgopen/cli"
	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/options"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

// The main entrypoint for imgopen
func main() {
	opts := options.NewOptions()

	defer errors.Recover(checkForErrorsAndExit(opts.Logger))

	app := cli.NewApp(opts)

	ctx := log.ContextWithLogger(context.Background(), opts.Logger)
	err := app.RunContext(ctx, os.Args)

	checkForErrorsAndExit(opts.Logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		os.Exit(1)
	}
}
