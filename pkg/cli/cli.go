package cli

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/cli/config"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Run parses args and executes the selected subcommand
func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	closeLog := func() {}
	defer func() { closeLog() }()

	app := &cli.Command{
		Name:    "briareos",
		Usage:   "Workflow transition engine for tasks and work orders",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closer, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closeLog = closer

			logging.Default().Debug("logger configured", "logger", loggerCfg, "version", version)
			return logging.With(ctx, logging.Default()), nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
			cmdValidate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		return errutil.Handle(ctx, err, "briareos failed")
	}
	return nil
}
