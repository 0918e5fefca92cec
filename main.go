package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/KazanKK/dumpmancer/cmd"
	"github.com/KazanKK/dumpmancer/internal/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	cleanup := func() {}
	app := &cli.App{
		Name:  "dumpmancer",
		Usage: "A CLI tool to dump databases into replayable SQL and run parameterized statements",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"DUMPMANCER_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also append JSON debug logs to this file",
			},
		},
		Before: func(c *cli.Context) error {
			logger, closeFn, err := logging.SetupLogger(os.Stderr, logging.Options{
				Level:  c.String("log-level"),
				Format: c.String("log-format"),
				File:   c.String("log-file"),
			})
			if err != nil {
				return err
			}
			cleanup = closeFn
			slog.SetDefault(logger)
			return nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.ExportCommand(),
			cmd.ExecCommand(),
			cmd.TablesCommand(),
			cmd.ListCommand(),
			cmd.SizeCommand(),
		},
	}

	err := app.Run(os.Args)
	cleanup()
	if err != nil {
		log.Fatal(err)
	}
}
