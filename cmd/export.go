package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func ExportCommand() *cli.Command {
	flags := append(connectionFlags(),
		&cli.StringSliceFlag{
			Name:  "database",
			Usage: "Database to export (repeatable); defaults to the database in the URL",
		},
		&cli.StringSliceFlag{
			Name:  "tables",
			Usage: "Tables to export, in order (repeatable); defaults to every table",
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Usage: "Directory for the dump files; defaults to <storage_path>/dumps/<database>",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "File name prefix; defaults to prefix from dumpmancer.yaml",
		},
		&cli.BoolFlag{
			Name:  "overwrite",
			Usage: "Replace an existing dump file with the same name",
		},
		&cli.StringFlag{
			Name:  "schedule",
			Usage: "Cron expression (e.g. \"0 3 * * *\" or \"@hourly\"); keeps running and exports on every tick",
		},
	)

	return &cli.Command{
		Name:  "export",
		Usage: "Dump database tables into a replayable SQL file",
		Flags: flags,
		Action: func(c *cli.Context) error {
			config, projectRoot, err := utils.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			base, err := resolveConnection(c, config)
			if err != nil {
				return err
			}

			targets := []db.ConnectionConfig{base}
			if names := c.StringSlice("database"); len(names) > 0 {
				targets = targets[:0]
				for _, name := range names {
					targets = append(targets, base.WithDatabase(name))
				}
			}

			tables := c.StringSlice("tables")
			if len(tables) == 0 {
				tables = config.Tables
			}
			prefix := c.String("prefix")
			if prefix == "" {
				prefix = config.Prefix
			}

			job := &exportJob{
				exporter: db.Exporter{
					Connections: db.ConnectionManager{Logger: logger()},
					Dumper:      db.Dumper{Logger: logger()},
				},
				targets:   targets,
				tables:    tables,
				prefix:    prefix,
				overwrite: c.Bool("overwrite"),
				dirFor: func(cfg db.ConnectionConfig) string {
					if dir := c.String("output-dir"); dir != "" {
						if len(targets) > 1 {
							return filepath.Join(dir, dumpName(cfg))
						}
						return dir
					}
					return utils.GetDumpPath(projectRoot, config.StoragePath, dumpName(cfg))
				},
			}

			schedule := c.String("schedule")
			if schedule == "" {
				results, err := job.run(c.Context)
				if err != nil {
					return fmt.Errorf("exporting: %w", err)
				}
				printExportResults(results)
				return nil
			}
			return job.schedule(c.Context, schedule)
		},
	}
}

type exportJob struct {
	exporter  db.Exporter
	targets   []db.ConnectionConfig
	tables    []string
	prefix    string
	overwrite bool
	dirFor    func(db.ConnectionConfig) string
}

// run exports every target concurrently, one connection each. The first
// failure cancels the others.
func (j *exportJob) run(ctx context.Context) ([]db.ExportResult, error) {
	results := make([]db.ExportResult, len(j.targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range j.targets {
		i, target := i, target
		g.Go(func() error {
			res, err := j.exporter.Export(gctx, target, db.ExportOptions{
				Tables:    j.tables,
				Dir:       j.dirFor(target),
				Prefix:    j.prefix,
				Overwrite: j.overwrite,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// schedule runs the export on every cron tick until interrupted. A tick that
// fires while the previous export is still running is skipped.
func (j *exportJob) schedule(ctx context.Context, spec string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	var failures int
	clog := cronLogger{logger()}
	scheduler := cron.New(cron.WithLogger(clog), cron.WithChain(cron.SkipIfStillRunning(clog)))
	_, err := scheduler.AddFunc(spec, func() {
		results, err := j.run(ctx)
		if err != nil {
			mu.Lock()
			failures++
			mu.Unlock()
			logger().Error("scheduled export failed", "error", err)
			return
		}
		printExportResults(results)
	})
	if err != nil {
		return fmt.Errorf("parsing schedule %q: %w", spec, err)
	}

	fmt.Printf("Exporting on schedule %q; press Ctrl+C to stop\n", spec)
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()

	mu.Lock()
	defer mu.Unlock()
	if failures > 0 {
		fmt.Printf("Stopped after %d failed export(s)\n", failures)
	}
	return nil
}

func printExportResults(results []db.ExportResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "Tables", "Rows", "Size"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	for _, r := range results {
		size := "?"
		if info, err := os.Stat(r.Path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		table.Append([]string{r.Path, fmt.Sprint(len(r.Tables)), fmt.Sprint(r.Rows), size})
	}
	table.Render()
	fmt.Printf("\n✅ Export successful! %d file(s) written\n", len(results))
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
