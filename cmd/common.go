package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"

	"github.com/urfave/cli/v2"
)

// connectionFlags are shared by every command that talks to a database.
func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Database connection URL (e.g., postgres://user@localhost:5432/dbname, mysql://user@localhost:3306/dbname or sqlite://path/to/app.db); defaults to db_url from dumpmancer.yaml",
			EnvVars: []string{"DUMPMANCER_DB_URL"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Database password (prompted for when omitted and the URL carries none)",
			EnvVars: []string{"DUMPMANCER_PASSWORD"},
		},
	}
}

// resolveConnection builds the connection settings from --db-url or the
// config file. An explicit --password wins over the one in the URL.
func resolveConnection(c *cli.Context, config *utils.Config) (db.ConnectionConfig, error) {
	dbURL := c.String("db-url")
	if dbURL == "" {
		dbURL = config.DatabaseURL
	}
	if dbURL == "" {
		return db.ConnectionConfig{}, fmt.Errorf("no database URL: pass --db-url or set db_url in %s", utils.ConfigFileName)
	}

	cfg, err := db.ParseURL(dbURL)
	if err != nil {
		return db.ConnectionConfig{}, err
	}

	if pw := c.String("password"); pw != "" {
		cfg.Password = pw
	}
	if cfg.Password == "" && cfg.Driver != db.SQLite && cfg.User != "" && utils.IsInteractive() {
		pw, err := utils.PromptPassword(cfg.String())
		if err != nil {
			return db.ConnectionConfig{}, err
		}
		cfg.Password = pw
	}
	return cfg, nil
}

// dumpName is the directory name used for a database's dumps.
func dumpName(cfg db.ConnectionConfig) string {
	if cfg.Driver == db.SQLite {
		base := filepath.Base(cfg.Database)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return cfg.Database
}

func logger() *slog.Logger {
	return slog.Default()
}
