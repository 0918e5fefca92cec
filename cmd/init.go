package cmd

import (
	"fmt"
	"os"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"
	"github.com/urfave/cli/v2"
)

func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize dumpmancer configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "storage-path",
				Usage: "Path to store dump files",
				Value: utils.DefaultStorage,
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "File name prefix of dump files",
				Value: utils.DefaultPrefix,
			},
			&cli.StringFlag{
				Name:  "db-url",
				Usage: "Default database connection URL",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Replace an existing dumpmancer.yaml without asking",
			},
		},
		Action: func(c *cli.Context) error {
			config := &utils.Config{
				StoragePath: c.String("storage-path"),
				Prefix:      c.String("prefix"),
				DatabaseURL: c.String("db-url"),
			}

			// Keep settings from an existing config unless overridden
			if configPath, err := utils.FindConfigFile(); err == nil {
				if existing, err := utils.ReadConfig(configPath); err == nil {
					if !c.IsSet("storage-path") {
						config.StoragePath = existing.StoragePath
					}
					if !c.IsSet("prefix") {
						config.Prefix = existing.Prefix
					}
					if !c.IsSet("db-url") {
						config.DatabaseURL = existing.DatabaseURL
					}
					config.Tables = existing.Tables
				}
			}

			if config.DatabaseURL != "" {
				if _, err := db.ParseURL(config.DatabaseURL); err != nil {
					return fmt.Errorf("validating database URL: %w", err)
				}
			}

			if _, err := os.Stat(utils.ConfigFileName); err == nil && !c.Bool("force") {
				if !utils.IsInteractive() {
					return fmt.Errorf("%s already exists; use --force to replace it", utils.ConfigFileName)
				}
				if !utils.Confirm(os.Stdin, os.Stdout, fmt.Sprintf("%s already exists. Replace it?", utils.ConfigFileName)) {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := utils.WriteConfig(utils.ConfigFileName, config); err != nil {
				return err
			}

			// Create storage directory if it doesn't exist
			if err := os.MkdirAll(config.StoragePath, 0755); err != nil {
				return fmt.Errorf("creating storage directory: %w", err)
			}

			fmt.Printf("Created %s with storage path: %s\n", utils.ConfigFileName, config.StoragePath)
			return nil
		},
	}
}
