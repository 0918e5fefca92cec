package cmd

import (
	"fmt"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"

	"github.com/urfave/cli/v2"
)

func SizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "size",
		Usage: "Show how much space a database uses",
		Flags: connectionFlags(),
		Action: func(c *cli.Context) error {
			config, _, err := utils.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg, err := resolveConnection(c, config)
			if err != nil {
				return err
			}

			manager := db.ConnectionManager{Logger: logger()}
			return manager.WithConn(c.Context, cfg, func(conn *db.Conn) error {
				size, err := db.DatabaseSize(c.Context, conn)
				if err != nil {
					return fmt.Errorf("calculating size: %w", err)
				}
				fmt.Printf("%s: %s\n", cfg, size)
				return nil
			})
		},
	}
}
