package cmd

import (
	"fmt"
	"os"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

func TablesCommand() *cli.Command {
	flags := append(connectionFlags(),
		&cli.BoolFlag{
			Name:  "create",
			Usage: "Print the create statement of every table",
		},
	)

	return &cli.Command{
		Name:  "tables",
		Usage: "List the tables of a database",
		Flags: flags,
		Action: func(c *cli.Context) error {
			config, _, err := utils.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg, err := resolveConnection(c, config)
			if err != nil {
				return err
			}

			inspector := db.Inspector{Logger: logger()}
			manager := db.ConnectionManager{Logger: logger()}
			return manager.WithConn(c.Context, cfg, func(conn *db.Conn) error {
				tables, err := inspector.ListTables(c.Context, conn, nil)
				if err != nil {
					return fmt.Errorf("listing tables: %w", err)
				}
				if len(tables) == 0 {
					fmt.Println("No tables found.")
					return nil
				}

				if c.Bool("create") {
					for _, name := range tables {
						desc, err := inspector.Describe(c.Context, conn, name)
						if err != nil {
							return fmt.Errorf("describing %s: %w", name, err)
						}
						fmt.Printf("%s;\n\n", desc.Create)
					}
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"#", "Table"})
				table.SetBorder(false)
				table.SetColumnSeparator(" ")
				for i, name := range tables {
					table.Append([]string{fmt.Sprint(i + 1), name})
				}
				table.Render()
				return nil
			})
		},
	}
}
