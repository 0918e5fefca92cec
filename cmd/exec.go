package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

func ExecCommand() *cli.Command {
	flags := append(connectionFlags(),
		&cli.StringFlag{
			Name:     "query",
			Aliases:  []string{"q"},
			Required: true,
			Usage:    "Statement with positional placeholders (? for MySQL/SQLite, $1.. for PostgreSQL)",
		},
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Parameter as type:value, in placeholder order; type is int, float, string or blob (hex); type:NULL binds NULL",
		},
		&cli.BoolFlag{
			Name:  "write",
			Usage: "Run as a write and report affected rows instead of printing rows",
		},
	)

	return &cli.Command{
		Name:  "exec",
		Usage: "Run a parameterized statement",
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

			bindings, err := parseParams(c.StringSlice("param"))
			if err != nil {
				return err
			}
			spec := db.QuerySpec{Template: c.String("query"), Bindings: bindings}
			if c.Bool("write") {
				spec.Mode = db.ModeWrite
			}

			executor := db.Executor{
				Logger:      logger(),
				Connections: db.ConnectionManager{Logger: logger()},
			}
			res, err := executor.Run(c.Context, cfg, spec)
			if err != nil {
				return fmt.Errorf("executing statement: %w", err)
			}

			switch r := res.(type) {
			case db.MutationResult:
				fmt.Printf("Affected rows: %d\n", r.AffectedRows)
				if r.LastInsertID != 0 {
					fmt.Printf("Last insert id: %d\n", r.LastInsertID)
				}
			case db.RowSet:
				printRowSet(r)
			}
			return nil
		},
	}
}

// parseParams turns type:value arguments into bindings.
func parseParams(args []string) ([]db.ParamBinding, error) {
	bindings := make([]db.ParamBinding, 0, len(args))
	for i, arg := range args {
		typeName, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("parameter %d: expected type:value, got %q", i+1, arg)
		}
		t, err := db.ParseParamType(typeName)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		if value == "NULL" {
			bindings = append(bindings, db.Null(t))
			continue
		}

		var b db.ParamBinding
		switch t {
		case db.ParamInt:
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %d: invalid int %q", i+1, value)
			}
			b = db.Int(v)
		case db.ParamFloat:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %d: invalid float %q", i+1, value)
			}
			b = db.Float(v)
		case db.ParamString:
			b = db.String(value)
		case db.ParamBlob:
			v, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
			if err != nil {
				return nil, fmt.Errorf("parameter %d: blob must be hex: %w", i+1, err)
			}
			b = db.Blob(v)
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func printRowSet(set db.RowSet) {
	if len(set) == 0 {
		fmt.Println("No rows.")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(set[0].Columns())
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoFormatHeaders(false)
	for _, row := range set {
		cells := make([]string, len(row))
		for i, f := range row {
			cells[i] = formatValue(f.Value)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Printf("\n%d row(s)\n", len(set))
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "0x" + hex.EncodeToString(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
