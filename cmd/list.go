package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	db "github.com/KazanKK/dumpmancer/database"
	utils "github.com/KazanKK/dumpmancer/internal/utils"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

// dumpEntry is one artifact found in the storage path.
type dumpEntry struct {
	Database string
	File     string
	Artifact db.Artifact
	Size     int64
}

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List local dump files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "database",
				Usage: "Only list dumps of this database",
			},
		},
		Action: func(c *cli.Context) error {
			config, projectRoot, err := utils.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			dumpsDir := utils.GetDumpsRoot(projectRoot, config.StoragePath)
			entries, err := findDumps(dumpsDir, c.String("database"))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No local dumps found.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Database", "File", "Created", "Size"})
			table.SetBorder(false)
			table.SetColumnSeparator(" ")
			for _, e := range entries {
				table.Append([]string{
					e.Database,
					e.File,
					humanize.Time(e.Artifact.Timestamp),
					humanize.Bytes(uint64(e.Size)),
				})
			}
			table.Render()
			return nil
		},
	}
}

// findDumps walks <dumpsDir>/<database>/ and returns the artifacts it finds,
// newest first within each database. Files that do not follow the artifact
// naming scheme are skipped.
func findDumps(dumpsDir, only string) ([]dumpEntry, error) {
	dbEntries, err := os.ReadDir(dumpsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading dumps directory: %w", err)
	}

	var out []dumpEntry
	for _, dbEntry := range dbEntries {
		if !dbEntry.IsDir() || (only != "" && dbEntry.Name() != only) {
			continue
		}
		dir := filepath.Join(dumpsDir, dbEntry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}

		var found []dumpEntry
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			artifact, ok := db.ParseArtifactName(f.Name())
			if !ok || artifact.Ext != db.DefaultExt {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
			}
			found = append(found, dumpEntry{
				Database: dbEntry.Name(),
				File:     f.Name(),
				Artifact: artifact,
				Size:     info.Size(),
			})
		}
		sort.SliceStable(found, func(i, j int) bool {
			return found[i].Artifact.Timestamp.After(found[j].Artifact.Timestamp)
		})
		out = append(out, found...)
	}
	return out, nil
}
