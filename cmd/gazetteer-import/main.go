// gazetteer-import: loads the place-name CSV into Postgres for GAZETTEER_SOURCE=postgres, and checks grid coordinates
package main

import (
	"context"
	"fmt"
	"os"
	"place-search/internal/config"
	"place-search/internal/gazetteer"
	"place-search/internal/logger"
	"place-search/internal/migrate"
	"place-search/internal/projection"
	"place-search/internal/store"
	"place-search/internal/utils"
	"strconv"

	"github.com/urfave/cli/v2"
)

func main() {
	config.LoadEnvFiles()
	if err := newApp().Run(os.Args); err != nil {
		logger.L().Error("gazetteer_import_error", "err", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "gazetteer-import",
		Usage: "Manage the persisted place-name table",
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Replace the Postgres gazetteer with the rows of a CSV export",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "csv",
						Aliases: []string{"f"},
						Usage:   "CSV export to load (defaults to GAZETTEER_CSV)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Parse and report without touching the database",
					},
				},
			},
			{
				Name:      "project",
				Usage:     "Print lon/lat for an ETRS-TM35FIN easting/northing",
				ArgsUsage: "<x> <y>",
				Action:    projectCommand,
			},
		},
	}
}

func importCommand(c *cli.Context) error {
	cfg := config.FromEnv()
	path := c.String("csv")
	if path == "" {
		path = cfg.CSVPath
	}
	roles := gazetteer.Roles{Municipality: cfg.MunicipalityCol, X: cfg.XCol, Y: cfg.YCol}
	t, err := gazetteer.LoadCSV(path, roles)
	if err != nil {
		return err
	}
	withCoords := 0
	for _, r := range t.Records() {
		if r.HasCoords() {
			withCoords++
		}
	}
	fmt.Fprintf(c.App.Writer, "%s: %d rows, %d with coordinates, %d municipalities\n", path, t.Len(), withCoords, len(t.Municipalities()))
	if c.Bool("dry-run") {
		return nil
	}

	ctx := context.Background()
	db, err := utils.ConnectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		return err
	}
	if err := store.AttachDB(db).ReplaceGazetteer(ctx, t); err != nil {
		return fmt.Errorf("replace gazetteer: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "imported %d rows\n", t.Len())
	return nil
}

func projectCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <x> <y>, got %d arguments", c.NArg())
	}
	x, err := strconv.ParseFloat(c.Args().Get(0), 64)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(c.Args().Get(1), 64)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}
	lon, lat, err := projection.NewTM35FIN().Inverse(x, y)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "lon=%.6f lat=%.6f\n", lon, lat)
	return nil
}
