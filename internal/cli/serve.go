package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	appLog "kalender/internal/log"
	"kalender/internal/schedule"
	"kalender/internal/store"
	"kalender/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and JSON API over an in-memory event store.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
			&cli.StringFlag{Name: "seed", Usage: "an .ics file to import before serving"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				cfg.Listen = l
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"log_level", cfg.LogLevel,
				"week_start", cfg.WeekStart,
				"max_import_bytes", cfg.MaxImportBytes,
				"basic_auth", cfg.BasicAuth != nil,
				"cors_origins", len(cfg.CORS.AllowedOrigins),
				"auto_export", cfg.AutoExport.Enabled(),
			)

			st := store.New()
			if seed := c.String("seed"); seed != "" {
				events, err := readFile(seed)
				if err != nil {
					return err
				}
				st.Add(events...)
				appLog.Info("seeded store", "path", seed, "count", len(events))
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.AutoExport.Enabled() {
				exp, err := schedule.NewExporter(cfg.AutoExport, st)
				if err != nil {
					return err
				}
				exp.Start()
				defer exp.Stop()
			}

			return web.NewServer(cfg, st).Run(ctx)
		},
	}
}
