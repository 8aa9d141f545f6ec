package cli

import (
	"time"

	"github.com/urfave/cli/v2"

	"kalender/internal/capture"
	appLog "kalender/internal/log"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Render the month view of a running server to PNG with headless Chromium.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "base URL of the server (default http://<listen> from config)"},
			&cli.StringFlag{Name: "month", Usage: "month to render, YYYY-MM (default current month)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "month.png", Usage: "PNG output path"},
			&cli.IntFlag{Name: "width", Value: capture.DefaultWidth, Usage: "viewport width in pixels"},
			&cli.IntFlag{Name: "height", Value: capture.DefaultHeight, Usage: "viewport height in pixels"},
			&cli.DurationFlag{Name: "timeout", Value: capture.DefaultTimeoutSec * time.Second, Usage: "overall capture timeout"},
		},
		Action: func(c *cli.Context) error {
			base := c.String("url")
			if base == "" {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				base = "http://" + cfg.Listen
			}

			opts := capture.Options{
				BaseURL:    base,
				Month:      c.String("month"),
				OutputPath: c.String("out"),
				Width:      c.Int("width"),
				Height:     c.Int("height"),
				Timeout:    c.Duration("timeout"),
			}
			if err := capture.CaptureMonthPNG(c.Context, opts); err != nil {
				return err
			}
			appLog.Info("snapshot written", "path", opts.OutputPath)
			return nil
		},
	}
}
