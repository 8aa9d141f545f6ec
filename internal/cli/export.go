package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"kalender/internal/config"
	"kalender/internal/ics"
	appLog "kalender/internal/log"
	"kalender/internal/model"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Convert a JSON event list into an .ics document.",
		ArgsUsage: "<events.json|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   `output file; "-" writes to stdout (default kalender-export-YYYY-MM-DD.ics)`,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("export needs exactly one input file")
			}
			events, err := readInputs(c.Args().First())
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "-" {
				return ics.EncodeTo(c.App.Writer, events)
			}
			if out == "" {
				out = ics.ExportFilename(time.Now())
			}

			var buf bytes.Buffer
			if err := ics.EncodeTo(&buf, events); err != nil {
				return err
			}
			if err := config.WriteFileAtomic(out, buf.Bytes(), ".kalender-export-*.tmp"); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			appLog.Info("export written", "path", out, "count", len(events))
			_, err = fmt.Fprintln(c.App.Writer, out)
			return err
		},
	}
}

// readInputs loads a JSON array of raw event fields and validates each
// entry the way the web form does.
func readInputs(path string) ([]model.Event, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var inputs []model.Input
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	events := make([]model.Event, 0, len(inputs))
	for i, in := range inputs {
		ev, err := model.NewEvent(in)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
