package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"kalender/internal/ics"
	"kalender/internal/model"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Decode an .ics file or URL and print its events.",
		ArgsUsage: "[calendar.ics]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "fetch the calendar from an http(s) URL instead of a file"},
			&cli.BoolFlag{Name: "json", Usage: "print events as JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			var (
				events []model.Event
				err    error
			)
			switch {
			case c.String("url") != "":
				cfg, cerr := loadConfig(c)
				if cerr != nil {
					return cerr
				}
				events, err = readURL(c, cfg.MaxImportBytes)
			case c.NArg() == 1:
				events, err = readFile(c.Args().First())
			default:
				return fmt.Errorf("import needs a file or --url")
			}
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return ics.ErrNoEvents
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			return writeTable(c.App.Writer, []string{"DATE", "TIME", "MIN", "TITLE", "LOCATION"}, eventRows(events))
		},
	}
}

func readFile(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ics.ReadError{Source: path, Err: err}
	}
	defer f.Close()

	events, err := ics.Decode(f)
	if err != nil {
		// Decode leaves Source empty.
		var re *ics.ReadError
		if errors.As(err, &re) {
			re.Source = path
		}
		return nil, err
	}
	return events, nil
}

func readURL(c *cli.Context, maxBytes int64) ([]model.Event, error) {
	data, err := ics.NewFetcher(maxBytes).Fetch(c.Context, c.String("url"))
	if err != nil {
		return nil, err
	}
	return ics.DecodeString(string(data)), nil
}

func eventRows(events []model.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		clock, minutes := "all day", ""
		if !ev.IsFullDay {
			clock, minutes = ev.Time, ev.Duration
		}
		rows = append(rows, []string{
			ev.Date.Format(model.DateLayout),
			clock,
			minutes,
			strings.ReplaceAll(ev.Title, "\n", " "),
			strings.ReplaceAll(ev.Location, "\n", " "),
		})
	}
	return rows
}
