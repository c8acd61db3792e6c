package command

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/starledger/internal/cli/output"
	"github.com/yndnr/starledger/internal/core/domain"
)

// SessionsCommand returns the sessions command.
func SessionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Aliases: []string{"ls"},
		Usage:   "List the stored game sessions",
		Action:  sessionsList,
	}
}

// EventsCommand returns the events command.
func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Show the history events of a session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "session",
				Aliases:  []string{"s"},
				Usage:    "Session ID",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Only events of this type (repeatable)",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "First game date, YYYY.MM.DD",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Last game date (inclusive), YYYY.MM.DD",
			},
			&cli.Int64Flag{
				Name:  "subject",
				Usage: "Only events involving this entity ID",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of events",
			},
		},
		Action: eventsList,
	}
}

// SeriesCommand returns the series command.
func SeriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "series",
		Usage: "Show the time series rows of a session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "session",
				Aliases:  []string{"s"},
				Usage:    "Session ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only rows of this category, e.g. economy, demographics, military",
			},
		},
		Action: seriesList,
	}
}

func sessionsList(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	if err := e.open(); err != nil {
		return err
	}

	sessions, err := e.store.Sessions(c.Context)
	if err != nil {
		return err
	}
	if len(sessions) == 0 && e.format == output.FormatTable {
		fmt.Fprintln(c.App.Writer, "No sessions stored.")
		return nil
	}
	return e.render(c.App.Writer, sessions)
}

// eventFilter builds the query filter from the command flags.
func eventFilter(c *cli.Context) (domain.EventFilter, error) {
	filter := domain.EventFilter{Limit: c.Int("limit")}
	for _, t := range c.StringSlice("type") {
		filter.Types = append(filter.Types, domain.EventType(t))
	}
	if s := c.String("from"); s != "" {
		d, err := domain.ParseGameDate(s)
		if err != nil {
			return filter, domain.ErrInvalidArgument.WithDetailsf("--from: %v", err)
		}
		filter.From = d
	}
	if s := c.String("to"); s != "" {
		d, err := domain.ParseGameDate(s)
		if err != nil {
			return filter, domain.ErrInvalidArgument.WithDetailsf("--to: %v", err)
		}
		filter.To = d
	}
	if c.IsSet("subject") {
		id := c.Int64("subject")
		filter.Subject = &id
	}
	return filter, nil
}

func eventsList(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	filter, err := eventFilter(c)
	if err != nil {
		return err
	}
	if err := e.open(); err != nil {
		return err
	}

	events, err := e.store.Events(c.Context, c.String("session"), filter)
	if err != nil {
		return err
	}
	if e.format != output.FormatTable {
		return e.render(c.App.Writer, events)
	}
	return eventTable(events, e.wide).Render(c.App.Writer)
}

func eventTable(events []domain.HistoryEvent, wide bool) *output.Table {
	table := &output.Table{}
	if wide {
		table.SetHeaders("DATE", "TYPE", "CATEGORY", "SUBJECTS", "DETAILS", "ID")
	} else {
		table.SetHeaders("DATE", "TYPE", "SUBJECTS", "DETAILS")
	}
	for i := range events {
		ev := &events[i]
		ids := make([]string, len(ev.SubjectIDs))
		for j, id := range ev.SubjectIDs {
			ids[j] = strconv.FormatInt(id, 10)
		}
		subjects := strings.Join(ids, ",")
		if subjects == "" {
			subjects = "-"
		}
		details := "-"
		if len(ev.Payload) > 0 {
			if raw, err := json.Marshal(ev.Payload); err == nil {
				details = string(raw)
			}
		}
		if wide {
			table.AddRow(ev.Date.String(), string(ev.Type), string(ev.Category), subjects, details, ev.ID)
		} else {
			table.AddRow(ev.Date.String(), string(ev.Type), subjects, details)
		}
	}
	return table
}

func seriesList(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	if err := e.open(); err != nil {
		return err
	}

	rows, err := e.store.Series(c.Context, c.String("session"), domain.Category(c.String("category")))
	if err != nil {
		return err
	}
	if e.format != output.FormatTable {
		return e.render(c.App.Writer, rows)
	}
	return seriesTable(rows).Render(c.App.Writer)
}

// seriesTable spreads metrics into one column each, in name order.
func seriesTable(rows []domain.SeriesRow) *output.Table {
	var names []string
	for _, row := range rows {
		for name := range row.Metrics {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)

	headers := []string{"DATE", "CATEGORY", "SUBJECT"}
	for _, name := range names {
		headers = append(headers, strings.ToUpper(name))
	}
	headers = append(headers, "APPROX")

	table := &output.Table{}
	table.SetHeaders(headers...)
	for _, row := range rows {
		cells := []string{row.Date.String(), string(row.Category), strconv.FormatInt(row.SubjectID, 10)}
		for _, name := range names {
			v, ok := row.Metrics[name]
			if !ok {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, strconv.FormatFloat(v, 'f', -1, 64))
		}
		approx := ""
		if row.Approximate {
			approx = "~"
		}
		table.AddRow(append(cells, approx)...)
	}
	return table
}
