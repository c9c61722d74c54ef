package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/rocketscience/rocketscience/pkg/spacex"
)

// Output formats for launch listings.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// launchRow is the printed form of a launch.
type launchRow struct {
	Mission     string `json:"mission" yaml:"mission"`
	Date        string `json:"date" yaml:"date"`
	Rocket      string `json:"rocket" yaml:"rocket"`
	Year        string `json:"year" yaml:"year"`
	Success     bool   `json:"success" yaml:"success"`
	DaysFromNow int    `json:"days_from_now" yaml:"days_from_now"`
	Patch       string `json:"mission_patch,omitempty" yaml:"mission_patch,omitempty"`
	Wikipedia   string `json:"wikipedia,omitempty" yaml:"wikipedia,omitempty"`
	Video       string `json:"video,omitempty" yaml:"video,omitempty"`
}

func toRows(launches []spacex.Launch, now time.Time) []launchRow {
	rows := make([]launchRow, len(launches))
	for i, l := range launches {
		rows[i] = launchRow{
			Mission:     l.MissionName,
			Date:        l.DateAndTime(),
			Rocket:      fmt.Sprintf("%s / %s", l.Rocket.Name, l.Rocket.Type),
			Year:        l.LaunchYear,
			Success:     l.LaunchSuccess,
			DaysFromNow: l.DaysFromNow(now),
			Patch:       l.Links.MissionPatch,
			Wikipedia:   l.Links.Wikipedia,
			Video:       l.Links.Video,
		}
	}
	return rows
}

func renderLaunches(w io.Writer, launches []spacex.Launch, format string) error {
	rows := toRows(launches, time.Now())

	switch format {
	case outputJSON:
		return writeJSON(w, rows)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode launches: %w", err)
		}
		return enc.Close()
	case outputTable, "":
		table := tablewriter.NewWriter(w)
		table.Header("Mission", "Date", "Rocket", "Year", "Success", "Days")
		for _, r := range rows {
			if err := table.Append([]string{
				r.Mission, r.Date, r.Rocket, r.Year,
				successMark(r.Success), strconv.Itoa(r.DaysFromNow),
			}); err != nil {
				return fmt.Errorf("failed to build table: %w", err)
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported output format %q (use table, json or yaml)", format)
	}
}

func successMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
