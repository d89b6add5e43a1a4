// Package agenda loads the itinerary from disk, either from the converted
// JSON file or straight from the spreadsheet CSV export.
package agenda

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	domagenda "github.com/gemba-cloud/gembot/internal/domain/agenda"
)

// activityJSON mirrors the on-disk JSON produced by the agenda conversion.
type activityJSON struct {
	Time    string `json:"hora"`
	Title   string `json:"actividad"`
	Address string `json:"direccion"`
	Maps    string `json:"maps"`
}

// Load reads a schedule file. CSV files go through the spreadsheet-export
// converter; anything else is parsed as the converted JSON format.
func Load(path string, year int) (domagenda.Schedule, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadCSV(path, year)
	}
	return loadJSON(path)
}

func loadJSON(path string) (domagenda.Schedule, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read agenda %s: %w", path, err)
	}

	var raw map[string][]activityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse agenda %s: %w", path, err)
	}

	schedule := make(domagenda.Schedule, len(raw))
	for date, acts := range raw {
		for _, a := range acts {
			schedule[date] = append(schedule[date], domagenda.Activity{
				Time:    a.Time,
				Title:   a.Title,
				Address: a.Address,
				MapsURL: a.Maps,
			})
		}
	}
	return schedule, nil
}

var csvDateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)

// loadCSV parses the spreadsheet agenda export. Expected header columns:
// Fecha, Hora, Actividad, Dirección, Maps. Rows without a parseable date
// are skipped. Maps cells that are not http links are dropped.
func loadCSV(path string, year int) (domagenda.Schedule, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open agenda %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read agenda header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Fecha", "Hora", "Actividad"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("agenda csv missing column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	schedule := make(domagenda.Schedule)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read agenda row: %w", err)
		}

		m := csvDateRe.FindStringSubmatch(cell(row, "Fecha"))
		if m == nil {
			continue
		}
		date := fmt.Sprintf("%04d-%s-%s", year, pad(m[2]), pad(m[1]))

		maps := cell(row, "Maps")
		if !strings.HasPrefix(maps, "http") {
			maps = ""
		}

		schedule[date] = append(schedule[date], domagenda.Activity{
			Time:    cell(row, "Hora"),
			Title:   cell(row, "Actividad"),
			Address: cell(row, "Dirección"),
			MapsURL: maps,
		})
	}
	return schedule, nil
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
