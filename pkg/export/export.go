// Package export renders pipeline results for consumers outside the service:
// the aggregate result file, ad-hoc JSON dumps and CSV flattening.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/pipeline"
)

// WriteJSON writes the results to w as an indented JSON array.
func WriteJSON(w io.Writer, results []pipeline.Result) error {
	if results == nil {
		results = []pipeline.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WriteCSV writes the results to w in CSV format, one row per predicted
// station. Runs without predictions produce a single row carrying the status
// message.
func WriteCSV(w io.Writer, results []pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"train_number", "train_name", "date", "status", "station", "delay_minutes", "message"}); err != nil {
		return err
	}
	for _, r := range results {
		date := r.Date.Format("2006-01-02")
		if len(r.Delays) == 0 {
			rec := []string{r.Train, r.Name, date, r.Status.String(), "", "", r.Message}
			if err := cw.Write(rec); err != nil {
				return err
			}
			continue
		}
		for _, station := range sortedStations(r.Delays) {
			d := r.Delays[station]
			minutes := "unavailable"
			if !d.Unavailable {
				minutes = strconv.FormatFloat(d.Minutes, 'f', -1, 64)
			}
			rec := []string{r.Train, r.Name, date, r.Status.String(), station, minutes, r.Message}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileWriter persists result snapshots to a JSON file. Each write lands in a
// temp file that is renamed over the target, so readers never observe a
// half-written snapshot.
type FileWriter struct {
	path string
}

func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Path returns the target file location.
func (f *FileWriter) Path() string {
	return f.path
}

func (f *FileWriter) Write(results []pipeline.Result) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := WriteJSON(tmp, results); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func sortedStations(delays model.PredictionResult) []string {
	stations := make([]string, 0, len(delays))
	for s := range delays {
		stations = append(stations, s)
	}
	sort.Strings(stations)
	return stations
}
