package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Parthita/train-delay-backend/core/logger"
	"github.com/Parthita/train-delay-backend/core/model"
)

var csvHeader = []string{"date", "station", "delay_minutes"}

// FileStore persists one CSV per train under a directory. Files are written
// to a temp name and renamed into place so a concurrently reading worker
// never sees a half-written history.
type FileStore struct {
	dir string
	log logger.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) path(train string) string {
	return filepath.Join(s.dir, train+".csv")
}

// Load reads the train's cached records. Rows that fail to parse are skipped
// with a warning rather than failing the whole load.
func (s *FileStore) Load(train string) ([]model.HistoryRecord, error) {
	f, err := os.Open(s.path(train))
	if os.IsNotExist(err) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("open history for train %s: %w", train, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history for train %s: %w", train, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]model.HistoryRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			s.log.Warnf("train %s history row %d skipped: %v", train, i+2, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (model.HistoryRecord, error) {
	if len(row) != 3 {
		return model.HistoryRecord{}, fmt.Errorf("expected 3 columns got %d", len(row))
	}
	date, err := parseDate(row[0])
	if err != nil {
		return model.HistoryRecord{}, err
	}
	delay, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("bad delay %q: %w", row[2], err)
	}
	return model.HistoryRecord{Station: row[1], Date: date, DelayMinutes: delay}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-1-2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

// Save atomically replaces the train's cached history.
func (s *FileStore) Save(train string, records []model.HistoryRecord) error {
	tmp, err := os.CreateTemp(s.dir, train+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write history header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			model.Day(rec.Date).Format("2006-01-02"),
			rec.Station,
			strconv.FormatFloat(rec.DelayMinutes, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("write history row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("flush history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(train)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace history for train %s: %w", train, err)
	}
	s.log.Debugf("cached %d history records for train %s", len(records), train)
	return nil
}

// Exists reports whether a cached history file is present.
func (s *FileStore) Exists(train string) bool {
	_, err := os.Stat(s.path(train))
	return err == nil
}
