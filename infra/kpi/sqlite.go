// Package kpi persists daily punctuality aggregates in SQLite so KPI queries
// survive restarts.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/model"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ coremetrics.KPIStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS punctuality_kpi (
        train TEXT,
        day INTEGER,
        runs INTEGER,
        successes INTEGER,
        delay_sum REAL,
        delay_n INTEGER,
        PRIMARY KEY(train, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add merges the record into its train and day row.
func (s *SQLiteStore) Add(r coremetrics.KPIRecord) error {
	d := model.Day(r.Day)
	_, err := s.db.Exec(`INSERT INTO punctuality_kpi (train, day, runs, successes, delay_sum, delay_n)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(train, day) DO UPDATE SET
            runs = runs + excluded.runs,
            successes = successes + excluded.successes,
            delay_sum = delay_sum + excluded.delay_sum,
            delay_n = delay_n + excluded.delay_n`,
		r.Train, d.Unix(), r.Runs, r.Successes, r.DelaySum, r.DelayN)
	return err
}

// Query returns records in the range [start,end] ordered by day.
func (s *SQLiteStore) Query(train string, start, end time.Time) ([]coremetrics.KPIRecord, error) {
	start = model.Day(start)
	end = model.Day(end)
	rows, err := s.db.Query(`SELECT train, day, runs, successes, delay_sum, delay_n
        FROM punctuality_kpi WHERE train = ? AND day >= ? AND day <= ? ORDER BY day`,
		train, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.KPIRecord
	for rows.Next() {
		var (
			rec coremetrics.KPIRecord
			ts  int64
		)
		if err := rows.Scan(&rec.Train, &ts, &rec.Runs, &rec.Successes, &rec.DelaySum, &rec.DelayN); err != nil {
			return nil, err
		}
		rec.Day = time.Unix(ts, 0).UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
