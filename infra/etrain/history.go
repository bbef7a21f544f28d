package etrain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
)

var (
	tooltipRe             = regexp.MustCompile(`et\.rsStat\.tooltipData\s*=\s*(\[[\s\S]+?\]);`)
	jsDateRe              = regexp.MustCompile(`new Date\((\d+),(\d+),(\d+)\)`)
	trailingArrayCommaRe  = regexp.MustCompile(`,\s*\]`)
	trailingObjectCommaRe = regexp.MustCompile(`,\s*\}`)
)

// FetchHistory downloads the train's one-year history page and decodes the
// delay chart embedded in it.
func (c *Client) FetchHistory(ctx context.Context, trainName, trainNumber string) ([]model.HistoryRecord, error) {
	path := fmt.Sprintf("/train/%s/history", trainSlug(trainName, trainNumber))
	body, err := c.get(ctx, path, url.Values{"d": {"1y"}})
	if err != nil {
		return nil, err
	}

	records, unknown, err := parseHistory(body, c.stations)
	if err != nil {
		return nil, err
	}
	if unknown > 0 {
		c.log.Warnf("train %s: %d station labels missing from station index, keeping scraped names", trainNumber, unknown)
	}
	c.log.Debugf("train %s: %d history records", trainNumber, len(records))
	return records, nil
}

// parseHistory extracts the et.rsStat.tooltipData chart array. The first row
// carries the station labels, every following row is a service date followed
// by one observed delay per station, in route order.
func parseHistory(page []byte, stations model.StationIndex) ([]model.HistoryRecord, int, error) {
	m := tooltipRe.FindSubmatch(page)
	if m == nil {
		return nil, 0, fmt.Errorf("no delay chart on history page: %w", ingest.ErrNoData)
	}
	var rows [][]json.RawMessage
	if err := json.Unmarshal(cleanChartJS(m[1]), &rows); err != nil {
		return nil, 0, fmt.Errorf("decode chart data: %w", err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, 0, fmt.Errorf("empty delay chart: %w", ingest.ErrNoData)
	}

	// Header cells after the date column name the stations. Labels the index
	// does not know keep their scraped name so their history is not lost.
	codes := make([]string, 0, len(rows[0])-1)
	unknown := 0
	for _, cell := range rows[0][1:] {
		var col struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(cell, &col); err != nil {
			return nil, 0, fmt.Errorf("decode chart header: %w", err)
		}
		code, ok := stations.Code(col.Label)
		if !ok {
			code = normalizeLabel(col.Label)
			unknown++
		}
		codes = append(codes, code)
	}

	records := make([]model.HistoryRecord, 0, (len(rows)-1)*len(codes))
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		var day string
		if err := json.Unmarshal(row[0], &day); err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		n := len(row) - 1
		if n > len(codes) {
			n = len(codes)
		}
		for i := 0; i < n; i++ {
			var delay float64
			if err := json.Unmarshal(row[i+1], &delay); err != nil {
				continue
			}
			records = append(records, model.HistoryRecord{
				Station:      codes[i],
				Date:         date,
				DelayMinutes: delay,
			})
		}
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("empty delay chart: %w", ingest.ErrNoData)
	}
	return records, unknown, nil
}

// cleanChartJS rewrites the chart array from JavaScript to JSON: date
// constructors become ISO strings (JS months are zero-based), null delays
// become 0, trailing commas go, and single quotes become double quotes.
func cleanChartJS(js []byte) []byte {
	js = jsDateRe.ReplaceAllFunc(js, func(m []byte) []byte {
		g := jsDateRe.FindSubmatch(m)
		year, _ := strconv.Atoi(string(g[1]))
		month, _ := strconv.Atoi(string(g[2]))
		day, _ := strconv.Atoi(string(g[3]))
		return []byte(fmt.Sprintf(`"%d-%02d-%02d"`, year, month+1, day))
	})
	js = bytes.ReplaceAll(js, []byte("null"), []byte("0"))
	js = trailingArrayCommaRe.ReplaceAll(js, []byte("]"))
	js = trailingObjectCommaRe.ReplaceAll(js, []byte("}"))
	js = bytes.ReplaceAll(js, []byte("'"), []byte(`"`))
	return js
}

func normalizeLabel(label string) string {
	return strings.ToUpper(strings.Join(strings.Fields(label), " "))
}
