package etrain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/net/html"

	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
)

// FindTrains lists the trains running between two stations, optionally
// filtered to services running on the given date.
func (c *Client) FindTrains(ctx context.Context, srcName, srcCode, dstName, dstCode string, date time.Time) ([]model.TrainSummary, error) {
	path := fmt.Sprintf("/trains/%s-to-%s", stationSlug(srcName, srcCode), stationSlug(dstName, dstCode))
	var query url.Values
	if !date.IsZero() {
		query = url.Values{"date": {date.Format("20060102")}}
	}
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	trains, err := parseTrainsBetween(body)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("%s to %s: %d trains", srcCode, dstCode, len(trains))
	return trains, nil
}

// parseTrainsBetween reads the listing rows. Each row carries its train as
// JSON in the data-train attribute; booking classes and the pantry flag only
// exist as markup inside the row.
func parseTrainsBetween(page []byte) ([]model.TrainSummary, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	rows := findNodes(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "tr" && attr(n, "data-train") != ""
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("no trains on listing page: %w", ingest.ErrNoData)
	}

	trains := make([]model.TrainSummary, 0, len(rows))
	for _, row := range rows {
		var data struct {
			Num  string `json:"num"`
			Name string `json:"name"`
			S    string `json:"s"`
			St   string `json:"st"`
			D    string `json:"d"`
			Dt   string `json:"dt"`
			Tt   string `json:"tt"`
			Dy   string `json:"dy"`
		}
		if err := json.Unmarshal([]byte(attr(row, "data-train")), &data); err != nil {
			continue
		}

		sum := model.TrainSummary{
			Number:        data.Num,
			Name:          data.Name,
			Source:        data.S,
			DepartureTime: data.St,
			Destination:   data.D,
			ArrivalTime:   data.Dt,
			Duration:      data.Tt,
			RunningDays:   data.Dy,
			HasPantry:     findNode(row, tagWithClass("i", "icon-food")) != nil,
		}
		for _, a := range findNodes(row, tagWithClass("a", "cavlink")) {
			sum.BookingClasses = append(sum.BookingClasses, nodeText(a))
		}
		trains = append(trains, sum)
	}
	if len(trains) == 0 {
		return nil, fmt.Errorf("no trains on listing page: %w", ingest.ErrNoData)
	}
	return trains, nil
}
