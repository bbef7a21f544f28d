package etrain

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
)

var dayMarkerRe = regexp.MustCompile(`\(Day (\d+)\)`)

// FetchSchedule downloads and parses the train's timetable page.
func (c *Client) FetchSchedule(ctx context.Context, trainName, trainNumber string) (*model.Schedule, error) {
	path := fmt.Sprintf("/train/%s/schedule", trainSlug(trainName, trainNumber))
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	sched, err := parseSchedule(body)
	if err != nil {
		return nil, err
	}
	if sched.Train.Name == "" {
		sched.Train.Name = trainName
	}
	if sched.Train.Number == "" {
		sched.Train.Number = trainNumber
	}
	c.log.Debugf("train %s: schedule with %d stops", sched.Train.Number, len(sched.Stops))
	return sched, nil
}

func parseSchedule(page []byte) (*model.Schedule, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse schedule page: %w", err)
	}

	table := findNode(doc, tagWithClass("table", "bx3_brl"))
	if table == nil {
		return nil, fmt.Errorf("no schedule table on page: %w", ingest.ErrNoData)
	}

	var stops []model.ScheduleStop
	for _, row := range findNodes(table, tag("tr")) {
		stop, ok := parseScheduleRow(row)
		if !ok {
			continue
		}
		stops = append(stops, stop)
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("schedule table has no stations: %w", ingest.ErrNoData)
	}

	sched := &model.Schedule{Stops: stops}
	sched.Train.Name, sched.Train.Number = parseTrainHeader(doc)
	sched.Train.Route = sched.Route()
	return sched, nil
}

// parseScheduleRow reads one station row. The first cell holds the position
// and code, the middle cell the station details, the last cell the arrival
// and departure divs. Header rows have none of these and are skipped.
func parseScheduleRow(row *html.Node) (model.ScheduleStop, bool) {
	var stop model.ScheduleStop

	numCell := findNode(row, tagWithClass("td", "txt-center"))
	stationCell := findNode(row, tagWithClass("td", "intstnCont"))
	cells := findNodes(row, tag("td"))
	if numCell == nil || stationCell == nil || len(cells) == 0 {
		return stop, false
	}

	pdl := findNodes(numCell, tagWithClass("div", "pdl5"))
	if len(pdl) < 2 {
		return stop, false
	}
	num, err := strconv.Atoi(nodeText(pdl[0]))
	if err != nil {
		return stop, false
	}
	stop.Number = num
	stop.Code = nodeText(pdl[1])

	if name := findNode(stationCell, tagWithClass("div", "fixwelps")); name != nil {
		stop.Name = nodeText(name)
	}
	if dist := findNode(stationCell, tagWithClass("div", "fixw70")); dist != nil {
		stop.Distance = nodeText(dist)
	}
	if small := findNode(stationCell, tag("small")); small != nil {
		stop.Platform = strings.TrimSpace(strings.TrimPrefix(nodeText(small), "Platform:"))
	}

	timing := findNodes(cells[len(cells)-1], tagWithClass("div", "nowrap"))
	if len(timing) < 2 {
		return stop, false
	}
	stop.Arrival, stop.ArrivalDay = splitDayMarker(nodeText(timing[0]))
	stop.Departure, stop.DepartureDay = splitDayMarker(nodeText(timing[1]))
	return stop, true
}

// parseTrainHeader pulls "Name (Number)" from the page header when present.
func parseTrainHeader(doc *html.Node) (name, number string) {
	header := findNode(doc, tagWithClass("div", "bx3_bgm"))
	if header == nil {
		return "", ""
	}
	text := nodeText(header)
	open := strings.Index(text, "(")
	end := strings.Index(text, ")")
	if open < 0 || end < open {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:open]), strings.TrimSpace(text[open+1 : end])
}

// splitDayMarker strips a "(Day N)" suffix from a timing string. Timings
// without a marker belong to day 1.
func splitDayMarker(s string) (string, int) {
	day := 1
	if m := dayMarkerRe.FindStringSubmatch(s); m != nil {
		day, _ = strconv.Atoi(m[1])
	}
	return strings.TrimSpace(dayMarkerRe.ReplaceAllString(s, "")), day
}
