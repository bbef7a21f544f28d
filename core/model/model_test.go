package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTrainOrigin(t *testing.T) {
	tr := Train{Number: "12303", Route: []string{"HWH", "BWN", "NDLS"}}
	if got := tr.Origin(); got != "HWH" {
		t.Fatalf("expected HWH got %s", got)
	}
	empty := Train{Number: "12303"}
	if got := empty.Origin(); got != "" {
		t.Fatalf("expected empty origin got %s", got)
	}
}

func TestTrainValidate(t *testing.T) {
	if err := (Train{Route: []string{"HWH"}}).Validate(); err == nil {
		t.Fatal("expected error for missing number")
	}
	if err := (Train{Number: "12303"}).Validate(); err != nil {
		t.Fatalf("route should be optional: %v", err)
	}
	if err := (Train{Number: "12303", Route: []string{"HWH"}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDayTruncation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2025, 5, 21, 23, 45, 0, 0, loc)
	got := Day(in)
	want := time.Date(2025, 5, 21, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestParseDay(t *testing.T) {
	want := time.Date(2025, 5, 21, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-05-21", "20250521"} {
		got, err := ParseDay(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %v got %v", in, want, got)
		}
	}
	if _, err := ParseDay("21-05-2025"); err == nil {
		t.Fatal("expected error for unknown layout")
	}
}

func TestStationIndexLookup(t *testing.T) {
	idx := NewStationIndex(map[string]string{
		"Howrah Jn":      "HWH",
		" BARDDHAMAN JN": "bwn",
	})
	if idx.Len() != 2 {
		t.Fatalf("expected 2 stations got %d", idx.Len())
	}
	code, ok := idx.Code("HOWRAH  JN")
	if !ok || code != "HWH" {
		t.Fatalf("expected HWH got %q ok=%v", code, ok)
	}
	code, ok = idx.Code("Barddhaman Jn")
	if !ok || code != "BWN" {
		t.Fatalf("codes should be upper-cased: got %q ok=%v", code, ok)
	}
	if _, ok := idx.Code("Unknown Halt"); ok {
		t.Fatal("unknown name should not resolve")
	}
}

func TestStationDelayJSON(t *testing.T) {
	res := PredictionResult{
		"HWH": {Minutes: 0},
		"BWN": {Minutes: 12.25},
		"CNB": {Unavailable: true},
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back PredictionResult
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["BWN"].Minutes != 12.25 || back["BWN"].Unavailable {
		t.Fatalf("expected 12.25 got %+v", back["BWN"])
	}
	if !back["CNB"].Unavailable {
		t.Fatalf("expected unavailable marker got %+v", back["CNB"])
	}
	if back["HWH"].Minutes != 0 || back["HWH"].Unavailable {
		t.Fatalf("zero delay must stay distinct from unavailable: %+v", back["HWH"])
	}
}

func TestUnavailableResult(t *testing.T) {
	r := UnavailableResult([]string{"HWH", "BWN"})
	if len(r) != 2 {
		t.Fatalf("expected 2 entries got %d", len(r))
	}
	for code, d := range r {
		if !d.Unavailable {
			t.Fatalf("station %s should be unavailable", code)
		}
	}
}
