package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Parthita/train-delay-backend/core/model"
)

// StationsConfig points at the station name to code mapping. An empty file
// path falls back to the bundled defaults.
type StationsConfig struct {
	File string `json:"file"`
}

// Load reads the station index once at startup. Two file shapes are
// accepted: a flat {"NAME": "CODE"} object, and the
// {"stations": [{"stnName", "stnCode"}]} export some sources produce.
func (c StationsConfig) Load() (model.StationIndex, error) {
	if c.File == "" {
		return model.NewStationIndex(defaultStations), nil
	}
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return model.StationIndex{}, fmt.Errorf("read stations file: %w", err)
	}

	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return model.NewStationIndex(flat), nil
	}

	var wrapped struct {
		Stations []struct {
			Name string `json:"stnName"`
			Code string `json:"stnCode"`
		} `json:"stations"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Stations) == 0 {
		return model.StationIndex{}, fmt.Errorf("stations file %s: unrecognized format", c.File)
	}
	names := make(map[string]string, len(wrapped.Stations))
	for _, s := range wrapped.Stations {
		if s.Name == "" || s.Code == "" {
			continue
		}
		names[s.Name] = s.Code
	}
	return model.NewStationIndex(names), nil
}

// defaultStations covers the Howrah to New Delhi corridor the service was
// first deployed for.
var defaultStations = map[string]string{
	"HOWRAH JN":                 "HWH",
	"NEW DELHI":                 "NDLS",
	"BARDDHAMAN JN":             "BWN",
	"DURGAPUR":                  "DGR",
	"ASANSOL JN":                "ASN",
	"CHITTARANJAN":              "CRJ",
	"JAMTARA":                   "JMT",
	"MADHUPUR JN":               "MDP",
	"JASIDIH JN":                "JSME",
	"JHAJHA":                    "JAJ",
	"JAMUI":                     "JMU",
	"KIUL JN":                   "KIUL",
	"MOKAMEH JN":                "MKA",
	"BARH":                      "BARH",
	"BAKHTIYARPUR JN":           "BKP",
	"PATNA JN":                  "PNBE",
	"DANAPUR":                   "DNR",
	"ARA":                       "ARA",
	"BUXAR":                     "BXR",
	"PT DEEN DAYAL UPADHYAY JN": "DDU",
	"PRAYAGRAJ JN":              "PRYJ",
	"KANPUR CENTRAL":            "CNB",
	"ETAWAH":                    "ETW",
	"TUNDLA JN":                 "TDL",
	"ALIGARH JN":                "ALJN",
}
