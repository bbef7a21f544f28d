package config

import "path/filepath"

// StorageConfig defines where models, cached history and batch results live
// on disk.
type StorageConfig struct {
	DataDir     string `json:"data_dir"`
	ResultsFile string `json:"results_file"`
	// KPIFile enables the SQLite punctuality KPI store and its API route
	// when non-empty. The store-backed sink is added automatically, so the
	// punctuality sink must not also appear in metrics.sinks.
	KPIFile string `json:"kpi_file"`
}

// SetDefaults places everything under a local data directory.
func (c *StorageConfig) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.ResultsFile == "" {
		c.ResultsFile = filepath.Join(c.DataDir, "results.json")
	}
}

// ModelsDir is where model artifacts are stored.
func (c StorageConfig) ModelsDir() string {
	return filepath.Join(c.DataDir, "models")
}

// HistoryDir is where per-train delay history is cached.
func (c StorageConfig) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}
