package modelstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/core/training"
	"github.com/Parthita/train-delay-backend/infra/logger"
)

func fitArtifact(t *testing.T) *training.Artifact {
	t.Helper()
	x := mat.NewDense(8, features.NumFeatures, nil)
	y := []float64{5, 10, 0, 8, 12, 3, 7, 9}
	for i := range y {
		x.Set(i, 0, float64(i))
		x.Set(i, 10, y[i]/2)
	}
	art, _, err := training.NewTrainer(training.DefaultParams(), logger.NopLogger{}).
		Fit(x, y, features.NewStationEncoder([]string{"HWH", "BWN", "NDLS"}))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	return art
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	art := fitArtifact(t)

	if store.Exists("12303") {
		t.Fatal("artifact should not exist before put")
	}
	if _, err := store.Get("12303"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := store.Put("12303", art); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !store.Exists("12303") {
		t.Fatal("artifact should exist after put")
	}

	got, err := store.Get("12303")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Train != "12303" {
		t.Fatalf("expected stamped train number, got %q", got.Train)
	}
	if got.Encoder.Len() != art.Encoder.Len() {
		t.Fatalf("encoder lost classes: %d vs %d", got.Encoder.Len(), art.Encoder.Len())
	}

	// The round-tripped model must reproduce predictions bit for bit.
	probe := make([]float64, features.NumFeatures)
	for v := 0.0; v < 8; v++ {
		probe[0] = v
		probe[10] = v / 3
		if art.Model.Predict(probe) != got.Model.Predict(probe) {
			t.Fatalf("prediction diverged after round trip at %v", v)
		}
	}
}

func TestFileStorePutOverwrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	art := fitArtifact(t)
	if err := store.Put("12303", art); err != nil {
		t.Fatalf("put 1: %v", err)
	}

	refit := *art
	refit.Encoder = art.Encoder.Extend([]string{"CNB"})
	refit.TrainedAt = art.TrainedAt.Add(time.Hour)
	if err := store.Put("12303", &refit); err != nil {
		t.Fatalf("put 2: %v", err)
	}

	got, err := store.Get("12303")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := got.Encoder.Encode("CNB"); !ok {
		t.Fatal("refit encoder was not persisted")
	}
}

func TestFileStoreRejectsIncompleteArtifact(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	art := fitArtifact(t)
	art.Encoder = nil
	if err := store.Put("12303", art); err == nil {
		t.Fatal("expected error storing artifact without encoder")
	}
}

func TestFileStoreCorruptEnvelope(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "12303_model.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Get("12303"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected decode error got %v", err)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Put("12303", fitArtifact(t)); err != nil {
		t.Fatalf("put: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreConcurrentPutsSameTrain(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), logger.NopLogger{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	art := fitArtifact(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Put("12303", art); err != nil {
				t.Errorf("put: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := store.Get("12303"); err != nil {
		t.Fatalf("get after concurrent puts: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store.Exists("12303") {
		t.Fatal("unexpected artifact")
	}
	if _, err := store.Get("12303"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	art := fitArtifact(t)
	if err := store.Put("12303", art); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get("12303")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Train != "12303" || got.Model == nil || got.Encoder == nil {
		t.Fatalf("bad artifact: %+v", got)
	}
}
