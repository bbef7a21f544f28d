package training

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/infra/logger"
)

// matrixFor lays out single-feature rows padded to the full feature width.
func matrixFor(values []float64) *mat.Dense {
	x := mat.NewDense(len(values), features.NumFeatures, nil)
	for i, v := range values {
		x.Set(i, 0, v)
	}
	return x
}

func TestFitTreeSplitsOnSignal(t *testing.T) {
	rows := [][]float64{{0}, {1}, {2}, {3}}
	resid := []float64{0, 0, 10, 10}
	tr := fitTree(rows, resid, []int{0, 1, 2, 3}, 3, 1)
	for i, want := range resid {
		if got := tr.predict(rows[i]); got != want {
			t.Fatalf("row %d: expected %v got %v", i, want, got)
		}
	}
}

func TestFitGBRTConstantTarget(t *testing.T) {
	rows := [][]float64{{0}, {1}, {2}}
	y := []float64{7, 7, 7}
	m := fitGBRT(rows, y, DefaultParams())
	if m.Base != 7 {
		t.Fatalf("expected base 7 got %v", m.Base)
	}
	if len(m.Trees) != 0 {
		t.Fatalf("constant target should stop boosting immediately, got %d trees", len(m.Trees))
	}
}

func TestFitGBRTLearnsSignal(t *testing.T) {
	rows := make([][]float64, 20)
	y := make([]float64, 20)
	for i := range rows {
		rows[i] = []float64{float64(i % 4), float64(i)}
		y[i] = []float64{2, 9, 4, 15}[i%4]
	}
	m := fitGBRT(rows, y, DefaultParams())
	for i := range rows {
		if math.Abs(m.Predict(rows[i])-y[i]) > 1e-6 {
			t.Fatalf("row %d: expected %v got %v", i, y[i], m.Predict(rows[i]))
		}
	}
}

func TestFitRejectsTinyHistory(t *testing.T) {
	tr := NewTrainer(DefaultParams(), logger.NopLogger{})
	_, _, err := tr.Fit(matrixFor([]float64{1}), []float64{5}, features.NewStationEncoder([]string{"A"}))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData got %v", err)
	}
	if _, _, err := tr.Fit(nil, nil, nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for nil matrix got %v", err)
	}
}

func TestFitTwoRows(t *testing.T) {
	tr := NewTrainer(DefaultParams(), logger.NopLogger{})
	art, metrics, err := tr.Fit(matrixFor([]float64{1, 2}), []float64{5, 10}, features.NewStationEncoder([]string{"A"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art == nil || art.Model == nil || art.Encoder == nil {
		t.Fatal("artifact must carry both model and encoder")
	}
	if metrics.MAE < 0 {
		t.Fatalf("MAE must be non-negative, got %v", metrics.MAE)
	}
	if metrics.Rows != 2 {
		t.Fatalf("expected 2 rows reported got %d", metrics.Rows)
	}
}

func TestFitDeterministic(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	targets := []float64{5, 10, 0, 8, 12, 3, 7, 9, 2, 6}
	enc := features.NewStationEncoder([]string{"A"})

	tr := NewTrainer(DefaultParams(), logger.NopLogger{})
	a1, m1, err := tr.Fit(matrixFor(values), targets, enc)
	if err != nil {
		t.Fatalf("fit 1: %v", err)
	}
	a2, m2, err := tr.Fit(matrixFor(values), targets, enc)
	if err != nil {
		t.Fatalf("fit 2: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("metrics differ across identical fits: %+v vs %+v", m1, m2)
	}
	probe := make([]float64, features.NumFeatures)
	probe[0] = 4
	if a1.Model.Predict(probe) != a2.Model.Predict(probe) {
		t.Fatal("identical fits must produce identical predictions")
	}
}

func TestModelJSONRoundTripPredictsIdentically(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	targets := []float64{5, 10, 0, 8, 12, 3, 7, 9}
	tr := NewTrainer(DefaultParams(), logger.NopLogger{})
	art, _, err := tr.Fit(matrixFor(values), targets, features.NewStationEncoder([]string{"A"}))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	data, err := json.Marshal(art.Model)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Model
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for v := 0.0; v < 10; v++ {
		probe := make([]float64, features.NumFeatures)
		probe[0] = v
		if art.Model.Predict(probe) != back.Predict(probe) {
			t.Fatalf("round-tripped model diverges at %v", v)
		}
	}
}

func TestEvaluateZeroVarianceHoldout(t *testing.T) {
	m := &Model{Base: 5, LearningRate: 0.1, Features: 1}
	got := evaluate(m, [][]float64{{1}, {2}}, []float64{5, 5})
	if got.R2 != 0 {
		t.Fatalf("expected R2 0 on zero-variance holdout got %v", got.R2)
	}
	if got.MAE != 0 || got.RMSE != 0 {
		t.Fatalf("perfect constant prediction should score 0 error, got %+v", got)
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params must validate: %v", err)
	}
	p.LearningRate = 2
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for learning_rate > 1")
	}
}
