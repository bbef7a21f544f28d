package training

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/core/logger"
)

// MinTrainingRows is the smallest usable history that can be split into a
// training and a holdout set.
const MinTrainingRows = 2

// ErrInsufficientData indicates fewer than MinTrainingRows usable rows
// survived outlier filtering.
var ErrInsufficientData = errors.New("insufficient training data")

// Params controls the boosting run. The seed only drives the holdout split;
// tree growth itself is deterministic.
type Params struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	MinLeaf      int     `json:"min_leaf"`
	Seed         int64   `json:"seed"`
}

// DefaultParams mirrors the tuning the pipeline was calibrated with.
func DefaultParams() Params {
	return Params{Trees: 200, MaxDepth: 6, LearningRate: 0.1, MinLeaf: 1, Seed: 42}
}

// SetDefaults fills zero fields with the calibrated defaults.
func (p *Params) SetDefaults() {
	d := DefaultParams()
	if p.Trees == 0 {
		p.Trees = d.Trees
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MinLeaf == 0 {
		p.MinLeaf = d.MinLeaf
	}
	if p.Seed == 0 {
		p.Seed = d.Seed
	}
}

// Validate rejects parameter combinations the booster cannot run with.
func (p Params) Validate() error {
	if p.Trees <= 0 {
		return fmt.Errorf("trees must be positive, got %d", p.Trees)
	}
	if p.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", p.MaxDepth)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0,1], got %v", p.LearningRate)
	}
	if p.MinLeaf <= 0 {
		return fmt.Errorf("min_leaf must be positive, got %d", p.MinLeaf)
	}
	return nil
}

// Artifact is the persisted model/encoder pair prediction runs on. The two
// halves are always written and read as a unit so a reader never sees one
// half refreshed without the other.
type Artifact struct {
	Train     string                   `json:"train"`
	Model     *Model                   `json:"model"`
	Encoder   *features.StationEncoder `json:"encoder"`
	TrainedAt time.Time                `json:"trained_at"`
}

// Metrics reports holdout quality for observability. Values never gate
// pipeline success.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	Rows int     `json:"rows"` // usable rows the split was drawn from
}

// Trainer fits delay regressors from feature matrices.
type Trainer struct {
	params Params
	log    logger.Logger
}

// NewTrainer returns a Trainer with the given parameters.
func NewTrainer(params Params, log logger.Logger) *Trainer {
	params.SetDefaults()
	return &Trainer{params: params, log: log}
}

// Fit trains the regressor on x/y and packages it with the encoder that
// produced the matrix. A fifth of the rows (at least one) is held out for
// the reported metrics; the persisted model is fit on the remainder, and the
// seeded shuffle makes the whole run reproducible.
func (t *Trainer) Fit(x *mat.Dense, y []float64, enc *features.StationEncoder) (*Artifact, Metrics, error) {
	if x == nil || len(y) < MinTrainingRows {
		return nil, Metrics{}, ErrInsufficientData
	}
	n, _ := x.Dims()
	if n != len(y) {
		return nil, Metrics{}, fmt.Errorf("feature matrix has %d rows for %d targets", n, len(y))
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = x.RawRowView(i)
	}

	rng := rand.New(rand.NewSource(t.params.Seed))
	perm := rng.Perm(n)
	nTest := n / 5
	if nTest < 1 {
		nTest = 1
	}
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	model := fitGBRT(pickRows(rows, trainIdx), pickFloats(y, trainIdx), t.params)
	metrics := evaluate(model, pickRows(rows, testIdx), pickFloats(y, testIdx))
	metrics.Rows = n

	t.log.Infof("model fit on %d rows: mae=%.2f rmse=%.2f r2=%.4f", n, metrics.MAE, metrics.RMSE, metrics.R2)

	artifact := &Artifact{Model: model, Encoder: enc, TrainedAt: time.Now().UTC()}
	return artifact, metrics, nil
}

func pickRows(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func pickFloats(xs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

// evaluate scores the holdout set. R2 is reported as 0 when the holdout has
// no variance, so results stay JSON-serializable.
func evaluate(m *Model, rows [][]float64, y []float64) Metrics {
	if len(y) == 0 {
		return Metrics{}
	}
	var absSum, sqSum float64
	preds := make([]float64, len(y))
	for i, row := range rows {
		preds[i] = m.Predict(row)
		err := y[i] - preds[i]
		absSum += math.Abs(err)
		sqSum += err * err
	}
	mean := stat.Mean(y, nil)
	var ssTot float64
	for _, v := range y {
		ssTot += (v - mean) * (v - mean)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sqSum/ssTot
	}
	return Metrics{
		MAE:  absSum / float64(len(y)),
		RMSE: math.Sqrt(sqSum / float64(len(y))),
		R2:   r2,
	}
}
