package training

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// treeNode is one node of a regression tree, stored flat so the whole tree
// serializes to a compact, loss-free JSON form.
type treeNode struct {
	Feature   int     `json:"f"` // split feature, -1 for leaves
	Threshold float64 `json:"t"` // rows go left when row[Feature] <= Threshold
	Left      int     `json:"l"` // child indices into the node slice
	Right     int     `json:"r"`
	Value     float64 `json:"v"` // leaf output
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a gradient-boosted ensemble of regression trees fit with a
// squared-error objective. Delay is a nonlinear function of calendar and
// lag/rolling signals and per-train samples number in the hundreds, which
// favors shallow tree ensembles over linear fits.
type Model struct {
	Base         float64 `json:"base"` // initial prediction, the training target mean
	LearningRate float64 `json:"learning_rate"`
	Features     int     `json:"features"` // expected row width
	Trees        []tree  `json:"trees"`
}

// Predict scores one feature row.
func (m *Model) Predict(row []float64) float64 {
	p := m.Base
	for _, t := range m.Trees {
		p += m.LearningRate * t.predict(row)
	}
	return p
}

// fitGBRT boosts p.Trees rounds over the training rows. Each round fits one
// depth-limited tree to the current residuals and shrinks it by the learning
// rate. Stops early once residuals reach zero.
func fitGBRT(rows [][]float64, y []float64, p Params) *Model {
	m := &Model{
		Base:         stat.Mean(y, nil),
		LearningRate: p.LearningRate,
		Features:     len(rows[0]),
	}
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.Base
	}
	resid := make([]float64, len(y))
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	for round := 0; round < p.Trees; round++ {
		for i := range y {
			resid[i] = y[i] - pred[i]
		}
		t := fitTree(rows, resid, idx, p.MaxDepth, p.MinLeaf)
		if len(t.Nodes) == 1 && t.Nodes[0].Value == 0 {
			break
		}
		m.Trees = append(m.Trees, t)
		for i := range y {
			pred[i] += p.LearningRate * t.predict(rows[i])
		}
	}
	return m
}

type treeBuilder struct {
	rows     [][]float64
	resid    []float64
	maxDepth int
	minLeaf  int
	nodes    []treeNode
}

// fitTree grows one regression tree over the residuals at the given row
// indices, greedily choosing the split with the largest squared-error
// reduction at each node.
func fitTree(rows [][]float64, resid []float64, idx []int, maxDepth, minLeaf int) tree {
	b := &treeBuilder{rows: rows, resid: resid, maxDepth: maxDepth, minLeaf: minLeaf}
	b.grow(idx, 0)
	return tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: -1, Value: b.meanAt(idx)})
	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || len(idx) < 2 {
		return id
	}
	f, thr, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if b.rows[i][f] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = f
	b.nodes[id].Threshold = thr
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

func (b *treeBuilder) meanAt(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.resid[i]
	}
	return sum / float64(len(idx))
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children. Candidate thresholds are midpoints
// between distinct consecutive values; ties in a feature sort by row index so
// the choice is deterministic.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var sumY, sumY2 float64
	for _, i := range idx {
		sumY += b.resid[i]
		sumY2 += b.resid[i] * b.resid[i]
	}
	baseSSE := sumY2 - sumY*sumY/float64(n)

	best := baseSSE - 1e-12
	bestFeature, found := -1, false
	var bestThr float64

	order := make([]int, n)
	for f := 0; f < len(b.rows[idx[0]]); f++ {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool {
			va, vc := b.rows[order[a]][f], b.rows[order[c]][f]
			if va != vc {
				return va < vc
			}
			return order[a] < order[c]
		})

		var leftY, leftY2 float64
		for k := 1; k < n; k++ {
			yi := b.resid[order[k-1]]
			leftY += yi
			leftY2 += yi * yi
			if k < b.minLeaf || n-k < b.minLeaf {
				continue
			}
			lo, hi := b.rows[order[k-1]][f], b.rows[order[k]][f]
			if lo == hi {
				continue
			}
			sseL := leftY2 - leftY*leftY/float64(k)
			sseR := (sumY2 - leftY2) - (sumY-leftY)*(sumY-leftY)/float64(n-k)
			if sseL+sseR < best {
				best = sseL + sseR
				bestFeature = f
				// Midpoints between adjacent floats can round up to hi,
				// which would leave the right child empty.
				if mid := (lo + hi) / 2; mid < hi {
					bestThr = mid
				} else {
					bestThr = lo
				}
				found = true
			}
		}
	}
	return bestFeature, bestThr, found
}
