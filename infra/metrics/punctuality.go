package metrics

import (
	"sync"

	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// PunctualitySink aggregates pipeline runs into daily per-train KPIs: how
// often a train was scored, how often scoring succeeded and the mean
// predicted delay over its stations.
type PunctualitySink struct {
	mu    sync.Mutex
	days  map[string]*dayStats
	store coremetrics.KPIStore
	runs  *prometheus.GaugeVec
	ratio *prometheus.GaugeVec
	delay *prometheus.GaugeVec
}

type dayStats struct {
	runs      int
	successes int
	delaySum  float64
	delayN    int
}

// NewPunctualitySink creates a sink with Prometheus gauges registered on reg.
func NewPunctualitySink(reg prometheus.Registerer) *PunctualitySink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "train_daily_runs",
		Help: "Pipeline runs per train and day",
	}, []string{"train", "day"})
	ratio := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "train_daily_success_ratio",
		Help: "Share of successful runs per train and day",
	}, []string{"train", "day"})
	delay := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "train_daily_mean_predicted_delay_minutes",
		Help: "Mean predicted delay over scored stations per train and day",
	}, []string{"train", "day"})
	reg.MustRegister(runs, ratio, delay)
	return &PunctualitySink{days: map[string]*dayStats{}, runs: runs, ratio: ratio, delay: delay}
}

// NewPunctualitySinkWithStore additionally persists each run into store, so
// KPIs survive restarts and can be queried over HTTP.
func NewPunctualitySinkWithStore(reg prometheus.Registerer, store coremetrics.KPIStore) *PunctualitySink {
	s := NewPunctualitySink(reg)
	s.store = store
	return s
}

// RecordPipelineRun folds the run into its train's daily aggregates.
func (s *PunctualitySink) RecordPipelineRun(ev coremetrics.PipelineRunEvent) error {
	day := ev.Date.Format("2006-01-02")
	key := ev.Train + "|" + day
	success := ev.Status == pipeline.StatusSuccess.String()

	var delaySum float64
	var delayN int
	for _, d := range ev.Delays {
		if d.Unavailable {
			continue
		}
		delaySum += d.Minutes
		delayN++
	}

	s.mu.Lock()
	st, ok := s.days[key]
	if !ok {
		st = &dayStats{}
		s.days[key] = st
	}
	st.runs++
	if success {
		st.successes++
	}
	st.delaySum += delaySum
	st.delayN += delayN

	s.runs.WithLabelValues(ev.Train, day).Set(float64(st.runs))
	s.ratio.WithLabelValues(ev.Train, day).Set(float64(st.successes) / float64(st.runs))
	if st.delayN > 0 {
		s.delay.WithLabelValues(ev.Train, day).Set(st.delaySum / float64(st.delayN))
	}
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	rec := coremetrics.KPIRecord{Train: ev.Train, Day: ev.Date, Runs: 1, DelaySum: delaySum, DelayN: delayN}
	if success {
		rec.Successes = 1
	}
	return s.store.Add(rec)
}
