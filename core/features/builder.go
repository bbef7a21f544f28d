package features

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Parthita/train-delay-backend/core/logger"
	"github.com/Parthita/train-delay-backend/core/model"
)

// Index is the read-only view of one train's usable history that feature
// rows are computed from. Construction filters outliers and normalizes dates
// to midnight UTC; everything afterwards is pure lookup.
type Index struct {
	ordered   []model.HistoryRecord            // by station, then date
	byStation map[string][]model.HistoryRecord // date ascending
	all       []model.HistoryRecord            // date ascending across stations
	exact     map[string]map[int64]float64     // station -> unix day -> delay
}

// NewIndex builds the history view rows are computed from.
func NewIndex(records []model.HistoryRecord) *Index {
	usable := FilterOutliers(records)
	ix := &Index{
		byStation: make(map[string][]model.HistoryRecord),
		exact:     make(map[string]map[int64]float64),
	}
	for _, r := range usable {
		r.Date = model.Day(r.Date)
		ix.byStation[r.Station] = append(ix.byStation[r.Station], r)
		days := ix.exact[r.Station]
		if days == nil {
			days = make(map[int64]float64)
			ix.exact[r.Station] = days
		}
		days[r.Date.Unix()] = r.DelayMinutes
		ix.all = append(ix.all, r)
	}
	for _, recs := range ix.byStation {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	}
	sort.SliceStable(ix.all, func(i, j int) bool { return ix.all[i].Date.Before(ix.all[j].Date) })

	for _, s := range ix.Stations() {
		ix.ordered = append(ix.ordered, ix.byStation[s]...)
	}
	return ix
}

// Len returns the number of usable records after outlier filtering.
func (ix *Index) Len() int { return len(ix.all) }

// Stations returns the sorted unique station codes present in the history.
func (ix *Index) Stations() []string {
	codes := make([]string, 0, len(ix.byStation))
	for s := range ix.byStation {
		codes = append(codes, s)
	}
	sort.Strings(codes)
	return codes
}

// delaysBefore returns the station's delays strictly before day, oldest first.
func (ix *Index) delaysBefore(station string, day time.Time) []float64 {
	recs := ix.byStation[station]
	cut := sort.Search(len(recs), func(i int) bool { return !recs[i].Date.Before(day) })
	out := make([]float64, cut)
	for i := 0; i < cut; i++ {
		out[i] = recs[i].DelayMinutes
	}
	return out
}

// globalDelaysBefore returns every delay strictly before day across stations.
func (ix *Index) globalDelaysBefore(day time.Time) []float64 {
	cut := sort.Search(len(ix.all), func(i int) bool { return !ix.all[i].Date.Before(day) })
	out := make([]float64, cut)
	for i := 0; i < cut; i++ {
		out[i] = ix.all[i].DelayMinutes
	}
	return out
}

// fallback substitutes a value for a feature that cannot be computed: the
// station's median delay, then the whole history's median, then zero. Only
// records strictly before day participate, so a feature for one date never
// sees observations from that date or later.
func (ix *Index) fallback(station string, day time.Time) float64 {
	if ds := ix.delaysBefore(station, day); len(ds) > 0 {
		return median(ds)
	}
	if ds := ix.globalDelaysBefore(day); len(ds) > 0 {
		return median(ds)
	}
	return 0
}

// lag returns the delay observed k days before day at the station, or the
// fallback when that date has no record.
func (ix *Index) lag(station string, day time.Time, k int) float64 {
	lagDay := day.AddDate(0, 0, -k)
	if d, ok := ix.exact[station][lagDay.Unix()]; ok {
		return d
	}
	return ix.fallback(station, day)
}

// rollingMean averages the station's most recent window delays before day.
func (ix *Index) rollingMean(station string, day time.Time, window int) float64 {
	ds := ix.delaysBefore(station, day)
	if len(ds) < window {
		return ix.fallback(station, day)
	}
	return stat.Mean(ds[len(ds)-window:], nil)
}

// rollingMedian is the median of the station's most recent window delays
// before day.
func (ix *Index) rollingMedian(station string, day time.Time, window int) float64 {
	ds := ix.delaysBefore(station, day)
	if len(ds) < window {
		return ix.fallback(station, day)
	}
	return median(ds[len(ds)-window:])
}

// median interpolates between the two middle samples for even counts, the
// same convention the evaluation metrics use.
func median(xs []float64) float64 {
	tmp := make([]float64, len(xs))
	copy(tmp, xs)
	sort.Float64s(tmp)
	n := len(tmp)
	if n%2 == 1 {
		return tmp[n/2]
	}
	return (tmp[n/2-1] + tmp[n/2]) / 2
}

// Builder turns per-train history into the numeric rows the regressor
// consumes. All methods are deterministic: identical history, date and
// encoder always produce identical output.
type Builder struct {
	log logger.Logger
}

// NewBuilder returns a Builder logging through log.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{log: log}
}

// Row builds the feature vector for one (station, date) pair. It never
// fails: an unseen station is encoded through an auxiliary extension of enc,
// and missing lag or rolling inputs take the documented fallback. Callers
// that want an unseen-station refit persisted must extend the stored encoder
// themselves before building rows.
func (b *Builder) Row(ix *Index, enc *StationEncoder, station string, date time.Time) []float64 {
	day := model.Day(date)
	id, ok := enc.Encode(station)
	if !ok {
		aux := enc.Extend([]string{station})
		id, _ = aux.Encode(station)
		b.log.Warnf("station %s missing from encoder, using auxiliary fit", station)
	}

	dow := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	weekend := 0.0
	if dow >= 5 {
		weekend = 1
	}
	month := float64(day.Month())
	dom := float64(day.Day())

	row := make([]float64, NumFeatures)
	row[0] = float64(id)
	row[1] = dom
	row[2] = month
	row[3] = float64(day.Year())
	row[4] = float64(dow)
	row[5] = weekend
	row[6] = math.Sin(2 * math.Pi * month / 12)
	row[7] = math.Cos(2 * math.Pi * month / 12)
	row[8] = math.Sin(2 * math.Pi * dom / 31)
	row[9] = math.Cos(2 * math.Pi * dom / 31)
	row[10] = ix.lag(station, day, 1)
	row[11] = ix.lag(station, day, 2)
	row[12] = ix.lag(station, day, 3)
	row[13] = ix.rollingMean(station, day, 3)
	row[14] = ix.rollingMedian(station, day, 7)
	return row
}

// TrainingMatrix builds one feature row per usable observation, ordered by
// station then date, with the observed delay as the target. Returns nil when
// the history holds no usable rows.
func (b *Builder) TrainingMatrix(ix *Index, enc *StationEncoder) (*mat.Dense, []float64) {
	if ix.Len() == 0 {
		return nil, nil
	}
	x := mat.NewDense(ix.Len(), NumFeatures, nil)
	y := make([]float64, ix.Len())
	for i, r := range ix.ordered {
		x.SetRow(i, b.Row(ix, enc, r.Station, r.Date))
		y[i] = r.DelayMinutes
	}
	return x, y
}
