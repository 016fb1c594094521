package stats

import (
	"math"
	"sort"
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// MinAppreciationSamples минимальное число сделок в каждом окне, при котором
// процент изменения считается. Меньшие выборки помечаются InsufficientData.
const MinAppreciationSamples = 5

// minAnnualizedYears минимальное расстояние между серединами окон для расчета CAGR.
const minAnnualizedYears = 1.5

// Метрики роста цен.
const (
	MetricPrice        = "price"
	MetricPricePerSqft = "price_per_sqft"
)

// Уровни достоверности по размеру меньшей из выборок.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Тренд по годовым медианам.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendVolatile   = "volatile"
)

// Window полуоткрытый интервал дат закрытия [From, To).
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w Window) contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

func (w Window) midpoint() time.Time {
	return w.From.Add(w.To.Sub(w.From) / 2)
}

// Overlaps сообщает о пересечении окон.
func (w Window) Overlaps(o Window) bool {
	return w.From.Before(o.To) && o.From.Before(w.To)
}

// AppreciationOptions параметры расчета.
type AppreciationOptions struct {
	Metric     string
	MinSamples int
}

// WindowSummary медиана метрики в окне.
type WindowSummary struct {
	Window Window  `json:"window"`
	Count  int     `json:"count"`
	Median float64 `json:"median"`
}

// AppreciationResult изменение медианы между двумя окнами.
type AppreciationResult struct {
	Metric           string        `json:"metric"`
	Baseline         WindowSummary `json:"baseline"`
	Comparison       WindowSummary `json:"comparison"`
	InsufficientData bool          `json:"insufficient_data"`
	MinSamples       int           `json:"min_samples"`
	PercentChange    *float64      `json:"percent_change,omitempty"`
	// AnnualizedRate среднегодовой темп (CAGR), если середины окон отстоят хотя бы на полтора года.
	AnnualizedRate *float64 `json:"annualized_rate,omitempty"`
	Confidence     string   `json:"confidence"`
}

// Err возвращает models.ErrInsufficientData, если процент изменения не посчитан.
func (r AppreciationResult) Err() error {
	if r.InsufficientData {
		return models.ErrInsufficientData
	}
	return nil
}

// Appreciation сравнивает медиану цены (или цены за фут) закрытых сделок в двух окнах.
func Appreciation(listings []models.CanonicalListing, baseline, comparison Window, opts AppreciationOptions) AppreciationResult {
	if opts.Metric == "" {
		opts.Metric = MetricPrice
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = MinAppreciationSamples
	}

	var base, cmp []float64
	for i := range listings {
		l := &listings[i]
		if l.ClosedAt == nil {
			continue
		}
		v, ok := metricValue(l, opts.Metric)
		if !ok {
			continue
		}
		switch {
		case baseline.contains(*l.ClosedAt):
			base = append(base, v)
		case comparison.contains(*l.ClosedAt):
			cmp = append(cmp, v)
		}
	}

	res := AppreciationResult{
		Metric:     opts.Metric,
		Baseline:   WindowSummary{Window: baseline, Count: len(base), Median: round2(median(base))},
		Comparison: WindowSummary{Window: comparison, Count: len(cmp), Median: round2(median(cmp))},
		MinSamples: opts.MinSamples,
		Confidence: confidence(min(len(base), len(cmp))),
	}

	if len(base) < opts.MinSamples || len(cmp) < opts.MinSamples || res.Baseline.Median <= 0 {
		res.InsufficientData = true
		return res
	}

	change := round2((res.Comparison.Median - res.Baseline.Median) / res.Baseline.Median * 100)
	res.PercentChange = &change

	years := comparison.midpoint().Sub(baseline.midpoint()).Hours() / (hoursPerDay * 365.25)
	if years >= minAnnualizedYears {
		rate := round2((math.Pow(res.Comparison.Median/res.Baseline.Median, 1/years) - 1) * 100)
		res.AnnualizedRate = &rate
	}

	return res
}

func metricValue(l *models.CanonicalListing, metric string) (float64, bool) {
	if metric == MetricPricePerSqft {
		return pricePerSqft(l)
	}
	if l.ClosePrice == nil {
		return 0, false
	}
	return float64(*l.ClosePrice), true
}

func confidence(samples int) string {
	switch {
	case samples >= 20:
		return ConfidenceHigh
	case samples >= 10:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// YearMedian медиана цены сделки за календарный год.
type YearMedian struct {
	Year   int     `json:"year"`
	Count  int     `json:"count"`
	Median float64 `json:"median"`
	// Change изменение к предыдущему году в процентах.
	Change *float64 `json:"change,omitempty"`
}

// TrendResult динамика годовых медиан.
type TrendResult struct {
	Years          []YearMedian `json:"years"`
	Trend          string       `json:"trend"`
	AnnualizedRate *float64     `json:"annualized_rate,omitempty"`
	Confidence     string       `json:"confidence"`
}

// TrendByYear строит годовые медианы цены сделки и классифицирует тренд:
// разброс годовых изменений больше 5 п.п. дает volatile, средний рост больше 3% increasing,
// среднее снижение больше 1% decreasing.
func TrendByYear(listings []models.CanonicalListing) TrendResult {
	byYear := make(map[int][]float64)
	for i := range listings {
		l := &listings[i]
		if l.ClosedAt == nil || l.ClosePrice == nil {
			continue
		}
		y := l.ClosedAt.Year()
		byYear[y] = append(byYear[y], float64(*l.ClosePrice))
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	res := TrendResult{Trend: TrendStable, Years: make([]YearMedian, 0, len(years))}
	var changes []float64
	smallest := 0
	for i, y := range years {
		ym := YearMedian{Year: y, Count: len(byYear[y]), Median: round2(median(byYear[y]))}
		if i > 0 && res.Years[i-1].Median > 0 {
			c := round2((ym.Median - res.Years[i-1].Median) / res.Years[i-1].Median * 100)
			ym.Change = &c
			changes = append(changes, c)
		}
		if i == 0 || ym.Count < smallest {
			smallest = ym.Count
		}
		res.Years = append(res.Years, ym)
	}
	res.Confidence = confidence(smallest)

	if len(changes) > 0 {
		avg := mean(changes)
		switch {
		case stddev(changes) > 5:
			res.Trend = TrendVolatile
		case avg > 3:
			res.Trend = TrendIncreasing
		case avg < -1:
			res.Trend = TrendDecreasing
		}
	}

	if n := len(res.Years); n > 1 && res.Years[0].Median > 0 {
		span := float64(res.Years[n-1].Year - res.Years[0].Year)
		rate := round2((math.Pow(res.Years[n-1].Median/res.Years[0].Median, 1/span) - 1) * 100)
		res.AnnualizedRate = &rate
	}

	return res
}
