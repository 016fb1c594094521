// Package stats считает рыночную статистику по выборке объявлений:
// срок экспозиции, цену за квадратный фут, рост цен, HOA и налог на недвижимость.
// Все функции принимают одну и ту же выборку и не обращаются к хранилищу.
package stats

import (
	"math"
	"sort"
)

// Summary описательная статистика набора значений.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Bucket интервал распределения [From, To); To = 0 означает без верхней границы.
type Bucket struct {
	Label string  `json:"label"`
	From  float64 `json:"from"`
	To    float64 `json:"to,omitempty"`
	Count int     `json:"count"`
}

// summarize считает статистику; для пустого набора возвращает нулевой Summary.
func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return Summary{
		Count:  len(sorted),
		Min:    round2(sorted[0]),
		Max:    round2(sorted[len(sorted)-1]),
		Mean:   round2(sum / float64(len(sorted))),
		Median: round2(medianSorted(sorted)),
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// distribute раскладывает значения по интервалам, заданным верхними границами.
func distribute(values []float64, labels []string, edges []float64) []Bucket {
	buckets := make([]Bucket, len(labels))
	from := 0.0
	for i := range labels {
		buckets[i] = Bucket{Label: labels[i], From: from}
		if i < len(edges) {
			buckets[i].To = edges[i]
			from = edges[i]
		}
	}

	for _, v := range values {
		i := sort.SearchFloat64s(edges, v)
		// SearchFloat64s находит первую границу >= v; значение на границе относится к следующему интервалу.
		if i < len(edges) && edges[i] == v {
			i++
		}
		buckets[i].Count++
	}
	return buckets
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
