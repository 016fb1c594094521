package stats

import (
	"math"
	"strings"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

const hoursPerDay = 24

// Темп продаж по медианному сроку экспозиции.
const (
	PaceFast     = "fast-moving"
	PaceBalanced = "balanced"
	PaceSlow     = "slow-moving"
)

// DaysOnMarketStats срок экспозиции закрытых сделок в днях.
type DaysOnMarketStats struct {
	Summary
	// Anomalies число записей с датой закрытия раньше даты выставления; они не входят в статистику.
	Anomalies    int      `json:"anomalies"`
	Pace         string   `json:"pace,omitempty"`
	Distribution []Bucket `json:"distribution"`
}

// DaysOnMarket считает closedAt - listedAt в целых днях по записям, где есть обе даты.
func DaysOnMarket(listings []models.CanonicalListing) DaysOnMarketStats {
	var (
		days      []float64
		anomalies int
	)
	for i := range listings {
		l := &listings[i]
		if l.ListedAt == nil || l.ClosedAt == nil {
			continue
		}
		if l.ClosedAt.Before(*l.ListedAt) {
			anomalies++
			continue
		}
		days = append(days, math.Floor(l.ClosedAt.Sub(*l.ListedAt).Hours()/hoursPerDay))
	}

	out := DaysOnMarketStats{
		Summary:   summarize(days),
		Anomalies: anomalies,
		Distribution: distribute(days,
			[]string{"under30", "30to60", "60to90", "90to180", "over180"},
			[]float64{30, 60, 90, 180}),
	}
	if out.Count > 0 {
		switch {
		case out.Median < 30:
			out.Pace = PaceFast
		case out.Median > 90:
			out.Pace = PaceSlow
		default:
			out.Pace = PaceBalanced
		}
	}
	return out
}

// PricePerSqftStats цена сделки за квадратный фут.
type PricePerSqftStats struct {
	Summary
	Excluded     int      `json:"excluded"`
	Distribution []Bucket `json:"distribution"`
}

// PricePerSqft считает closePrice / livingAreaSqft. Записи без площади или цены сделки исключаются.
func PricePerSqft(listings []models.CanonicalListing) PricePerSqftStats {
	var (
		values   []float64
		excluded int
	)
	for i := range listings {
		v, ok := pricePerSqft(&listings[i])
		if !ok {
			excluded++
			continue
		}
		values = append(values, v)
	}

	return PricePerSqftStats{
		Summary:  summarize(values),
		Excluded: excluded,
		Distribution: distribute(values,
			[]string{"under200", "200to300", "300to400", "400to500", "over500"},
			[]float64{200, 300, 400, 500}),
	}
}

func pricePerSqft(l *models.CanonicalListing) (float64, bool) {
	if l.ClosePrice == nil || l.LivingAreaSqft == nil || *l.LivingAreaSqft <= 0 {
		return 0, false
	}
	return float64(*l.ClosePrice) / *l.LivingAreaSqft, true
}

// Периодичность взносов HOA.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnually  = "annually"
	FrequencyUnknown   = "unknown"
)

// HOAStats взносы HOA.
type HOAStats struct {
	Summary
	// Monthly статистика после приведения взносов к месячным.
	Monthly      Summary        `json:"monthly"`
	WithoutHOA   int            `json:"without_hoa"`
	Frequency    map[string]int `json:"frequency"`
	Distribution []Bucket       `json:"distribution"`
}

// HOA считает статистику по записям с заполненным взносом.
func HOA(listings []models.CanonicalListing) HOAStats {
	var (
		fees    []float64
		monthly []float64
	)
	out := HOAStats{Frequency: map[string]int{}}

	for i := range listings {
		f := listings[i].Financial
		if f.HOAFee == nil {
			out.WithoutHOA++
			continue
		}
		fees = append(fees, *f.HOAFee)

		freq := hoaFrequency(f.HOAFrequency)
		out.Frequency[freq]++
		monthly = append(monthly, toMonthly(*f.HOAFee, freq))
	}

	out.Summary = summarize(fees)
	out.Monthly = summarize(monthly)
	out.Distribution = distribute(monthly,
		[]string{"under100", "100to200", "200to300", "300to500", "over500"},
		[]float64{100, 200, 300, 500})
	return out
}

func hoaFrequency(raw string) string {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "month"):
		return FrequencyMonthly
	case strings.Contains(s, "quarter"):
		return FrequencyQuarterly
	case strings.Contains(s, "annual"), strings.Contains(s, "year"):
		return FrequencyAnnually
	}
	return FrequencyUnknown
}

// toMonthly приводит взнос к месячному; неизвестная периодичность считается месячной.
func toMonthly(fee float64, freq string) float64 {
	switch freq {
	case FrequencyQuarterly:
		return fee / 3
	case FrequencyAnnually:
		return fee / 12
	}
	return fee
}

// PropertyTaxStats налог на недвижимость: фактический и оценочный раздельно.
type PropertyTaxStats struct {
	// All объединяет фактические и оценочные значения.
	All            Summary `json:"all"`
	Actual         Summary `json:"actual"`
	Estimated      Summary `json:"estimated"`
	ActualCount    int     `json:"actual_count"`
	EstimatedCount int     `json:"estimated_count"`
	MillageRate    float64 `json:"millage_rate"`
	// EffectiveRate средняя доля фактического налога в цене сделки, в процентах.
	EffectiveRate *float64 `json:"effective_rate,omitempty"`
}

// PropertyTax считает статистику налога. При отсутствии фактической суммы налог
// оценивается как closePrice * millageRate; записи без обоих значений пропускаются.
func PropertyTax(listings []models.CanonicalListing, millageRate float64) PropertyTaxStats {
	var actual, estimated, rates []float64

	for i := range listings {
		l := &listings[i]
		price, hasPrice := l.SalePrice()

		if tax := l.Financial.PropertyTax; tax != nil {
			actual = append(actual, *tax)
			if hasPrice && price > 0 {
				rates = append(rates, *tax/float64(price))
			}
			continue
		}
		if l.ClosePrice != nil && millageRate > 0 {
			estimated = append(estimated, float64(*l.ClosePrice)*millageRate)
		}
	}

	out := PropertyTaxStats{
		All:            summarize(append(append([]float64(nil), actual...), estimated...)),
		Actual:         summarize(actual),
		Estimated:      summarize(estimated),
		ActualCount:    len(actual),
		EstimatedCount: len(estimated),
		MillageRate:    millageRate,
	}
	if len(rates) > 0 {
		r := round2(mean(rates) * 100)
		out.EffectiveRate = &r
	}
	return out
}

// ClosedMarketSummary итоги по закрытым сделкам.
type ClosedMarketSummary struct {
	TotalSales int     `json:"total_sales"`
	ClosePrice Summary `json:"close_price"`
	TotalValue float64 `json:"total_value"`
}

// ClosedMarket считает число и сумму закрытых сделок.
func ClosedMarket(listings []models.CanonicalListing) ClosedMarketSummary {
	var prices []float64
	for i := range listings {
		l := &listings[i]
		if l.Status != models.StatusClosed || l.ClosePrice == nil {
			continue
		}
		prices = append(prices, float64(*l.ClosePrice))
	}

	var total float64
	for _, p := range prices {
		total += p
	}

	return ClosedMarketSummary{
		TotalSales: len(prices),
		ClosePrice: summarize(prices),
		TotalValue: total,
	}
}
