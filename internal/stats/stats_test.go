package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(key string, price int64, sqft float64, listed, closed time.Time) models.CanonicalListing {
	l := models.CanonicalListing{
		ListingKey: key,
		Status:     models.StatusClosed,
		ClosePrice: ptr(price),
		ListedAt:   ptr(listed),
		ClosedAt:   ptr(closed),
	}
	if sqft != 0 {
		l.LivingAreaSqft = ptr(sqft)
	}
	return l
}

func TestDaysOnMarket(t *testing.T) {
	listings := []models.CanonicalListing{
		sale("A", 1, 0, day(2025, 1, 1), day(2025, 1, 11)),
		sale("B", 1, 0, day(2025, 1, 1), day(2025, 2, 10)),
		sale("C", 1, 0, day(2025, 1, 1), day(2025, 7, 1)),
		sale("BAD", 1, 0, day(2025, 3, 1), day(2025, 2, 1)),
		{ListingKey: "OPEN", Status: models.StatusActive, ListedAt: ptr(day(2025, 1, 1))},
	}

	got := DaysOnMarket(listings)

	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 1, got.Anomalies)
	assert.Equal(t, 10.0, got.Min)
	assert.Equal(t, 181.0, got.Max)
	assert.Equal(t, 40.0, got.Median)
	assert.Equal(t, 77.0, got.Mean)
	assert.Equal(t, PaceBalanced, got.Pace)

	counts := map[string]int{}
	for _, b := range got.Distribution {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int{"under30": 1, "30to60": 1, "60to90": 0, "90to180": 0, "over180": 1}, counts)
}

func TestDaysOnMarket_PartialDays(t *testing.T) {
	listed := day(2025, 1, 1)
	got := DaysOnMarket([]models.CanonicalListing{
		sale("A", 1, 0, listed, listed.Add(47*time.Hour)),
	})

	assert.Equal(t, 1.0, got.Median)
	assert.Equal(t, PaceFast, got.Pace)
}

func TestDaysOnMarket_Empty(t *testing.T) {
	got := DaysOnMarket(nil)

	assert.Zero(t, got.Count)
	assert.Empty(t, got.Pace)
	assert.Len(t, got.Distribution, 5)
}

func TestPricePerSqft(t *testing.T) {
	listings := []models.CanonicalListing{
		sale("A", 500000, 2000, day(2025, 1, 1), day(2025, 2, 1)),
		sale("B", 900000, 3000, day(2025, 1, 1), day(2025, 2, 1)),
		sale("NOSQFT", 700000, 0, day(2025, 1, 1), day(2025, 2, 1)),
		{ListingKey: "ACTIVE", Price: ptr(int64(400000)), LivingAreaSqft: ptr(1000.0)},
	}

	got := PricePerSqft(listings)

	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 2, got.Excluded)
	assert.Equal(t, 250.0, got.Min)
	assert.Equal(t, 300.0, got.Max)
	assert.Equal(t, 275.0, got.Median)
	assert.Equal(t, 1, got.Distribution[1].Count, "250 is in 200to300")
	assert.Equal(t, 1, got.Distribution[2].Count, "300 is in 300to400")
}

func windowOf(year int) Window {
	return Window{From: day(year, 1, 1), To: day(year+1, 1, 1)}
}

func salesIn(year int, prices ...int64) []models.CanonicalListing {
	out := make([]models.CanonicalListing, 0, len(prices))
	for i, p := range prices {
		closed := day(year, time.Month(1+i%12), 15)
		out = append(out, sale("S", p, 0, closed.AddDate(0, -1, 0), closed))
	}
	return out
}

func TestAppreciation_InsufficientData(t *testing.T) {
	listings := append(salesIn(2023, 400000, 420000), salesIn(2024, 450000, 460000, 470000, 480000, 490000)...)

	got := Appreciation(listings, windowOf(2023), windowOf(2024), AppreciationOptions{MinSamples: 5})

	assert.True(t, got.InsufficientData)
	assert.Nil(t, got.PercentChange)
	assert.Equal(t, 2, got.Baseline.Count)
	assert.Equal(t, ConfidenceLow, got.Confidence)
}

func TestAppreciation_DefaultThreshold(t *testing.T) {
	listings := append(salesIn(2023, 1, 2, 3, 4), salesIn(2024, 1, 2, 3, 4, 5)...)

	got := Appreciation(listings, windowOf(2023), windowOf(2024), AppreciationOptions{})

	assert.Equal(t, MinAppreciationSamples, got.MinSamples)
	assert.True(t, got.InsufficientData)
}

func TestAppreciation_PercentChange(t *testing.T) {
	listings := append(
		salesIn(2022, 400000, 400000, 400000, 400000, 400000),
		salesIn(2024, 440000, 440000, 440000, 440000, 440000, 440000)...,
	)

	got := Appreciation(listings, windowOf(2022), windowOf(2024), AppreciationOptions{Metric: MetricPrice, MinSamples: 5})

	require.False(t, got.InsufficientData)
	require.NotNil(t, got.PercentChange)
	assert.Equal(t, 10.0, *got.PercentChange)
	require.NotNil(t, got.AnnualizedRate)
	assert.InDelta(t, 4.88, *got.AnnualizedRate, 0.01)
	assert.Equal(t, 400000.0, got.Baseline.Median)
	assert.Equal(t, 440000.0, got.Comparison.Median)
}

func TestAppreciation_PricePerSqftSkipsMissingArea(t *testing.T) {
	var listings []models.CanonicalListing
	for i := 0; i < 5; i++ {
		listings = append(listings, sale("B", 400000, 2000, day(2023, 1, 1), day(2023, 3, 1+i)))
		listings = append(listings, sale("C", 440000, 2000, day(2024, 1, 1), day(2024, 3, 1+i)))
	}
	listings = append(listings, sale("NOAREA", 999999, 0, day(2024, 1, 1), day(2024, 3, 1)))

	got := Appreciation(listings, windowOf(2023), windowOf(2024), AppreciationOptions{Metric: MetricPricePerSqft})

	require.NotNil(t, got.PercentChange)
	assert.Equal(t, 5, got.Comparison.Count)
	assert.Equal(t, 200.0, got.Baseline.Median)
	assert.Equal(t, 10.0, *got.PercentChange)
	assert.Nil(t, got.AnnualizedRate, "windows one year apart")
}

func TestWindowOverlaps(t *testing.T) {
	assert.False(t, windowOf(2023).Overlaps(windowOf(2024)))
	assert.True(t, Window{From: day(2023, 6, 1), To: day(2024, 6, 1)}.Overlaps(windowOf(2024)))
}

func TestTrendByYear(t *testing.T) {
	var listings []models.CanonicalListing
	listings = append(listings, salesIn(2021, 400000, 400000)...)
	listings = append(listings, salesIn(2022, 420000, 420000)...)
	listings = append(listings, salesIn(2023, 441000, 441000)...)

	got := TrendByYear(listings)

	require.Len(t, got.Years, 3)
	assert.Nil(t, got.Years[0].Change)
	assert.Equal(t, 5.0, *got.Years[1].Change)
	assert.Equal(t, TrendIncreasing, got.Trend)
	require.NotNil(t, got.AnnualizedRate)
	assert.Equal(t, 5.0, *got.AnnualizedRate)
	assert.Equal(t, ConfidenceLow, got.Confidence)
}

func TestTrendByYear_Volatile(t *testing.T) {
	var listings []models.CanonicalListing
	listings = append(listings, salesIn(2021, 400000)...)
	listings = append(listings, salesIn(2022, 480000)...)
	listings = append(listings, salesIn(2023, 400000)...)

	assert.Equal(t, TrendVolatile, TrendByYear(listings).Trend)
}

func TestHOA(t *testing.T) {
	listings := []models.CanonicalListing{
		{Financial: models.Financial{HOAFee: ptr(150.0), HOAFrequency: "Monthly"}},
		{Financial: models.Financial{HOAFee: ptr(900.0), HOAFrequency: "Quarterly"}},
		{Financial: models.Financial{HOAFee: ptr(2400.0), HOAFrequency: "Annually"}},
		{Financial: models.Financial{HOAFee: ptr(50.0)}},
		{},
	}

	got := HOA(listings)

	assert.Equal(t, 4, got.Count)
	assert.Equal(t, 1, got.WithoutHOA)
	assert.Equal(t, 875.0, got.Mean)
	assert.Equal(t, 525.0, got.Median)
	assert.Equal(t, 300.0, got.Monthly.Max)
	assert.Equal(t, 175.0, got.Monthly.Median)
	assert.Equal(t, map[string]int{"monthly": 1, "quarterly": 1, "annually": 1, "unknown": 1}, got.Frequency)
}

func TestPropertyTax_SeparatesActualAndEstimated(t *testing.T) {
	listings := []models.CanonicalListing{
		{ClosePrice: ptr(int64(500000)), Financial: models.Financial{PropertyTax: ptr(6000.0)}},
		{ClosePrice: ptr(int64(400000))},
		{ClosePrice: ptr(int64(600000))},
		{Price: ptr(int64(300000))},
	}

	got := PropertyTax(listings, 0.0125)

	assert.Equal(t, 1, got.ActualCount)
	assert.Equal(t, 2, got.EstimatedCount)
	assert.Equal(t, 6000.0, got.Actual.Mean)
	assert.Equal(t, 6250.0, got.Estimated.Mean)
	assert.Equal(t, 3, got.All.Count)
	require.NotNil(t, got.EffectiveRate)
	assert.Equal(t, 1.2, *got.EffectiveRate)
}

func TestPropertyTax_NoMillageNoEstimates(t *testing.T) {
	got := PropertyTax([]models.CanonicalListing{{ClosePrice: ptr(int64(500000))}}, 0)

	assert.Zero(t, got.EstimatedCount)
	assert.Nil(t, got.EffectiveRate)
}

func TestClosedMarket(t *testing.T) {
	listings := []models.CanonicalListing{
		sale("A", 500000, 0, day(2025, 1, 1), day(2025, 2, 1)),
		sale("B", 700000, 0, day(2025, 1, 1), day(2025, 2, 1)),
		{ListingKey: "C", Status: models.StatusActive, Price: ptr(int64(1))},
	}

	got := ClosedMarket(listings)

	assert.Equal(t, 2, got.TotalSales)
	assert.Equal(t, 1200000.0, got.TotalValue)
	assert.Equal(t, 600000.0, got.ClosePrice.Median)
}
