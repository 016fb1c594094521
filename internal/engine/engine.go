// Package engine связывает резолвер локаций, движок запросов, кластеризацию,
// аналитику и обогащение фотографиями в операции, которые вызывает HTTP-слой.
package engine

import (
	"context"
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/cluster"
	"github.com/akozadaev/go_es_listing_engine/internal/location"
	"github.com/akozadaev/go_es_listing_engine/internal/logging"
	"github.com/akozadaev/go_es_listing_engine/internal/media"
	"github.com/akozadaev/go_es_listing_engine/internal/metrics"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/query"
	"github.com/akozadaev/go_es_listing_engine/internal/stats"
)

// DefaultCollectLimit предел выборки для карты и аналитики.
const DefaultCollectLimit = 10000

// Options параметры сервиса.
type Options struct {
	MillageRate            float64
	MinAppreciationSamples int
	CollectLimit           int
}

// Service выполняет поиск, кластеризацию и аналитику.
type Service struct {
	query    *query.Engine
	resolver *location.Resolver
	media    *media.Enricher
	opts     Options
}

// NewService создает сервис. resolver и enricher могут быть nil: тогда фильтры
// по локации не разрешаются, а фотографии не подгружаются.
func NewService(q *query.Engine, resolver *location.Resolver, enricher *media.Enricher, opts Options) *Service {
	if opts.CollectLimit <= 0 {
		opts.CollectLimit = DefaultCollectLimit
	}
	if opts.MinAppreciationSamples <= 0 {
		opts.MinAppreciationSamples = stats.MinAppreciationSamples
	}
	return &Service{query: q, resolver: resolver, media: enricher, opts: opts}
}

// Resolution исход разрешения локации и улицы из фильтра.
type Resolution struct {
	Location *models.LocationResolution `json:"location,omitempty"`
	Street   *models.StreetResolution   `json:"street,omitempty"`
}

// Unresolved сообщает, что хотя бы одно имя не удалось однозначно разрешить.
func (r *Resolution) Unresolved() bool {
	if r == nil {
		return false
	}
	if r.Location != nil && r.Location.Kind != models.Resolved {
		return true
	}
	return r.Street != nil && r.Street.Kind != models.Resolved
}

// Err возвращает ошибку первого неразрешенного имени.
func (r *Resolution) Err() error {
	if r == nil {
		return nil
	}
	if r.Location != nil {
		if err := r.Location.Err(); err != nil {
			return err
		}
	}
	if r.Street != nil {
		return r.Street.Err()
	}
	return nil
}

// SearchRequest поля FilterSpec плюс флаг загрузки фотографий.
type SearchRequest struct {
	models.FilterSpec
	WithPhotos bool `json:"with_photos,omitempty"`
}

// SearchResponse страница выдачи. При неоднозначной или ненайденной локации
// выдача пуста, а Resolution содержит кандидатов.
type SearchResponse struct {
	models.SearchResult
	Resolution *Resolution            `json:"resolution,omitempty"`
	Photos     []models.ListingPhotos `json:"photos,omitempty"`
	Media      *models.MediaReport    `json:"media,omitempty"`
}

// Search разрешает локацию, исполняет фильтр и при необходимости подгружает фотографии.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	spec, res, err := s.prepare(req.FilterSpec)
	if err != nil {
		return nil, err
	}
	if res.Unresolved() {
		logging.Ctx(ctx).Debug().Err(res.Err()).Msg("search filter location unresolved")
		return &SearchResponse{
			SearchResult: models.SearchResult{Items: []models.CanonicalListing{}},
			Resolution:   res,
		}, nil
	}

	result, err := s.query.Execute(ctx, &spec)
	if err != nil {
		return nil, err
	}
	resp := &SearchResponse{SearchResult: *result, Resolution: res}

	if req.WithPhotos && s.media != nil && len(result.Items) > 0 {
		photos, report := s.media.Enrich(ctx, result.Items)
		resp.Photos = photos
		resp.Media = &report
		if report.Failed > 0 {
			logging.Ctx(ctx).Warn().Err(report.Err()).Msg("media enrichment degraded")
		}
	}
	return resp, nil
}

// ClusterResult узлы карты и исход разрешения локации.
type ClusterResult struct {
	models.ClusterResponse
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Clusters группирует совпадения фильтра в узлы карты.
func (s *Service) Clusters(ctx context.Context, req models.ClusterRequest) (*ClusterResult, error) {
	if err := validateViewport(req); err != nil {
		metrics.InvalidFilterSpecs.Inc()
		return nil, err
	}

	spec, res, err := s.prepare(req.Filter)
	if err != nil {
		return nil, err
	}
	out := &ClusterResult{
		ClusterResponse: models.ClusterResponse{Nodes: []models.ClusterNode{}, Zoom: req.Zoom},
		Resolution:      res,
	}
	if res.Unresolved() {
		return out, nil
	}

	listings, total, err := s.query.Collect(ctx, &spec, s.opts.CollectLimit, viewportPredicate(req.Viewport))
	if err != nil {
		return nil, err
	}

	out.Nodes = cluster.Cluster(listings, req.Viewport, req.Zoom)
	out.TotalCount = cluster.Total(out.Nodes)
	out.TotalMatches = total
	out.Truncated = len(listings) < total
	if out.Truncated {
		logging.Ctx(ctx).Warn().
			Int("matches", total).
			Int("collected", len(listings)).
			Int("zoom", req.Zoom).
			Msg("cluster selection truncated by collect limit")
	}
	metrics.ClusterNodes.Observe(float64(len(out.Nodes)))
	return out, nil
}

// viewportPredicate ограничивает выборку видимой областью.
func viewportPredicate(v models.Viewport) query.Predicate {
	boxes := cluster.ViewportBoxes(v)
	if len(boxes) == 1 {
		return query.BoundingBox{Bounds: boxes[0]}
	}
	inView := query.AnyOf{Predicates: make([]query.Predicate, 0, len(boxes))}
	for _, b := range boxes {
		inView.Predicates = append(inView.Predicates, query.BoundingBox{Bounds: b})
	}
	return inView
}

func validateViewport(req models.ClusterRequest) error {
	specErr := &models.FilterSpecError{}
	v := req.Viewport
	if req.Zoom < 0 || req.Zoom > 22 {
		specErr.Add("zoom", "must be between 0 and 22")
	}
	if v.North < -90 || v.North > 90 || v.South < -90 || v.South > 90 {
		specErr.Add("viewport", "latitude out of range")
	}
	if v.East < -180 || v.East > 180 || v.West < -180 || v.West > 180 {
		specErr.Add("viewport", "longitude out of range")
	}
	if v.South > v.North {
		specErr.Add("viewport", "south is greater than north")
	}
	if len(specErr.Fields) > 0 {
		return specErr
	}
	return nil
}

// MarketRequest фильтр выборки для рыночной статистики.
type MarketRequest struct {
	Filter models.FilterSpec `json:"filter"`
	// MillageRate переопределяет ставку из конфигурации.
	MillageRate *float64 `json:"millage_rate,omitempty"`
}

// MarketReport все рыночные метрики по одной выборке.
type MarketReport struct {
	Resolution   *Resolution               `json:"resolution,omitempty"`
	SampleSize   int                       `json:"sample_size"`
	TotalMatches int                       `json:"total_matches"`
	DaysOnMarket stats.DaysOnMarketStats   `json:"days_on_market"`
	PricePerSqft stats.PricePerSqftStats   `json:"price_per_sqft"`
	HOA          stats.HOAStats            `json:"hoa"`
	PropertyTax  stats.PropertyTaxStats    `json:"property_tax"`
	Closed       stats.ClosedMarketSummary `json:"closed"`
	Trend        stats.TrendResult         `json:"trend"`
}

// Market считает статистику по совпадениям фильтра.
func (s *Service) Market(ctx context.Context, req MarketRequest) (*MarketReport, error) {
	spec, res, err := s.prepare(req.Filter)
	if err != nil {
		return nil, err
	}
	if res.Unresolved() {
		return &MarketReport{Resolution: res}, nil
	}

	listings, total, err := s.query.Collect(ctx, &spec, s.opts.CollectLimit)
	if err != nil {
		return nil, err
	}

	millage := s.opts.MillageRate
	if req.MillageRate != nil {
		millage = *req.MillageRate
	}

	return &MarketReport{
		Resolution:   res,
		SampleSize:   len(listings),
		TotalMatches: total,
		DaysOnMarket: stats.DaysOnMarket(listings),
		PricePerSqft: stats.PricePerSqft(listings),
		HOA:          stats.HOA(listings),
		PropertyTax:  stats.PropertyTax(listings, millage),
		Closed:       stats.ClosedMarket(listings),
		Trend:        stats.TrendByYear(listings),
	}, nil
}

// AppreciationRequest сравнение двух непересекающихся окон.
type AppreciationRequest struct {
	Filter     models.FilterSpec `json:"filter"`
	Baseline   stats.Window      `json:"baseline"`
	Comparison stats.Window      `json:"comparison"`
	Metric     string            `json:"metric,omitempty"`
	MinSamples int               `json:"min_samples,omitempty"`
}

// AppreciationReport результат сравнения окон.
type AppreciationReport struct {
	stats.AppreciationResult
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Appreciation сравнивает медианы закрытых сделок в двух окнах.
// Фильтр сужается до закрытых сделок в пределах обоих окон.
func (s *Service) Appreciation(ctx context.Context, req AppreciationRequest) (*AppreciationReport, error) {
	if err := validateWindows(req); err != nil {
		metrics.InvalidFilterSpecs.Inc()
		return nil, err
	}

	spec := req.Filter
	if len(spec.Statuses) == 0 {
		spec.Statuses = []models.Status{models.StatusClosed}
	}
	from, to := req.Baseline.From, req.Comparison.To
	if req.Comparison.From.Before(from) {
		from = req.Comparison.From
	}
	if req.Baseline.To.After(to) {
		to = req.Baseline.To
	}
	spec.ClosedFrom, spec.ClosedTo = &from, &to

	minSamples := req.MinSamples
	if minSamples <= 0 {
		minSamples = s.opts.MinAppreciationSamples
	}
	opts := stats.AppreciationOptions{Metric: req.Metric, MinSamples: minSamples}

	prepared, res, err := s.prepare(spec)
	if err != nil {
		return nil, err
	}
	if res.Unresolved() {
		out := stats.Appreciation(nil, req.Baseline, req.Comparison, opts)
		return &AppreciationReport{AppreciationResult: out, Resolution: res}, nil
	}

	listings, _, err := s.query.Collect(ctx, &prepared, s.opts.CollectLimit)
	if err != nil {
		return nil, err
	}

	out := stats.Appreciation(listings, req.Baseline, req.Comparison, opts)
	if err := out.Err(); err != nil {
		logging.Ctx(ctx).Debug().Err(err).
			Int("baseline", out.Baseline.Count).
			Int("comparison", out.Comparison.Count).
			Msg("appreciation windows below sample threshold")
	}
	return &AppreciationReport{AppreciationResult: out, Resolution: res}, nil
}

func validateWindows(req AppreciationRequest) error {
	specErr := &models.FilterSpecError{}
	check := func(name string, w stats.Window) {
		if w.From.IsZero() || w.To.IsZero() {
			specErr.Add(name, "from and to are required")
		} else if !w.From.Before(w.To) {
			specErr.Add(name, "from must be before to")
		}
	}
	check("baseline", req.Baseline)
	check("comparison", req.Comparison)
	if len(specErr.Fields) == 0 && req.Baseline.Overlaps(req.Comparison) {
		specErr.Add("comparison", "windows overlap")
	}
	switch req.Metric {
	case "", stats.MetricPrice, stats.MetricPricePerSqft:
	default:
		specErr.Add("metric", "unknown metric")
	}
	if len(specErr.Fields) > 0 {
		return specErr
	}
	return nil
}

// Get возвращает объявление по ключу.
func (s *Service) Get(ctx context.Context, key string) (*models.CanonicalListing, error) {
	return s.query.Get(ctx, key)
}

// ResolveLocation разрешает название локации.
func (s *Service) ResolveLocation(text string, scope models.LocationType) models.LocationResolution {
	if s.resolver == nil {
		return models.LocationResolution{Kind: models.NotFound, Query: text}
	}
	res := s.resolver.Resolve(text, scope)
	metrics.LocationResolutions.WithLabelValues("location", string(res.Kind)).Inc()
	return res
}

// ResolveStreet разрешает название улицы в пределах города.
func (s *Service) ResolveStreet(name, cityID string) models.StreetResolution {
	if s.resolver == nil {
		return models.StreetResolution{Kind: models.NotFound, Query: name}
	}
	res := s.resolver.ResolveStreet(name, cityID)
	metrics.LocationResolutions.WithLabelValues("street", string(res.Kind)).Inc()
	return res
}

// prepare проверяет спецификацию и разрешает имена локации и улицы.
// Исходная спецификация не изменяется.
func (s *Service) prepare(spec models.FilterSpec) (models.FilterSpec, *Resolution, error) {
	if err := query.Validate(&spec); err != nil {
		metrics.InvalidFilterSpecs.Inc()
		return spec, nil, err
	}

	var res *Resolution
	if spec.Location != nil && spec.Location.Resolved == nil {
		loc := *spec.Location
		lr := s.ResolveLocation(loc.Name, loc.Type)
		res = &Resolution{Location: &lr}
		loc.Resolved = lr.Entity
		spec.Location = &loc
	}

	if spec.Street != nil && spec.Street.Resolved == nil {
		st := *spec.Street
		cityID := st.CityID
		if cityID == "" && spec.Location != nil && spec.Location.Resolved != nil &&
			spec.Location.Resolved.Type == models.LocationCity {
			cityID = spec.Location.Resolved.ID
		}
		sr := s.ResolveStreet(st.Name, cityID)
		if res == nil {
			res = &Resolution{}
		}
		res.Street = &sr
		st.Resolved = sr.Street
		if sr.Street != nil {
			if city, ok := s.resolver.Index().Entity(sr.Street.CityID); ok {
				st.City = &city
			}
		}
		spec.Street = &st
	}

	return spec, res, nil
}

// DefaultWindows окна год к году, заканчивающиеся началом текущего месяца.
func DefaultWindows(now time.Time) (baseline, comparison stats.Window) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	mid := end.AddDate(-1, 0, 0)
	return stats.Window{From: mid.AddDate(-1, 0, 0), To: mid}, stats.Window{From: mid, To: end}
}
