package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/metrics"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200

	// collectBatch размер страницы при выборке всех совпадений для аналитики и карты.
	collectBatch = 1000
)

// Page окно выдачи. Если After не пуст, хранилище продолжает обход после
// объявления с этими значениями сортировки и Offset не использует.
type Page struct {
	Offset int
	After  []any
	Limit  int
}

// Hits страница совпадений.
type Hits struct {
	Items []models.CanonicalListing
	Total int
	// Last значения сортировки последнего объявления страницы; nil, если
	// хранилище листает только по смещению.
	Last []any
}

// Store хранилище, исполняющее скомпилированные запросы.
type Store interface {
	// Search возвращает страницу совпадений в порядке c.Sort и общее число совпадений.
	Search(ctx context.Context, c Criteria, page Page) (Hits, error)
	// Get возвращает объявление по ключу или models.ErrNotFound.
	Get(ctx context.Context, key string) (*models.CanonicalListing, error)
}

// Engine исполняет FilterSpec поверх Store.
type Engine struct {
	store           Store
	defaultPageSize int
	maxPageSize     int
}

// Option настраивает Engine.
type Option func(*Engine)

// WithPageSizes задает размер страницы по умолчанию и максимальный.
func WithPageSizes(def, max int) Option {
	return func(e *Engine) {
		if def > 0 {
			e.defaultPageSize = def
		}
		if max > 0 {
			e.maxPageSize = max
		}
		if e.defaultPageSize > e.maxPageSize {
			e.defaultPageSize = e.maxPageSize
		}
	}
}

// NewEngine создает движок запросов.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare проверяет и компилирует спецификацию.
func (e *Engine) Prepare(spec *models.FilterSpec) (Criteria, error) {
	if err := Validate(spec); err != nil {
		metrics.InvalidFilterSpecs.Inc()
		return Criteria{}, err
	}
	c, err := Compile(spec)
	if err != nil {
		metrics.InvalidFilterSpecs.Inc()
		return Criteria{}, err
	}
	return c, nil
}

// Execute возвращает одну страницу результатов. Отсутствие совпадений не является ошибкой.
func (e *Engine) Execute(ctx context.Context, spec *models.FilterSpec) (*models.SearchResult, error) {
	c, err := e.Prepare(spec)
	if err != nil {
		return nil, err
	}

	cur, _ := decodeCursor(spec.Cursor)
	size := spec.PageSize
	if size <= 0 {
		size = e.defaultPageSize
	}
	if size > e.maxPageSize {
		size = e.maxPageSize
	}

	hits, err := e.search(ctx, "search", c, Page{Offset: cur.Offset, After: cur.After, Limit: size})
	if err != nil {
		return nil, err
	}
	metrics.QueryResults.Observe(float64(hits.Total))

	items := hits.Items
	if items == nil {
		items = []models.CanonicalListing{}
	}

	result := &models.SearchResult{
		Items:      items,
		TotalCount: hits.Total,
		PageInfo:   models.PageInfo{PageSize: size},
	}
	if seen := cur.Offset + len(items); seen < hits.Total && len(items) > 0 {
		result.PageInfo.HasMore = true
		result.PageInfo.NextCursor = encodeCursor(cursor{Offset: seen, After: hits.Last})
	}

	return result, nil
}

// Collect возвращает все совпадения (не более limit) для аналитики и кластеризации.
// Курсор и размер страницы спецификации игнорируются. extra добавляются к
// скомпилированным предикатам через AND.
func (e *Engine) Collect(ctx context.Context, spec *models.FilterSpec, limit int, extra ...Predicate) ([]models.CanonicalListing, int, error) {
	c, err := e.Prepare(spec)
	if err != nil {
		return nil, 0, err
	}
	c.Predicates = append(c.Predicates, extra...)

	var (
		out   []models.CanonicalListing
		total int
		page  Page
	)
	for limit <= 0 || len(out) < limit {
		page.Offset = len(out)
		page.Limit = collectBatch
		if limit > 0 && limit-len(out) < page.Limit {
			page.Limit = limit - len(out)
		}

		hits, err := e.search(ctx, "collect", c, page)
		if err != nil {
			return nil, 0, err
		}
		total = hits.Total
		out = append(out, hits.Items...)
		page.After = hits.Last

		if len(hits.Items) == 0 || len(out) >= total {
			break
		}
	}

	return out, total, nil
}

// Get возвращает объявление по ключу.
func (e *Engine) Get(ctx context.Context, key string) (*models.CanonicalListing, error) {
	l, err := e.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

func (e *Engine) search(ctx context.Context, op string, c Criteria, page Page) (Hits, error) {
	start := time.Now()
	hits, err := e.store.Search(ctx, c, page)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.QueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return Hits{}, fmt.Errorf("failed to search listings: %w", err)
	}
	return hits, nil
}
