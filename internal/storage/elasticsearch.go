// Package storage содержит реализации хранилищ: Elasticsearch/OpenSearch для объявлений,
// PostgreSQL для справочника локаций и хранилище в памяти.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/query"
)

// ElasticsearchStorage предоставляет методы для работы с индексом объявлений.
// Поиск и массовые операции выполняются прямыми HTTP запросами для совместимости с OpenSearch.
type ElasticsearchStorage struct {
	client     *elasticsearch.Client // Официальный клиент Elasticsearch
	index      string                // Имя индекса объявлений
	httpClient *http.Client          // HTTP клиент для прямых запросов
	baseURL    string                // Базовый URL Elasticsearch/OpenSearch
}

// NewElasticsearchStorageWithURL создает новый экземпляр ElasticsearchStorage с указанным URL.
func NewElasticsearchStorageWithURL(client *elasticsearch.Client, index string, baseURL string) *ElasticsearchStorage {
	return &ElasticsearchStorage{
		client:     client,
		index:      index,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// listingDocument документ индекса: каноническая запись плюс производные поля для запросов.
type listingDocument struct {
	models.CanonicalListing
	Point      *models.GeoPoint `json:"point,omitempty"`
	BathsTotal *float64         `json:"baths_total,omitempty"`
}

func newListingDocument(l models.CanonicalListing) listingDocument {
	doc := listingDocument{CanonicalListing: l}
	if p, ok := l.Point(); ok {
		doc.Point = &p
	}
	if b, ok := l.Baths(); ok {
		doc.BathsTotal = &b
	}
	return doc
}

// CreateIndex создает индекс с заданным маппингом.
// Если индекс уже существует, функция возвращает nil без ошибки.
func (es *ElasticsearchStorage) CreateIndex(ctx context.Context, mappingJSON string) error {
	res, err := es.client.Indices.Exists([]string{es.index}, es.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = es.client.Indices.Create(
		es.index,
		es.client.Indices.Create.WithBody(strings.NewReader(mappingJSON)),
		es.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error creating index: %s", string(body))
	}

	return nil
}

// UpsertListings индексирует объявления через Bulk API. Документ идентифицируется
// ListingKey, поэтому повтор запроса безопасен.
func (es *ElasticsearchStorage) UpsertListings(ctx context.Context, listings []models.CanonicalListing) error {
	if len(listings) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, l := range listings {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": es.index,
				"_id":    l.ListingKey,
			},
		}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("failed to encode meta: %w", err)
		}
		if err := enc.Encode(newListingDocument(l)); err != nil {
			return fmt.Errorf("failed to encode listing: %w", err)
		}
	}

	res, err := es.do(ctx, http.MethodPost, "/_bulk?refresh=wait_for", "application/x-ndjson", &buf)
	if err != nil {
		return fmt.Errorf("failed to bulk index: %w", err)
	}
	defer res.Body.Close()

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}

	if result.Errors {
		for _, item := range result.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("error bulk indexing %s: %s: %s", op.ID, op.Error.Type, op.Error.Reason)
				}
			}
		}
		return fmt.Errorf("error bulk indexing")
	}

	return nil
}

// Get возвращает объявление по ключу.
func (es *ElasticsearchStorage) Get(ctx context.Context, key string) (*models.CanonicalListing, error) {
	res, err := es.do(ctx, http.MethodGet, fmt.Sprintf("/%s/_doc/%s", es.index, url.PathEscape(key)), "", nil)
	if err != nil {
		if res == nil || res.StatusCode != http.StatusNotFound {
			return nil, fmt.Errorf("failed to get listing: %w", err)
		}
		return nil, fmt.Errorf("listing %s: %w", key, models.ErrNotFound)
	}
	defer res.Body.Close()

	var result struct {
		Found  bool            `json:"found"`
		Source listingDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Found {
		return nil, fmt.Errorf("listing %s: %w", key, models.ErrNotFound)
	}

	l := result.Source.CanonicalListing
	return &l, nil
}

// GetListings возвращает сохраненные объявления по ключам через _mget.
func (es *ElasticsearchStorage) GetListings(ctx context.Context, keys []string) (map[string]models.CanonicalListing, error) {
	out := make(map[string]models.CanonicalListing, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	body, err := json.Marshal(map[string]interface{}{"ids": keys})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ids: %w", err)
	}

	res, err := es.do(ctx, http.MethodPost, fmt.Sprintf("/%s/_mget", es.index), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	defer res.Body.Close()

	var result struct {
		Docs []struct {
			Found  bool            `json:"found"`
			Source listingDocument `json:"_source"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, d := range result.Docs {
		if d.Found {
			out[d.Source.ListingKey] = d.Source.CanonicalListing
		}
	}
	return out, nil
}

// Search исполняет Criteria и возвращает страницу, общее число совпадений и
// значения сортировки последнего документа для продолжения через search_after.
func (es *ElasticsearchStorage) Search(ctx context.Context, c query.Criteria, page query.Page) (query.Hits, error) {
	body, err := json.Marshal(buildSearchQuery(c, page))
	if err != nil {
		return query.Hits{}, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := es.do(ctx, http.MethodPost, fmt.Sprintf("/%s/_search", es.index), "application/json", bytes.NewReader(body))
	if err != nil {
		return query.Hits{}, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	var result struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source listingDocument `json:"_source"`
				Sort   []any           `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	// Значения сортировки long (в том числе подстановки для пустых полей)
	// не должны проходить через float64.
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return query.Hits{}, fmt.Errorf("failed to decode response: %w", err)
	}

	hits := query.Hits{
		Items: make([]models.CanonicalListing, 0, len(result.Hits.Hits)),
		Total: result.Hits.Total.Value,
	}
	for _, hit := range result.Hits.Hits {
		hits.Items = append(hits.Items, hit.Source.CanonicalListing)
	}
	if n := len(result.Hits.Hits); n > 0 {
		hits.Last = result.Hits.Hits[n-1].Sort
	}

	return hits, nil
}

// do выполняет прямой HTTP запрос. При статусе >= 400 возвращает ответ вместе с ошибкой,
// тело ответа к этому моменту уже закрыто.
func (es *ElasticsearchStorage) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, es.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := es.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return res, fmt.Errorf("status %d, body: %s", res.StatusCode, string(b))
	}

	return res, nil
}

// buildSearchQuery переводит Criteria в bool-запрос с секцией filter.
// При заданном page.After вместо from используется search_after, что снимает
// ограничение index.max_result_window на глубину выдачи.
func buildSearchQuery(c query.Criteria, page query.Page) map[string]interface{} {
	filters := make([]map[string]interface{}, 0, len(c.Predicates))
	for _, p := range c.Predicates {
		if clause := predicateClause(p); clause != nil {
			filters = append(filters, clause)
		}
	}

	sortClauses := make([]map[string]interface{}, 0, len(c.Sort))
	for _, k := range c.Sort {
		order := "asc"
		if k.Desc {
			order = "desc"
		}
		sortClauses = append(sortClauses, map[string]interface{}{
			string(k.Field): map[string]interface{}{
				"order":   order,
				"missing": "_last",
			},
		})
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
		"sort":             sortClauses,
		"size":             page.Limit,
		"track_total_hits": true,
	}
	if len(page.After) > 0 {
		body["search_after"] = page.After
	} else {
		body["from"] = page.Offset
	}
	return body
}

func predicateClause(p query.Predicate) map[string]interface{} {
	switch p := p.(type) {
	case query.Term:
		if s, ok := p.Value.(string); ok {
			return map[string]interface{}{
				"term": map[string]interface{}{
					string(p.Field): map[string]interface{}{
						"value":            s,
						"case_insensitive": true,
					},
				},
			}
		}
		return map[string]interface{}{
			"term": map[string]interface{}{string(p.Field): p.Value},
		}
	case query.Terms:
		return map[string]interface{}{
			"terms": map[string]interface{}{string(p.Field): p.Values},
		}
	case query.Range:
		bounds := map[string]interface{}{}
		if p.Min != nil {
			key := "gte"
			if p.ExclusiveMin {
				key = "gt"
			}
			bounds[key] = *p.Min
		}
		if p.Max != nil {
			key := "lte"
			if p.ExclusiveMax {
				key = "lt"
			}
			bounds[key] = *p.Max
		}
		clause := map[string]interface{}{
			"range": map[string]interface{}{string(p.Field): bounds},
		}
		if !p.AllowMissing {
			return clause
		}
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					clause,
					missingClause(p.Field),
				},
				"minimum_should_match": 1,
			},
		}
	case query.TimeRange:
		bounds := map[string]interface{}{}
		if p.From != nil {
			bounds["gte"] = p.From.UTC().Format(time.RFC3339)
		}
		if p.To != nil {
			bounds["lte"] = p.To.UTC().Format(time.RFC3339)
		}
		return map[string]interface{}{
			"range": map[string]interface{}{string(p.Field): bounds},
		}
	case query.BoundingBox:
		return map[string]interface{}{
			"geo_bounding_box": map[string]interface{}{
				"point": map[string]interface{}{
					"top_left":     map[string]float64{"lat": p.Bounds.North, "lon": p.Bounds.West},
					"bottom_right": map[string]float64{"lat": p.Bounds.South, "lon": p.Bounds.East},
				},
			},
		}
	case query.Exists:
		return map[string]interface{}{
			"exists": map[string]interface{}{"field": string(p.Field)},
		}
	case query.Missing:
		return missingClause(p.Field)
	case query.AnyOf:
		should := make([]map[string]interface{}, 0, len(p.Predicates))
		for _, inner := range p.Predicates {
			if clause := predicateClause(inner); clause != nil {
				should = append(should, clause)
			}
		}
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		}
	}
	return nil
}

func missingClause(f query.Field) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must_not": map[string]interface{}{
				"exists": map[string]interface{}{"field": string(f)},
			},
		},
	}
}
