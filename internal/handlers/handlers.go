// Package handlers содержит HTTP обработчики REST API поиска и аналитики объявлений.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/akozadaev/go_es_listing_engine/internal/engine"
	"github.com/akozadaev/go_es_listing_engine/internal/logging"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// maxBodyBytes ограничение размера тела запроса.
const maxBodyBytes = 1 << 20

// Handlers содержит зависимости для обработки HTTP запросов.
type Handlers struct {
	service *engine.Service
	now     func() time.Time
}

// NewHandlers создает новый экземпляр Handlers.
func NewHandlers(service *engine.Service) *Handlers {
	return &Handlers{service: service, now: time.Now}
}

// ErrorResponse тело ответа с ошибкой. Fields заполняется для некорректного фильтра.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Register регистрирует маршруты API на роутере.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/listings/search", h.SearchListings).Methods(http.MethodPost)
	r.HandleFunc("/listings/clusters", h.Clusters).Methods(http.MethodPost)
	r.HandleFunc("/listings/{key}", h.GetListing).Methods(http.MethodGet)
	r.HandleFunc("/analytics/market", h.MarketStats).Methods(http.MethodPost)
	r.HandleFunc("/analytics/appreciation", h.Appreciation).Methods(http.MethodPost)
	r.HandleFunc("/locations/resolve", h.ResolveLocation).Methods(http.MethodGet)
	r.HandleFunc("/streets/resolve", h.ResolveStreet).Methods(http.MethodGet)
}

// SearchListings обрабатывает POST запрос поиска объявлений по FilterSpec.
// Эндпоинт: POST /listings/search
//
// @Summary      Поиск объявлений
// @Description  Исполняет FilterSpec и возвращает страницу объявлений. Неоднозначная или ненайденная локация возвращается в поле resolution с пустой выдачей.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        request  body      engine.SearchRequest  true  "Спецификация фильтра"
// @Success      200      {object}  engine.SearchResponse
// @Failure      400      {object}  ErrorResponse  "Некорректный фильтр"
// @Failure      500      {object}  ErrorResponse  "Внутренняя ошибка сервера"
// @Router       /listings/search [post]
func (h *Handlers) SearchListings(w http.ResponseWriter, r *http.Request) {
	var req engine.SearchRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "search listings")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Clusters обрабатывает POST запрос узлов карты.
// Эндпоинт: POST /listings/clusters
//
// @Summary      Кластеры для карты
// @Description  Группирует совпадения фильтра в видимой области по тайлам заданного масштаба.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        request  body      models.ClusterRequest  true  "Фильтр, область и масштаб"
// @Success      200      {object}  engine.ClusterResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /listings/clusters [post]
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	var req models.ClusterRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.Clusters(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "cluster listings")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// GetListing обрабатывает GET запрос объявления по ключу.
// Эндпоинт: GET /listings/{key}
//
// @Summary      Получить объявление
// @Tags         listings
// @Produce      json
// @Param        key  path      string  true  "Ключ объявления"
// @Success      200  {object}  models.CanonicalListing
// @Failure      404  {object}  ErrorResponse  "Объявление не найдено"
// @Failure      500  {object}  ErrorResponse
// @Router       /listings/{key} [get]
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "listing key is required"})
		return
	}

	listing, err := h.service.Get(r.Context(), key)
	if err != nil {
		h.fail(w, r, err, "get listing")
		return
	}
	writeJSON(w, r, http.StatusOK, listing)
}

// MarketStats обрабатывает POST запрос рыночной статистики.
// Эндпоинт: POST /analytics/market
//
// @Summary      Рыночная статистика
// @Description  Срок экспозиции, цена за фут, HOA, налог, итоги закрытых сделок и годовой тренд по выборке фильтра.
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        request  body      engine.MarketRequest  true  "Фильтр выборки"
// @Success      200      {object}  engine.MarketReport
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /analytics/market [post]
func (h *Handlers) MarketStats(w http.ResponseWriter, r *http.Request) {
	var req engine.MarketRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.Market(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "compute market stats")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Appreciation обрабатывает POST запрос роста цен между двумя окнами.
// Без окон сравниваются два последних полных года.
// Эндпоинт: POST /analytics/appreciation
//
// @Summary      Рост цен
// @Description  Сравнивает медианы закрытых сделок в двух непересекающихся окнах. Малые выборки помечаются insufficient_data.
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        request  body      engine.AppreciationRequest  true  "Фильтр и окна"
// @Success      200      {object}  engine.AppreciationReport
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /analytics/appreciation [post]
func (h *Handlers) Appreciation(w http.ResponseWriter, r *http.Request) {
	var req engine.AppreciationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Baseline.From.IsZero() && req.Baseline.To.IsZero() && req.Comparison.From.IsZero() && req.Comparison.To.IsZero() {
		req.Baseline, req.Comparison = engine.DefaultWindows(h.now())
	}

	resp, err := h.service.Appreciation(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "compute appreciation")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ResolveLocation обрабатывает GET запрос разрешения названия локации.
// Эндпоинт: GET /locations/resolve?q=&type=
//
// @Summary      Разрешить локацию
// @Tags         locations
// @Produce      json
// @Param        q     query     string  true   "Название"
// @Param        type  query     string  false  "Тип: city, subdivision, county, region"
// @Success      200   {object}  models.LocationResolution
// @Failure      400   {object}  ErrorResponse
// @Router       /locations/resolve [get]
func (h *Handlers) ResolveLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	scope := models.LocationType(r.URL.Query().Get("type"))
	if q == "" {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "q is required"})
		return
	}
	if scope != "" && !scope.Valid() {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "unknown location type"})
		return
	}

	writeJSON(w, r, http.StatusOK, h.service.ResolveLocation(q, scope))
}

// ResolveStreet обрабатывает GET запрос разрешения названия улицы.
// Эндпоинт: GET /streets/resolve?city=&q=
//
// @Summary      Разрешить улицу
// @Tags         locations
// @Produce      json
// @Param        q     query     string  true   "Название улицы"
// @Param        city  query     string  false  "Идентификатор города"
// @Success      200   {object}  models.StreetResolution
// @Failure      400   {object}  ErrorResponse
// @Router       /streets/resolve [get]
func (h *Handlers) ResolveStreet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "q is required"})
		return
	}

	writeJSON(w, r, http.StatusOK, h.service.ResolveStreet(q, r.URL.Query().Get("city")))
}

// HealthCheck обрабатывает GET запрос на проверку работоспособности сервиса.
// Эндпоинт: GET /health
//
// @Summary      Проверка работоспособности сервиса
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// fail переводит ошибку сервиса в HTTP-ответ. Только некорректный фильтр дает 400.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	var specErr *models.FilterSpecError
	switch {
	case errors.As(err, &specErr):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid filter spec", Fields: specErr.Fields})
	case errors.Is(err, models.ErrInvalidFilterSpec):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "listing not found"})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("operation", op).Msg("request failed")
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
