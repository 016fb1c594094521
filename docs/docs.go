// Package docs содержит OpenAPI-описание API для swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/akozadaev/go_es_listing_engine",
            "email": "akozadaev@inbox.ru"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Проверка работоспособности сервиса",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/listings/search": {
            "post": {
                "description": "Исполняет FilterSpec и возвращает страницу объявлений. Неоднозначная или ненайденная локация возвращается в поле resolution с пустой выдачей.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Поиск объявлений",
                "parameters": [{"description": "Спецификация фильтра", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FilterSpec"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Некорректный фильтр", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/listings/clusters": {
            "post": {
                "description": "Группирует совпадения фильтра в видимой области по тайлам заданного масштаба.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Кластеры для карты",
                "parameters": [{"description": "Фильтр, область и масштаб", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ClusterResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/listings/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Получить объявление",
                "parameters": [{"type": "string", "description": "Ключ объявления", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Объявление не найдено", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics/market": {
            "post": {
                "description": "Срок экспозиции, цена за фут, HOA, налог, итоги закрытых сделок и годовой тренд по выборке фильтра.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Рыночная статистика",
                "parameters": [{"description": "Фильтр выборки", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics/appreciation": {
            "post": {
                "description": "Сравнивает медианы закрытых сделок в двух непересекающихся окнах. Малые выборки помечаются insufficient_data.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Рост цен",
                "parameters": [{"description": "Фильтр и окна", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/locations/resolve": {
            "get": {
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Разрешить локацию",
                "parameters": [
                    {"type": "string", "description": "Название", "name": "q", "in": "query", "required": true},
                    {"type": "string", "description": "Тип: city, subdivision, county, region", "name": "type", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/streets/resolve": {
            "get": {
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Разрешить улицу",
                "parameters": [
                    {"type": "string", "description": "Название улицы", "name": "q", "in": "query", "required": true},
                    {"type": "string", "description": "Идентификатор города", "name": "city", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        }
    },
    "definitions": {
        "ClusterResponse": {
            "type": "object",
            "properties": {
                "nodes": {"type": "array", "items": {"type": "object", "properties": {
                    "listing": {"type": "object"},
                    "count": {"type": "integer"},
                    "centroid": {"type": "object", "properties": {"lat": {"type": "number"}, "lon": {"type": "number"}}},
                    "bounding_tile_id": {"type": "string"},
                    "bounds": {"type": "object", "properties": {"north": {"type": "number"}, "south": {"type": "number"}, "east": {"type": "number"}, "west": {"type": "number"}}}
                }}},
                "total_count": {"type": "integer"},
                "total_matches": {"type": "integer"},
                "truncated": {"type": "boolean"},
                "zoom": {"type": "integer"},
                "resolution": {"type": "object"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "FilterSpec": {
            "type": "object",
            "properties": {
                "min_price": {"type": "integer"},
                "max_price": {"type": "integer"},
                "min_beds": {"type": "integer"},
                "min_baths": {"type": "number"},
                "min_sqft": {"type": "number"},
                "max_sqft": {"type": "number"},
                "min_lot_sqft": {"type": "number"},
                "max_lot_sqft": {"type": "number"},
                "min_year_built": {"type": "integer"},
                "max_year_built": {"type": "integer"},
                "property_type": {"type": "string"},
                "property_sub_type": {"type": "string"},
                "pool": {"type": "boolean"},
                "spa": {"type": "boolean"},
                "gated": {"type": "boolean"},
                "view": {"type": "boolean"},
                "max_hoa": {"type": "number"},
                "statuses": {"type": "array", "items": {"type": "string"}},
                "closed_from": {"type": "string", "format": "date-time"},
                "closed_to": {"type": "string", "format": "date-time"},
                "city": {"type": "string"},
                "location": {"type": "object", "properties": {"name": {"type": "string"}, "type": {"type": "string"}}},
                "street": {"type": "object", "properties": {"name": {"type": "string"}, "side": {"type": "string"}, "city_id": {"type": "string"}}},
                "sort": {"type": "string"},
                "cursor": {"type": "string"},
                "page_size": {"type": "integer"},
                "with_photos": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Listing Search & Market Analytics API",
	Description:      "REST API поиска объявлений о недвижимости, кластеризации для карты и рыночной аналитики.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
