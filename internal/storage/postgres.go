package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// PostgresStorage предоставляет методы для работы со справочником локаций и улиц в PostgreSQL.
type PostgresStorage struct {
	db *sql.DB // Подключение к базе данных PostgreSQL
}

// NewPostgresStorage создает новый экземпляр PostgresStorage и устанавливает подключение к БД.
// DSN должен быть в формате: "host=... port=... user=... password=... dbname=... sslmode=..."
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

// Close закрывает подключение к базе данных PostgreSQL.
func (ps *PostgresStorage) Close() error {
	return ps.db.Close()
}

// LoadLocations возвращает все локации справочника, отсортированные по имени.
func (ps *PostgresStorage) LoadLocations(ctx context.Context) ([]models.LocationEntity, error) {
	query := `SELECT id, name, type, city, aliases, lat, lon, north, south, east, west, listing_count
		FROM locations ORDER BY name, type`

	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.LocationEntity
	for rows.Next() {
		var (
			e       models.LocationEntity
			city    sql.NullString
			aliases pq.StringArray
			north   sql.NullFloat64
			south   sql.NullFloat64
			east    sql.NullFloat64
			west    sql.NullFloat64
		)
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Type,
			&city,
			&aliases,
			&e.Coordinates.Lat,
			&e.Coordinates.Lon,
			&north,
			&south,
			&east,
			&west,
			&e.ListingCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		e.City = city.String
		e.Aliases = []string(aliases)
		if north.Valid && south.Valid && east.Valid && west.Valid {
			e.Bounds = models.Bounds{North: north.Float64, South: south.Float64, East: east.Float64, West: west.Float64}
		}
		locations = append(locations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return locations, nil
}

// LoadStreets возвращает все улицы справочника.
func (ps *PostgresStorage) LoadStreets(ctx context.Context) ([]models.StreetSegment, error) {
	query := `SELECT city_id, street_name, direction, coordinate, north, south, east, west
		FROM street_segments ORDER BY city_id, street_name`

	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query streets: %w", err)
	}
	defer rows.Close()

	var streets []models.StreetSegment
	for rows.Next() {
		var (
			s     models.StreetSegment
			north sql.NullFloat64
			south sql.NullFloat64
			east  sql.NullFloat64
			west  sql.NullFloat64
		)
		if err := rows.Scan(&s.CityID, &s.StreetName, &s.Direction, &s.Coordinate, &north, &south, &east, &west); err != nil {
			return nil, fmt.Errorf("failed to scan street: %w", err)
		}
		if north.Valid && south.Valid && east.Valid && west.Valid {
			s.Bounds = &models.Bounds{North: north.Float64, South: south.Float64, East: east.Float64, West: west.Float64}
		}
		streets = append(streets, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return streets, nil
}

// SaveReference записывает локации и улицы в одной транзакции (upsert по ключам).
func (ps *PostgresStorage) SaveReference(ctx context.Context, locations []models.LocationEntity, streets []models.StreetSegment) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	locStmt := `INSERT INTO locations (id, name, type, city, aliases, lat, lon, north, south, east, west, listing_count)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, type = EXCLUDED.type, city = EXCLUDED.city, aliases = EXCLUDED.aliases,
			lat = EXCLUDED.lat, lon = EXCLUDED.lon, north = EXCLUDED.north, south = EXCLUDED.south,
			east = EXCLUDED.east, west = EXCLUDED.west, listing_count = EXCLUDED.listing_count,
			updated_at = now()`

	for _, e := range locations {
		n, s, ea, w := nullBounds(&e.Bounds)
		// pq.Array(nil) дает NULL, а столбец aliases NOT NULL.
		aliases := e.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		if _, err := tx.ExecContext(ctx, locStmt,
			e.ID, e.Name, string(e.Type), e.City, pq.Array(aliases),
			e.Coordinates.Lat, e.Coordinates.Lon, n, s, ea, w, e.ListingCount,
		); err != nil {
			return fmt.Errorf("failed to upsert location %s: %w", e.ID, err)
		}
	}

	streetStmt := `INSERT INTO street_segments (city_id, street_name, direction, coordinate, north, south, east, west)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (city_id, street_name) DO UPDATE SET
			direction = EXCLUDED.direction, coordinate = EXCLUDED.coordinate,
			north = EXCLUDED.north, south = EXCLUDED.south, east = EXCLUDED.east, west = EXCLUDED.west`

	for _, st := range streets {
		n, s, ea, w := nullBounds(st.Bounds)
		if _, err := tx.ExecContext(ctx, streetStmt,
			st.CityID, st.StreetName, string(st.Direction), st.Coordinate, n, s, ea, w,
		); err != nil {
			return fmt.Errorf("failed to upsert street %s/%s: %w", st.CityID, st.StreetName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference data: %w", err)
	}
	return nil
}

// nullBounds переводит границы в NULL-столбцы; пустые границы хранятся как NULL.
func nullBounds(b *models.Bounds) (north, south, east, west sql.NullFloat64) {
	if b == nil || b.IsZero() {
		return
	}
	return sql.NullFloat64{Float64: b.North, Valid: true},
		sql.NullFloat64{Float64: b.South, Valid: true},
		sql.NullFloat64{Float64: b.East, Valid: true},
		sql.NullFloat64{Float64: b.West, Valid: true}
}
