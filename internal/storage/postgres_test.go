package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// skipIfNoDocker пропускает тест, если Docker недоступен.
func skipIfNoDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping test: short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostgres поднимает PostgreSQL в контейнере и применяет миграцию справочника.
func startPostgres(t *testing.T) string {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "listings",
				"POSTGRES_PASSWORD": "listings",
				"POSTGRES_DB":       "listings",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=listings password=listings dbname=listings sslmode=disable",
		host, port.Port())

	ddl, err := os.ReadFile("../../migrations/001_reference_tables.sql")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx, string(ddl))
	require.NoError(t, err)

	return dsn
}

func referenceFixture() ([]models.LocationEntity, []models.StreetSegment) {
	locations := []models.LocationEntity{
		{
			ID: "palm-desert", Name: "Palm Desert", Type: models.LocationCity,
			Aliases:      []string{"PD", "Palm Dsrt"},
			Coordinates:  models.GeoPoint{Lat: 33.7222, Lon: -116.3745},
			Bounds:       models.Bounds{North: 33.80, South: 33.68, East: -116.30, West: -116.45},
			ListingCount: 1200,
		},
		{
			ID: "palm-desert-cc", Name: "Palm Desert Country Club", Type: models.LocationSubdivision,
			City: "Palm Desert", ListingCount: 140,
		},
	}
	streets := []models.StreetSegment{
		{
			CityID: "palm-desert", StreetName: "Highway 111", Direction: models.StreetEastWest, Coordinate: 33.723,
			Bounds: &models.Bounds{North: 33.75, South: 33.70, East: -116.33, West: -116.42},
		},
		{CityID: "palm-desert", StreetName: "Cook Street", Direction: models.StreetNorthSouth, Coordinate: -116.355},
	}
	return locations, streets
}

func TestPostgresStorage_ReferenceRoundTrip(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	ps, err := NewPostgresStorage(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	locations, streets := referenceFixture()
	require.NoError(t, ps.SaveReference(ctx, locations, streets))

	gotLocations, err := ps.LoadLocations(ctx)
	require.NoError(t, err)
	require.Len(t, gotLocations, 2)

	pd := gotLocations[0]
	assert.Equal(t, "palm-desert", pd.ID)
	assert.Equal(t, models.LocationCity, pd.Type)
	assert.Equal(t, []string{"PD", "Palm Dsrt"}, pd.Aliases)
	assert.Equal(t, locations[0].Bounds, pd.Bounds)
	assert.InDelta(t, 33.7222, pd.Coordinates.Lat, 1e-9)
	assert.Equal(t, 1200, pd.ListingCount)
	assert.Empty(t, pd.City)

	cc := gotLocations[1]
	assert.Equal(t, "Palm Desert", cc.City)
	assert.Empty(t, cc.Aliases)
	assert.True(t, cc.Bounds.IsZero())

	gotStreets, err := ps.LoadStreets(ctx)
	require.NoError(t, err)
	require.Len(t, gotStreets, 2)
	assert.Equal(t, "Cook Street", gotStreets[0].StreetName)
	assert.Equal(t, models.StreetNorthSouth, gotStreets[0].Direction)
	assert.Nil(t, gotStreets[0].Bounds)
	assert.Equal(t, "Highway 111", gotStreets[1].StreetName)
	assert.InDelta(t, 33.723, gotStreets[1].Coordinate, 1e-9)
	require.NotNil(t, gotStreets[1].Bounds)
	assert.Equal(t, *streets[0].Bounds, *gotStreets[1].Bounds)
}

func TestPostgresStorage_SaveReferenceIsIdempotent(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	ps, err := NewPostgresStorage(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	locations, streets := referenceFixture()
	require.NoError(t, ps.SaveReference(ctx, locations, streets))

	locations[0].ListingCount = 1300
	streets[1].Coordinate = -116.36
	require.NoError(t, ps.SaveReference(ctx, locations, streets))

	gotLocations, err := ps.LoadLocations(ctx)
	require.NoError(t, err)
	require.Len(t, gotLocations, 2)
	assert.Equal(t, 1300, gotLocations[0].ListingCount)

	gotStreets, err := ps.LoadStreets(ctx)
	require.NoError(t, err)
	require.Len(t, gotStreets, 2)
	assert.InDelta(t, -116.36, gotStreets[0].Coordinate, 1e-9)
}

func TestPostgresStorage_StreetNeedsKnownCity(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	ps, err := NewPostgresStorage(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	err = ps.SaveReference(ctx, nil, []models.StreetSegment{
		{CityID: "atlantis", StreetName: "Main Street", Direction: models.StreetEastWest, Coordinate: 1},
	})
	require.Error(t, err)

	gotStreets, err := ps.LoadStreets(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotStreets, "failed transaction must not leave partial rows")
}
