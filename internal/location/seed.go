package location

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// Seed содержимое файла справочника.
type Seed struct {
	Locations []models.LocationEntity `yaml:"locations"`
	Streets   []seedStreet            `yaml:"streets"`
}

// seedStreet улица в формате файла: координата линии задается как широта
// (для улиц восток-запад) или долгота (для север-юг).
type seedStreet struct {
	CityID      string                 `yaml:"city_id"`
	StreetName  string                 `yaml:"street_name"`
	Direction   models.StreetDirection `yaml:"direction"`
	Coordinates struct {
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
	} `yaml:"coordinates"`
	Bounds *models.Bounds `yaml:"bounds"`
}

// ReadSeed разбирает YAML справочника.
func ReadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile читает справочник из файла.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return ReadSeed(f)
}

// StreetSegments переводит улицы файла в модель.
func (s *Seed) StreetSegments() ([]models.StreetSegment, error) {
	out := make([]models.StreetSegment, 0, len(s.Streets))
	for _, st := range s.Streets {
		seg := models.StreetSegment{
			CityID:     st.CityID,
			StreetName: st.StreetName,
			Direction:  st.Direction,
			Bounds:     st.Bounds,
		}

		switch st.Direction {
		case models.StreetEastWest:
			if st.Coordinates.Latitude == nil {
				return nil, fmt.Errorf("street %q: east-west street needs latitude", st.StreetName)
			}
			seg.Coordinate = *st.Coordinates.Latitude
		case models.StreetNorthSouth:
			if st.Coordinates.Longitude == nil {
				return nil, fmt.Errorf("street %q: north-south street needs longitude", st.StreetName)
			}
			seg.Coordinate = *st.Coordinates.Longitude
		default:
			return nil, fmt.Errorf("street %q has unknown direction %q", st.StreetName, st.Direction)
		}

		out = append(out, seg)
	}
	return out, nil
}

// Index строит справочник из файла.
func (s *Seed) Index() (*Index, error) {
	streets, err := s.StreetSegments()
	if err != nil {
		return nil, err
	}
	return NewIndex(s.Locations, streets)
}
