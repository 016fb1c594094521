// Package location разрешает названия локаций и улиц по справочнику.
// Справочник строится один раз при старте и далее только читается.
package location

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// Index неизменяемый справочник локаций и улиц.
type Index struct {
	entities []models.LocationEntity
	byName   map[string][]int
	byAlias  map[string][]int
	compact  []string
	streets  []models.StreetSegment
}

// NewIndex строит справочник. Возвращает ошибку при пустом имени, неизвестном типе
// или повторе пары (нормализованное имя, тип).
func NewIndex(entities []models.LocationEntity, streets []models.StreetSegment) (*Index, error) {
	idx := &Index{
		entities: make([]models.LocationEntity, 0, len(entities)),
		byName:   make(map[string][]int, len(entities)),
		byAlias:  make(map[string][]int),
		streets:  make([]models.StreetSegment, 0, len(streets)),
	}

	seen := make(map[string]string, len(entities))
	for _, e := range entities {
		e.NormalizedName = NormalizeName(e.Name)
		if e.NormalizedName == "" {
			return nil, fmt.Errorf("location %q has empty name", e.ID)
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("location %q has unknown type %q", e.Name, e.Type)
		}

		key := string(e.Type) + "|" + e.NormalizedName
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate %s %q (ids %s and %s)", e.Type, e.NormalizedName, prev, e.ID)
		}
		seen[key] = e.ID

		e.Aliases = slices.Clone(e.Aliases)
		pos := len(idx.entities)
		idx.entities = append(idx.entities, e)
		idx.byName[e.NormalizedName] = append(idx.byName[e.NormalizedName], pos)

		compact := compactName(e.NormalizedName)
		if compact == "" {
			compact = strings.ReplaceAll(e.NormalizedName, " ", "")
		}
		idx.compact = append(idx.compact, compact)

		for _, alias := range e.Aliases {
			a := NormalizeName(alias)
			if a == "" || a == e.NormalizedName {
				continue
			}
			idx.byAlias[a] = append(idx.byAlias[a], pos)
		}
	}

	for _, s := range streets {
		s.NormalizedName = NormalizeStreet(s.StreetName)
		if s.NormalizedName == "" {
			return nil, fmt.Errorf("street in city %q has empty name", s.CityID)
		}
		if s.Direction != models.StreetEastWest && s.Direction != models.StreetNorthSouth {
			return nil, fmt.Errorf("street %q has unknown direction %q", s.StreetName, s.Direction)
		}
		idx.streets = append(idx.streets, s)
	}

	return idx, nil
}

// Len число локаций в справочнике.
func (idx *Index) Len() int {
	return len(idx.entities)
}

// StreetCount число улиц в справочнике.
func (idx *Index) StreetCount() int {
	return len(idx.streets)
}

// Entity возвращает копию локации по ID.
func (idx *Index) Entity(id string) (models.LocationEntity, bool) {
	for _, e := range idx.entities {
		if e.ID == id {
			return cloneEntity(e), true
		}
	}
	return models.LocationEntity{}, false
}

func (idx *Index) collect(positions []int, scope models.LocationType) []models.LocationEntity {
	out := make([]models.LocationEntity, 0, len(positions))
	for _, p := range positions {
		if scope != "" && idx.entities[p].Type != scope {
			continue
		}
		out = append(out, cloneEntity(idx.entities[p]))
	}
	return out
}

// cloneEntity копирует запись вместе с псевдонимами, чтобы вызывающий код
// не мог изменить справочник.
func cloneEntity(e models.LocationEntity) models.LocationEntity {
	e.Aliases = slices.Clone(e.Aliases)
	return e
}

// rank упорядочивает кандидатов по числу объявлений, затем по имени и ID.
func rank(candidates []models.LocationEntity) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ListingCount != b.ListingCount {
			return a.ListingCount > b.ListingCount
		}
		if a.NormalizedName != b.NormalizedName {
			return a.NormalizedName < b.NormalizedName
		}
		return a.ID < b.ID
	})
}
